package services

import (
	"context"
	"testing"

	"github.com/rapidaid/rapidaid/internal/models"
	"github.com/rapidaid/rapidaid/internal/testutil"
	"github.com/rapidaid/rapidaid/internal/types"
)

func newTeam(t *testing.T, svc *RescueService, admin *models.User, name string) *models.RescueTeam {
	t.Helper()

	team, err := svc.CreateTeam(context.Background(), admin.Principal(), CreateTeamInput{Name: name, Organization: "Red Cross"})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	return team
}

func TestAssignRequiresVerifiedIncident(t *testing.T) {
	for _, status := range []types.IncidentStatus{
		types.IncidentReported,
		types.IncidentRejected,
		types.IncidentInRescue,
		types.IncidentResolved,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			svc := NewRescueService(f.deps)
			admin := testutil.CreateUser(t, f.db, types.RoleAdmin)
			team := newTeam(t, svc, admin, "Alpha")
			incident := testutil.CreateIncident(t, f.db, nil, status)

			_, err := svc.Assign(context.Background(), admin.Principal(), incident.ID, team.ID, "")
			expectKind(t, err, ErrPrecondition)

			if n := count(t, f.db, &models.RescueAssignment{}, ""); n != 0 {
				t.Fatalf("rescue assignments = %d, want 0", n)
			}
		})
	}
}

func TestAssignTeam(t *testing.T) {
	f := newFixture(t)
	svc := NewRescueService(f.deps)
	admin := testutil.CreateUser(t, f.db, types.RoleAdmin)
	team := newTeam(t, svc, admin, "Alpha")
	incident := testutil.CreateIncident(t, f.db, nil, types.IncidentVerified)
	ctx := context.Background()

	assignment, err := svc.Assign(ctx, admin.Principal(), incident.ID, team.ID, "bring pumps")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assignment.Status != types.RescueAssigned || assignment.Team == nil || assignment.Team.Name != "Alpha" {
		t.Fatalf("assignment = %+v", assignment)
	}
	if f.publisher.Count(incident.ID) != 1 {
		t.Fatalf("incident change events = %d, want 1", f.publisher.Count(incident.ID))
	}

	_, err = svc.Assign(ctx, admin.Principal(), incident.ID, team.ID, "")
	expectKind(t, err, ErrConflict)

	_, err = svc.Assign(ctx, admin.Principal(), incident.ID, 999, "")
	expectKind(t, err, ErrNotFound)

	citizen := testutil.CreateUser(t, f.db, types.RoleCitizen)
	_, err = svc.Assign(ctx, citizen.Principal(), incident.ID, team.ID, "")
	expectKind(t, err, ErrPermission)

	listed, err := svc.ListAssignments(ctx, incident.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != assignment.ID {
		t.Fatalf("listed = %+v", listed)
	}
}

func TestDuplicateTeamName(t *testing.T) {
	f := newFixture(t)
	svc := NewRescueService(f.deps)
	admin := testutil.CreateUser(t, f.db, types.RoleAdmin)
	newTeam(t, svc, admin, "Alpha")

	_, err := svc.CreateTeam(context.Background(), admin.Principal(), CreateTeamInput{Name: "Alpha"})
	expectKind(t, err, ErrConflict)

	citizen := testutil.CreateUser(t, f.db, types.RoleCitizen)
	_, err = svc.CreateTeam(context.Background(), citizen.Principal(), CreateTeamInput{Name: "Bravo"})
	expectKind(t, err, ErrPermission)
}

func TestRescueStatusByTeamMember(t *testing.T) {
	f := newFixture(t)
	svc := NewRescueService(f.deps)
	svc.now = clock(epoch)

	admin := testutil.CreateUser(t, f.db, types.RoleAdmin)
	rescuer := testutil.CreateUser(t, f.db, types.RoleRescueTeam)
	outsider := testutil.CreateUser(t, f.db, types.RoleRescueTeam)
	team := newTeam(t, svc, admin, "Alpha")
	incident := testutil.CreateIncident(t, f.db, nil, types.IncidentVerified)
	ctx := context.Background()

	if _, err := svc.AddMember(ctx, admin.Principal(), team.ID, rescuer.ID, "Leader"); err != nil {
		t.Fatalf("add member: %v", err)
	}
	_, err := svc.AddMember(ctx, admin.Principal(), team.ID, rescuer.ID, "Leader")
	expectKind(t, err, ErrConflict)

	assignment, err := svc.Assign(ctx, admin.Principal(), incident.ID, team.ID, "")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	_, err = svc.UpdateStatus(ctx, outsider.Principal(), assignment.ID, types.RescueActive, "")
	expectKind(t, err, ErrPermission)

	active, err := svc.UpdateStatus(ctx, rescuer.Principal(), assignment.ID, types.RescueActive, "on site")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if active.StartedAt == nil || active.CompletedAt != nil {
		t.Fatalf("after start: %+v", active)
	}
	started := *active.StartedAt

	done, err := svc.UpdateStatus(ctx, admin.Principal(), assignment.ID, types.RescueCompleted, "")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.CompletedAt == nil || !done.StartedAt.Equal(started) {
		t.Fatalf("after completion: %+v", done)
	}
	completed := *done.CompletedAt

	// Going back to active and finishing again keeps the first stamps.
	if _, err := svc.UpdateStatus(ctx, rescuer.Principal(), assignment.ID, types.RescueActive, ""); err != nil {
		t.Fatalf("restart: %v", err)
	}
	again, err := svc.UpdateStatus(ctx, rescuer.Principal(), assignment.ID, types.RescueCompleted, "")
	if err != nil {
		t.Fatalf("complete again: %v", err)
	}
	if !again.StartedAt.Equal(started) || !again.CompletedAt.Equal(completed) {
		t.Fatalf("stamps moved: started %v -> %v, completed %v -> %v",
			started, again.StartedAt, completed, again.CompletedAt)
	}

	_, err = svc.UpdateStatus(ctx, admin.Principal(), assignment.ID, "paused", "")
	expectKind(t, err, ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, admin.Principal(), 999, types.RescueActive, "")
	expectKind(t, err, ErrNotFound)
}

func TestListTeamsIncludesMembers(t *testing.T) {
	f := newFixture(t)
	svc := NewRescueService(f.deps)
	admin := testutil.CreateUser(t, f.db, types.RoleAdmin)
	rescuer := testutil.CreateUser(t, f.db, types.RoleRescueTeam)
	ctx := context.Background()

	bravo := newTeam(t, svc, admin, "Bravo")
	newTeam(t, svc, admin, "Alpha")
	if _, err := svc.AddMember(ctx, admin.Principal(), bravo.ID, rescuer.ID, "Medic"); err != nil {
		t.Fatalf("add member: %v", err)
	}

	teams, err := svc.ListTeams(ctx)
	if err != nil {
		t.Fatalf("list teams: %v", err)
	}
	if len(teams) != 2 || teams[0].Name != "Alpha" || teams[1].Name != "Bravo" {
		t.Fatalf("teams = %+v", teams)
	}
	if len(teams[1].Members) != 1 || teams[1].Members[0].Role != "Medic" {
		t.Fatalf("bravo members = %+v", teams[1].Members)
	}
}
