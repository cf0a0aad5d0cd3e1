package services

import (
	"context"
	"testing"

	"github.com/rapidaid/rapidaid/internal/models"
	"github.com/rapidaid/rapidaid/internal/notify"
	"github.com/rapidaid/rapidaid/internal/testutil"
	"github.com/rapidaid/rapidaid/internal/types"
)

func TestReportCreatesIncidentWithTimeline(t *testing.T) {
	f := newFixture(t)
	svc := NewIncidentService(f.deps)
	citizen := testutil.CreateUser(t, f.db, types.RoleCitizen)

	incident, err := svc.Report(context.Background(), citizen.Principal(), ReportIncidentInput{
		Title:       "Landslide near school",
		Description: "Road blocked",
		Severity:    types.SeverityCritical,
		Metadata:    map[string]any{"source": "sms"},
	})
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	if incident.Status != types.IncidentReported {
		t.Fatalf("status = %s, want reported", incident.Status)
	}
	if incident.IncidentType != types.IncidentOther {
		t.Fatalf("incident type = %s, want other", incident.IncidentType)
	}
	if incident.ReporterID == nil || *incident.ReporterID != citizen.ID {
		t.Fatalf("reporter = %v, want %d", incident.ReporterID, citizen.ID)
	}

	entries, err := svc.Timeline(context.Background(), incident.ID)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Reported" {
		t.Fatalf("timeline = %+v, want one Reported entry", entries)
	}

	if len(f.notifier.Announced) != 1 || f.notifier.Announced[0].Event != notify.EventIncidentReported {
		t.Fatalf("announcements = %+v", f.notifier.Announced)
	}
	if n := count(t, f.db, &models.LedgerEntry{}, "module = ? AND reference_id = ?", "incident", incident.ID); n != 1 {
		t.Fatalf("ledger entries = %d, want 1", n)
	}
}

func TestReportRequiresCitizen(t *testing.T) {
	f := newFixture(t)
	svc := NewIncidentService(f.deps)

	for _, role := range []types.Role{types.RoleAdmin, types.RoleRescueTeam, types.RoleAssessmentTeam, types.RoleDonor} {
		t.Run(string(role), func(t *testing.T) {
			user := testutil.CreateUser(t, f.db, role)
			_, err := svc.Report(context.Background(), user.Principal(), ReportIncidentInput{Title: "x", Description: "y"})
			expectKind(t, err, ErrPermission)
		})
	}

	if n := count(t, f.db, &models.Incident{}, ""); n != 0 {
		t.Fatalf("incidents = %d, want 0", n)
	}
}

func TestVerifyIncident(t *testing.T) {
	f := newFixture(t)
	svc := NewIncidentService(f.deps)
	svc.now = clock(epoch)

	citizen := testutil.CreateUser(t, f.db, types.RoleCitizen)
	admin := testutil.CreateUser(t, f.db, types.RoleAdmin)
	ctx := context.Background()

	incident, err := svc.Report(ctx, citizen.Principal(), ReportIncidentInput{Title: "Fire", Description: "Market fire", IncidentType: types.IncidentFire})
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	verified, err := svc.Transition(ctx, admin.Principal(), incident.ID, types.IncidentVerified, "confirmed by phone")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if verified.Status != types.IncidentVerified {
		t.Fatalf("status = %s, want verified", verified.Status)
	}
	if verified.ApprovedAt == nil || verified.ApprovedByID == nil || *verified.ApprovedByID != admin.ID {
		t.Fatalf("approval not recorded: %+v", verified)
	}

	entries, err := svc.Timeline(ctx, incident.ID)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(entries) != 2 || entries[1].Title != "Verified" {
		t.Fatalf("timeline = %+v, want Reported then Verified", entries)
	}

	sent := f.notifier.DirectFor(notify.EventIncidentVerified)
	if len(sent) != 1 {
		t.Fatalf("verification notifications = %d, want 1", len(sent))
	}
	if sent[0].To != citizen.Email || sent[0].UserID != citizen.ID {
		t.Fatalf("notification sent to %q (user %d), want %q", sent[0].To, sent[0].UserID, citizen.Email)
	}
	if f.publisher.Count(incident.ID) < 2 {
		t.Fatalf("live events = %d, want at least 2", f.publisher.Count(incident.ID))
	}
}

func TestReverifyIsNoOp(t *testing.T) {
	f := newFixture(t)
	svc := NewIncidentService(f.deps)
	svc.now = clock(epoch)

	citizen := testutil.CreateUser(t, f.db, types.RoleCitizen)
	admin := testutil.CreateUser(t, f.db, types.RoleAdmin)
	incident := testutil.CreateIncident(t, f.db, citizen, types.IncidentReported)
	ctx := context.Background()

	if _, err := svc.Transition(ctx, admin.Principal(), incident.ID, types.IncidentVerified, ""); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	first, err := svc.Get(ctx, incident.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	other := testutil.CreateUser(t, f.db, types.RoleAdmin)
	if _, err := svc.Transition(ctx, other.Principal(), incident.ID, types.IncidentVerified, ""); err != nil {
		t.Fatalf("second verify: %v", err)
	}
	second, err := svc.Get(ctx, incident.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if !first.ApprovedAt.Equal(*second.ApprovedAt) {
		t.Fatalf("approved_at moved from %v to %v", first.ApprovedAt, second.ApprovedAt)
	}
	if *second.ApprovedByID != admin.ID {
		t.Fatalf("approver = %d, want %d", *second.ApprovedByID, admin.ID)
	}
	if n := len(f.notifier.DirectFor(notify.EventIncidentVerified)); n != 1 {
		t.Fatalf("verification notifications = %d, want 1", n)
	}
	if n := count(t, f.db, &models.IncidentTimeline{}, "incident_id = ?", incident.ID); n != 1 {
		t.Fatalf("timeline entries = %d, want 1", n)
	}
}

func TestApprovedAtSurvivesLifecycle(t *testing.T) {
	f := newFixture(t)
	svc := NewIncidentService(f.deps)
	svc.now = clock(epoch)

	admin := testutil.CreateUser(t, f.db, types.RoleAdmin)
	incident := testutil.CreateIncident(t, f.db, nil, types.IncidentReported)
	ctx := context.Background()

	for _, target := range []types.IncidentStatus{types.IncidentVerified, types.IncidentInRescue, types.IncidentResolved} {
		if _, err := svc.Transition(ctx, admin.Principal(), incident.ID, target, ""); err != nil {
			t.Fatalf("transition to %s: %v", target, err)
		}
	}

	final, err := svc.Get(ctx, incident.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if final.Status != types.IncidentResolved {
		t.Fatalf("status = %s, want resolved", final.Status)
	}
	if final.ApprovedAt == nil || !final.ApprovedAt.Equal(epoch) {
		t.Fatalf("approved_at = %v, want %v", final.ApprovedAt, epoch)
	}
	// No reporter, so nobody to tell.
	if n := len(f.notifier.Direct); n != 0 {
		t.Fatalf("direct notifications = %d, want 0", n)
	}
	if n := count(t, f.db, &models.IncidentTimeline{}, "incident_id = ?", incident.ID); n != 3 {
		t.Fatalf("timeline entries = %d, want 3", n)
	}
}

func TestTerminalStatesRejectWrites(t *testing.T) {
	targets := []types.IncidentStatus{
		types.IncidentReported,
		types.IncidentVerified,
		types.IncidentRejected,
		types.IncidentInRescue,
		types.IncidentResolved,
		"archived",
	}

	for _, terminal := range []types.IncidentStatus{types.IncidentResolved, types.IncidentRejected} {
		for _, target := range targets {
			// Unknown targets fail validation before the rejected check.
			if _, known := timelineTitles[target]; !known && terminal == types.IncidentRejected {
				continue
			}
			t.Run(string(terminal)+"_to_"+string(target), func(t *testing.T) {
				f := newFixture(t)
				svc := NewIncidentService(f.deps)
				admin := testutil.CreateUser(t, f.db, types.RoleAdmin)
				incident := testutil.CreateIncident(t, f.db, nil, terminal)

				_, err := svc.Transition(context.Background(), admin.Principal(), incident.ID, target, "")
				expectKind(t, err, ErrTerminalState)

				got, err := svc.Get(context.Background(), incident.ID)
				if err != nil {
					t.Fatalf("get: %v", err)
				}
				if got.Status != terminal {
					t.Fatalf("status = %s, want %s", got.Status, terminal)
				}
				if n := count(t, f.db, &models.IncidentTimeline{}, "incident_id = ?", incident.ID); n != 0 {
					t.Fatalf("timeline entries = %d, want 0", n)
				}
			})
		}
	}
}

func TestInvalidTransitions(t *testing.T) {
	tests := []struct {
		from types.IncidentStatus
		to   types.IncidentStatus
	}{
		{types.IncidentReported, types.IncidentInRescue},
		{types.IncidentReported, types.IncidentResolved},
		{types.IncidentReported, types.IncidentReported + "x"},
		{types.IncidentVerified, types.IncidentReported},
		{types.IncidentVerified, types.IncidentRejected},
		{types.IncidentInRescue, types.IncidentVerified},
		{types.IncidentInRescue, types.IncidentRejected},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			f := newFixture(t)
			svc := NewIncidentService(f.deps)
			admin := testutil.CreateUser(t, f.db, types.RoleAdmin)
			incident := testutil.CreateIncident(t, f.db, nil, tt.from)

			_, err := svc.Transition(context.Background(), admin.Principal(), incident.ID, tt.to, "")
			expectKind(t, err, ErrInvalidTransition)

			got, err := svc.Get(context.Background(), incident.ID)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Status != tt.from {
				t.Fatalf("status = %s, want %s", got.Status, tt.from)
			}
		})
	}
}

func TestTransitionRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	svc := NewIncidentService(f.deps)
	citizen := testutil.CreateUser(t, f.db, types.RoleCitizen)
	incident := testutil.CreateIncident(t, f.db, citizen, types.IncidentReported)

	_, err := svc.Transition(context.Background(), citizen.Principal(), incident.ID, types.IncidentVerified, "")
	expectKind(t, err, ErrPermission)

	if len(f.notifier.Direct) != 0 {
		t.Fatalf("unexpected notifications: %+v", f.notifier.Direct)
	}
}

func TestTransitionMissingIncident(t *testing.T) {
	f := newFixture(t)
	svc := NewIncidentService(f.deps)
	admin := testutil.CreateUser(t, f.db, types.RoleAdmin)

	_, err := svc.Transition(context.Background(), admin.Principal(), 999, types.IncidentVerified, "")
	expectKind(t, err, ErrNotFound)
}

func TestRejectDoesNotNotifyReporter(t *testing.T) {
	f := newFixture(t)
	svc := NewIncidentService(f.deps)
	citizen := testutil.CreateUser(t, f.db, types.RoleCitizen)
	admin := testutil.CreateUser(t, f.db, types.RoleAdmin)
	incident := testutil.CreateIncident(t, f.db, citizen, types.IncidentReported)

	rejected, err := svc.Transition(context.Background(), admin.Principal(), incident.ID, types.IncidentRejected, "duplicate report")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.ApprovedAt != nil {
		t.Fatalf("approved_at set on rejection")
	}
	if len(f.notifier.Direct) != 0 {
		t.Fatalf("direct notifications = %d, want 0", len(f.notifier.Direct))
	}
}

func TestListHidesRejectedFromNonAdmins(t *testing.T) {
	f := newFixture(t)
	svc := NewIncidentService(f.deps)
	citizen := testutil.CreateUser(t, f.db, types.RoleCitizen)
	admin := testutil.CreateUser(t, f.db, types.RoleAdmin)

	testutil.CreateIncident(t, f.db, citizen, types.IncidentReported)
	testutil.CreateIncident(t, f.db, citizen, types.IncidentRejected)
	newest := testutil.CreateIncident(t, f.db, citizen, types.IncidentVerified)
	ctx := context.Background()

	public, err := svc.List(ctx, citizen.Principal(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(public) != 2 {
		t.Fatalf("citizen sees %d incidents, want 2", len(public))
	}
	if public[0].ID != newest.ID {
		t.Fatalf("first incident = %d, want newest %d", public[0].ID, newest.ID)
	}

	rejected, err := svc.List(ctx, citizen.Principal(), types.IncidentRejected)
	if err != nil {
		t.Fatalf("list rejected: %v", err)
	}
	if len(rejected) != 0 {
		t.Fatalf("citizen sees %d rejected incidents", len(rejected))
	}

	all, err := svc.List(ctx, admin.Principal(), "")
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("admin sees %d incidents, want 3", len(all))
	}
}
