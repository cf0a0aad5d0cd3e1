package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rapidaid/rapidaid/internal/models"
	"github.com/rapidaid/rapidaid/internal/types"
	"gorm.io/gorm"
)

type CreateTeamInput struct {
	Name         string
	Organization string
	Contact      string
}

type RescueService struct {
	base
}

func NewRescueService(d Deps) *RescueService {
	return &RescueService{base: newBase(d)}
}

func (s *RescueService) CreateTeam(ctx context.Context, actor types.Principal, in CreateTeamInput) (*models.RescueTeam, error) {
	if !actor.IsAdmin() {
		return nil, permissionError("Only admins can create rescue teams")
	}

	team := models.RescueTeam{
		Name:         in.Name,
		Organization: in.Organization,
		Contact:      in.Contact,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			if isUniqueViolation(err) {
				return conflictError("A rescue team named %q already exists", in.Name)
			}
			return fmt.Errorf("create rescue team: %w", err)
		}

		return s.writeLedger(tx, ledgerRecord{
			Module:      "rescue_team",
			ReferenceID: team.ID,
			Action:      "created",
			ActorID:     actor.ID,
			New:         map[string]any{"name": team.Name},
		})
	})
	if err != nil {
		return nil, err
	}

	return &team, nil
}

func (s *RescueService) AddMember(ctx context.Context, actor types.Principal, teamID, userID uint, role string) (*models.RescueTeamMember, error) {
	if !actor.IsAdmin() {
		return nil, permissionError("Only admins can add team members")
	}

	member := models.RescueTeamMember{TeamID: teamID, UserID: userID, Role: role}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var team models.RescueTeam
		if err := tx.First(&team, teamID).Error; err != nil {
			return lookup(err, "Rescue team")
		}
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return lookup(err, "User")
		}

		if err := tx.Create(&member).Error; err != nil {
			if isUniqueViolation(err) {
				return conflictError("User %d is already a member of this team", userID)
			}
			return fmt.Errorf("add team member: %w", err)
		}

		return s.writeLedger(tx, ledgerRecord{
			Module:      "rescue_team",
			ReferenceID: teamID,
			Action:      "member_added",
			ActorID:     actor.ID,
			New:         map[string]any{"user_id": userID, "role": role},
		})
	})
	if err != nil {
		return nil, err
	}

	return &member, nil
}

func (s *RescueService) ListTeams(ctx context.Context) ([]models.RescueTeam, error) {
	var teams []models.RescueTeam
	if err := s.db.WithContext(ctx).Preload("Members").Order("name ASC").Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("list rescue teams: %w", err)
	}
	return teams, nil
}

// Assign dispatches a team to an incident. Only verified incidents accept new
// rescue assignments.
func (s *RescueService) Assign(ctx context.Context, actor types.Principal, incidentID, teamID uint, notes string) (*models.RescueAssignment, error) {
	if !actor.IsAdmin() {
		return nil, permissionError("Only admins can assign rescue teams")
	}

	assignment := models.RescueAssignment{
		IncidentID: incidentID,
		TeamID:     teamID,
		Status:     types.RescueAssigned,
		Notes:      notes,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var incident models.Incident
		if err := tx.First(&incident, incidentID).Error; err != nil {
			return lookup(err, "Incident")
		}
		if incident.Status != types.IncidentVerified {
			return preconditionError("Rescue can only be assigned to verified incidents")
		}

		var team models.RescueTeam
		if err := tx.First(&team, teamID).Error; err != nil {
			return lookup(err, "Rescue team")
		}

		if err := tx.Create(&assignment).Error; err != nil {
			if isUniqueViolation(err) {
				return conflictError("Team %d is already assigned to incident %d", teamID, incidentID)
			}
			return fmt.Errorf("create rescue assignment: %w", err)
		}
		assignment.Team = &team

		return s.writeLedger(tx, ledgerRecord{
			Module:      "rescue",
			ReferenceID: assignment.ID,
			Action:      "assigned",
			ActorID:     actor.ID,
			New:         map[string]any{"incident_id": incidentID, "team_id": teamID, "status": assignment.Status},
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(incidentID)
	return &assignment, nil
}

// UpdateStatus is open to admins and to members of the assigned team.
// started_at and completed_at are stamped the first time their status is
// reached and kept afterwards.
func (s *RescueService) UpdateStatus(ctx context.Context, actor types.Principal, assignmentID uint, status types.RescueStatus, notes string) (*models.RescueAssignment, error) {
	switch status {
	case types.RescueAssigned, types.RescueActive, types.RescueCompleted:
	default:
		return nil, invalidTransitionError("Unknown rescue status %q", status)
	}

	var assignment models.RescueAssignment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&assignment, assignmentID).Error; err != nil {
			return lookup(err, "Rescue assignment")
		}

		if !actor.IsAdmin() {
			var member models.RescueTeamMember
			err := tx.Where(&models.RescueTeamMember{TeamID: assignment.TeamID, UserID: actor.ID}).First(&member).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return permissionError("Only admins or members of the assigned team can update this rescue")
			}
			if err != nil {
				return fmt.Errorf("check team membership: %w", err)
			}
		}

		previous := assignment.Status
		now := s.now()
		updates := map[string]any{"status": status}
		if notes != "" {
			updates["notes"] = notes
			assignment.Notes = notes
		}
		if status == types.RescueActive && assignment.StartedAt == nil {
			updates["started_at"] = now
			assignment.StartedAt = stamp(now)
		}
		if status == types.RescueCompleted && assignment.CompletedAt == nil {
			updates["completed_at"] = now
			assignment.CompletedAt = stamp(now)
		}

		if err := tx.Model(&assignment).Updates(updates).Error; err != nil {
			return fmt.Errorf("update rescue assignment: %w", err)
		}
		assignment.Status = status

		return s.writeLedger(tx, ledgerRecord{
			Module:      "rescue",
			ReferenceID: assignment.ID,
			Action:      "status_changed",
			ActorID:     actor.ID,
			Old:         map[string]any{"status": previous},
			New:         map[string]any{"status": status},
			Note:        notes,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(assignment.IncidentID)
	return &assignment, nil
}

func (s *RescueService) ListAssignments(ctx context.Context, incidentID uint) ([]models.RescueAssignment, error) {
	query := s.db.WithContext(ctx).Preload("Team").Order("created_at DESC").Order("id DESC")
	if incidentID != 0 {
		query = query.Where("incident_id = ?", incidentID)
	}

	var assignments []models.RescueAssignment
	if err := query.Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("list rescue assignments: %w", err)
	}
	return assignments, nil
}
