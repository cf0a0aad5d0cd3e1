package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rapidaid/rapidaid/internal/models"
	"github.com/rapidaid/rapidaid/internal/notify"
	"github.com/rapidaid/rapidaid/internal/types"
	"gorm.io/gorm"
)

const volunteerMemberRole = "Volunteer"

// VolunteerTeamName is the deterministic name of the team that collects the
// approved volunteers of one incident.
func VolunteerTeamName(incidentID uint) string {
	return fmt.Sprintf("Volunteer Team - Incident %d", incidentID)
}

var activeVolunteerStatuses = []string{
	string(types.VolunteerPending),
	string(types.VolunteerApproved),
}

type VolunteerService struct {
	base
}

func NewVolunteerService(d Deps) *VolunteerService {
	return &VolunteerService{base: newBase(d)}
}

func (s *VolunteerService) Apply(ctx context.Context, actor types.Principal, incidentID uint, remarks string) (*models.VolunteerAssignment, error) {
	if !actor.IsCitizen() {
		return nil, permissionError("Only citizens can apply as volunteers")
	}

	assignment := models.VolunteerAssignment{
		UserID:     actor.ID,
		IncidentID: incidentID,
		Status:     types.VolunteerPending,
		AppliedAt:  s.now(),
		Remarks:    remarks,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var incident models.Incident
		if err := tx.First(&incident, incidentID).Error; err != nil {
			return lookup(err, "Incident")
		}
		if incident.Status != types.IncidentVerified {
			return preconditionError("Volunteers can only apply to verified incidents")
		}

		var active int64
		err := tx.Model(&models.VolunteerAssignment{}).
			Where("user_id = ? AND status IN ?", actor.ID, activeVolunteerStatuses).
			Count(&active).Error
		if err != nil {
			return fmt.Errorf("count active assignments: %w", err)
		}
		if active > 0 {
			return conflictError("You already have an active volunteer assignment")
		}

		if err := tx.Create(&assignment).Error; err != nil {
			if isUniqueViolation(err) {
				return conflictError("You already have a volunteer assignment for this incident or another active one")
			}
			return fmt.Errorf("create volunteer assignment: %w", err)
		}

		return s.writeLedger(tx, ledgerRecord{
			Module:      "volunteer",
			ReferenceID: assignment.ID,
			Action:      "applied",
			ActorID:     actor.ID,
			New:         map[string]any{"status": assignment.Status, "incident_id": incidentID},
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(incidentID)
	return &assignment, nil
}

// Decide records an admin decision on an application. Approval provisions the
// incident's volunteer team, its rescue assignment and the membership in the
// same transaction; each of those is looked up before it is created, so
// repeating an approval creates nothing new.
func (s *VolunteerService) Decide(ctx context.Context, actor types.Principal, assignmentID uint, status types.VolunteerStatus, remarks string) (*models.VolunteerAssignment, error) {
	if !actor.IsAdmin() {
		return nil, permissionError("Only admins can decide volunteer applications")
	}
	if status == "" {
		return nil, invalidTransitionError("Volunteer status is required")
	}

	var (
		assignment models.VolunteerAssignment
		previous   types.VolunteerStatus
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Preload("User").Preload("Incident").First(&assignment, assignmentID).Error
		if err != nil {
			return lookup(err, "Volunteer assignment")
		}
		previous = assignment.Status

		now := s.now()
		updates := map[string]any{"status": status}
		if remarks != "" {
			updates["remarks"] = remarks
			assignment.Remarks = remarks
		}

		switch status {
		case types.VolunteerApproved:
			if assignment.ApprovedAt == nil {
				updates["approved_at"] = now
				assignment.ApprovedAt = stamp(now)
			}
		case types.VolunteerCompleted:
			if assignment.CompletedAt == nil {
				updates["completed_at"] = now
				assignment.CompletedAt = stamp(now)
			}
		}

		res := tx.Model(&models.VolunteerAssignment{}).
			Where("id = ? AND status = ?", assignment.ID, previous).
			Updates(updates)
		if res.Error != nil {
			if isUniqueViolation(res.Error) {
				return conflictError("Volunteer already has an active assignment")
			}
			return fmt.Errorf("update volunteer assignment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return conflictError("Volunteer assignment %d was modified concurrently", assignment.ID)
		}
		assignment.Status = status

		if status == types.VolunteerApproved {
			if err := s.provision(tx, &assignment); err != nil {
				return err
			}
		}

		return s.writeLedger(tx, ledgerRecord{
			Module:      "volunteer",
			ReferenceID: assignment.ID,
			Action:      "status_changed",
			ActorID:     actor.ID,
			Old:         map[string]any{"status": previous},
			New:         map[string]any{"status": status},
			Note:        remarks,
		})
	})
	if err != nil {
		return nil, err
	}

	if previous != status {
		s.notifyDecision(ctx, &assignment)
	}
	s.publish(assignment.IncidentID)

	return &assignment, nil
}

// provision looks up or creates the team, rescue assignment and membership
// that an approved volunteer belongs to.
func (s *VolunteerService) provision(tx *gorm.DB, assignment *models.VolunteerAssignment) error {
	incident := assignment.Incident
	if incident == nil {
		return preconditionError("Incident %d no longer exists", assignment.IncidentID)
	}

	team, _, err := firstOrInsert(tx,
		&models.RescueTeam{Name: VolunteerTeamName(incident.ID)},
		&models.RescueTeam{
			Name:         VolunteerTeamName(incident.ID),
			Organization: "Volunteers",
			CreatedAt:    s.now(),
		})
	if err != nil {
		return fmt.Errorf("provision volunteer team: %w", err)
	}

	var existing models.RescueAssignment
	err = tx.Where(&models.RescueAssignment{IncidentID: incident.ID, TeamID: team.ID}).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if incident.Status != types.IncidentVerified {
			return preconditionError("Incident %d is %s; volunteers can only be approved while it is verified. "+
				"Reject the application to release the volunteer", incident.ID, incident.Status)
		}
		_, _, err = firstOrInsert(tx,
			&models.RescueAssignment{IncidentID: incident.ID, TeamID: team.ID},
			&models.RescueAssignment{
				IncidentID: incident.ID,
				TeamID:     team.ID,
				Status:     types.RescueAssigned,
				Notes:      "Created on volunteer approval",
			})
		if err != nil {
			return fmt.Errorf("provision rescue assignment: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("load rescue assignment: %w", err)
	}

	_, _, err = firstOrInsert(tx,
		&models.RescueTeamMember{TeamID: team.ID, UserID: assignment.UserID},
		&models.RescueTeamMember{
			TeamID: team.ID,
			UserID: assignment.UserID,
			Role:   volunteerMemberRole,
		})
	if err != nil {
		return fmt.Errorf("provision team membership: %w", err)
	}

	return nil
}

func (s *VolunteerService) notifyDecision(ctx context.Context, assignment *models.VolunteerAssignment) {
	if assignment.User == nil {
		return
	}

	title := fmt.Sprintf("incident #%d", assignment.IncidentID)
	if assignment.Incident != nil {
		title = fmt.Sprintf("%q", assignment.Incident.Title)
	}

	msg := notify.Message{
		UserID:     assignment.UserID,
		IncidentID: assignment.IncidentID,
		To:         assignment.User.Email,
	}

	switch assignment.Status {
	case types.VolunteerApproved:
		msg.Event = notify.EventVolunteerApproved
		msg.Subject = "Volunteer application approved"
		msg.Body = fmt.Sprintf("Hello %s,\n\nYour application to volunteer on %s has been approved. "+
			"You have been added to %s.\n\nThank you for helping.",
			assignment.User.FullName, title, VolunteerTeamName(assignment.IncidentID))
	case types.VolunteerRejected:
		msg.Event = notify.EventVolunteerRejected
		msg.Subject = "Volunteer application update"
		msg.Body = fmt.Sprintf("Hello %s,\n\nYour application to volunteer on %s was not accepted this time.\n\nThank you for offering to help.",
			assignment.User.FullName, title)
	default:
		return
	}

	s.notify(ctx, msg)
}

func (s *VolunteerService) List(ctx context.Context, actor types.Principal) ([]models.VolunteerAssignment, error) {
	if !actor.IsAdmin() {
		return nil, permissionError("Only admins can list all volunteer assignments")
	}

	var assignments []models.VolunteerAssignment
	if err := s.db.WithContext(ctx).Order("applied_at DESC").Order("id DESC").Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("list volunteer assignments: %w", err)
	}
	return assignments, nil
}

func (s *VolunteerService) ListMine(ctx context.Context, actor types.Principal) ([]models.VolunteerAssignment, error) {
	var assignments []models.VolunteerAssignment
	err := s.db.WithContext(ctx).
		Where("user_id = ?", actor.ID).
		Order("applied_at DESC").Order("id DESC").
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("list volunteer assignments: %w", err)
	}
	return assignments, nil
}
