package services

import (
	"context"
	"fmt"

	"github.com/rapidaid/rapidaid/internal/models"
	"github.com/rapidaid/rapidaid/internal/types"
	"gorm.io/gorm"
)

type AddFamilyInput struct {
	IncidentID       uint
	HeadOfFamilyName string
	ContactNumber    string
	Address          string
	TotalMembers     int
	InjuredMembers   int
	DeceasedMembers  int
}

type RecordLossInput struct {
	FamilyID              uint
	HouseDamage           types.HouseDamage
	EstimatedPropertyLoss float64
	LivestockLost         int
	CropsLost             string
	Remarks               string
}

type AssessmentService struct {
	base
}

func NewAssessmentService(d Deps) *AssessmentService {
	return &AssessmentService{base: newBase(d)}
}

func canAssess(actor types.Principal) bool {
	return actor.IsAdmin() || actor.IsAssessmentTeam()
}

func (s *AssessmentService) AddFamily(ctx context.Context, actor types.Principal, in AddFamilyInput) (*models.AffectedFamily, error) {
	if !canAssess(actor) {
		return nil, permissionError("Only admins or assessment teams can record affected families")
	}
	if in.InjuredMembers+in.DeceasedMembers > in.TotalMembers {
		return nil, preconditionError("Injured and deceased members cannot exceed total members")
	}

	creator := actor.ID
	family := models.AffectedFamily{
		IncidentID:       in.IncidentID,
		HeadOfFamilyName: in.HeadOfFamilyName,
		ContactNumber:    in.ContactNumber,
		Address:          in.Address,
		TotalMembers:     in.TotalMembers,
		InjuredMembers:   in.InjuredMembers,
		DeceasedMembers:  in.DeceasedMembers,
		CreatedByID:      &creator,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var incident models.Incident
		if err := tx.First(&incident, in.IncidentID).Error; err != nil {
			return lookup(err, "Incident")
		}
		if incident.Status != types.IncidentVerified {
			return preconditionError("Affected families can only be recorded for verified incidents")
		}

		if err := tx.Create(&family).Error; err != nil {
			return fmt.Errorf("create affected family: %w", err)
		}

		return s.writeLedger(tx, ledgerRecord{
			Module:      "assessment",
			ReferenceID: family.ID,
			Action:      "family_added",
			ActorID:     actor.ID,
			New:         map[string]any{"incident_id": in.IncidentID, "head_of_family_name": in.HeadOfFamilyName},
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(in.IncidentID)
	return &family, nil
}

func (s *AssessmentService) ListFamilies(ctx context.Context, incidentID uint) ([]models.AffectedFamily, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if incidentID != 0 {
		query = query.Where("incident_id = ?", incidentID)
	}

	var families []models.AffectedFamily
	if err := query.Find(&families).Error; err != nil {
		return nil, fmt.Errorf("list affected families: %w", err)
	}
	return families, nil
}

// RecordLoss stores the single loss assessment of a family.
func (s *AssessmentService) RecordLoss(ctx context.Context, actor types.Principal, in RecordLossInput) (*models.LossAssessment, error) {
	if !canAssess(actor) {
		return nil, permissionError("Only admins or assessment teams can assess losses")
	}

	assessor := actor.ID
	loss := models.LossAssessment{
		FamilyID:              in.FamilyID,
		HouseDamage:           in.HouseDamage,
		EstimatedPropertyLoss: in.EstimatedPropertyLoss,
		LivestockLost:         in.LivestockLost,
		CropsLost:             in.CropsLost,
		Remarks:               in.Remarks,
		AssessedByID:          &assessor,
		AssessedAt:            s.now(),
	}
	if loss.HouseDamage == "" {
		loss.HouseDamage = types.HouseDamageNone
	}

	var incidentID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var family models.AffectedFamily
		if err := tx.First(&family, in.FamilyID).Error; err != nil {
			return lookup(err, "Affected family")
		}
		incidentID = family.IncidentID

		if err := tx.Create(&loss).Error; err != nil {
			if isUniqueViolation(err) {
				return conflictError("Family %d already has a loss assessment", in.FamilyID)
			}
			return fmt.Errorf("create loss assessment: %w", err)
		}
		loss.Family = &family

		return s.writeLedger(tx, ledgerRecord{
			Module:      "assessment",
			ReferenceID: loss.ID,
			Action:      "loss_assessed",
			ActorID:     actor.ID,
			New: map[string]any{
				"family_id":               in.FamilyID,
				"house_damage":            loss.HouseDamage,
				"estimated_property_loss": loss.EstimatedPropertyLoss,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(incidentID)
	return &loss, nil
}

func (s *AssessmentService) ListLosses(ctx context.Context) ([]models.LossAssessment, error) {
	var losses []models.LossAssessment
	if err := s.db.WithContext(ctx).Preload("Family").Order("assessed_at DESC").Order("id DESC").Find(&losses).Error; err != nil {
		return nil, fmt.Errorf("list loss assessments: %w", err)
	}
	return losses, nil
}

func (s *AssessmentService) GetLoss(ctx context.Context, lossID uint) (*models.LossAssessment, error) {
	var loss models.LossAssessment
	if err := s.db.WithContext(ctx).Preload("Family").First(&loss, lossID).Error; err != nil {
		return nil, lookup(err, "Loss assessment")
	}
	return &loss, nil
}
