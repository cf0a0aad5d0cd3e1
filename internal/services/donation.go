package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rapidaid/rapidaid/internal/models"
	"github.com/rapidaid/rapidaid/internal/types"
	"gorm.io/gorm"
)

type DonateInput struct {
	IncidentID      uint
	FamilyID        *uint
	DonationType    types.DonationType
	Amount          *float64
	ItemDescription string
	Quantity        *int
}

type DonationService struct {
	base
}

func NewDonationService(d Deps) *DonationService {
	return &DonationService{base: newBase(d)}
}

func (s *DonationService) RegisterDonor(ctx context.Context, actor types.Principal, donorType types.DonorType) (*models.Donor, error) {
	if donorType == "" {
		donorType = types.DonorIndividual
	}

	donor := models.Donor{UserID: actor.ID, DonorType: donorType}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&donor).Error; err != nil {
			if isUniqueViolation(err) {
				return conflictError("Donor profile already exists")
			}
			return fmt.Errorf("create donor profile: %w", err)
		}

		return s.writeLedger(tx, ledgerRecord{
			Module:      "donation",
			ReferenceID: donor.ID,
			Action:      "donor_registered",
			ActorID:     actor.ID,
			New:         map[string]any{"donor_type": donorType},
		})
	})
	if err != nil {
		return nil, err
	}

	return &donor, nil
}

func validateDonation(in DonateInput) error {
	switch in.DonationType {
	case types.DonationMoney:
		if in.Amount == nil || *in.Amount <= 0 {
			return preconditionError("Money donations need a positive amount")
		}
	case types.DonationItem:
		if in.ItemDescription == "" || in.Quantity == nil || *in.Quantity <= 0 {
			return preconditionError("Item donations need a description and a positive quantity")
		}
	default:
		return preconditionError("Unknown donation type %q", in.DonationType)
	}
	return nil
}

// Donate records a gift from the actor's donor profile. Resolved incidents
// no longer take donations.
func (s *DonationService) Donate(ctx context.Context, actor types.Principal, in DonateInput) (*models.Donation, error) {
	if err := validateDonation(in); err != nil {
		return nil, err
	}

	var donation models.Donation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var donor models.Donor
		err := tx.Where(&models.Donor{UserID: actor.ID}).First(&donor).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return permissionError("Create a donor profile first")
		}
		if err != nil {
			return fmt.Errorf("load donor profile: %w", err)
		}

		var incident models.Incident
		if err := tx.First(&incident, in.IncidentID).Error; err != nil {
			return lookup(err, "Incident")
		}
		if incident.Status == types.IncidentResolved {
			return preconditionError("Donations are closed for resolved incidents")
		}

		if in.FamilyID != nil {
			var family models.AffectedFamily
			if err := tx.First(&family, *in.FamilyID).Error; err != nil {
				return lookup(err, "Affected family")
			}
			if family.IncidentID != incident.ID {
				return preconditionError("Family %d is not part of incident %d", family.ID, incident.ID)
			}
		}

		incidentID := incident.ID
		donation = models.Donation{
			DonorID:         donor.ID,
			IncidentID:      &incidentID,
			FamilyID:        in.FamilyID,
			DonationType:    in.DonationType,
			Amount:          in.Amount,
			ItemDescription: in.ItemDescription,
			Quantity:        in.Quantity,
		}
		if err := tx.Create(&donation).Error; err != nil {
			return fmt.Errorf("create donation: %w", err)
		}

		return s.writeLedger(tx, ledgerRecord{
			Module:      "donation",
			ReferenceID: donation.ID,
			Action:      "donated",
			ActorID:     actor.ID,
			New: map[string]any{
				"incident_id":   incidentID,
				"donation_type": in.DonationType,
				"amount":        in.Amount,
				"quantity":      in.Quantity,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(in.IncidentID)
	return &donation, nil
}

func (s *DonationService) Distribute(ctx context.Context, actor types.Principal, donationID, familyID uint, proofPhotoURL string) (*models.DonationDistribution, error) {
	if !actor.IsAdmin() {
		return nil, permissionError("Only admins can record distributions")
	}

	distributor := actor.ID
	distribution := models.DonationDistribution{
		DonationID:      donationID,
		FamilyID:        familyID,
		DistributedByID: &distributor,
		ProofPhotoURL:   proofPhotoURL,
		DistributedAt:   s.now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var donation models.Donation
		if err := tx.First(&donation, donationID).Error; err != nil {
			return lookup(err, "Donation")
		}
		var family models.AffectedFamily
		if err := tx.First(&family, familyID).Error; err != nil {
			return lookup(err, "Affected family")
		}
		if donation.IncidentID != nil && *donation.IncidentID != family.IncidentID {
			return preconditionError("Family %d is not part of the donation's incident", familyID)
		}

		if err := tx.Create(&distribution).Error; err != nil {
			return fmt.Errorf("create distribution: %w", err)
		}

		return s.writeLedger(tx, ledgerRecord{
			Module:      "donation",
			ReferenceID: donationID,
			Action:      "distributed",
			ActorID:     actor.ID,
			New:         map[string]any{"family_id": familyID},
		})
	})
	if err != nil {
		return nil, err
	}

	return &distribution, nil
}

// ListDonations shows admins every donation and everyone else their own.
func (s *DonationService) ListDonations(ctx context.Context, actor types.Principal) ([]models.Donation, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if !actor.IsAdmin() {
		query = query.Where("donor_id IN (?)", s.db.Model(&models.Donor{}).Select("id").Where("user_id = ?", actor.ID))
	}

	var donations []models.Donation
	if err := query.Find(&donations).Error; err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	return donations, nil
}
