package models

import (
	"time"

	"github.com/rapidaid/rapidaid/internal/types"
)

type Donor struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;uniqueIndex" json:"user_id"`
	DonorType types.DonorType `gorm:"not null" json:"donor_type"`
	CreatedAt time.Time       `json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

type Donation struct {
	ID              uint               `gorm:"primaryKey" json:"id"`
	DonorID         uint               `gorm:"not null;index" json:"donor_id"`
	IncidentID      *uint              `gorm:"index" json:"incident_id"`
	FamilyID        *uint              `gorm:"index" json:"family_id"`
	DonationType    types.DonationType `gorm:"not null" json:"donation_type"`
	Amount          *float64           `gorm:"type:decimal(12,2)" json:"amount"`
	ItemDescription string             `json:"item_description"`
	Quantity        *int               `json:"quantity"`
	CreatedAt       time.Time          `json:"created_at"`

	Donor    *Donor          `gorm:"foreignKey:DonorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Incident *Incident       `gorm:"foreignKey:IncidentID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Family   *AffectedFamily `gorm:"foreignKey:FamilyID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}

type DonationDistribution struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	DonationID      uint      `gorm:"not null;index" json:"donation_id"`
	FamilyID        uint      `gorm:"not null;index" json:"family_id"`
	DistributedByID *uint     `json:"distributed_by_id"`
	ProofPhotoURL   string    `json:"proof_photo_url"`
	DistributedAt   time.Time `gorm:"not null" json:"distributed_at"`

	Donation      *Donation       `gorm:"foreignKey:DonationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Family        *AffectedFamily `gorm:"foreignKey:FamilyID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	DistributedBy *User           `gorm:"foreignKey:DistributedByID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}
