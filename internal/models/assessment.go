package models

import (
	"time"

	"github.com/rapidaid/rapidaid/internal/types"
)

type AffectedFamily struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	IncidentID       uint      `gorm:"not null;index" json:"incident_id"`
	HeadOfFamilyName string    `gorm:"not null" json:"head_of_family_name"`
	ContactNumber    string    `json:"contact_number"`
	Address          string    `gorm:"not null" json:"address"`
	TotalMembers     int       `gorm:"not null" json:"total_members"`
	InjuredMembers   int       `gorm:"not null;default:0" json:"injured_members"`
	DeceasedMembers  int       `gorm:"not null;default:0" json:"deceased_members"`
	IsVerified       bool      `gorm:"not null;default:false" json:"is_verified"`
	CreatedByID      *uint     `json:"created_by_id"`
	CreatedAt        time.Time `json:"created_at"`

	Incident  *Incident `gorm:"foreignKey:IncidentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	CreatedBy *User     `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}

// LossAssessment is one-to-one with AffectedFamily.
type LossAssessment struct {
	ID                    uint              `gorm:"primaryKey" json:"id"`
	FamilyID              uint              `gorm:"not null;uniqueIndex" json:"family_id"`
	HouseDamage           types.HouseDamage `gorm:"not null" json:"house_damage"`
	EstimatedPropertyLoss float64           `gorm:"type:decimal(12,2);not null" json:"estimated_property_loss"`
	LivestockLost         int               `gorm:"not null;default:0" json:"livestock_lost"`
	CropsLost             string            `json:"crops_lost"`
	Remarks               string            `json:"remarks"`
	AssessedByID          *uint             `json:"assessed_by_id"`
	AssessedAt            time.Time         `gorm:"not null" json:"assessed_at"`

	Family     *AffectedFamily `gorm:"foreignKey:FamilyID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"family,omitempty"`
	AssessedBy *User           `gorm:"foreignKey:AssessedByID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}
