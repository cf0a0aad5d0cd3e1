package models

import (
	"time"

	"github.com/rapidaid/rapidaid/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Incident struct {
	gorm.Model

	ReporterID   *uint                `gorm:"index"`
	Title        string               `gorm:"not null"`
	Description  string               `gorm:"not null"`
	IncidentType types.IncidentType   `gorm:"not null"`
	Severity     types.Severity       `gorm:"not null"`
	Location     string
	Latitude     *float64
	Longitude    *float64
	IncidentDate *time.Time
	Status       types.IncidentStatus `gorm:"not null;index"`
	ApprovedByID *uint
	ApprovedAt   *time.Time
	Metadata     datatypes.JSON

	// Relationships
	Reporter   *User              `gorm:"foreignKey:ReporterID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	ApprovedBy *User              `gorm:"foreignKey:ApprovedByID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Timeline   []IncidentTimeline `gorm:"foreignKey:IncidentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Media      []IncidentMedia    `gorm:"foreignKey:IncidentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// IncidentTimeline is append-only; rows are never updated.
type IncidentTimeline struct {
	ID          uint   `gorm:"primaryKey"`
	IncidentID  uint   `gorm:"not null;index"`
	Title       string `gorm:"not null"`
	Description string
	CreatedByID *uint
	CreatedAt   time.Time `gorm:"not null;index"`

	CreatedBy *User `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (IncidentTimeline) TableName() string {
	return "incident_timeline"
}

// IncidentMedia points at a photo or video stored elsewhere; only the URL is
// kept here.
type IncidentMedia struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	IncidentID   uint            `gorm:"not null;index" json:"incident_id"`
	URL          string          `gorm:"not null" json:"url"`
	MediaType    types.MediaType `gorm:"not null" json:"media_type"`
	UploadedByID *uint           `json:"uploaded_by_id"`
	UploadedAt   time.Time       `gorm:"not null" json:"uploaded_at"`

	UploadedBy *User `gorm:"foreignKey:UploadedByID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}
