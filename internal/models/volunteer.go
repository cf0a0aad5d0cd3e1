package models

import (
	"time"

	"github.com/rapidaid/rapidaid/internal/types"
)

// VolunteerAssignment is a citizen's application to help on one incident.
// A user may hold at most one pending or approved row across all incidents;
// db.MigrateDatabase creates the partial unique index that enforces it.
type VolunteerAssignment struct {
	ID          uint                  `gorm:"primaryKey" json:"id"`
	UserID      uint                  `gorm:"not null;uniqueIndex:idx_volunteer_user_incident" json:"user_id"`
	IncidentID  uint                  `gorm:"not null;uniqueIndex:idx_volunteer_user_incident;index" json:"incident_id"`
	Status      types.VolunteerStatus `gorm:"not null;index" json:"status"`
	AppliedAt   time.Time             `gorm:"not null" json:"applied_at"`
	ApprovedAt  *time.Time            `json:"approved_at"`
	CompletedAt *time.Time            `json:"completed_at"`
	Remarks     string                `json:"remarks"`
	UpdatedAt   time.Time             `json:"updated_at"`

	User     *User     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Incident *Incident `gorm:"foreignKey:IncidentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
