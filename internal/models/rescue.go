package models

import (
	"time"

	"github.com/rapidaid/rapidaid/internal/types"
)

type RescueTeam struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"not null;uniqueIndex" json:"name"`
	Organization string    `json:"organization"`
	Contact      string    `json:"contact"`
	CreatedAt    time.Time `json:"created_at"`

	Members []RescueTeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

type RescueTeamMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TeamID    uint      `gorm:"not null;uniqueIndex:idx_team_user" json:"team_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_team_user;index" json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`

	Team *RescueTeam `gorm:"foreignKey:TeamID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	User *User       `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

type RescueAssignment struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	IncidentID  uint               `gorm:"not null;uniqueIndex:idx_rescue_incident_team" json:"incident_id"`
	TeamID      uint               `gorm:"not null;uniqueIndex:idx_rescue_incident_team;index" json:"team_id"`
	Status      types.RescueStatus `gorm:"not null;index" json:"status"`
	StartedAt   *time.Time         `json:"started_at"`
	CompletedAt *time.Time         `json:"completed_at"`
	Notes       string             `json:"notes"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`

	Incident *Incident   `gorm:"foreignKey:IncidentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Team     *RescueTeam `gorm:"foreignKey:TeamID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"team,omitempty"`
}
