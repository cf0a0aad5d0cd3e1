package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification records one delivery attempt on one channel.
type Notification struct {
	gorm.Model

	UserID     *uint  `gorm:"index"`
	IncidentID *uint  `gorm:"index"`
	Event      string `gorm:"not null;index"`
	Channel    string `gorm:"not null"`
	Recipient  string
	Status     string `gorm:"not null"`
	Subject    string
	Message    string
	Error      string
	SentAt     *time.Time
}
