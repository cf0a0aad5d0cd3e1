package models

import (
	"time"

	"gorm.io/datatypes"
)

// LedgerEntry is the audit trail written alongside every state change.
type LedgerEntry struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Module      string         `gorm:"not null;index:idx_ledger_ref" json:"module"`
	ReferenceID uint           `gorm:"not null;index:idx_ledger_ref" json:"reference_id"`
	Action      string         `gorm:"not null" json:"action"`
	ChangedByID *uint          `json:"changed_by_id"`
	Timestamp   time.Time      `gorm:"not null;index" json:"timestamp"`
	OldData     datatypes.JSON `json:"old_data"`
	NewData     datatypes.JSON `json:"new_data"`
	Note        string         `json:"note"`

	ChangedBy *User `gorm:"foreignKey:ChangedByID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}
