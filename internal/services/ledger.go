package services

import (
	"context"
	"fmt"

	"github.com/rapidaid/rapidaid/internal/models"
	"github.com/rapidaid/rapidaid/internal/types"
)

type LedgerService struct {
	base
}

func NewLedgerService(d Deps) *LedgerService {
	return &LedgerService{base: newBase(d)}
}

// List returns audit entries newest first, optionally narrowed to one module
// and reference.
func (s *LedgerService) List(ctx context.Context, actor types.Principal, module string, referenceID uint) ([]models.LedgerEntry, error) {
	if !actor.IsAdmin() {
		return nil, permissionError("Only admins can read the ledger")
	}

	query := s.db.WithContext(ctx).Order("timestamp DESC").Order("id DESC")
	if module != "" {
		query = query.Where("module = ?", module)
	}
	if referenceID != 0 {
		query = query.Where("reference_id = ?", referenceID)
	}

	var entries []models.LedgerEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	return entries, nil
}

func (s *LedgerService) AddNote(ctx context.Context, actor types.Principal, module string, referenceID uint, note string) (*models.LedgerEntry, error) {
	if !actor.IsAdmin() {
		return nil, permissionError("Only admins can write ledger notes")
	}

	rec := ledgerRecord{
		Module:      module,
		ReferenceID: referenceID,
		Action:      "note",
		ActorID:     actor.ID,
		Note:        note,
	}
	return s.appendLedger(s.db.WithContext(ctx), rec)
}
