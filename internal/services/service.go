package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rapidaid/rapidaid/internal/models"
	"github.com/rapidaid/rapidaid/internal/notify"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Notifier delivers messages after a transaction commits. Implementations must
// not fail the caller; delivery problems are theirs to log.
type Notifier interface {
	Notify(ctx context.Context, msg notify.Message)
	Announce(ctx context.Context, msg notify.Message)
}

// Publisher is told when an incident, or something hanging off it, changed.
type Publisher interface {
	IncidentChanged(incidentID uint)
}

type Deps struct {
	DB        *gorm.DB
	Notifier  Notifier
	Publisher Publisher
	Logger    *zap.Logger
}

// base carries what every service shares.
type base struct {
	db        *gorm.DB
	notifier  Notifier
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func newBase(d Deps) base {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{
		db:        d.DB,
		notifier:  d.Notifier,
		publisher: d.Publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (b *base) notify(ctx context.Context, msg notify.Message) {
	if b.notifier == nil {
		return
	}
	b.notifier.Notify(ctx, msg)
}

func (b *base) announce(ctx context.Context, msg notify.Message) {
	if b.notifier == nil {
		return
	}
	b.notifier.Announce(ctx, msg)
}

func (b *base) publish(incidentID uint) {
	if b.publisher == nil || incidentID == 0 {
		return
	}
	b.publisher.IncidentChanged(incidentID)
}

type ledgerRecord struct {
	Module      string
	ReferenceID uint
	Action      string
	ActorID     uint
	Old         any
	New         any
	Note        string
}

// writeLedger appends an audit entry using the caller's transaction.
func (b *base) writeLedger(tx *gorm.DB, rec ledgerRecord) error {
	_, err := b.appendLedger(tx, rec)
	return err
}

func (b *base) appendLedger(tx *gorm.DB, rec ledgerRecord) (*models.LedgerEntry, error) {
	entry := models.LedgerEntry{
		Module:      rec.Module,
		ReferenceID: rec.ReferenceID,
		Action:      rec.Action,
		Timestamp:   b.now(),
		Note:        rec.Note,
	}
	if rec.ActorID != 0 {
		actor := rec.ActorID
		entry.ChangedByID = &actor
	}

	var err error
	if entry.OldData, err = toJSON(rec.Old); err != nil {
		return nil, err
	}
	if entry.NewData, err = toJSON(rec.New); err != nil {
		return nil, err
	}

	if err := tx.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("write ledger entry: %w", err)
	}
	return &entry, nil
}

func toJSON(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode ledger data: %w", err)
	}
	return datatypes.JSON(raw), nil
}

// firstOrInsert returns the row matching query, inserting fresh when there is
// none. When a concurrent writer wins the unique index the insert is skipped
// and the winner's row is read back.
func firstOrInsert[T any](tx *gorm.DB, query *T, fresh *T) (*T, bool, error) {
	var found T
	err := tx.Where(query).First(&found).Error
	if err == nil {
		return &found, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(fresh)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return fresh, true, nil
	}

	if err := tx.Where(query).First(&found).Error; err != nil {
		return nil, false, err
	}
	return &found, false, nil
}

func stamp(t time.Time) *time.Time {
	return &t
}
