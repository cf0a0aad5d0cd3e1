// Package testutil provides a migrated in-memory database and fixtures for
// package tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rapidaid/rapidaid/db"
	"github.com/rapidaid/rapidaid/internal/models"
	"github.com/rapidaid/rapidaid/internal/notify"
	"github.com/rapidaid/rapidaid/internal/types"
	"gorm.io/gorm"
)

var userSeq atomic.Int64

// NewDB opens a private in-memory SQLite database with the full schema.
// The pool is held to one connection so every query sees the same database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := db.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.MigrateDatabase(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return conn
}

// CreateUser inserts an active user with the given role.
func CreateUser(t *testing.T, conn *gorm.DB, role types.Role) *models.User {
	t.Helper()

	n := userSeq.Add(1)
	user := models.User{
		FullName:     fmt.Sprintf("%s user %d", role, n),
		Email:        fmt.Sprintf("%s%d@example.org", role, n),
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &user
}

// CreateIncident inserts an incident reported by reporter directly in status.
func CreateIncident(t *testing.T, conn *gorm.DB, reporter *models.User, status types.IncidentStatus) *models.Incident {
	t.Helper()

	incident := models.Incident{
		Title:        "Flooded road",
		Description:  "Water over the bridge",
		IncidentType: types.IncidentFlood,
		Severity:     types.SeverityHigh,
		Status:       status,
	}
	if reporter != nil {
		id := reporter.ID
		incident.ReporterID = &id
	}
	if err := conn.Create(&incident).Error; err != nil {
		t.Fatalf("create incident: %v", err)
	}
	return &incident
}

// Notifier records what services asked to send.
type Notifier struct {
	mu        sync.Mutex
	Direct    []notify.Message
	Announced []notify.Message
}

func (n *Notifier) Notify(_ context.Context, msg notify.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Direct = append(n.Direct, msg)
}

func (n *Notifier) Announce(_ context.Context, msg notify.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Announced = append(n.Announced, msg)
}

// DirectFor returns the direct messages of one event.
func (n *Notifier) DirectFor(event string) []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []notify.Message
	for _, m := range n.Direct {
		if m.Event == event {
			out = append(out, m)
		}
	}
	return out
}

// Publisher counts incident change events.
type Publisher struct {
	mu     sync.Mutex
	Events map[uint]int
}

func (p *Publisher) IncidentChanged(incidentID uint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Events == nil {
		p.Events = make(map[uint]int)
	}
	p.Events[incidentID]++
}

func (p *Publisher) Count(incidentID uint) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Events[incidentID]
}
