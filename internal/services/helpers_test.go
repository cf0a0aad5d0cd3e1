package services

import (
	"errors"
	"testing"
	"time"

	"github.com/rapidaid/rapidaid/internal/testutil"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	notifier  *testutil.Notifier
	publisher *testutil.Publisher
	deps      Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn := testutil.NewDB(t)
	n := &testutil.Notifier{}
	p := &testutil.Publisher{}
	return &fixture{
		db:        conn,
		notifier:  n,
		publisher: p,
		deps:      Deps{DB: conn, Notifier: n, Publisher: p},
	}
}

// clock returns a fixed time that advances by a minute on each call.
func clock(start time.Time) func() time.Time {
	current := start.Add(-time.Minute)
	return func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
}

var epoch = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func expectKind(t *testing.T, err error, want *Error) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s error, got nil", want.Kind)
	}
	if !errors.Is(err, want) {
		t.Fatalf("expected %s error, got %v", want.Kind, err)
	}
}

func count(t *testing.T, conn *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()

	var n int64
	q := conn.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", model, err)
	}
	return n
}
