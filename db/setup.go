package db

import (
	"fmt"
	"time"

	"github.com/rapidaid/rapidaid/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// activeVolunteerIndex keeps a user to one pending or approved assignment.
// Both PostgreSQL and SQLite accept partial indexes in this form.
const activeVolunteerIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_volunteer_active_user
	ON volunteer_assignments (user_id) WHERE status IN ('pending', 'approved')`

func ConnectDatabase(dsn string, zlog *zap.Logger) (*gorm.DB, error) {
	return Open(postgres.Open(dsn), zlog)
}

// Open is shared by the PostgreSQL connection and the SQLite test database.
func Open(dialector gorm.Dialector, zlog *zap.Logger) (*gorm.DB, error) {
	conn, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         newGormLogger(zlog),
	})

	if err != nil {
		return nil, err
	}

	return conn, nil
}

func MigrateDatabase(conn *gorm.DB) error {
	models := []interface{}{
		&models.User{},
		&models.Donor{},
		&models.Incident{},
		&models.IncidentTimeline{},
		&models.IncidentMedia{},
		&models.VolunteerAssignment{},
		&models.RescueTeam{},
		&models.RescueTeamMember{},
		&models.RescueAssignment{},
		&models.AffectedFamily{},
		&models.LossAssessment{},
		&models.Donation{},
		&models.DonationDistribution{},
		&models.LedgerEntry{},
		&models.Notification{},
	}

	for _, model := range models {
		if err := conn.AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}
	}

	if err := conn.Exec(activeVolunteerIndex).Error; err != nil {
		return fmt.Errorf("create active volunteer index: %w", err)
	}

	return nil
}

// newGormLogger sends gorm's slow-query and error lines to zap. Lookups that
// find nothing are routine here and stay quiet.
func newGormLogger(zlog *zap.Logger) logger.Interface {
	if zlog == nil {
		zlog = zap.NewNop()
	}

	return logger.New(zap.NewStdLog(zlog.Named("gorm")), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
