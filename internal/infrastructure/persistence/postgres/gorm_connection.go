// Package postgres implements the PostgreSQL-backed repositories of the
// posture ingestion service.
package postgres

import (
	"context"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stategrc/posturehub/internal/config"
	"github.com/stategrc/posturehub/internal/domain/models"
	"github.com/stategrc/posturehub/pkg/logger"
)

// NewGormDB opens the GORM connection used by all repositories and applies
// schema migrations. TranslateError is enabled so unique-constraint
// violations surface as gorm.ErrDuplicatedKey, which the snapshot repository
// relies on for atomic write-conflict detection.
func NewGormDB(cfg *config.DatabaseConfig, log logger.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		log.Error(context.Background(), "Failed to open database connection", err,
			logger.String("host", cfg.Host),
			logger.String("database", cfg.Database),
		)
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info(context.Background(), "Database connection established",
		logger.String("host", cfg.Host),
		logger.String("database", cfg.Database),
	)
	return db, nil
}

// Migrate applies the schema for all persisted collections.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.PostureSnapshot{},
		&models.AssessmentSummary{},
		&models.LabelMapping{},
		&models.AggregateRollup{},
		&models.AccessDecision{},
	)
}
