package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"greeting-metrics-backend/config"
	"greeting-metrics-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := db.AutoMigrate(
		&model.Zone{},
		&model.ZoneEvent{},
		&model.GreetingMetric{},
		&model.PushSubscription{},
	); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	if err := applyConstraintDDL(db); err != nil {
		return nil, err
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// applyConstraintDDL adds the constraints AutoMigrate cannot express.
// The partial unique index is the authoritative guard for the
// one-waiting-metric-per-table invariant; the correlator's pre-check is
// only an optimization.
func applyConstraintDDL(db *gorm.DB) error {
	ddls := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_greeting_metrics_one_waiting " +
			"ON greeting_metrics (venue_id, table_name) WHERE status = 'waiting';",

		"CREATE INDEX IF NOT EXISTS idx_greeting_metrics_waiting_seated_at " +
			"ON greeting_metrics (venue_id, seated_at) WHERE status = 'waiting';",

		"CREATE INDEX IF NOT EXISTS idx_zone_events_zone_detected_at " +
			"ON zone_events (zone_id, detected_at DESC);",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
