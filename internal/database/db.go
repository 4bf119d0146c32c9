package database

import (
	"fmt"
	"log/slog"
	"time"

	"procurement-portal/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB: собственное хранилище портала (журнал и сохранённые мастера RFP).
// Сами закупки живут за API бэкенда.
var DB *gorm.DB

const (
	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

func Init(dsn string, log *slog.Logger) error {
	var err error

	for i := 1; i <= connectAttempts; i++ {
		log.Info("connecting to database", "attempt", i, "max_attempts", connectAttempts)

		DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			log.Info("connected to database")
			break
		}

		log.Warn("database connection failed", "error", err)
		time.Sleep(connectBackoff)
	}

	if err != nil {
		DB = nil
		return fmt.Errorf("connect to database after %d attempts: %w", connectAttempts, err)
	}

	if err := DB.AutoMigrate(
		&models.AuditLog{},
		&models.WorkflowRecord{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	return nil
}
