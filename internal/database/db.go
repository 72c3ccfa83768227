package database

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/justsurfingit/job-success-tracker/internal/config"
	"github.com/justsurfingit/job-success-tracker/internal/models"
)

// Connect opens the Postgres connection pool and migrates the schema.
func Connect(cfg config.DatabaseConfig, log logrus.FieldLogger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql.DB")
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Info("Database connection established")

	log.Info("Running migrations...")
	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, errors.Wrap(err, "auto migrate")
	}
	return db, nil
}
