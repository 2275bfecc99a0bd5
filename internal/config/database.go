package config

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"transit_admin/internal/logger"
	"transit_admin/internal/models"
)

// InitDB opens the database, enables PostGIS and migrates the route tables.
func InitDB(cfg DBConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.New(logger.GormLogger(), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS postgis;").Error; err != nil {
		logrus.WithError(err).Warn("Could not enable postgis; nearest vertex lookups will fail")
	}

	err = db.AutoMigrate(&models.Vertex{}, &models.RouteType{}, &models.BusRoute{}, &models.RouteEdge{})
	if err != nil {
		return nil, fmt.Errorf("auto-migration failed: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"host": cfg.Host,
		"db":   cfg.Name,
	}).Info("Database ready")
	return db, nil
}
