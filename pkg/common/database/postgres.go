package database

import (
	"fmt"

	"github.com/simple-clinic/clinic-sync/pkg/common/config"
	"github.com/simple-clinic/clinic-sync/pkg/common/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var pg connection[*gorm.DB]

func PostgresDSN(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.PostgresHost,
		cfg.PostgresUser,
		cfg.PostgresPassword,
		cfg.PostgresDB,
		cfg.PostgresPort,
		cfg.PostgresSSLMode,
	)
}

// GetPostgres opens the shared pool on first use. Later calls return the same
// pool, or the error of the first attempt.
func GetPostgres(cfg *config.Config) (*gorm.DB, error) {
	return pg.get(func() (*gorm.DB, error) {
		db, err := gorm.Open(postgres.Open(PostgresDSN(cfg)), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			logger.Log.WithError(err).Error("Failed to connect to PostgreSQL")
			return nil, fmt.Errorf("connect postgres %s:%s: %w", cfg.PostgresHost, cfg.PostgresPort, err)
		}

		logger.Log.WithField("database", cfg.PostgresDB).Info("Connected to PostgreSQL")
		return db, nil
	})
}

func ClosePostgres() error {
	if pg.val == nil {
		return nil
	}
	sqlDB, err := pg.val.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
