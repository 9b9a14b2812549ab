package infra

import (
	"errors"
	"fmt"
	"time"

	infrarepo "github.com/entuziaz/csvup-server/infra/repository"
	"github.com/entuziaz/csvup-server/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDBConnection opens the configured database and migrates the schema when
// auto migration is enabled.
func NewDBConnection(
	cnf *config.DB,
	appEnv string,
) (*gorm.DB, error) {
	if cnf == nil || cnf.Url == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	var dialector gorm.Dialector
	switch cnf.Driver {
	case "postgres":
		dialector = postgres.Open(cnf.Url)
	case "sqlite", "":
		dialector = sqlite.Open(cnf.Url)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cnf.Driver)
	}

	var logMode logger.LogLevel
	if appEnv == "development" {
		logMode = logger.Warn
	} else {
		logMode = logger.Silent
	}

	connection, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := connection.DB()
	if err != nil {
		return nil, err
	}
	maxOpen := cnf.MaxOpenConn
	if cnf.Driver != "postgres" {
		// sqlite allows one writer
		maxOpen = 1
	}
	if maxOpen <= 0 {
		maxOpen = 25
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxOpen)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	if cnf.AutoMigrate {
		if err := infrarepo.AutoMigrate(connection); err != nil {
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	return connection, nil
}
