package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	sqlite3 "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sh1ma/hibikase/internal/models"
)

// DB is the process-wide gorm handle, set by Init.
var DB *gorm.DB

// Init opens the database and migrates the schema. dbType selects the
// driver: "sqlite" (pure Go), "sqlite3" (cgo) or "postgres".
func Init(dbType, connString string) error {
	dialector, err := open(dbType, connString)
	if err != nil {
		return err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("opening %s database: %w", dbType, err)
	}

	if err := db.AutoMigrate(
		&models.AwardConfig{},
		&models.AwardSchedule{},
		&models.TrackedMessage{},
		&models.QuakeConfig{},
		&models.APIHealthStat{},
	); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}

	DB = db
	return nil
}

func open(dbType, connString string) (gorm.Dialector, error) {
	switch dbType {
	case "sqlite", "":
		if err := ensureDir(connString); err != nil {
			return nil, err
		}
		return sqlite.Open(connString), nil
	case "sqlite3":
		if err := ensureDir(connString); err != nil {
			return nil, err
		}
		return sqlite3.Open(connString), nil
	case "postgres":
		return postgres.Open(connString), nil
	default:
		return nil, fmt.Errorf("unknown DATABASE_TYPE %q", dbType)
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
