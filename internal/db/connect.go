// Package db manages GORM connections and schema migration for slidegen.
package db

import (
	"fmt"

	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens a database connection for the configured driver. GORM's
// logger is silenced; the daemons do their own logging.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	switch cfg.Driver {
	case "sqlite", "":
		conn, err := gorm.Open(sqlite.Open(SqliteDSN(cfg.Path)), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("db: open sqlite %s: %w", cfg.Path, err)
		}
		return conn, nil
	case "mysql":
		conn, err := gorm.Open(mysql.Open(DSN(cfg)), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("db: connect to %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}
}

// SqliteDSN builds a sqlite DSN with a busy timeout, so concurrent workers
// and the gateway queue behind each other instead of failing fast.
func SqliteDSN(path string) string {
	if path == ":memory:" {
		return path
	}
	return fmt.Sprintf("%s?_busy_timeout=5000", path)
}

// DSN builds a MySQL connection string from config.
func DSN(cfg config.DatabaseConfig) string {
	auth := cfg.User
	if auth == "" {
		auth = "root"
	}
	if cfg.Password != "" {
		auth = auth + ":" + cfg.Password
	}
	return fmt.Sprintf("%s@tcp(%s:%d)/%s?parseTime=true", auth, cfg.Host, cfg.Port, cfg.Name)
}
