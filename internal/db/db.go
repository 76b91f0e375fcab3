package db

import (
	"fmt"
	"log"
	"strings"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the database for driver ("sqlite" or "mysql") and runs
// automigrations for models.
//
// The default sqlite DSN is in-memory: notebooks live as long as the process.
// Queue mode needs a DSN the API and the worker can both reach (mysql).
func Connect(driver, dsn string, zl *zap.Logger, models ...any) (*gorm.DB, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	var dialector gorm.Dialector
	switch driver {
	case "", "sqlite":
		driver = "sqlite"
		dialector = gormsqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	gormLogger := logger.New(
		log.New(loggerWriter{zl: zl}, "", 0),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// a single connection keeps the shared in-memory database alive and
		// avoids "database is locked"
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	}

	if len(models) > 0 {
		if err := gdb.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}
	return gdb, nil
}

// loggerWriter satisfies io.Writer for the gorm logger and forwards to zap.
type loggerWriter struct {
	zl *zap.Logger
}

func (w loggerWriter) Write(p []byte) (int, error) {
	if w.zl != nil {
		w.zl.Warn("gorm", zap.String("msg", strings.TrimSpace(string(p))))
	}
	return len(p), nil
}
