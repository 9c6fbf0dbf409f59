package database

import (
	"context"
	"database/sql"
	"sync"

	"github.com/npezzotti/basic-chat/internal/database/migrations"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// goose keeps its base FS, dialect and logger in package globals.
var migrateMu sync.Mutex

var gooseUpContext = goose.UpContext

type gooseLogger struct {
	log *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Infof(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Fatalf(format, v...)
}

func runMigrations(ctx context.Context, db *sql.DB, d dialect, logger *zap.SugaredLogger) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(gooseLogger{log: logger.Named("migrate")})

	if err := goose.SetDialect(d.driverName()); err != nil {
		return err
	}

	return gooseUpContext(ctx, db, d.migrationDir())
}
