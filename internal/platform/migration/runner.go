// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migration applies the SQL files under data/migrations with
// golang-migrate before the API accepts traffic.
//
// The users schema, the refresh grant table and the seeded permission groups
// all arrive through it, so a fresh database is usable after one RunUp.
package migration

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/TimGrootscholten/tournaments-server/data/migrations"
)

const (
	pgx5Scheme = "pgx5://"

	// lockTimeout bounds the wait on the advisory lock held by another replica
	// migrating the same database.
	lockTimeout = 30 * time.Second
)

/*
RunUp brings the database at dsn to the newest migration.

Description: Reads migrations from dir when it is set, otherwise from the
copy embedded in the binary. A dirty schema version is reported rather than
forced. Cancelling context asks golang-migrate to stop after the current file.

Parameters:
  - context: context.Context
  - dsn: postgres:// URL or key=value DSN
  - dir: optional migrations directory override
  - logger: *slog.Logger

Returns:
  - error: Source, lock, dirty-state or SQL failures
*/
func RunUp(context context.Context, dsn, dir string, logger *slog.Logger) error {
	var files fs.FS = migrations.Files
	if dir != "" {
		files = os.DirFS(dir)
	}

	source, err := iofs.New(files, ".")
	if err != nil {
		return fmt.Errorf("migration: open source: %w", err)
	}

	migrator, err := migrate.NewWithSourceInstance("iofs", source, convertToPgx5DSN(dsn))
	if err != nil {
		return fmt.Errorf("migration: failed to initialize: %w", err)
	}
	defer closeMigrator(migrator, logger)

	migrator.LockTimeout = lockTimeout
	migrator.Log = &slogAdapter{logger: logger, verbose: logger.Enabled(context, slog.LevelDebug)}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-context.Done():
			migrator.GracefulStop <- true
		case <-stop:
		}
	}()

	from, dirty, err := migrator.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
	case err != nil:
		return fmt.Errorf("migration: read version: %w", err)
	case dirty:
		return fmt.Errorf("migration: version %d is dirty; fix the schema and force the version by hand", from)
	}

	err = migrator.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("migration_up_to_date", slog.Uint64("version", uint64(from)))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration: up from version %d: %w", from, err)
	}

	to, _, _ := migrator.Version()
	logger.Info("migration_applied",
		slog.Uint64("from_version", uint64(from)),
		slog.Uint64("to_version", uint64(to)),
	)
	return nil
}

func closeMigrator(migrator *migrate.Migrate, logger *slog.Logger) {
	sourceErr, databaseErr := migrator.Close()
	if err := errors.Join(sourceErr, databaseErr); err != nil {
		logger.Warn("migration_close_failed", slog.Any("error", err))
	}
}

// convertToPgx5DSN rewrites postgres:// and postgresql:// URLs to the pgx5://
// scheme golang-migrate registers for pgx/v5. Other DSNs pass through.
func convertToPgx5DSN(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, prefix); ok {
			return pgx5Scheme + rest
		}
	}
	return dsn
}

// slogAdapter satisfies migrate.Logger; golang-migrate's per-file progress
// lines are emitted at debug.
type slogAdapter struct {
	logger  *slog.Logger
	verbose bool
}

func (adapter *slogAdapter) Printf(format string, args ...any) {
	adapter.logger.Debug("migration_progress", slog.String("detail", strings.TrimSpace(fmt.Sprintf(format, args...))))
}

func (adapter *slogAdapter) Verbose() bool {
	return adapter.verbose
}
