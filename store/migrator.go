package store

import (
	"context"
	"log/slog"
	"sort"

	"github.com/pkg/errors"

	"github.com/hrygo/ideanote/internal/version"
)

// Migration is one schema step, identified by the release that introduced it.
type Migration struct {
	Version    string
	Statements []string
}

// Migrate applies, in version order, every migration newer than the recorded
// schema version. Each migration runs in its own transaction.
func (s *Store) Migrate(ctx context.Context) error {
	current, err := s.driver.CurrentSchemaVersion(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to read schema version")
	}

	migrations := s.driver.Migrations()
	byVersion := make(map[string]Migration, len(migrations))
	versions := make([]string, 0, len(migrations))
	for _, m := range migrations {
		byVersion[m.Version] = m
		versions = append(versions, m.Version)
	}
	sort.Sort(version.SortVersion(versions))

	applied := 0
	for _, v := range versions {
		if current != "" && !version.IsVersionGreaterThan(v, current) {
			continue
		}
		if err := s.driver.ApplyMigration(ctx, byVersion[v]); err != nil {
			return errors.Wrapf(err, "failed to apply migration %s", v)
		}
		slog.Info("Applied schema migration", "version", v)
		applied++
	}

	if applied == 0 {
		slog.Debug("Schema up to date", "version", current)
	}
	return nil
}

// LatestVersion returns the highest of versions, or "" if there are none.
func LatestVersion(versions []string) string {
	if len(versions) == 0 {
		return ""
	}
	sorted := append([]string(nil), versions...)
	sort.Sort(version.SortVersion(sorted))
	return sorted[len(sorted)-1]
}
