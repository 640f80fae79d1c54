package sqlite

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/ideanote/store"
)

var migrations = []store.Migration{
	{
		Version: "0.1.0",
		Statements: []string{
			`CREATE TABLE note (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER NOT NULL,
				title TEXT NOT NULL,
				content TEXT NOT NULL,
				category TEXT NOT NULL DEFAULT '',
				created_ts BIGINT NOT NULL,
				updated_ts BIGINT NOT NULL
			)`,
			`CREATE INDEX idx_note_user_id ON note (user_id)`,
			`CREATE TABLE tag (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER NOT NULL,
				name TEXT NOT NULL,
				created_ts BIGINT NOT NULL,
				UNIQUE (user_id, name)
			)`,
			`CREATE TABLE note_tag (
				note_id INTEGER NOT NULL REFERENCES note (id) ON DELETE CASCADE,
				tag_id INTEGER NOT NULL REFERENCES tag (id) ON DELETE CASCADE,
				PRIMARY KEY (note_id, tag_id)
			)`,
			`CREATE INDEX idx_note_tag_tag_id ON note_tag (tag_id)`,
		},
	},
	{
		Version: "0.2.0",
		Statements: []string{
			`CREATE TABLE ai_interaction (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				note_id INTEGER NOT NULL REFERENCES note (id) ON DELETE CASCADE,
				parent_id INTEGER REFERENCES ai_interaction (id) ON DELETE SET NULL,
				interaction_type TEXT NOT NULL,
				content TEXT NOT NULL,
				model_used TEXT NOT NULL,
				metadata TEXT,
				created_ts BIGINT NOT NULL
			)`,
			`CREATE INDEX idx_ai_interaction_note_id ON ai_interaction (note_id)`,
		},
	},
}

func (*DB) Migrations() []store.Migration {
	return migrations
}

func (d *DB) CurrentSchemaVersion(ctx context.Context) (string, error) {
	if _, err := d.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS migration_history (
		version TEXT PRIMARY KEY,
		applied_ts BIGINT NOT NULL
	)`); err != nil {
		return "", errors.Wrap(err, "failed to create migration_history")
	}

	rows, err := d.db.QueryContext(ctx, "SELECT version FROM migration_history")
	if err != nil {
		return "", errors.Wrap(err, "failed to list migration history")
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return "", errors.Wrap(err, "failed to scan migration version")
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return store.LatestVersion(versions), nil
}

func (d *DB) ApplyMigration(ctx context.Context, migration store.Migration) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	for _, stmt := range migration.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to execute migration statement: %s", stmt)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO migration_history (version, applied_ts) VALUES (?, ?)",
		migration.Version, time.Now().Unix(),
	); err != nil {
		return errors.Wrap(err, "failed to record migration")
	}
	return tx.Commit()
}
