package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/ideanote/store"
)

func (d *DB) SetNoteTags(ctx context.Context, set *store.SetNoteTags) ([]*store.Tag, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	tags, err := replaceNoteTags(ctx, tx, set.UserID, set.NoteID, set.Names)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}
	return tags, nil
}

// replaceNoteTags swaps the tags of noteID inside tx, creating missing tags for userID.
func replaceNoteTags(ctx context.Context, tx *sql.Tx, userID, noteID int32, names []string) ([]*store.Tag, error) {
	upsert, err := tx.PrepareContext(ctx, `
		INSERT INTO tag (user_id, name, created_ts)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, name) DO UPDATE SET name = excluded.name
		RETURNING id, user_id, name, created_ts
	`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare statement")
	}
	defer upsert.Close()

	if _, err := tx.ExecContext(ctx, "DELETE FROM note_tag WHERE note_id = ?", noteID); err != nil {
		return nil, errors.Wrap(err, "failed to clear note tags")
	}

	now := time.Now().Unix()
	tags := make([]*store.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		var tag store.Tag
		if err := upsert.QueryRowContext(ctx, userID, name, now).Scan(
			&tag.ID,
			&tag.UserID,
			&tag.Name,
			&tag.CreatedTs,
		); err != nil {
			return nil, errors.Wrapf(err, "failed to upsert tag %q", name)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO note_tag (note_id, tag_id) VALUES (?, ?)",
			noteID, tag.ID,
		); err != nil {
			return nil, errors.Wrap(err, "failed to assign tag")
		}
		tags = append(tags, &tag)
	}
	return tags, nil
}

func (d *DB) ListTags(ctx context.Context, find *store.FindTag) ([]*store.Tag, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.UserID != nil {
		where, args = append(where, "tag.user_id = ?"), append(args, *find.UserID)
	}
	if find.NoteID != nil {
		where, args = append(where, "tag.id IN (SELECT tag_id FROM note_tag WHERE note_id = ?)"), append(args, *find.NoteID)
	}

	rows, err := d.db.QueryContext(ctx, `SELECT id, user_id, name, created_ts
		FROM tag
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY name`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tags")
	}
	defer rows.Close()

	var tags []*store.Tag
	for rows.Next() {
		var tag store.Tag
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan tag")
		}
		tags = append(tags, &tag)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate tags")
	}
	return tags, nil
}

func (d *DB) ListTagUsages(ctx context.Context, userID int32) ([]*store.TagUsage, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT tag.id, tag.user_id, tag.name, tag.created_ts, COUNT(note_tag.note_id)
		FROM tag
		LEFT JOIN note_tag ON note_tag.tag_id = tag.id
		WHERE tag.user_id = ?
		GROUP BY tag.id, tag.user_id, tag.name, tag.created_ts
		ORDER BY tag.id
	`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tag usages")
	}
	defer rows.Close()

	var usages []*store.TagUsage
	for rows.Next() {
		var u store.TagUsage
		if err := rows.Scan(&u.ID, &u.UserID, &u.Name, &u.CreatedTs, &u.UsageCount); err != nil {
			return nil, errors.Wrap(err, "failed to scan tag usage")
		}
		usages = append(usages, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate tag usages")
	}
	return usages, nil
}
