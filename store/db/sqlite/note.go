package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/ideanote/store"
)

// CreateNote inserts the note and assigns its tags in one transaction.
func (d *DB) CreateNote(ctx context.Context, create *store.CreateNote) (*store.Note, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	stmt := `
		INSERT INTO note (user_id, title, content, category, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, user_id, title, content, category, created_ts, updated_ts
	`
	var note store.Note
	err = tx.QueryRowContext(ctx, stmt,
		create.UserID,
		create.Title,
		create.Content,
		create.Category,
		now,
		now,
	).Scan(
		&note.ID,
		&note.UserID,
		&note.Title,
		&note.Content,
		&note.Category,
		&note.CreatedTs,
		&note.UpdatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create note")
	}

	if len(create.Tags) > 0 {
		if _, err := replaceNoteTags(ctx, tx, note.UserID, note.ID, create.Tags); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}
	return &note, nil
}

func (d *DB) ListNotes(ctx context.Context, find *store.FindNote) ([]*store.Note, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}

	query := `SELECT id, user_id, title, content, category, created_ts, updated_ts
		FROM note
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC`
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notes")
	}
	defer rows.Close()

	var notes []*store.Note
	for rows.Next() {
		var note store.Note
		if err := rows.Scan(
			&note.ID,
			&note.UserID,
			&note.Title,
			&note.Content,
			&note.Category,
			&note.CreatedTs,
			&note.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan note")
		}
		notes = append(notes, &note)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate notes")
	}
	return notes, nil
}

// UpdateNote changes the set fields of a note of update.UserID. Tags, when
// set, replace the note's tags in the same transaction.
func (d *DB) UpdateNote(ctx context.Context, update *store.UpdateNote) error {
	set, args := []string{"updated_ts = ?"}, []any{time.Now().Unix()}
	if update.Title != nil {
		set, args = append(set, "title = ?"), append(args, *update.Title)
	}
	if update.Content != nil {
		set, args = append(set, "content = ?"), append(args, *update.Content)
	}
	if update.Category != nil {
		set, args = append(set, "category = ?"), append(args, *update.Category)
	}
	args = append(args, update.ID, update.UserID)

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, "UPDATE note SET "+strings.Join(set, ", ")+" WHERE id = ? AND user_id = ?", args...)
	if err != nil {
		return errors.Wrap(err, "failed to update note")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return errors.Errorf("note %d not found", update.ID)
	}

	if update.Tags != nil {
		if _, err := replaceNoteTags(ctx, tx, update.UserID, update.ID, *update.Tags); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}
