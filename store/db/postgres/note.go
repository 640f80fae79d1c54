package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/ideanote/store"
)

func (d *DB) CreateNote(ctx context.Context, create *store.CreateNote) (*store.Note, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	query := `
		INSERT INTO note (user_id, title, content, category, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, title, content, category, created_ts, updated_ts
	`
	var note store.Note
	err = tx.QueryRowContext(ctx, query,
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
	w := &whereBuilder{}
	if find.ID != nil {
		w.add("id = $%d", *find.ID)
	}
	if find.UserID != nil {
		w.add("user_id = $%d", *find.UserID)
	}

	query := `SELECT id, user_id, title, content, category, created_ts, updated_ts
		FROM note
		WHERE ` + w.clause() + `
		ORDER BY created_ts DESC, id DESC`
	if find.Limit != nil {
		query += " LIMIT " + w.next(*find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, w.args...)
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

func (d *DB) UpdateNote(ctx context.Context, update *store.UpdateNote) error {
	w := &whereBuilder{}
	set := []string{"updated_ts = " + w.next(time.Now().Unix())}
	if update.Title != nil {
		set = append(set, "title = "+w.next(*update.Title))
	}
	if update.Content != nil {
		set = append(set, "content = "+w.next(*update.Content))
	}
	if update.Category != nil {
		set = append(set, "category = "+w.next(*update.Category))
	}
	query := "UPDATE note SET " + strings.Join(set, ", ") +
		" WHERE id = " + w.next(update.ID) + " AND user_id = " + w.next(update.UserID)

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, query, w.args...)
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
