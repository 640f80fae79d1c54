package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/ideanote/store"
)

func (d *DB) CreateAIInteraction(ctx context.Context, create *store.CreateAIInteraction) (*store.AIInteraction, error) {
	var metadata sql.NullString
	if create.Metadata != nil {
		b, err := json.Marshal(create.Metadata)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal interaction metadata")
		}
		metadata = sql.NullString{String: string(b), Valid: true}
	}

	stmt := `
		INSERT INTO ai_interaction (note_id, parent_id, interaction_type, content, model_used, metadata, created_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_ts
	`
	interaction := &store.AIInteraction{
		NoteID:          create.NoteID,
		ParentID:        create.ParentID,
		InteractionType: create.InteractionType,
		Content:         create.Content,
		ModelUsed:       create.ModelUsed,
		Metadata:        create.Metadata,
	}
	if err := d.db.QueryRowContext(ctx, stmt,
		create.NoteID,
		create.ParentID,
		create.InteractionType,
		create.Content,
		create.ModelUsed,
		metadata,
		time.Now().Unix(),
	).Scan(&interaction.ID, &interaction.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to create ai interaction")
	}
	return interaction, nil
}

func (d *DB) ListAIInteractions(ctx context.Context, find *store.FindAIInteraction) ([]*store.AIInteraction, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.NoteID != nil {
		where, args = append(where, "note_id = ?"), append(args, *find.NoteID)
	}
	if find.ParentID != nil {
		where, args = append(where, "parent_id = ?"), append(args, *find.ParentID)
	}

	rows, err := d.db.QueryContext(ctx, `SELECT id, note_id, parent_id, interaction_type, content, model_used, metadata, created_ts
		FROM ai_interaction
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY created_ts ASC, id ASC`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list ai interactions")
	}
	defer rows.Close()

	var list []*store.AIInteraction
	for rows.Next() {
		var (
			interaction store.AIInteraction
			parentID    sql.NullInt32
			metadata    sql.NullString
		)
		if err := rows.Scan(
			&interaction.ID,
			&interaction.NoteID,
			&parentID,
			&interaction.InteractionType,
			&interaction.Content,
			&interaction.ModelUsed,
			&metadata,
			&interaction.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan ai interaction")
		}
		if parentID.Valid {
			interaction.ParentID = &parentID.Int32
		}
		if metadata.Valid && metadata.String != "" {
			interaction.Metadata = &store.AIInteractionMetadata{}
			if err := json.Unmarshal([]byte(metadata.String), interaction.Metadata); err != nil {
				return nil, errors.Wrap(err, "failed to unmarshal interaction metadata")
			}
		}
		list = append(list, &interaction)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate ai interactions")
	}
	return list, nil
}
