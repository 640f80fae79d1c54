package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Migration methods.
	Migrations() []Migration
	CurrentSchemaVersion(ctx context.Context) (string, error)
	ApplyMigration(ctx context.Context, migration Migration) error

	// Note model related methods.
	CreateNote(ctx context.Context, create *CreateNote) (*Note, error)
	ListNotes(ctx context.Context, find *FindNote) ([]*Note, error)
	UpdateNote(ctx context.Context, update *UpdateNote) error

	// Tag model related methods.
	SetNoteTags(ctx context.Context, set *SetNoteTags) ([]*Tag, error)
	ListTags(ctx context.Context, find *FindTag) ([]*Tag, error)
	ListTagUsages(ctx context.Context, userID int32) ([]*TagUsage, error)

	// AIInteraction model related methods.
	CreateAIInteraction(ctx context.Context, create *CreateAIInteraction) (*AIInteraction, error)
	ListAIInteractions(ctx context.Context, find *FindAIInteraction) ([]*AIInteraction, error)
}
