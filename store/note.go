package store

import "context"

type Note struct {
	Title     string
	Content   string
	Category  string
	CreatedTs int64
	UpdatedTs int64
	ID        int32
	UserID    int32
}

// CreateNote creates a note with its tags.
type CreateNote struct {
	Title    string
	Content  string
	Category string
	Tags     []string
	UserID   int32
}

type FindNote struct {
	ID     *int32
	UserID *int32
	Limit  *int
}

// UpdateNote changes a note owned by UserID. Nil fields are left as they are;
// a non-nil Tags replaces the note's tags.
type UpdateNote struct {
	Title    *string
	Content  *string
	Category *string
	Tags     *[]string
	ID       int32
	UserID   int32
}

func (s *Store) CreateNote(ctx context.Context, create *CreateNote) (*Note, error) {
	note, err := s.driver.CreateNote(ctx, create)
	if err != nil {
		return nil, err
	}
	if len(create.Tags) > 0 {
		s.tagUsageCache.Remove(create.UserID)
	}
	return note, nil
}

func (s *Store) ListNotes(ctx context.Context, find *FindNote) ([]*Note, error) {
	return s.driver.ListNotes(ctx, find)
}

// GetNote returns the note matching find, or nil if there is none.
func (s *Store) GetNote(ctx context.Context, find *FindNote) (*Note, error) {
	limit := 1
	find.Limit = &limit
	notes, err := s.driver.ListNotes(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, nil
	}
	return notes[0], nil
}

func (s *Store) UpdateNote(ctx context.Context, update *UpdateNote) error {
	if err := s.driver.UpdateNote(ctx, update); err != nil {
		return err
	}
	if update.Tags != nil {
		s.tagUsageCache.Remove(update.UserID)
	}
	return nil
}
