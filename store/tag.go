package store

import "context"

// Tag is a label owned by one user. Names are unique per user as written;
// names that differ only by case are distinct tags.
type Tag struct {
	Name      string
	CreatedTs int64
	ID        int32
	UserID    int32
}

// TagUsage is a tag with the number of notes carrying it.
type TagUsage struct {
	Tag
	UsageCount int
}

type FindTag struct {
	UserID *int32
	NoteID *int32
}

// SetNoteTags replaces the tags of a note, creating missing tags for the user.
type SetNoteTags struct {
	Names  []string
	NoteID int32
	UserID int32
}

func (s *Store) SetNoteTags(ctx context.Context, set *SetNoteTags) ([]*Tag, error) {
	tags, err := s.driver.SetNoteTags(ctx, set)
	if err != nil {
		return nil, err
	}
	s.tagUsageCache.Remove(set.UserID)
	return tags, nil
}

func (s *Store) ListTags(ctx context.Context, find *FindTag) ([]*Tag, error) {
	return s.driver.ListTags(ctx, find)
}

// ListTagUsages returns the user's tag vocabulary with usage counts.
func (s *Store) ListTagUsages(ctx context.Context, userID int32) ([]*TagUsage, error) {
	if usages, ok := s.tagUsageCache.Get(userID); ok {
		s.recordCache(true)
		return usages, nil
	}
	s.recordCache(false)

	usages, err := s.driver.ListTagUsages(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.tagUsageCache.Set(userID, usages, 0)
	return usages, nil
}

func (s *Store) recordCache(hit bool) {
	if s.recorder == nil {
		return
	}
	if hit {
		s.recorder.RecordCacheHit(tagUsageCacheType)
	} else {
		s.recorder.RecordCacheMiss(tagUsageCacheType)
	}
}
