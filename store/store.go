package store

import (
	"context"
	"time"

	"github.com/hrygo/ideanote/internal/profile"
	"github.com/hrygo/ideanote/store/cache"
)

const tagUsageCacheType = "tag_usage"

// CacheRecorder observes cache lookups.
type CacheRecorder interface {
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
}

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// per-user tag vocabulary, invalidated on every tag assignment
	tagUsageCache *cache.LRUCache[int32, []*TagUsage]
	recorder      CacheRecorder
}

// Option configures a Store.
type Option func(*Store)

// WithCacheRecorder sets the cache metrics recorder.
func WithCacheRecorder(r CacheRecorder) Option {
	return func(s *Store) {
		s.recorder = r
	}
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile, opts ...Option) *Store {
	s := &Store{
		driver:        driver,
		profile:       profile,
		tagUsageCache: cache.NewLRUCache[int32, []*TagUsage](1000, 10*time.Minute),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	s.tagUsageCache.Clear()
	return s.driver.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.driver.GetDB().PingContext(ctx)
}
