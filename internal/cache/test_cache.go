package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/lshigami/bandwise/config"
	"github.com/lshigami/bandwise/internal/dto"
	"github.com/lshigami/bandwise/internal/event"
	"github.com/lshigami/bandwise/internal/model"
	"github.com/rs/zerolog/log"
)

const (
	defaultTTL = 10 * time.Minute

	listVersionKey = "tests:list:version"
)

func testVersionKey(id uint) string { return fmt.Sprintf("test:%d:version", id) }

func listFilter(skill model.Skill) string {
	if skill == "" {
		return "all"
	}
	return string(skill)
}

// Slot is where a value read from the database may be cached. It is taken
// before the database read; an invalidation in between moves readers to a
// new version, so the late fill lands where nobody looks.
type Slot struct {
	key string
}

// TestCache is the read side for test content and test listings. Entries
// live under versioned keys and change events bump the version; cache
// failures are logged and treated as misses.
type TestCache struct {
	store Store
	ttl   time.Duration
}

func NewTestCache(store Store, cfg *config.Config) *TestCache {
	ttl := cfg.Redis.CacheTTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &TestCache{store: store, ttl: ttl}
}

func (c *TestCache) version(ctx context.Context, key string) (int64, error) {
	var v int64
	if _, err := c.store.Get(ctx, key, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func (c *TestCache) GetTest(ctx context.Context, id uint) (*model.Test, Slot, bool) {
	v, err := c.version(ctx, testVersionKey(id))
	if err != nil {
		log.Warn().Err(err).Uint("testID", id).Msg("TestCache: version read failed, bypassing cache")
		return nil, Slot{}, false
	}
	slot := Slot{key: fmt.Sprintf("test:%d:v%d", id, v)}

	var test model.Test
	hit, err := c.store.Get(ctx, slot.key, &test)
	if err != nil {
		log.Warn().Err(err).Uint("testID", id).Msg("TestCache: read failed, treating as miss")
		return nil, slot, false
	}
	if !hit {
		return nil, slot, false
	}
	return &test, slot, true
}

func (c *TestCache) SetTest(ctx context.Context, slot Slot, test *model.Test) {
	if slot.key == "" {
		return
	}
	if err := c.store.Set(ctx, slot.key, test, c.ttl); err != nil {
		log.Warn().Err(err).Uint("testID", test.ID).Msg("TestCache: write failed")
	}
}

func (c *TestCache) GetList(ctx context.Context, skill model.Skill) ([]dto.TestSummaryDTO, Slot, bool) {
	v, err := c.version(ctx, listVersionKey)
	if err != nil {
		log.Warn().Err(err).Str("skill", string(skill)).Msg("TestCache: list version read failed, bypassing cache")
		return nil, Slot{}, false
	}
	slot := Slot{key: fmt.Sprintf("tests:list:%s:v%d", listFilter(skill), v)}

	var list []dto.TestSummaryDTO
	hit, err := c.store.Get(ctx, slot.key, &list)
	if err != nil {
		log.Warn().Err(err).Str("skill", string(skill)).Msg("TestCache: list read failed, treating as miss")
		return nil, slot, false
	}
	return list, slot, hit
}

func (c *TestCache) SetList(ctx context.Context, slot Slot, list []dto.TestSummaryDTO) {
	if slot.key == "" {
		return
	}
	if err := c.store.Set(ctx, slot.key, list, c.ttl); err != nil {
		log.Warn().Err(err).Str("slot", slot.key).Msg("TestCache: list write failed")
	}
}

// OnChange retires every view derived from the changed test by bumping
// its version. Old entries expire with the TTL. Submission events do not
// touch cached test content.
func (c *TestCache) OnChange(ctx context.Context, change event.Change) {
	switch change.Kind {
	case event.TestCreated, event.TestUpdated, event.TestDeleted:
	default:
		return
	}

	keys := []string{listVersionKey}
	if change.TestID != 0 {
		keys = append(keys, testVersionKey(change.TestID))
	}
	for _, key := range keys {
		if _, err := c.store.Incr(ctx, key); err != nil {
			log.Error().Err(err).Str("kind", string(change.Kind)).Uint("testID", change.TestID).Str("key", key).Msg("TestCache: invalidation failed")
			return
		}
	}
	log.Debug().Str("kind", string(change.Kind)).Uint("testID", change.TestID).Msg("TestCache: invalidated")
}
