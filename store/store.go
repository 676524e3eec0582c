package store

import (
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/remindbot/internal/profile"
	"github.com/hrygo/remindbot/store/cache"
)

// ErrNotFound is returned by drivers when an update or delete matched no row.
var ErrNotFound = errors.New("not found")

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// Cache settings
	cacheConfig cache.Config

	// Caches
	userCache *cache.Cache // users keyed by telegram id
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	cacheConfig := cache.Config{
		DefaultTTL:      10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
		MaxItems:        10000,
	}

	return &Store{
		driver:      driver,
		profile:     profile,
		cacheConfig: cacheConfig,
		userCache:   cache.New(cacheConfig),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	s.userCache.Close()
	return s.driver.Close()
}

func telegramCacheKey(telegramID int64) string {
	return strconv.FormatInt(telegramID, 10)
}
