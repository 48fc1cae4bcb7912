// Package tmdbcache persists TMDB response bodies in a Badger key/value store
// with per-entry TTLs so repeat lookups survive restarts without hitting the
// API.
package tmdbcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"marquee/internal/logging"
)

const keyPrefix = "tmdb:v1:"

// ErrDisabled is returned by Open when no cache directory is configured.
var ErrDisabled = errors.New("tmdb cache disabled")

// Cache stores raw TMDB responses keyed by request path and query.
type Cache struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger
}

// Open opens (or creates) the cache in dir. Entries expire after ttl.
func Open(dir string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" || ttl <= 0 {
		return nil, ErrDisabled
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	logger = logging.NewComponentLogger(logger, "tmdbcache")

	opts := badger.DefaultOptions(dir)
	opts.Logger = badgerLogger{logger: logger}
	opts.MetricsEnabled = false
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open tmdb cache: %w", err)
	}
	return &Cache{db: db, ttl: ttl, logger: logger}, nil
}

// Get returns the cached body for key.
func (c *Cache) Get(key string) ([]byte, bool) {
	if c == nil || c.db == nil {
		return nil, false
	}
	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Debug("tmdb cache read failed", logging.String("key", key), logging.Error(err))
		}
		return nil, false
	}
	return value, true
}

// Set stores value under key with the cache TTL.
func (c *Cache) Set(key string, value []byte) error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(keyPrefix+key), value).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Cache) Delete(key string) error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + key))
	})
}

// Purge drops every cached response.
func (c *Cache) Purge() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.DropPrefix([]byte(keyPrefix))
}

// CollectGarbage rewrites value log files until badger reports nothing left
// to reclaim. Expired entries only free disk space this way.
func (c *Cache) CollectGarbage(ctx context.Context) error {
	if c == nil || c.db == nil {
		return nil
	}
	for ctx.Err() == nil {
		err := c.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("tmdb cache gc: %w", err)
		}
	}
	return ctx.Err()
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// badgerLogger forwards Badger's printf-style logging into slog. Info and
// debug chatter is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
