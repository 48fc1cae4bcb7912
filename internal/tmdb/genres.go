package tmdb

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type genreLister interface {
	GenreList(ctx context.Context, mediaType string) ([]Genre, error)
}

// Catalogue maps genre IDs to labels across movie and TV lists. It loads
// lazily and refreshes once the TTL elapses; a failed refresh keeps serving
// the previous catalogue. Only one load runs at a time, and callers that
// arrive during a refresh get the stale labels instead of waiting.
type Catalogue struct {
	source genreLister
	ttl    time.Duration
	now    func() time.Time
	title  cases.Caser

	mu        sync.Mutex
	labels    map[int]string
	fetchedAt time.Time
	loading   chan struct{}
	lastErr   error
}

// NewCatalogue builds a catalogue backed by source.
func NewCatalogue(source genreLister, ttl time.Duration) *Catalogue {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Catalogue{
		source: source,
		ttl:    ttl,
		now:    time.Now,
		title:  cases.Title(language.English, cases.NoLower),
	}
}

// Labels returns the id to label mapping.
func (c *Catalogue) Labels(ctx context.Context) (map[int]string, error) {
	c.mu.Lock()
	if c.labels != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		labels := c.labels
		c.mu.Unlock()
		return labels, nil
	}
	if done := c.loading; done != nil {
		stale := c.labels
		c.mu.Unlock()
		if stale != nil {
			return stale, nil
		}
		if err := wait(ctx, done); err != nil {
			return nil, err
		}
		return c.snapshot()
	}
	done := c.begin()
	c.mu.Unlock()

	_ = c.fetch(ctx, done)
	return c.snapshot()
}

// Refresh reloads the catalogue regardless of its age. When a load is
// already running it waits for that one instead. On failure the previous
// labels stay in place and the error is returned.
func (c *Catalogue) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if done := c.loading; done != nil {
		c.mu.Unlock()
		if err := wait(ctx, done); err != nil {
			return err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.lastErr
	}
	done := c.begin()
	c.mu.Unlock()
	return c.fetch(ctx, done)
}

// begin marks a load in flight. Callers hold c.mu.
func (c *Catalogue) begin() chan struct{} {
	done := make(chan struct{})
	c.loading = done
	return done
}

func (c *Catalogue) fetch(ctx context.Context, done chan struct{}) error {
	labels, err := c.load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = nil
	close(done)
	c.lastErr = err
	if err != nil {
		return err
	}
	c.labels = labels
	c.fetchedAt = c.now()
	return nil
}

func (c *Catalogue) snapshot() (map[int]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.labels != nil {
		return c.labels, nil
	}
	if c.lastErr != nil {
		return nil, c.lastErr
	}
	return nil, errors.New("genre catalogue not loaded")
}

func wait(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Catalogue) load(ctx context.Context) (map[int]string, error) {
	labels := make(map[int]string)
	// Movie labels win where both lists share an id.
	for _, mediaType := range []string{MediaMovie, MediaTV} {
		genres, err := c.source.GenreList(ctx, mediaType)
		if err != nil {
			return nil, err
		}
		for _, g := range genres {
			name := strings.TrimSpace(g.Name)
			if g.ID <= 0 || name == "" {
				continue
			}
			if _, exists := labels[g.ID]; exists {
				continue
			}
			labels[g.ID] = c.title.String(name)
		}
	}
	return labels, nil
}

// Names maps ids to labels, skipping ids the catalogue does not know.
func (c *Catalogue) Names(ctx context.Context, ids []int) ([]string, error) {
	labels, err := c.Labels(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := labels[id]; ok {
			out = append(out, name)
		}
	}
	return out, nil
}

// List returns the catalogue sorted by label.
func (c *Catalogue) List(ctx context.Context) ([]Genre, error) {
	labels, err := c.Labels(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Genre, 0, len(labels))
	for id, name := range labels {
		out = append(out, Genre{ID: id, Name: name})
	}
	slices.SortFunc(out, func(a, b Genre) int {
		if cmp := strings.Compare(a.Name, b.Name); cmp != 0 {
			return cmp
		}
		return a.ID - b.ID
	})
	return out, nil
}
