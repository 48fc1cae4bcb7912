// Package facematch ranks actors by how closely their precomputed face
// embedding resembles a query embedding.
package facematch

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/goccy/go-json"

	"marquee/internal/affinity"
	"marquee/internal/logging"
	"marquee/internal/services"
)

// ErrEmptyQuery is returned when Match is called without an embedding.
var ErrEmptyQuery = fmt.Errorf("facematch: query embedding required: %w", services.ErrValidation)

// Actor is one entry of the embedding set.
type Actor struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	ProfilePath string    `json:"profile_path,omitempty"`
	Embedding   []float64 `json:"embedding"`
}

// Match is a ranked look-alike.
type Match struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	ProfilePath string  `json:"profile_path,omitempty"`
	Score       float64 `json:"score"`
}

// Matcher holds an immutable embedding set. Safe for concurrent use.
type Matcher struct {
	actors   []Actor
	minScore float64
	topK     int
}

// Option customizes a Matcher.
type Option func(*Matcher)

// WithMinScore drops matches scoring below min.
func WithMinScore(min float64) Option {
	return func(m *Matcher) { m.minScore = min }
}

// WithTopK caps the number of matches returned. Values <= 0 mean no cap.
func WithTopK(k int) Option {
	return func(m *Matcher) { m.topK = k }
}

// New builds a matcher over actors. Entries without an embedding are ignored.
func New(actors []Actor, opts ...Option) *Matcher {
	m := &Matcher{}
	for _, opt := range opts {
		opt(m)
	}
	m.actors = make([]Actor, 0, len(actors))
	for _, a := range actors {
		if len(a.Embedding) == 0 || !finite(a.Embedding) {
			continue
		}
		a.Name = strings.TrimSpace(a.Name)
		a.Embedding = slices.Clone(a.Embedding)
		m.actors = append(m.actors, a)
	}
	return m
}

// Load reads a JSON array of actors from path. A blank path, a missing file
// or an empty file yield a matcher with no actors.
func Load(path string, logger *slog.Logger, opts ...Option) (*Matcher, error) {
	logger = logging.NewComponentLogger(loggerOrNop(logger), "facematch")
	path = strings.TrimSpace(path)
	if path == "" {
		return New(nil, opts...), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.WarnWithContext(logger, "embedding file not found", "embeddings_missing",
				logging.String("path", path),
				logging.String(logging.FieldErrorHint, "set faces.embeddings_path to a generated embedding set"),
				logging.String(logging.FieldImpact, "face matching returns no results"),
			)
			return New(nil, opts...), nil
		}
		return nil, fmt.Errorf("facematch: read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return New(nil, opts...), nil
	}
	var actors []Actor
	if err := json.Unmarshal(data, &actors); err != nil {
		return nil, fmt.Errorf("facematch: decode %s: %w: %w", path, services.ErrConfiguration, err)
	}
	m := New(actors, opts...)
	if skipped := len(actors) - len(m.actors); skipped > 0 {
		logger.Info("skipped actors without usable embeddings", logging.Int("skipped", skipped))
	}
	logger.Info("embedding set loaded", logging.String("path", path), logging.Int("actors", len(m.actors)))
	return m, nil
}

// Len reports the number of loaded actors.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.actors)
}

// Match ranks actors against query by cosine similarity. Actors whose
// embedding length differs from the query are skipped. Results are sorted by
// descending score with ties kept in load order.
func (m *Matcher) Match(query []float64) ([]Match, error) {
	if len(query) == 0 || !finite(query) {
		return nil, ErrEmptyQuery
	}
	if m == nil {
		return []Match{}, nil
	}
	matches := make([]Match, 0, len(m.actors))
	for _, a := range m.actors {
		if len(a.Embedding) != len(query) {
			continue
		}
		score := affinity.Cosine(query, a.Embedding)
		if score < m.minScore {
			continue
		}
		matches = append(matches, Match{ID: a.ID, Name: a.Name, ProfilePath: a.ProfilePath, Score: score})
	}
	slices.SortStableFunc(matches, func(a, b Match) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if m.topK > 0 && len(matches) > m.topK {
		matches = matches[:m.topK]
	}
	return matches, nil
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func loggerOrNop(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return logging.NewNop()
	}
	return logger
}
