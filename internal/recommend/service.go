package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"marquee/internal/affinity"
	"marquee/internal/logging"
	"marquee/internal/services"
	"marquee/internal/store"
	"marquee/internal/tmdb"
)

// Reasons attached to a recommendation list.
const (
	ReasonGenres   = "genres"
	ReasonTrending = "trending"
)

const (
	defaultTopGenres = 3
	defaultLimit     = 20
	maxLimit         = 100
	maxPages         = 3
)

// Store is the persistence the service reads and writes.
type Store interface {
	ListFavorites(ctx context.Context, userID, mediaType string) ([]store.Favorite, error)
	ListReviewsByUser(ctx context.Context, userID, contentType string) ([]store.Review, error)
	SaveAffinitySnapshot(ctx context.Context, userID string, shares []affinity.Share) (*store.AffinitySnapshot, error)
}

// Provider supplies candidate titles.
type Provider interface {
	Trending(ctx context.Context, mediaType, window string, page int) (*tmdb.Response, error)
	Discover(ctx context.Context, mediaType string, opts tmdb.DiscoverOptions) (*tmdb.Response, error)
}

// GenreLabeler maps genre ids to display labels.
type GenreLabeler interface {
	Labels(ctx context.Context) (map[int]string, error)
}

// Service computes affinity profiles and recommendations.
type Service struct {
	store     Store
	provider  Provider
	genres    GenreLabeler
	topGenres int
	limit     int
	logger    *slog.Logger
	now       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithTopGenres sets how many ranked genres seed a discover query.
func WithTopGenres(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topGenres = n
		}
	}
}

// WithLimit sets the default number of recommendations.
func WithLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.limit = min(n, maxLimit)
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Service. genres may be nil, in which case reviews do not
// contribute to the affinity profile.
func New(st Store, provider Provider, genres GenreLabeler, opts ...Option) *Service {
	s := &Service{
		store:     st,
		provider:  provider,
		genres:    genres,
		topGenres: defaultTopGenres,
		limit:     defaultLimit,
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "recommend")
	return s
}

// Profile is a computed genre affinity.
type Profile struct {
	UserID     string           `json:"user_id"`
	Shares     []affinity.Share `json:"shares"`
	ComputedAt time.Time        `json:"computed_at"`
}

// Affinity computes the user's genre affinity from favorites and positive
// reviews and stores a snapshot of it. A failed snapshot write is logged and
// does not fail the call.
func (s *Service) Affinity(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("recommend affinity: user id required: %w", services.ErrValidation)
	}
	ctx = services.WithOperation(ctx, "affinity")
	favorites, err := s.store.ListFavorites(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("recommend affinity: list favorites: %w", err)
	}
	reviews, err := s.store.ListReviewsByUser(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("recommend affinity: list reviews: %w", err)
	}

	items := make([]affinity.Labels, 0, len(favorites)+len(reviews))
	for _, fav := range favorites {
		items = append(items, affinity.Labels(fav.GenreLabels()))
	}
	items = append(items, s.reviewLabels(ctx, reviews)...)

	shares := affinity.GenreShares(items)
	profile := &Profile{UserID: userID, Shares: shares, ComputedAt: s.now().UTC()}
	if snap, err := s.store.SaveAffinitySnapshot(ctx, userID, shares); err != nil {
		logging.WarnWithContext(s.logger, "affinity snapshot not saved", "affinity_snapshot_failed",
			logging.String(logging.FieldUserID, userID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "cached affinity profile is stale"),
		)
	} else if snap != nil {
		profile.ComputedAt = snap.ComputedAt
	}
	return profile, nil
}

func (s *Service) reviewLabels(ctx context.Context, reviews []store.Review) []affinity.Labels {
	positive := make([]store.Review, 0, len(reviews))
	for _, r := range reviews {
		if r.Sentiment == store.SentimentPositive && len(r.GenreIDs) > 0 {
			positive = append(positive, r)
		}
	}
	if len(positive) == 0 || s.genres == nil {
		return nil
	}
	labels, err := s.genres.Labels(ctx)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "genre catalogue unavailable", "genre_catalogue_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check TMDB connectivity"),
			logging.String(logging.FieldImpact, "reviews excluded from affinity"),
		)
		return nil
	}
	out := make([]affinity.Labels, 0, len(positive))
	for _, r := range positive {
		names := make(affinity.Labels, 0, len(r.GenreIDs))
		for _, id := range r.GenreIDs {
			if name, ok := labels[id]; ok {
				names = append(names, name)
			}
		}
		out = append(out, names)
	}
	return out
}

// Recommendations is a ranked list of suggested titles.
type Recommendations struct {
	ContentType string        `json:"content_type"`
	Reason      string        `json:"reason"`
	GenreIDs    []int         `json:"genre_ids"`
	Items       []tmdb.Result `json:"items"`
}

// Recommend suggests up to limit titles of contentType. Titles are
// discovered by the user's top positively reviewed genres, or taken from the
// weekly trending list when no genre qualifies or discovery finds nothing.
func (s *Service) Recommend(ctx context.Context, userID, contentType string, limit int) (*Recommendations, error) {
	if userID == "" {
		return nil, fmt.Errorf("recommend: user id required: %w", services.ErrValidation)
	}
	mediaType, err := tmdb.NormalizeMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("recommend: %w: %w", services.ErrValidation, err)
	}
	if limit <= 0 {
		limit = s.limit
	}
	limit = min(limit, maxLimit)
	ctx = services.WithOperation(ctx, "recommend")
	logger := logging.WithContext(ctx, s.logger)

	reviews, err := s.store.ListReviewsByUser(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("recommend: list reviews: %w", err)
	}
	favorites, err := s.store.ListFavorites(ctx, userID, mediaType)
	if err != nil {
		return nil, fmt.Errorf("recommend: list favorites: %w", err)
	}

	signals := make([]affinity.ReviewSignal, 0, len(reviews))
	exclude := make(map[int64]struct{}, len(reviews)+len(favorites))
	for _, r := range reviews {
		signals = append(signals, r.Signal())
		if r.ContentType == mediaType {
			exclude[r.ContentID] = struct{}{}
		}
	}
	for _, f := range favorites {
		exclude[f.TMDBID] = struct{}{}
	}

	recs := &Recommendations{
		ContentType: mediaType,
		GenreIDs:    affinity.TopGenres(signals, mediaType, s.topGenres),
		Items:       []tmdb.Result{},
	}
	if len(recs.GenreIDs) > 0 {
		recs.Reason = ReasonGenres
		recs.Items, err = s.collect(limit, exclude, func(page int) (*tmdb.Response, error) {
			return s.provider.Discover(ctx, mediaType, tmdb.DiscoverOptions{GenreIDs: recs.GenreIDs, Page: page})
		})
		if err != nil {
			return nil, fmt.Errorf("recommend: discover: %w", err)
		}
	}
	if len(recs.Items) == 0 {
		if recs.Reason == ReasonGenres {
			logger.Info("discover returned nothing new, using trending",
				logging.String(logging.FieldUserID, userID),
				logging.Any("genre_ids", recs.GenreIDs),
			)
		}
		recs.Reason = ReasonTrending
		recs.Items, err = s.collect(limit, exclude, func(page int) (*tmdb.Response, error) {
			return s.provider.Trending(ctx, mediaType, tmdb.WindowWeek, page)
		})
		if err != nil {
			return nil, fmt.Errorf("recommend: trending: %w", err)
		}
	}
	return recs, nil
}

// collect pages through fetch until limit unseen titles are gathered or the
// source runs out.
func (s *Service) collect(limit int, exclude map[int64]struct{}, fetch func(page int) (*tmdb.Response, error)) ([]tmdb.Result, error) {
	out := make([]tmdb.Result, 0, limit)
	for page := 1; page <= maxPages && len(out) < limit; page++ {
		resp, err := fetch(page)
		if err != nil {
			if len(out) > 0 {
				s.logger.Debug("stopping pagination after error", logging.Int("page", page), logging.Error(err))
				break
			}
			return nil, err
		}
		for _, r := range resp.Results {
			if _, skip := exclude[r.ID]; skip {
				continue
			}
			exclude[r.ID] = struct{}{}
			out = append(out, r)
			if len(out) >= limit {
				break
			}
		}
		if resp.TotalPages <= page {
			break
		}
	}
	return out, nil
}
