package api

import (
	"context"
	"net/http"
	"strings"

	"marquee/internal/logging"
	"marquee/internal/session"
	"marquee/internal/store"
	"marquee/internal/tmdb"
)

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	mediaType := strings.TrimSpace(r.URL.Query().Get("media_type"))
	if mediaType != "" {
		normalized, err := tmdb.NormalizeMediaType(mediaType)
		if err != nil {
			s.writeError(w, r, badRequest(err))
			return
		}
		mediaType = normalized
	}
	favorites, err := s.store.ListFavorites(r.Context(), sess.UserID, mediaType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, FavoritesResponse{Favorites: favorites})
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	var req FavoriteRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	fav := store.Favorite{
		UserID:     sess.UserID,
		TMDBID:     req.TMDBID,
		MediaType:  req.MediaType,
		Title:      req.Title,
		PosterPath: req.PosterPath,
		Genres:     req.Genres,
	}
	if len(fav.Genres) == 0 || fav.Title == "" {
		if details := s.lookup(r.Context(), req.MediaType, req.TMDBID); details != nil {
			if len(fav.Genres) == 0 {
				fav.Genres = details.GenreNames()
			}
			if fav.Title == "" {
				fav.Title = details.DisplayTitle()
			}
			if fav.PosterPath == "" {
				fav.PosterPath = details.PosterPath
			}
		}
	}
	saved, created, err := s.store.AddFavorite(r.Context(), fav)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.writeJSON(w, r, status, FavoriteResponse{Favorite: *saved, Created: created})
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	mediaType, id, err := pathMedia(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.RemoveFavorite(r.Context(), sess.UserID, id, mediaType); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	contentType := strings.TrimSpace(r.URL.Query().Get("content_type"))
	if contentType != "" {
		normalized, err := tmdb.NormalizeMediaType(contentType)
		if err != nil {
			s.writeError(w, r, badRequest(err))
			return
		}
		contentType = normalized
	}
	reviews, err := s.store.ListReviewsByUser(r.Context(), sess.UserID, contentType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, ReviewsResponse{Reviews: reviews})
}

func (s *Server) handleContentReviews(w http.ResponseWriter, r *http.Request) {
	mediaType, id, err := pathMedia(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	reviews, err := s.store.ListReviewsByContent(r.Context(), mediaType, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, ReviewsResponse{Reviews: reviews})
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	var req ReviewRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	review := store.Review{
		UserID:         sess.UserID,
		ContentID:      req.ContentID,
		ContentType:    req.ContentType,
		Title:          req.Title,
		Rating:         req.Rating,
		Body:           req.Body,
		Sentiment:      req.Sentiment,
		SentimentScore: req.SentimentScore,
		GenreIDs:       req.GenreIDs,
	}
	if len(review.GenreIDs) == 0 || review.Title == "" {
		if details := s.lookup(r.Context(), req.ContentType, req.ContentID); details != nil {
			if len(review.GenreIDs) == 0 {
				review.GenreIDs = details.AllGenreIDs()
			}
			if review.Title == "" {
				review.Title = details.DisplayTitle()
			}
		}
	}
	if review.Sentiment == "" {
		s.classify(r.Context(), &review)
	}
	saved, err := s.store.CreateReview(r.Context(), review)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, saved)
}

// classify fills sentiment from the classifier. Failures leave the review
// unclassified.
func (s *Server) classify(ctx context.Context, review *store.Review) {
	if s.sentiment == nil || strings.TrimSpace(review.Body) == "" {
		return
	}
	result, err := s.sentiment.ClassifySentiment(ctx, review.Body)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "review sentiment not classified", "sentiment_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check sentiment.api_key and model"),
			logging.String(logging.FieldImpact, "review does not contribute to recommendations"),
		)
		return
	}
	review.Sentiment = result.Label
	score := result.Score
	review.SentimentScore = &score
}

// lookup fetches title details for enrichment. Failures are logged and
// return nil.
func (s *Server) lookup(ctx context.Context, mediaType string, id int64) *tmdb.Result {
	details, err := s.provider.Details(ctx, mediaType, id)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "title details unavailable", "details_lookup_failed",
			logging.String("media_type", mediaType),
			logging.Int64("tmdb_id", id),
			logging.Error(err),
			logging.String(logging.FieldImpact, "record stored without provider genres"),
		)
		return nil
	}
	return details
}
