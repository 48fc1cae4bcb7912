package api

import (
	"net/http"
	"strings"

	"marquee/internal/tmdb"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Store:     "ok",
		Sentiment: s.sentiment != nil,
		Actors:    s.faces.Len(),
		Time:      s.now().UTC(),
	}
	status := http.StatusOK
	if err := s.store.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Store = err.Error()
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, r, status, resp)
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mediaType := strings.TrimSpace(q.Get("media_type"))
	if mediaType == "" {
		mediaType = tmdb.MediaAll
	}
	window := strings.TrimSpace(q.Get("window"))
	if window == "" {
		window = tmdb.WindowWeek
	}
	page, err := queryInt(r, "page", 1, 500)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.provider.Trending(r.Context(), mediaType, window, page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, listResponse(resp))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := queryInt(r, "page", 1, 500)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.provider.Search(r.Context(), q.Get("kind"), q.Get("q"), page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, listResponse(resp))
}

func (s *Server) handleTitle(w http.ResponseWriter, r *http.Request) {
	mediaType, id, err := pathMedia(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.provider.Details(r.Context(), mediaType, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := s.genres.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, GenresResponse{Genres: genres})
}

func (s *Server) handlePerson(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	person, err := s.provider.Person(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, person)
}

func listResponse(resp *tmdb.Response) ListResponse {
	out := ListResponse{Results: []tmdb.Result{}}
	if resp == nil {
		return out
	}
	out.Page = resp.Page
	out.TotalPages = resp.TotalPages
	out.TotalResults = resp.TotalResults
	if resp.Results != nil {
		out.Results = resp.Results
	}
	return out
}
