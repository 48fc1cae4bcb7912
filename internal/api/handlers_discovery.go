package api

import (
	"net/http"

	"marquee/internal/quiz"
	"marquee/internal/session"
	"marquee/internal/tmdb"
)

const quizSourcePages = 2

func (s *Server) handleAffinity(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	profile, err := s.recommender.Affinity(r.Context(), sess.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, profile)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	contentType := r.URL.Query().Get("content_type")
	if contentType == "" {
		contentType = tmdb.MediaMovie
	}
	limit, err := queryInt(r, "limit", 0, 100)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	recs, err := s.recommender.Recommend(r.Context(), sess.UserID, contentType, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, recs)
}

func (s *Server) handleBuildQuiz(w http.ResponseWriter, r *http.Request) {
	var req QuizRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.MediaType == "" {
		req.MediaType = tmdb.MediaMovie
	}
	if req.Questions == 0 {
		req.Questions = s.cfg.Quiz.Questions
	}
	if req.Seed == 0 {
		req.Seed = s.quizSeed()
	}

	records, err := quiz.Pool(r.Context(), s.provider, req.MediaType, quizSourcePages)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, QuizResponse{
		Seed:      req.Seed,
		Questions: quiz.Build(records, req.Questions, req.Seed),
	})
}

func (s *Server) handleScoreQuiz(w http.ResponseWriter, r *http.Request) {
	var req QuizScoreRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, quiz.Score(req.Questions, req.Answers))
}

func (s *Server) handleFaceMatch(w http.ResponseWriter, r *http.Request) {
	var req FaceMatchRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	matches, err := s.faces.Match(req.Embedding)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, FaceMatchResponse{Matches: matches})
}
