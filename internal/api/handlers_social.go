package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"marquee/internal/session"
	"marquee/internal/store"
)

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	limit, err := queryInt(r, "limit", s.cfg.Posts.FeedLimit, 200)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	posts, err := s.store.PostsByUser(r.Context(), sess.UserID, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, PostsResponse{Posts: posts})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", s.cfg.Posts.FeedLimit, 200)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	posts, err := s.store.Feed(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, PostsResponse{Posts: posts})
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	var req PostRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	kind := req.Kind
	if kind == "" {
		kind = store.KindPost
	}
	post, err := s.store.CreatePost(r.Context(), store.Post{
		UserID:    sess.UserID,
		Kind:      kind,
		Body:      req.Body,
		TMDBID:    req.TMDBID,
		MediaType: req.MediaType,
	}, s.cfg.StoryTTL())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, post)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	if err := s.store.DeletePost(r.Context(), sess.UserID, chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
