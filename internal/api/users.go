package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"reflection-diary/internal/errs"
	"reflection-diary/internal/model"
)

type createUserRequest struct {
	ExternalID int64  `json:"external_id" validate:"required"`
	Source     string `json:"source" validate:"omitempty,max=32"`
	Username   string `json:"username" validate:"omitempty,max=64"`
	Language   string `json:"language" validate:"omitempty,max=8"`
	IsActive   *bool  `json:"is_active"`
}

func (req createUserRequest) user() *model.User {
	u := &model.User{
		ExternalID: req.ExternalID,
		Source:     strings.TrimSpace(req.Source),
		Username:   strings.TrimSpace(req.Username),
		Language:   strings.TrimSpace(req.Language),
		IsActive:   true,
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	return u
}

// Unknown fields in the body are ignored.
type updateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,max=64"`
	Source   *string `json:"source" validate:"omitempty,max=32"`
}

var errUserNotFound = errs.NewNotFoundError("user not found")

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u := req.user()
	if err := s.store.Users.Create(r.Context(), u); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleResolveUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, created, err := s.store.Users.GetOrCreate(r.Context(), req.user())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, u)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "user id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.store.Users.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if u == nil {
		s.writeError(w, r, errUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUserByExternalID(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "external_id")
	externalID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.writeError(w, r, errs.NewValidationError("invalid external_id "+strconv.Quote(raw), err))
		return
	}
	u, err := s.store.Users.GetByExternalID(r.Context(), externalID, strings.TrimSpace(r.URL.Query().Get("source")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if u == nil {
		s.writeError(w, r, errUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "user id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateUserRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.store.Users.Update(r.Context(), id, model.UserUpdate{Username: req.Username, Source: req.Source})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if u == nil {
		s.writeError(w, r, errUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "user id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	deleted, err := s.store.Users.Delete(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !deleted {
		s.writeError(w, r, errUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

func (s *Server) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "user id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok, err := s.store.Users.Deactivate(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		s.writeError(w, r, errUserNotFound)
		return
	}
	u, err := s.store.Users.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
