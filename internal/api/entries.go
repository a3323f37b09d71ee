package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"reflection-diary/internal/errs"
	"reflection-diary/internal/model"
	"reflection-diary/internal/service"
)

const defaultListLimit = 5

type createEntryRequest struct {
	UserID    uint    `json:"user_id" validate:"required"`
	MessageID *int64  `json:"message_id"`
	Text      string  `json:"text" validate:"required"`
	EntryType string  `json:"entry_type" validate:"required"`
	Tags      string  `json:"tags" validate:"max=255"`
	Source    string  `json:"source" validate:"omitempty,oneof=manual prompted"`
	Timestamp *string `json:"timestamp"`
	DateOnly  *string `json:"date_only"`
}

// timestampLayouts are tried in order; values without a zone are UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errs.NewValidationError("invalid timestamp "+strconv.Quote(raw), nil)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	in := service.EntryInput{
		UserID:    req.UserID,
		MessageID: req.MessageID,
		Text:      req.Text,
		EntryType: req.EntryType,
		Tags:      req.Tags,
		Source:    req.Source,
	}
	if req.Timestamp != nil && strings.TrimSpace(*req.Timestamp) != "" {
		ts, err := parseTimestamp(*req.Timestamp)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		in.Timestamp = &ts
	}
	if req.DateOnly != nil && strings.TrimSpace(*req.DateOnly) != "" {
		d, err := model.ParseDate(*req.DateOnly)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		in.Date = &d
	}

	entry, err := s.entries.CreateEntry(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleEntriesByDate(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r.URL.Query().Get("user_id"), "user_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	date, err := model.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entries, err := s.entries.EntriesByDate(r.Context(), userID, date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleListRecent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, err := parseID(q.Get("user_id"), "user_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit := defaultListLimit
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, r, errs.NewValidationError("invalid limit "+strconv.Quote(v), err))
			return
		}
		limit = n
	}
	entries, err := s.entries.ListRecent(r.Context(), userID, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, err := parseID(q.Get("user_id"), "user_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	start, err := optionalDate(q.Get("start_date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	end, err := optionalDate(q.Get("end_date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	md, n, err := s.entries.ExportMarkdown(r.Context(), userID, start, end)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if n == 0 {
		writeJSON(w, http.StatusOK, map[string]string{"message": service.NoEntriesMessage})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"markdown": md})
}

func optionalDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
