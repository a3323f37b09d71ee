package service

import (
	"context"
	"strings"
	"time"

	"reflection-diary/internal/errs"
	"reflection-diary/internal/model"
	"reflection-diary/internal/repository"
)

// EntryInput represents data required to create an entry.
type EntryInput struct {
	UserID    uint
	MessageID *int64
	Text      string
	EntryType string
	Tags      string
	Source    string
	Timestamp *time.Time
	// Date may be given instead of Timestamp; the entry then gets that day
	// at the current UTC time of day.
	Date *time.Time
}

// MaxRecentLimit caps ListRecent for callers.
const MaxRecentLimit = 50

// NoEntriesMessage is returned by exports that match nothing.
const NoEntriesMessage = "No entries found in the given date range."

// EntryService wraps entry-related business logic.
type EntryService struct {
	entryRepo *repository.EntryRepository
	userRepo  *repository.UserRepository
	now       func() time.Time
}

func NewEntryService(entryRepo *repository.EntryRepository, userRepo *repository.UserRepository) *EntryService {
	return &EntryService{entryRepo: entryRepo, userRepo: userRepo, now: time.Now}
}

// CreateEntry validates input, resolves the entry instant and stores it.
func (s *EntryService) CreateEntry(ctx context.Context, input EntryInput) (*model.Entry, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, errs.NewValidationError("entry text must not be empty", nil)
	}
	entryType, err := model.ParseEntryType(input.EntryType)
	if err != nil {
		return nil, err
	}
	source := model.EntrySource(strings.TrimSpace(input.Source))
	if source == "" {
		source = model.SourceManual
	}
	ts, err := s.resolveInstant(input.Timestamp, input.Date)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errs.NewNotFoundError("user not found")
	}

	entry := model.Entry{
		UserID:    user.ID,
		MessageID: input.MessageID,
		Timestamp: ts,
		Text:      input.Text,
		EntryType: entryType,
		Tags:      strings.TrimSpace(input.Tags),
		Source:    source,
	}
	if err := s.entryRepo.Create(ctx, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// resolveInstant keeps the stored date a function of the stored instant.
func (s *EntryService) resolveInstant(ts, date *time.Time) (time.Time, error) {
	now := s.now().UTC()
	switch {
	case ts != nil && date != nil:
		if model.FormatDate(*ts) != model.FormatDate(*date) {
			return time.Time{}, errs.NewValidationError("date_only does not match timestamp", nil)
		}
		return ts.UTC(), nil
	case ts != nil:
		return ts.UTC(), nil
	case date != nil:
		d := model.TruncateDate(*date)
		clock := now.Sub(model.TruncateDate(now))
		return d.Add(clock), nil
	default:
		return now, nil
	}
}

func (s *EntryService) EntriesByDate(ctx context.Context, userID uint, date time.Time) ([]model.Entry, error) {
	return s.entryRepo.GetByDate(ctx, userID, date)
}

// ListRecent returns up to limit newest entries. limit must be within 1..MaxRecentLimit.
func (s *EntryService) ListRecent(ctx context.Context, userID uint, limit int) ([]model.Entry, error) {
	if limit < 1 || limit > MaxRecentLimit {
		return nil, errs.NewValidationError("limit must be between 1 and 50", nil)
	}
	return s.entryRepo.ListRecent(ctx, userID, limit)
}

// ExportMarkdown renders the user's entries in the date range. The second
// return value is the number of entries exported; zero means the caller
// should show NoEntriesMessage instead of the document.
func (s *EntryService) ExportMarkdown(ctx context.Context, userID uint, start, end *time.Time) (string, int, error) {
	entries, err := s.entryRepo.Export(ctx, userID, start, end)
	if err != nil {
		return "", 0, err
	}
	if len(entries) == 0 {
		return "", 0, nil
	}
	return EntriesToMarkdown(entries), len(entries), nil
}
