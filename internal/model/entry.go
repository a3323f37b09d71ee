package model

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"reflection-diary/internal/errs"
)

// DateLayout is the calendar date format stored in Entry.DateOnly.
const DateLayout = "2006-01-02"

// EntryType labels an entry. It has no behaviour beyond the label.
type EntryType string

const (
	EntryNote       EntryType = "note"
	EntryIdea       EntryType = "idea"
	EntryReflection EntryType = "reflection"
)

// EntryTypes lists every accepted entry type.
var EntryTypes = []EntryType{EntryNote, EntryIdea, EntryReflection}

func (t EntryType) Valid() bool {
	switch t {
	case EntryNote, EntryIdea, EntryReflection:
		return true
	}
	return false
}

// ParseEntryType converts raw input into an EntryType.
func ParseEntryType(raw string) (EntryType, error) {
	t := EntryType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		names := make([]string, len(EntryTypes))
		for i, et := range EntryTypes {
			names[i] = string(et)
		}
		return "", errs.NewValidationError(
			fmt.Sprintf("invalid entry type %q, expected one of %s", raw, strings.Join(names, ", ")), nil)
	}
	return t, nil
}

// EntrySource tells user-submitted entries apart from scheduler-generated ones.
type EntrySource string

const (
	SourceManual   EntrySource = "manual"
	SourcePrompted EntrySource = "prompted"
)

func (s EntrySource) Valid() bool {
	return s == SourceManual || s == SourcePrompted
}

// Entry is a single diary record owned by a user.
type Entry struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    uint        `gorm:"not null;index:idx_entries_user_date,priority:1" json:"user_id"`
	MessageID *int64      `json:"message_id"`
	Timestamp time.Time   `gorm:"not null;index" json:"timestamp"`
	DateOnly  string      `gorm:"size:10;not null;index:idx_entries_user_date,priority:2" json:"date_only"`
	UpdatedAt *time.Time  `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
	Text      string      `gorm:"type:text;not null" json:"text"`
	EntryType EntryType   `gorm:"size:16;not null" json:"entry_type"`
	Tags      string      `gorm:"size:255" json:"tags,omitempty"`
	Source    EntrySource `gorm:"size:16;not null;default:manual" json:"source"`
}

// Validate checks the fields a caller must supply.
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.Text) == "" {
		return errs.NewValidationError("entry text must not be empty", nil)
	}
	if !e.EntryType.Valid() {
		return errs.NewValidationError(fmt.Sprintf("invalid entry type %q", e.EntryType), nil)
	}
	if e.Source != "" && !e.Source.Valid() {
		return errs.NewValidationError(fmt.Sprintf("invalid entry source %q", e.Source), nil)
	}
	if e.UserID == 0 {
		return errs.NewValidationError("entry must belong to a user", nil)
	}
	return nil
}

// ApplyDefaults sets the instant to now when unset and normalizes the source.
func (e *Entry) ApplyDefaults(now time.Time) {
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	e.Timestamp = e.Timestamp.UTC()
	if e.Source == "" {
		e.Source = SourceManual
	}
	e.DateOnly = FormatDate(e.Timestamp)
}

// BeforeSave keeps DateOnly derived from Timestamp.
func (e *Entry) BeforeSave(_ *gorm.DB) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	e.Timestamp = e.Timestamp.UTC()
	e.DateOnly = FormatDate(e.Timestamp)
	return nil
}

// FormatDate renders the UTC calendar date of t.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(raw string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, errs.NewValidationError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw), err)
	}
	return d, nil
}

// TruncateDate drops the time-of-day of t in UTC.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
