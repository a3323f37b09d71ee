package model

import (
	"strings"
	"testing"
	"time"

	"reflection-diary/internal/errs"
)

func TestParseEntryType(t *testing.T) {
	for raw, want := range map[string]EntryType{"note": EntryNote, " Idea ": EntryIdea, "REFLECTION": EntryReflection} {
		got, err := ParseEntryType(raw)
		if err != nil || got != want {
			t.Errorf("ParseEntryType(%q) = %q, %v", raw, got, err)
		}
	}

	_, err := ParseEntryType("todo")
	if !errs.IsValidation(err) || !strings.Contains(err.Error(), "note, idea, reflection") {
		t.Errorf("ParseEntryType(todo) error = %v", err)
	}
}

func TestEntryDateFollowsTimestamp(t *testing.T) {
	plus3 := time.FixedZone("UTC+3", 3*60*60)
	e := Entry{Timestamp: time.Date(2025, 5, 15, 1, 30, 0, 0, plus3), DateOnly: "1999-01-01"}
	e.ApplyDefaults(time.Now())

	if e.DateOnly != "2025-05-14" {
		t.Errorf("date_only = %q, want 2025-05-14", e.DateOnly)
	}
	if e.Timestamp.Location() != time.UTC || e.Source != SourceManual {
		t.Errorf("entry = %+v", e)
	}

	if err := e.BeforeSave(nil); err != nil || e.DateOnly != "2025-05-14" {
		t.Errorf("BeforeSave = %v, date_only %q", err, e.DateOnly)
	}
}

func TestApplyDefaultsUsesNow(t *testing.T) {
	now := time.Date(2025, 5, 14, 23, 59, 59, 0, time.UTC)
	var e Entry
	e.ApplyDefaults(now)
	if !e.Timestamp.Equal(now) || e.DateOnly != "2025-05-14" {
		t.Errorf("entry = %+v", e)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2025-05-14 ")
	if err != nil || !d.Equal(time.Date(2025, 5, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseDate = %v, %v", d, err)
	}
	for _, bad := range []string{"", "14.05.2025", "2025-13-01"} {
		if _, err := ParseDate(bad); !errs.IsValidation(err) {
			t.Errorf("ParseDate(%q) error = %v", bad, err)
		}
	}
	if got := TruncateDate(time.Date(2025, 5, 14, 22, 0, 0, 0, time.FixedZone("X", -5*3600))); FormatDate(got) != "2025-05-15" {
		t.Errorf("TruncateDate crossed zone wrong: %v", got)
	}
}

func TestUserApplyDefaults(t *testing.T) {
	u := User{ExternalID: 1}
	u.ApplyDefaults()
	if u.Source != DefaultUserSource || u.Language != DefaultUserLanguage {
		t.Errorf("user = %+v", u)
	}
	u = User{Source: "web", Language: "en"}
	u.ApplyDefaults()
	if u.Source != "web" || u.Language != "en" {
		t.Errorf("explicit values overwritten: %+v", u)
	}
}
