package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"reflection-diary/internal/errs"
	"reflection-diary/internal/logging"
	"reflection-diary/internal/model"
	"reflection-diary/internal/repository"
)

func setupStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := repository.NewDB(":memory:", logging.Discard(), 0)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { repository.Close(db, nil) })
	return repository.NewStore(db)
}

func addUser(t *testing.T, store *repository.Store, externalID int64, active bool) *model.User {
	t.Helper()
	u := &model.User{ExternalID: externalID, Username: "user", IsActive: active}
	if err := store.Users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCreateEntryStoresInput(t *testing.T) {
	store := setupStore(t)
	svc := NewEntryService(store.Entries, store.Users)
	u := addUser(t, store, 1, true)

	ts := time.Date(2025, 5, 14, 9, 30, 0, 0, time.UTC)
	msgID := int64(77)
	e, err := svc.CreateEntry(context.Background(), EntryInput{
		UserID:    u.ID,
		MessageID: &msgID,
		Text:      "Had a great idea about a diary",
		EntryType: "Idea",
		Tags:      " #diary ",
		Timestamp: &ts,
	})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if e.ID == 0 {
		t.Fatal("expected id")
	}
	if e.Text != "Had a great idea about a diary" || e.EntryType != model.EntryIdea {
		t.Errorf("entry = %+v", e)
	}
	if e.DateOnly != "2025-05-14" || e.Source != model.SourceManual || e.Tags != "#diary" {
		t.Errorf("derived fields = %q %q %q", e.DateOnly, e.Source, e.Tags)
	}
	if e.MessageID == nil || *e.MessageID != 77 {
		t.Errorf("message id = %v", e.MessageID)
	}
}

func TestCreateEntryRejectsInvalidInput(t *testing.T) {
	store := setupStore(t)
	svc := NewEntryService(store.Entries, store.Users)
	u := addUser(t, store, 1, true)

	tests := []struct {
		name  string
		input EntryInput
		check func(error) bool
	}{
		{"empty text", EntryInput{UserID: u.ID, Text: "  ", EntryType: "note"}, errs.IsValidation},
		{"unknown type", EntryInput{UserID: u.ID, Text: "x", EntryType: "journal"}, errs.IsValidation},
		{"unknown user", EntryInput{UserID: u.ID + 100, Text: "x", EntryType: "note"}, errs.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateEntry(context.Background(), tt.input)
			if !tt.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}

	n, err := store.Entries.CountByUser(context.Background(), u.ID)
	if err != nil || n != 0 {
		t.Fatalf("count = %d, %v; want nothing stored", n, err)
	}
}

func TestCreateEntryDateOnlyInput(t *testing.T) {
	store := setupStore(t)
	svc := NewEntryService(store.Entries, store.Users)
	svc.now = fixedClock(time.Date(2025, 5, 20, 18, 45, 12, 0, time.UTC))
	u := addUser(t, store, 1, true)

	date := time.Date(2025, 5, 14, 0, 0, 0, 0, time.UTC)
	e, err := svc.CreateEntry(context.Background(), EntryInput{UserID: u.ID, Text: "late note", EntryType: "note", Date: &date})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	want := time.Date(2025, 5, 14, 18, 45, 12, 0, time.UTC)
	if !e.Timestamp.Equal(want) || e.DateOnly != "2025-05-14" {
		t.Errorf("timestamp = %v date = %q, want %v", e.Timestamp, e.DateOnly, want)
	}
}

func TestCreateEntryDateMismatch(t *testing.T) {
	store := setupStore(t)
	svc := NewEntryService(store.Entries, store.Users)
	u := addUser(t, store, 1, true)

	ts := time.Date(2025, 5, 14, 23, 0, 0, 0, time.UTC)
	date := time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)
	_, err := svc.CreateEntry(context.Background(), EntryInput{UserID: u.ID, Text: "x", EntryType: "note", Timestamp: &ts, Date: &date})
	if !errs.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	same := time.Date(2025, 5, 14, 0, 0, 0, 0, time.UTC)
	if _, err := svc.CreateEntry(context.Background(), EntryInput{UserID: u.ID, Text: "x", EntryType: "note", Timestamp: &ts, Date: &same}); err != nil {
		t.Fatalf("matching date rejected: %v", err)
	}
}

func TestListRecentLimitBounds(t *testing.T) {
	store := setupStore(t)
	svc := NewEntryService(store.Entries, store.Users)
	u := addUser(t, store, 1, true)

	for _, limit := range []int{0, -1, MaxRecentLimit + 1} {
		if _, err := svc.ListRecent(context.Background(), u.ID, limit); !errs.IsValidation(err) {
			t.Errorf("limit %d: expected validation error, got %v", limit, err)
		}
	}

	entries, err := svc.ListRecent(context.Background(), u.ID, MaxRecentLimit)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", entries)
	}
}

func TestExportMarkdown(t *testing.T) {
	store := setupStore(t)
	svc := NewEntryService(store.Entries, store.Users)
	u := addUser(t, store, 1, true)
	ctx := context.Background()

	md, n, err := svc.ExportMarkdown(ctx, u.ID, nil, nil)
	if err != nil || n != 0 || md != "" {
		t.Fatalf("empty export = %q, %d, %v", md, n, err)
	}

	for _, d := range []int{13, 14, 15} {
		ts := time.Date(2025, 5, d, 9, 0, 0, 0, time.UTC)
		if _, err := svc.CreateEntry(ctx, EntryInput{UserID: u.ID, Text: "day", EntryType: "note", Timestamp: &ts}); err != nil {
			t.Fatal(err)
		}
	}

	start := time.Date(2025, 5, 14, 0, 0, 0, 0, time.UTC)
	md, n, err = svc.ExportMarkdown(ctx, u.ID, &start, nil)
	if err != nil {
		t.Fatalf("ExportMarkdown: %v", err)
	}
	if n != 2 {
		t.Errorf("exported %d entries, want 2", n)
	}
	if strings.Contains(md, "2025-05-13") || !strings.Contains(md, "## 📅 2025-05-15") {
		t.Errorf("unexpected document:\n%s", md)
	}
}
