package bot

import (
	"strings"
	"testing"
	"time"

	"reflection-diary/internal/errs"
	"reflection-diary/internal/model"
)

func TestExtractTags(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"no tags here", ""},
		{"Run in the park #sport #health", "#sport #health"},
		{"#idea: build a diary, #Idea again", "#idea"},
		{"mixed #work, #life! and # alone", "#work #life"},
		{"broken #a#b and #ok_1", "#ok_1"},
		{"кирилиця #думки", "#думки"},
	}
	for _, tt := range tests {
		if got := extractTags(tt.in); got != tt.want {
			t.Errorf("extractTags(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseListLimit(t *testing.T) {
	if n, err := parseListLimit(""); err != nil || n != defaultListLimit {
		t.Errorf("default = %d, %v", n, err)
	}
	if n, err := parseListLimit(" 12 "); err != nil || n != 12 {
		t.Errorf("12 = %d, %v", n, err)
	}
	for _, bad := range []string{"0", "51", "ten"} {
		if _, err := parseListLimit(bad); !errs.IsValidation(err) {
			t.Errorf("parseListLimit(%q) error = %v", bad, err)
		}
	}
}

func TestParseExportArgs(t *testing.T) {
	start, end, err := parseExportArgs("")
	if err != nil || start != nil || end != nil {
		t.Errorf("empty args = %v %v %v", start, end, err)
	}

	start, end, err = parseExportArgs("2025-05-01 2025-05-31")
	if err != nil || start == nil || end == nil {
		t.Fatalf("two dates = %v %v %v", start, end, err)
	}
	if model.FormatDate(*start) != "2025-05-01" || model.FormatDate(*end) != "2025-05-31" {
		t.Errorf("dates = %v %v", start, end)
	}

	start, end, err = parseExportArgs("2025-05-01")
	if err != nil || start == nil || end != nil {
		t.Errorf("start only = %v %v %v", start, end, err)
	}

	for _, bad := range []string{"yesterday", "2025-05-01 2025-05-02 2025-05-03"} {
		if _, _, err := parseExportArgs(bad); !errs.IsValidation(err) {
			t.Errorf("parseExportArgs(%q) error = %v", bad, err)
		}
	}
}

func TestFormatEntryList(t *testing.T) {
	entries := []model.Entry{
		{DateOnly: "2025-05-14", Timestamp: time.Date(2025, 5, 14, 9, 5, 0, 0, time.UTC), EntryType: model.EntryIdea, Text: "use <b> tags", Tags: "#dev"},
		{DateOnly: "2025-05-14", Timestamp: time.Date(2025, 5, 14, 8, 0, 0, 0, time.UTC), EntryType: model.EntryNote, Text: "plain"},
	}
	got := formatEntryList("Recent", entries)
	for _, want := range []string{"<b>Recent</b>", "💡 <i>2025-05-14 09:05</i>", "use &lt;b&gt; tags", "🏷️ #dev", "📝 <i>2025-05-14 08:00</i>"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatEntryList missing %q in:\n%s", want, got)
		}
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("trailing newline not trimmed")
	}
}

func TestFormatPrompt(t *testing.T) {
	got := formatPrompt(model.Entry{Text: "What & why?"})
	if !strings.HasPrefix(got, promptHeader) || !strings.Contains(got, "<b>What &amp; why?</b>") {
		t.Errorf("formatPrompt = %q", got)
	}
	if shortText("abcdef", 4) != "abc…" || shortText("abc", 4) != "abc" {
		t.Error("shortText mismatch")
	}
	if exportFileName(time.Date(2025, 5, 14, 23, 0, 0, 0, time.UTC)) != "diary-2025-05-14.md" {
		t.Error("exportFileName mismatch")
	}
}
