package service

import (
	"sort"
	"strings"

	"reflection-diary/internal/model"
)

// ExportTitle heads every exported document.
const ExportTitle = "# 📓 Your Personal Knowledge & Reflection Diary"

// EntriesToMarkdown renders entries grouped by day, oldest day first.
// Entries within a day keep their input order. An empty input produces
// only the title block.
func EntriesToMarkdown(entries []model.Entry) string {
	groups := make(map[string][]model.Entry)
	for _, e := range entries {
		key := e.DateOnly
		if key == "" {
			key = model.FormatDate(e.Timestamp)
		}
		groups[key] = append(groups[key], e)
	}

	dates := make([]string, 0, len(groups))
	for d := range groups {
		dates = append(dates, d)
	}
	// YYYY-MM-DD sorts chronologically as text.
	sort.Strings(dates)

	lines := []string{ExportTitle, ""}
	for _, d := range dates {
		lines = append(lines, "## 📅 "+d)
		for _, e := range groups[d] {
			lines = append(lines,
				"**Type**: "+string(e.EntryType),
				"**Time**: "+e.Timestamp.UTC().Format("15:04:05"),
			)
			if strings.TrimSpace(e.Tags) != "" {
				lines = append(lines, "**Tags**: "+e.Tags)
			}
			lines = append(lines, "", strings.TrimSpace(e.Text), "\n---\n")
		}
	}
	return strings.Join(lines, "\n")
}
