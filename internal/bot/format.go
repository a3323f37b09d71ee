package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"
	"unicode"

	"reflection-diary/internal/errs"
	"reflection-diary/internal/model"
	"reflection-diary/internal/service"
)

const defaultListLimit = 5

// promptHeader starts every delivered prompt; replies to it are reflections.
const promptHeader = "💭 Question of the day"

const helpText = "• just send a message — save a note\n" +
	"• /idea &lt;text&gt; — save an idea\n" +
	"• /reflect &lt;text&gt; — save a reflection\n" +
	"• /today — today's entries\n" +
	"• /list [n] — last n entries (default 5, max 50)\n" +
	"• /export [from] [to] — Markdown file, dates as YYYY-MM-DD\n" +
	"• /stop — stop daily questions\n" +
	"Use #tags anywhere in the text."

func escape(s string) string {
	return html.EscapeString(s)
}

// extractTags collects the distinct #hashtags in text, in order of appearance.
func extractTags(text string) string {
	var tags []string
	seen := make(map[string]bool)
	for _, word := range strings.Fields(text) {
		if !strings.HasPrefix(word, "#") {
			continue
		}
		tag := strings.TrimRightFunc(word[1:], func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
		})
		if tag == "" || strings.ContainsFunc(tag, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
		}) {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, "#"+tag)
	}
	return strings.Join(tags, " ")
}

func parseListLimit(args string) (int, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(args)
	if err != nil || n < 1 || n > service.MaxRecentLimit {
		return 0, errs.NewValidationError(fmt.Sprintf("Use /list with a number from 1 to %d.", service.MaxRecentLimit), err)
	}
	return n, nil
}

// parseExportArgs reads optional start and end dates.
func parseExportArgs(args string) (start, end *time.Time, err error) {
	fields := strings.Fields(args)
	if len(fields) > 2 {
		return nil, nil, errs.NewValidationError("Use /export [from] [to] with dates as YYYY-MM-DD.", nil)
	}
	dates := make([]*time.Time, 2)
	for i, f := range fields {
		d, err := model.ParseDate(f)
		if err != nil {
			return nil, nil, err
		}
		dates[i] = &d
	}
	return dates[0], dates[1], nil
}

func exportFileName(now time.Time) string {
	return "diary-" + model.FormatDate(now) + ".md"
}

func entryCommand(t model.EntryType) string {
	if t == model.EntryReflection {
		return "reflect"
	}
	return string(t)
}

func typeIcon(t model.EntryType) string {
	switch t {
	case model.EntryIdea:
		return "💡"
	case model.EntryReflection:
		return "💭"
	default:
		return "📝"
	}
}

func formatPrompt(e model.Entry) string {
	return fmt.Sprintf("%s\n\n<b>%s</b>\n\nReply to this message with your thoughts.", promptHeader, escape(e.Text))
}

func formatEntryList(title string, entries []model.Entry) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<b>%s</b>\n\n", escape(title)))
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("%s <i>%s %s</i>\n", typeIcon(e.EntryType), e.DateOnly, e.Timestamp.UTC().Format("15:04")))
		b.WriteString(escape(shortText(strings.TrimSpace(e.Text), 300)))
		b.WriteByte('\n')
		if e.Tags != "" {
			b.WriteString(fmt.Sprintf("🏷️ %s\n", escape(e.Tags)))
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func shortText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-1]) + "…"
}
