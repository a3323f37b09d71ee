package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"reflection-diary/internal/errs"
	"reflection-diary/internal/logging"
	"reflection-diary/internal/model"
	"reflection-diary/internal/repository"
	"reflection-diary/internal/service"
)

const (
	menuLabelToday  = "📝 Today"
	menuLabelRecent = "📚 Recent"
	menuLabelExport = "📤 Export"
	menuLabelHelp   = "ℹ️ Help"
)

// Bot aggregates Telegram API with services.
type Bot struct {
	api     *tgbotapi.BotAPI
	users   *repository.UserRepository
	entries *service.EntryService
	log     *slog.Logger
	now     func() time.Time
}

func New(token string, users *repository.UserRepository, entries *service.EntryService, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	if log == nil {
		log = logging.Discard()
	}
	log = log.With("component", "bot")
	log.Info("bot authorized", "account", api.Self.UserName)

	return &Bot{
		api:     api,
		users:   users,
		entries: entries,
		log:     log,
		now:     time.Now,
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil || update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			continue
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Error("handle message", "user", update.Message.Chat.ID, "error", err)
		}
	}

	return nil
}

// DeliverPrompts sends each freshly generated prompt to its Telegram user.
func (b *Bot) DeliverPrompts(ctx context.Context, deliveries []service.Delivery) {
	sent := 0
	for _, d := range deliveries {
		if ctx.Err() != nil {
			return
		}
		if d.User.Source != model.DefaultUserSource {
			continue
		}
		if err := b.sendText(d.User.ExternalID, formatPrompt(d.Entry)); err != nil {
			b.log.Warn("deliver prompt", "user", d.User.ID, "error", err)
			continue
		}
		sent++
	}
	b.log.Info("prompts delivered", "sent", sent, "total", len(deliveries))
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if msg.IsCommand() {
		b.log.Debug("command", "user", msg.From.ID, "command", msg.Command())
		return b.handleCommand(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	entryType := model.EntryNote
	if b.isReplyToPrompt(msg) {
		entryType = model.EntryReflection
	}
	return b.saveEntry(ctx, msg, entryType, msg.Text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "note":
		return b.saveEntry(ctx, msg, model.EntryNote, msg.CommandArguments())
	case "idea":
		return b.saveEntry(ctx, msg, model.EntryIdea, msg.CommandArguments())
	case "reflect":
		return b.saveEntry(ctx, msg, model.EntryReflection, msg.CommandArguments())
	case "today":
		return b.handleToday(ctx, msg)
	case "list":
		return b.handleList(ctx, msg)
	case "export":
		return b.handleExport(ctx, msg)
	case "stop":
		return b.handleStop(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelToday:
		return true, b.handleToday(ctx, msg)
	case menuLabelRecent:
		return true, b.handleList(ctx, msg)
	case menuLabelExport:
		return true, b.handleExport(ctx, msg)
	case menuLabelHelp:
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	user, created, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	if !created && !user.IsActive {
		if _, err := b.users.Activate(ctx, user.ID); err != nil {
			return err
		}
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "friend"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep your notes, ideas and daily reflections.</b>\n\n%s", escape(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Commands</b>\n"+helpText)
}

func (b *Bot) saveEntry(ctx context.Context, msg *tgbotapi.Message, entryType model.EntryType, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Write something after the command, e.g. /%s my thought.", entryCommand(entryType)))
	}
	user, _, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	messageID := int64(msg.MessageID)
	entry, err := b.entries.CreateEntry(ctx, service.EntryInput{
		UserID:    user.ID,
		MessageID: &messageID,
		Text:      text,
		EntryType: string(entryType),
		Tags:      extractTags(text),
		Source:    string(model.SourceManual),
	})
	if errs.IsValidation(err) {
		return b.sendText(msg.Chat.ID, "Could not save: "+escape(errs.PublicMessage(err)))
	}
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("%s Saved as <b>%s</b>.", typeIcon(entry.EntryType), entry.EntryType))
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message) error {
	user, _, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	today := b.now()
	entries, err := b.entries.EntriesByDate(ctx, user.ID, today)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return b.sendText(msg.Chat.ID, "Nothing written today yet.")
	}
	return b.sendText(msg.Chat.ID, formatEntryList("📅 "+model.FormatDate(today), entries))
}

func (b *Bot) handleList(ctx context.Context, msg *tgbotapi.Message) error {
	limit, err := parseListLimit(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(errs.PublicMessage(err)))
	}
	user, _, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	entries, err := b.entries.ListRecent(ctx, user.ID, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return b.sendText(msg.Chat.ID, "Your diary is empty. Just send me a message to start.")
	}
	return b.sendText(msg.Chat.ID, formatEntryList("📚 Recent entries", entries))
}

func (b *Bot) handleExport(ctx context.Context, msg *tgbotapi.Message) error {
	start, end, err := parseExportArgs(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(errs.PublicMessage(err)))
	}
	user, _, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	md, n, err := b.entries.ExportMarkdown(ctx, user.ID, start, end)
	if err != nil {
		return err
	}
	if n == 0 {
		return b.sendText(msg.Chat.ID, service.NoEntriesMessage)
	}

	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FileBytes{
		Name:  exportFileName(b.now()),
		Bytes: []byte(md),
	})
	doc.Caption = fmt.Sprintf("%d entries", n)
	_, err = b.api.Send(doc)
	return err
}

func (b *Bot) handleStop(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.users.GetByExternalID(ctx, msg.From.ID, model.DefaultUserSource)
	if err != nil {
		return err
	}
	if user != nil {
		if _, err := b.users.Deactivate(ctx, user.ID); err != nil {
			return err
		}
	}
	return b.sendText(msg.Chat.ID, "🔕 Daily questions are off. Your entries are kept; send /start to turn them back on.")
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, bool, error) {
	return b.users.GetOrCreate(ctx, &model.User{
		ExternalID: from.ID,
		Source:     model.DefaultUserSource,
		Username:   from.UserName,
		Language:   from.LanguageCode,
		IsActive:   true,
	})
}

func (b *Bot) isReplyToPrompt(msg *tgbotapi.Message) bool {
	r := msg.ReplyToMessage
	return r != nil && r.From != nil && r.From.ID == b.api.Self.ID && strings.HasPrefix(r.Text, promptHeader)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelRecent),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelExport),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}
