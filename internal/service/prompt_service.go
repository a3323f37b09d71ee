package service

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"reflection-diary/internal/errs"
	"reflection-diary/internal/logging"
	"reflection-diary/internal/model"
	"reflection-diary/internal/repository"
)

var (
	// ErrRunInProgress is returned when a run overlaps another one in this process.
	ErrRunInProgress = errs.NewConflictError("prompt generation is already running", nil)
	// ErrAlreadyRan is returned when today's slot was claimed by an earlier run.
	ErrAlreadyRan = errs.NewConflictError("daily prompts were already generated for this slot", nil)
)

// Delivery pairs a generated prompt entry with its recipient.
type Delivery struct {
	User  model.User
	Entry model.Entry
}

// RunResult describes one prompt generation run.
type RunResult struct {
	RunID      string
	Slot       string
	Deliveries []Delivery
}

// DeliveryFunc receives the prompts of a successful run.
type DeliveryFunc func(ctx context.Context, deliveries []Delivery)

// PromptService injects one reflection prompt per active user.
type PromptService struct {
	store      *repository.Store
	promptFile string
	log        *slog.Logger
	now        func() time.Time
	pick       func(n int) int
	mu         sync.Mutex
	deliver    []DeliveryFunc
}

func NewPromptService(store *repository.Store, promptFile string, log *slog.Logger) *PromptService {
	if log == nil {
		log = logging.Discard()
	}
	return &PromptService{
		store:      store,
		promptFile: promptFile,
		log:        log.With("component", "prompts"),
		now:        time.Now,
		pick:       rand.Intn,
	}
}

// OnGenerated registers fn to be called after every run that created entries.
// Register handlers before the first run.
func (s *PromptService) OnGenerated(fn DeliveryFunc) {
	s.deliver = append(s.deliver, fn)
}

// LoadPrompts reads one prompt per line, skipping blank lines.
func LoadPrompts(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.NewConfigError("read prompt file "+path, err)
	}
	var prompts []string
	for _, line := range strings.Split(string(data), "\n") {
		if p := strings.TrimSpace(line); p != "" {
			prompts = append(prompts, p)
		}
	}
	if len(prompts) == 0 {
		return nil, errs.NewConfigError("prompt file "+path+" has no prompts", nil)
	}
	return prompts, nil
}

// Generate creates today's prompt entries for every active user in a single
// transaction: either every active user gets a prompt or nobody does.
func (s *PromptService) Generate(ctx context.Context) (*RunResult, error) {
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	now := s.now().UTC()
	result := &RunResult{RunID: uuid.NewString(), Slot: model.FormatDate(now)}
	log := s.log.With("run_id", result.RunID, "slot", result.Slot)

	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		users, err := tx.Users.ListActive(ctx)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			return nil
		}

		prompts, err := LoadPrompts(s.promptFile)
		if err != nil {
			return err
		}

		run := &model.PromptRun{RunID: result.RunID, Slot: result.Slot, Users: len(users)}
		if err := tx.PromptRuns.Claim(ctx, run); err != nil {
			return err
		}

		entries := make([]model.Entry, len(users))
		for i, u := range users {
			entries[i] = model.Entry{
				UserID:    u.ID,
				Timestamp: now,
				Text:      prompts[s.pick(len(prompts))],
				EntryType: model.EntryReflection,
				Source:    model.SourcePrompted,
			}
		}
		if err := tx.Entries.CreateBatch(ctx, entries); err != nil {
			return err
		}

		result.Deliveries = make([]Delivery, len(users))
		for i := range users {
			result.Deliveries[i] = Delivery{User: users[i], Entry: entries[i]}
		}
		return nil
	})

	switch {
	case errors.Is(err, repository.ErrSlotTaken):
		log.Warn("prompt slot already claimed, skipping run")
		return nil, ErrAlreadyRan
	case err != nil:
		log.Error("prompt generation failed, nothing written", "error", err)
		return nil, err
	}

	if len(result.Deliveries) == 0 {
		log.Info("no active users, nothing to generate")
		return result, nil
	}
	log.Info("daily prompts generated", "users", len(result.Deliveries))
	for _, fn := range s.deliver {
		fn(ctx, result.Deliveries)
	}
	return result, nil
}

// LastRun reports the most recent successful run.
func (s *PromptService) LastRun(ctx context.Context) (*model.PromptRun, error) {
	return s.store.PromptRuns.Last(ctx)
}
