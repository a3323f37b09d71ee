package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"reflection-diary/internal/model"
)

// ErrSlotTaken means a prompt run already claimed the slot.
var ErrSlotTaken = errors.New("prompt slot already claimed")

// PromptRunRepository records daily prompt runs.
type PromptRunRepository struct {
	db *gorm.DB
}

func NewPromptRunRepository(db *gorm.DB) *PromptRunRepository {
	return &PromptRunRepository{db: db}
}

// Claim inserts run. It returns ErrSlotTaken when another run owns the slot.
func (r *PromptRunRepository) Claim(ctx context.Context, run *model.PromptRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrSlotTaken
		}
		return storeErr("claim prompt slot", err)
	}
	return nil
}

// Last returns the most recent run or nil, nil if none ran yet.
func (r *PromptRunRepository) Last(ctx context.Context) (*model.PromptRun, error) {
	var run model.PromptRun
	err := r.db.WithContext(ctx).Order("id DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("find last prompt run", err)
	}
	return &run, nil
}
