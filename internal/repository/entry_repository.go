package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"reflection-diary/internal/errs"
	"reflection-diary/internal/model"
)

// EntryRepository handles CRUD for diary entries.
type EntryRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewEntryRepository(db *gorm.DB) *EntryRepository {
	return &EntryRepository{db: db, now: time.Now}
}

// Create validates and inserts an entry. Timestamp defaults to now and
// DateOnly is always derived from it.
func (r *EntryRepository) Create(ctx context.Context, entry *model.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	entry.ApplyDefaults(r.now())

	db := r.db.WithContext(ctx)
	var owners int64
	if err := db.Model(&model.User{}).Where("id = ?", entry.UserID).Count(&owners).Error; err != nil {
		return storeErr("find entry owner", err)
	}
	if owners == 0 {
		return errs.NewNotFoundError("user not found")
	}
	if err := db.Create(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return errs.NewNotFoundError("user not found")
		}
		return storeErr("create entry", err)
	}
	return nil
}

// CreateBatch validates and inserts entries in one statement. Callers that
// need atomicity with other writes use it through Store.InTx.
func (r *EntryRepository) CreateBatch(ctx context.Context, entries []model.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	now := r.now()
	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			return err
		}
		entries[i].ApplyDefaults(now)
	}
	if err := r.db.WithContext(ctx).Create(&entries).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return errs.NewNotFoundError("user not found")
		}
		return storeErr("create entries", err)
	}
	return nil
}

// GetByDate returns the user's entries written on the given calendar day.
func (r *EntryRepository) GetByDate(ctx context.Context, userID uint, date time.Time) ([]model.Entry, error) {
	entries := make([]model.Entry, 0)
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND date_only = ?", userID, model.FormatDate(date)).
		Order("timestamp ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, storeErr("list entries by date", err)
	}
	return entries, nil
}

// ListRecent returns at most limit entries, newest first.
func (r *EntryRepository) ListRecent(ctx context.Context, userID uint, limit int) ([]model.Entry, error) {
	entries := make([]model.Entry, 0)
	if limit <= 0 {
		return entries, nil
	}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, storeErr("list recent entries", err)
	}
	return entries, nil
}

// Export returns the user's entries between the optional inclusive date
// bounds, oldest day first. A start after end yields no rows.
func (r *EntryRepository) Export(ctx context.Context, userID uint, start, end *time.Time) ([]model.Entry, error) {
	entries := make([]model.Entry, 0)
	if start != nil && end != nil && model.TruncateDate(*start).After(model.TruncateDate(*end)) {
		return entries, nil
	}

	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if start != nil {
		q = q.Where("date_only >= ?", model.FormatDate(*start))
	}
	if end != nil {
		q = q.Where("date_only <= ?", model.FormatDate(*end))
	}
	if err := q.Order("date_only ASC, timestamp ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, storeErr("export entries", err)
	}
	return entries, nil
}

// CountByUser returns how many entries the user owns.
func (r *EntryRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Entry{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, storeErr("count entries", err)
	}
	return n, nil
}
