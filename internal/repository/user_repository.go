package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"reflection-diary/internal/errs"
	"reflection-diary/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func duplicateIdentity(externalID int64, source string, cause error) error {
	return errs.NewDuplicateIdentityError(
		fmt.Sprintf("user with external id %d and source %q already exists", externalID, source), cause)
}

// Create inserts a new user. A second user with the same external identity
// fails with a DuplicateIdentity error.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	user.ApplyDefaults()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return duplicateIdentity(user.ExternalID, user.Source, err)
		}
		return storeErr("create user", err)
	}
	return nil
}

// GetOrCreate finds a user by external identity or creates it from in.
// The second return value reports whether a row was inserted.
func (r *UserRepository) GetOrCreate(ctx context.Context, in *model.User) (*model.User, bool, error) {
	in.ApplyDefaults()

	var user model.User
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("external_id = ? AND source = ?", in.ExternalID, in.Source).First(&user).Error
		switch {
		case err == nil:
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = *in
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			created = true
			return nil
		default:
			return err
		}
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Another writer inserted the same identity between our read and write.
		existing, ferr := r.GetByExternalID(ctx, in.ExternalID, in.Source)
		if ferr != nil {
			return nil, false, ferr
		}
		if existing != nil {
			return existing, false, nil
		}
	}
	if err != nil {
		return nil, false, storeErr("get or create user", err)
	}
	return &user, created, nil
}

// GetByID returns nil, nil when the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("find user", err)
	}
	return &user, nil
}

// GetByExternalID returns nil, nil when no user has the identity.
func (r *UserRepository) GetByExternalID(ctx context.Context, externalID int64, source string) (*model.User, error) {
	if source == "" {
		source = model.DefaultUserSource
	}
	var user model.User
	err := r.db.WithContext(ctx).Where("external_id = ? AND source = ?", externalID, source).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("find user by external id", err)
	}
	return &user, nil
}

// ListActive returns users that receive daily prompts.
func (r *UserRepository) ListActive(ctx context.Context) ([]model.User, error) {
	users := make([]model.User, 0)
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&users).Error; err != nil {
		return nil, storeErr("list active users", err)
	}
	return users, nil
}

// Update applies the non-nil fields of upd. It returns nil, nil when the
// user does not exist.
func (r *UserRepository) Update(ctx context.Context, id uint, upd model.UserUpdate) (*model.User, error) {
	updates := map[string]interface{}{}
	if upd.Username != nil {
		updates["username"] = strings.TrimSpace(*upd.Username)
	}
	if upd.Source != nil {
		source := strings.TrimSpace(*upd.Source)
		if source == "" {
			return nil, errs.NewValidationError("source must not be empty", nil)
		}
		updates["source"] = source
	}

	var user model.User
	found := true
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				found = false
				return nil
			}
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&user, id).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, duplicateIdentity(user.ExternalID, fmt.Sprint(updates["source"]), err)
	}
	if err != nil {
		return nil, storeErr("update user", err)
	}
	if !found {
		return nil, nil
	}
	return &user, nil
}

// Delete removes the user and, in the same transaction, every entry it owns.
// It reports false when the user does not exist.
func (r *UserRepository) Delete(ctx context.Context, id uint) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&model.Entry{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, storeErr("delete user", err)
	}
	return deleted, nil
}

// Deactivate marks the user inactive without removing it.
func (r *UserRepository) Deactivate(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return false, storeErr("deactivate user", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Activate marks the user active again.
func (r *UserRepository) Activate(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("is_active", true)
	if res.Error != nil {
		return false, storeErr("activate user", res.Error)
	}
	return res.RowsAffected > 0, nil
}
