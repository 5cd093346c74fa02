package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"hr-assistant/internal/model"
)

// ErrDuplicateEmail is returned by Create when the email is already taken.
var ErrDuplicateEmail = errors.New("email already registered")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. The unique index on email is the source of truth
// for duplicate detection, so concurrent registrations of the same address
// cannot both succeed.
func (r *UserRepository) Create(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by email failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}
	return &user, nil
}

// SetResetToken stores a reset token and its expiry for the given email.
// Token and expiry are written together in one update.
func (r *UserRepository) SetResetToken(email, token string, expiry time.Time) error {
	res := r.db.Model(&model.User{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{"reset_token": token, "token_expiry": expiry})
	if res.Error != nil {
		return fmt.Errorf("set reset token failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetByResetToken returns the user holding the given token, or nil. Expiry is
// not checked here; callers decide what a stale token means.
func (r *UserRepository) GetByResetToken(token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}
	var user model.User
	if err := r.db.Where("reset_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by reset token failed: %w", err)
	}
	return &user, nil
}

// UpdatePasswordAndClearToken replaces the password hash and removes the reset
// token and expiry in a single update, making the token single-use.
func (r *UserRepository) UpdatePasswordAndClearToken(userID uint, passwordHash string) error {
	res := r.db.Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password_hash": passwordHash,
			"reset_token":   nil,
			"token_expiry":  nil,
		})
	if res.Error != nil {
		return fmt.Errorf("update password failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// The pure-Go sqlite driver reports constraint violations as plain errors.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "constraint failed")
}
