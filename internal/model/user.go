package model

import "time"

// User is a registered account. Email is the lookup key and is stored exactly
// as supplied. ResetToken and TokenExpiry are always set and cleared together;
// a token whose expiry has passed is treated as absent.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"size:128;not null;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	ResetToken   *string    `gorm:"size:64;index" json:"-"`
	TokenExpiry  *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// HasValidResetToken reports whether the stored token is present and not yet
// expired at the given instant.
func (u *User) HasValidResetToken(now time.Time) bool {
	return u.ResetToken != nil && u.TokenExpiry != nil && now.Before(*u.TokenExpiry)
}
