// Package authsession holds the transient state that drives the login flow.
// A session lives in a volatile store (in-process by default, Redis when
// configured) and is never written to the relational database.
package authsession

import "time"

// Stage is the position of a session in the login lifecycle.
type Stage string

const (
	StageAnonymous       Stage = "anonymous"
	StageRegistering     Stage = "registering"
	StageSigningIn       Stage = "signing-in"
	StageAwaitingOTP     Stage = "awaiting-otp"
	StageAwaitingReset   Stage = "awaiting-reset-request"
	StageResettingPwd    Stage = "resetting-password"
	StageAuthenticated   Stage = "authenticated"
)

// Session carries the per-user transient auth state. OTPCode and PendingEmail
// are set when sign-in succeeds and cleared the moment OTP verification
// succeeds or the session ends. ResetToken is carried in from a deep link.
type Session struct {
	ID           string    `json:"id"`
	Stage        Stage     `json:"stage"`
	PendingEmail string    `json:"pending_email,omitempty"`
	OTPCode      string    `json:"otp_code,omitempty"`
	ResetToken   string    `json:"reset_token,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ClearTransient drops the OTP, pending email, and carried reset token.
func (s *Session) ClearTransient() {
	s.PendingEmail = ""
	s.OTPCode = ""
	s.ResetToken = ""
}

// Store persists auth sessions for their (short) lifetime.
type Store interface {
	Get(id string) (*Session, error)
	Save(session *Session) error
	Delete(id string) error
}
