package model

import "time"

// Audit event kinds recorded by the auth flow.
const (
	EventRegistered     = "registered"
	EventOTPSent        = "otp_sent"
	EventOTPVerified    = "otp_verified"
	EventResetRequested = "reset_requested"
	EventResetCompleted = "reset_completed"
	EventLogout         = "logout"
)

// AuthEvent is an append-only audit record. Events are published to the queue
// by the auth service and persisted by the consumer worker; nothing on the
// auth path ever reads them back.
type AuthEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:128;not null;index" json:"email"`
	Kind      string    `gorm:"size:32;not null;index" json:"kind"`
	Detail    string    `gorm:"size:255" json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
