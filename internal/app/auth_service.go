package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"hr-assistant/internal/authsession"
	"hr-assistant/internal/model"
	"hr-assistant/internal/pkg/jwtutil"
	"hr-assistant/internal/repository"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrEmailExists       = errors.New("this email is already registered")
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrWrongOTP          = errors.New("the code is incorrect")
	ErrInvalidStage      = errors.New("action not allowed in current stage")
	ErrSessionNotFound   = errors.New("auth session not found")
	ErrResetInvalid      = errors.New("invalid or expired reset link")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrMailSend          = errors.New("failed to send email")
)

const resetTokenTTL = time.Hour

// Mailer delivers the transactional messages of the login flow.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string) error
	SendResetLink(ctx context.Context, to, link string) error
}

// EventPublisher enqueues audit events. Publish failures never fail the auth
// operation that produced them.
type EventPublisher interface {
	Publish(ctx context.Context, event model.AuthEvent) error
}

// AuthService drives the login state machine over a volatile session store
// and the SQLite-backed credential store. Every invalid submission is a
// self-loop: the session stays where it was and the caller gets an error to
// show the user.
type AuthService struct {
	userRepo      *repository.UserRepository
	sessions      authsession.Store
	mailer        Mailer
	events        EventPublisher // nil disables the audit trail
	jwtSecret     string
	jwtExpiration time.Duration
	baseURL       string
}

func NewAuthService(
	userRepo *repository.UserRepository,
	sessions authsession.Store,
	mailer Mailer,
	events EventPublisher,
	jwtSecret string,
	jwtExpiration time.Duration,
	baseURL string,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		sessions:      sessions,
		mailer:        mailer,
		events:        events,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		baseURL:       strings.TrimRight(baseURL, "/"),
	}
}

// StartSession opens a new anonymous session.
func (s *AuthService) StartSession() (*authsession.Session, error) {
	now := time.Now()
	session := &authsession.Session{
		ID:        uuid.NewString(),
		Stage:     authsession.StageAnonymous,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Save(session); err != nil {
		return nil, err
	}
	return session, nil
}

// Session returns the current session state.
func (s *AuthService) Session(id string) (*authsession.Session, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// ChooseRegister moves an anonymous session to the registration form.
func (s *AuthService) ChooseRegister(id string) (*authsession.Session, error) {
	return s.transition(id, authsession.StageRegistering,
		authsession.StageAnonymous)
}

// ChooseSignIn moves to the sign-in form. Reachable from the landing page,
// after a successful registration, when backing out of the OTP screen or the
// reset flow. Entering it clears any transient state, so a previously issued
// OTP is invalidated before a new sign-in attempt.
func (s *AuthService) ChooseSignIn(id string) (*authsession.Session, error) {
	return s.transition(id, authsession.StageSigningIn,
		authsession.StageAnonymous,
		authsession.StageRegistering,
		authsession.StageAwaitingOTP,
		authsession.StageAwaitingReset,
		authsession.StageResettingPwd)
}

// ChooseForgot moves from the sign-in form to the reset-request form.
func (s *AuthService) ChooseForgot(id string) (*authsession.Session, error) {
	return s.transition(id, authsession.StageAwaitingReset,
		authsession.StageSigningIn)
}

// Register creates the account and, on success, moves the session to
// signing-in. A duplicate email keeps the session on the registration form.
func (s *AuthService) Register(ctx context.Context, id, email, password string) (*authsession.Session, error) {
	session, err := s.requireStage(id, authsession.StageRegistering)
	if err != nil {
		return nil, err
	}

	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	user := &model.User{Email: email, PasswordHash: string(hash)}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	s.publish(ctx, email, model.EventRegistered, "")

	session.Stage = authsession.StageSigningIn
	session.UpdatedAt = time.Now()
	if err := s.sessions.Save(session); err != nil {
		return nil, err
	}
	return session, nil
}

// SignIn verifies the credentials and, on success, generates a fresh 6-digit
// OTP, emails it, and moves the session to awaiting-otp. Generating a new code
// overwrites any previously issued one for this session.
func (s *AuthService) SignIn(ctx context.Context, id, email, password string) (*authsession.Session, error) {
	session, err := s.requireStage(id, authsession.StageSigningIn)
	if err != nil {
		return nil, err
	}

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredential
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredential
	}

	code, err := generateOTP()
	if err != nil {
		return nil, fmt.Errorf("generate otp failed: %w", err)
	}
	if err := s.mailer.SendOTP(ctx, email, code); err != nil {
		// Delivery failed: stay on the sign-in form and keep no code around.
		return nil, ErrMailSend
	}

	session.Stage = authsession.StageAwaitingOTP
	session.PendingEmail = email
	session.OTPCode = code
	session.UpdatedAt = time.Now()
	if err := s.sessions.Save(session); err != nil {
		return nil, err
	}

	s.publish(ctx, email, model.EventOTPSent, "")
	return session, nil
}

// VerifyOTP compares the submitted code against the freshest generated one.
// On match it clears all transient state, marks the session authenticated,
// and returns a bearer token for the application API.
func (s *AuthService) VerifyOTP(ctx context.Context, id, code string) (string, error) {
	session, err := s.requireStage(id, authsession.StageAwaitingOTP)
	if err != nil {
		return "", err
	}

	if session.OTPCode == "" || code != session.OTPCode {
		return "", ErrWrongOTP
	}

	user, err := s.userRepo.GetByEmail(session.PendingEmail)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrInvalidCredential
	}

	email := session.PendingEmail
	session.ClearTransient()
	session.Stage = authsession.StageAuthenticated
	session.UpdatedAt = time.Now()
	if err := s.sessions.Save(session); err != nil {
		return "", err
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, user.ID, user.Email, session.ID)
	if err != nil {
		return "", err
	}

	s.publish(ctx, email, model.EventOTPVerified, "")
	return token, nil
}

// RequestReset issues a reset token and emails the deep link when the address
// is registered. The caller always shows the same generic message, so the
// response never reveals whether the email exists.
func (s *AuthService) RequestReset(ctx context.Context, id, email string) error {
	if _, err := s.requireStage(id, authsession.StageAwaitingReset); err != nil {
		return err
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return ErrInvalidInput
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return err
	}
	if user == nil {
		// Unknown address: same outcome for the caller.
		return nil
	}

	token, err := generateResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token failed: %w", err)
	}
	expiry := time.Now().UTC().Add(resetTokenTTL)
	if err := s.userRepo.SetResetToken(email, token, expiry); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/?page=reset_password&token=%s", s.baseURL, url.QueryEscape(token))
	if err := s.mailer.SendResetLink(ctx, email, link); err != nil {
		return ErrMailSend
	}

	s.publish(ctx, email, model.EventResetRequested, "")
	return nil
}

// BeginReset enters the reset-password form from a deep link, carrying the
// token in the session. The token itself is validated on submit.
func (s *AuthService) BeginReset(id, token string) (*authsession.Session, error) {
	session, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	if session.Stage == authsession.StageAuthenticated {
		return nil, ErrInvalidStage
	}
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidInput
	}

	session.Stage = authsession.StageResettingPwd
	session.ResetToken = token
	session.UpdatedAt = time.Now()
	if err := s.sessions.Save(session); err != nil {
		return nil, err
	}
	return session, nil
}

// CompleteReset updates the password when both submissions match and the
// carried token is still valid, then sends the session back to sign-in.
// The token is cleared in the same update, so it works exactly once.
func (s *AuthService) CompleteReset(ctx context.Context, id, password, confirm string) (*authsession.Session, error) {
	session, err := s.requireStage(id, authsession.StageResettingPwd)
	if err != nil {
		return nil, err
	}

	password = strings.TrimSpace(password)
	if password == "" || password != strings.TrimSpace(confirm) {
		return nil, ErrPasswordMismatch
	}

	user, err := s.userRepo.GetByResetToken(session.ResetToken)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.HasValidResetToken(time.Now().UTC()) {
		return nil, ErrResetInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}
	if err := s.userRepo.UpdatePasswordAndClearToken(user.ID, string(hash)); err != nil {
		return nil, err
	}

	s.publish(ctx, user.Email, model.EventResetCompleted, "")

	session.ClearTransient()
	session.Stage = authsession.StageSigningIn
	session.UpdatedAt = time.Now()
	if err := s.sessions.Save(session); err != nil {
		return nil, err
	}
	return session, nil
}

// Logout discards the session entirely; the next access starts anonymous.
func (s *AuthService) Logout(ctx context.Context, id string) error {
	session, err := s.sessions.Get(id)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	if session.Stage == authsession.StageAuthenticated {
		s.publish(ctx, "", model.EventLogout, "session "+id)
	}
	return s.sessions.Delete(id)
}

// IsAuthenticated reports whether the session exists and is authenticated.
// The API middleware uses it so logout takes effect immediately, even for
// bearer tokens that have not yet expired.
func (s *AuthService) IsAuthenticated(id string) bool {
	session, err := s.sessions.Get(id)
	return err == nil && session != nil && session.Stage == authsession.StageAuthenticated
}

func (s *AuthService) requireStage(id string, stage authsession.Stage) (*authsession.Session, error) {
	session, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	if session.Stage != stage {
		return nil, ErrInvalidStage
	}
	return session, nil
}

func (s *AuthService) transition(id string, to authsession.Stage, from ...authsession.Stage) (*authsession.Session, error) {
	session, err := s.Session(id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, stage := range from {
		if session.Stage == stage {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrInvalidStage
	}

	session.Stage = to
	session.ClearTransient()
	session.UpdatedAt = time.Now()
	if err := s.sessions.Save(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *AuthService) publish(ctx context.Context, email, kind, detail string) {
	if s.events == nil {
		return
	}
	event := model.AuthEvent{
		Email:     email,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		log.Printf("publish auth event failed: %v", err)
	}
}

// generateOTP returns a uniformly random 6-digit numeric code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

// generateResetToken returns an opaque URL-safe random token.
func generateResetToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
