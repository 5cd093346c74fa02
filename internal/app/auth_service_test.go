package app

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"hr-assistant/internal/authsession"
	"hr-assistant/internal/model"
	"hr-assistant/internal/pkg/jwtutil"
	sqliteClient "hr-assistant/internal/platform/sqlite"
	"hr-assistant/internal/repository"
)

const testJWTSecret = "test-secret"

type fakeMailer struct {
	mu       sync.Mutex
	otps     map[string]string
	links    map[string]string
	failNext bool
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{otps: map[string]string{}, links: map[string]string{}}
}

func (m *fakeMailer) SendOTP(_ context.Context, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return assert.AnError
	}
	m.otps[to] = code
	return nil
}

func (m *fakeMailer) SendResetLink(_ context.Context, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return assert.AnError
	}
	m.links[to] = link
	return nil
}

func (m *fakeMailer) lastOTP(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.otps[to]
}

func (m *fakeMailer) lastLink(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.links[to]
}

type fakePublisher struct {
	mu     sync.Mutex
	events []model.AuthEvent
}

func (p *fakePublisher) Publish(_ context.Context, event model.AuthEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind
	}
	return out
}

type authFixture struct {
	service   *AuthService
	userRepo  *repository.UserRepository
	mailer    *fakeMailer
	publisher *fakePublisher
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db, err := sqliteClient.New(context.Background(), ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}))

	userRepo := repository.NewUserRepository(db)
	mailer := newFakeMailer()
	publisher := &fakePublisher{}
	service := NewAuthService(
		userRepo,
		authsession.NewMemoryStore(time.Hour),
		mailer,
		publisher,
		testJWTSecret,
		time.Hour,
		"http://localhost:8080",
	)
	return &authFixture{service: service, userRepo: userRepo, mailer: mailer, publisher: publisher}
}

// registerUser walks a throwaway session through registration.
func (f *authFixture) registerUser(t *testing.T, email, password string) {
	t.Helper()
	ctx := context.Background()
	session, err := f.service.StartSession()
	require.NoError(t, err)
	_, err = f.service.ChooseRegister(session.ID)
	require.NoError(t, err)
	_, err = f.service.Register(ctx, session.ID, email, password)
	require.NoError(t, err)
}

// signInToOTP brings a fresh session to awaiting-otp and returns its id.
func (f *authFixture) signInToOTP(t *testing.T, email, password string) string {
	t.Helper()
	ctx := context.Background()
	session, err := f.service.StartSession()
	require.NoError(t, err)
	_, err = f.service.ChooseSignIn(session.ID)
	require.NoError(t, err)
	_, err = f.service.SignIn(ctx, session.ID, email, password)
	require.NoError(t, err)
	return session.ID
}

func TestStartSession_BeginsAnonymous(t *testing.T) {
	f := newAuthFixture(t)

	session, err := f.service.StartSession()
	require.NoError(t, err)
	assert.Equal(t, authsession.StageAnonymous, session.Stage)
	assert.NotEmpty(t, session.ID)
}

func TestRegister_DuplicateSelfLoops(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.registerUser(t, "alice@example.com", "password123")

	session, err := f.service.StartSession()
	require.NoError(t, err)
	_, err = f.service.ChooseRegister(session.ID)
	require.NoError(t, err)

	_, err = f.service.Register(ctx, session.ID, "alice@example.com", "different12")
	assert.ErrorIs(t, err, ErrEmailExists)

	// Error is a self-loop: still on the registration form.
	current, err := f.service.Session(session.ID)
	require.NoError(t, err)
	assert.Equal(t, authsession.StageRegistering, current.Stage)

	// A different email still works from the same form.
	after, err := f.service.Register(ctx, session.ID, "alice2@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, authsession.StageSigningIn, after.Stage)
}

func TestRegister_RequiresRegisteringStage(t *testing.T) {
	f := newAuthFixture(t)

	session, err := f.service.StartSession()
	require.NoError(t, err)

	_, err = f.service.Register(context.Background(), session.ID, "x@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidStage)
}

func TestSignIn_WrongPasswordSelfLoops(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.registerUser(t, "bob@example.com", "password123")

	session, err := f.service.StartSession()
	require.NoError(t, err)
	_, err = f.service.ChooseSignIn(session.ID)
	require.NoError(t, err)

	_, err = f.service.SignIn(ctx, session.ID, "bob@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	// Same generic error for an unknown address.
	_, err = f.service.SignIn(ctx, session.ID, "ghost@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	current, err := f.service.Session(session.ID)
	require.NoError(t, err)
	assert.Equal(t, authsession.StageSigningIn, current.Stage)
	assert.Empty(t, current.OTPCode)
}

func TestSignIn_GeneratesAndMailsOTP(t *testing.T) {
	f := newAuthFixture(t)
	f.registerUser(t, "carol@example.com", "password123")

	sid := f.signInToOTP(t, "carol@example.com", "password123")

	session, err := f.service.Session(sid)
	require.NoError(t, err)
	assert.Equal(t, authsession.StageAwaitingOTP, session.Stage)
	assert.Equal(t, "carol@example.com", session.PendingEmail)
	assert.Len(t, session.OTPCode, 6)
	assert.Equal(t, session.OTPCode, f.mailer.lastOTP("carol@example.com"))
}

func TestSignIn_MailFailureStaysOnForm(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.registerUser(t, "dave@example.com", "password123")

	session, err := f.service.StartSession()
	require.NoError(t, err)
	_, err = f.service.ChooseSignIn(session.ID)
	require.NoError(t, err)

	f.mailer.failNext = true
	_, err = f.service.SignIn(ctx, session.ID, "dave@example.com", "password123")
	assert.ErrorIs(t, err, ErrMailSend)

	current, err := f.service.Session(session.ID)
	require.NoError(t, err)
	assert.Equal(t, authsession.StageSigningIn, current.Stage)
	assert.Empty(t, current.OTPCode)
}

func TestVerifyOTP_WrongCodeSelfLoops(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.registerUser(t, "erin@example.com", "password123")
	sid := f.signInToOTP(t, "erin@example.com", "password123")

	_, err := f.service.VerifyOTP(ctx, sid, "000000")
	assert.ErrorIs(t, err, ErrWrongOTP)

	session, err := f.service.Session(sid)
	require.NoError(t, err)
	assert.Equal(t, authsession.StageAwaitingOTP, session.Stage)
	assert.NotEmpty(t, session.OTPCode)
}

func TestVerifyOTP_CorrectCodeAuthenticates(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.registerUser(t, "frank@example.com", "password123")
	sid := f.signInToOTP(t, "frank@example.com", "password123")

	code := f.mailer.lastOTP("frank@example.com")
	token, err := f.service.VerifyOTP(ctx, sid, code)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtutil.ParseToken(testJWTSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "frank@example.com", claims.Email)
	assert.Equal(t, sid, claims.SessionID)

	// Transient state is gone, session authenticated.
	session, err := f.service.Session(sid)
	require.NoError(t, err)
	assert.Equal(t, authsession.StageAuthenticated, session.Stage)
	assert.Empty(t, session.OTPCode)
	assert.Empty(t, session.PendingEmail)
	assert.True(t, f.service.IsAuthenticated(sid))
}

func TestVerifyOTP_FreshSignInInvalidatesOldCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.registerUser(t, "grace@example.com", "password123")
	sid := f.signInToOTP(t, "grace@example.com", "password123")
	oldCode := f.mailer.lastOTP("grace@example.com")

	// Back to the sign-in form and submit again: a new code replaces the old.
	_, err := f.service.ChooseSignIn(sid)
	require.NoError(t, err)
	_, err = f.service.SignIn(ctx, sid, "grace@example.com", "password123")
	require.NoError(t, err)
	newCode := f.mailer.lastOTP("grace@example.com")

	if oldCode != newCode {
		_, err = f.service.VerifyOTP(ctx, sid, oldCode)
		assert.ErrorIs(t, err, ErrWrongOTP)
	}
	_, err = f.service.VerifyOTP(ctx, sid, newCode)
	assert.NoError(t, err)
}

func TestRequestReset_GenericForUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	session, err := f.service.StartSession()
	require.NoError(t, err)
	_, err = f.service.ChooseSignIn(session.ID)
	require.NoError(t, err)
	_, err = f.service.ChooseForgot(session.ID)
	require.NoError(t, err)

	// Unknown address: same nil outcome, no mail sent.
	require.NoError(t, f.service.RequestReset(ctx, session.ID, "ghost@example.com"))
	assert.Empty(t, f.mailer.lastLink("ghost@example.com"))

	current, err := f.service.Session(session.ID)
	require.NoError(t, err)
	assert.Equal(t, authsession.StageAwaitingReset, current.Stage)
}

func TestResetFlow_DeepLinkToNewPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.registerUser(t, "heidi@example.com", "oldpassword1")

	session, err := f.service.StartSession()
	require.NoError(t, err)
	_, err = f.service.ChooseSignIn(session.ID)
	require.NoError(t, err)
	_, err = f.service.ChooseForgot(session.ID)
	require.NoError(t, err)
	require.NoError(t, f.service.RequestReset(ctx, session.ID, "heidi@example.com"))

	link := f.mailer.lastLink("heidi@example.com")
	require.Contains(t, link, "page=reset_password&token=")
	token := link[strings.LastIndex(link, "token=")+len("token="):]
	require.NotEmpty(t, token)

	// The deep link may land in a brand-new session.
	landing, err := f.service.StartSession()
	require.NoError(t, err)
	began, err := f.service.BeginReset(landing.ID, token)
	require.NoError(t, err)
	assert.Equal(t, authsession.StageResettingPwd, began.Stage)

	// Mismatched passwords self-loop.
	_, err = f.service.CompleteReset(ctx, landing.ID, "newpassword1", "different")
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	done, err := f.service.CompleteReset(ctx, landing.ID, "newpassword1", "newpassword1")
	require.NoError(t, err)
	assert.Equal(t, authsession.StageSigningIn, done.Stage)

	// The new password verifies, the old one does not.
	user, err := f.userRepo.GetByEmail("heidi@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("newpassword1")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("oldpassword1")))

	// Single use: the same token fails a second time.
	second, err := f.service.StartSession()
	require.NoError(t, err)
	_, err = f.service.BeginReset(second.ID, token)
	require.NoError(t, err)
	_, err = f.service.CompleteReset(ctx, second.ID, "anotherpass1", "anotherpass1")
	assert.ErrorIs(t, err, ErrResetInvalid)
}

func TestCompleteReset_ExpiredTokenFails(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.registerUser(t, "ivan@example.com", "password123")

	// Backdate the expiry to simulate the clock moving past one hour.
	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, f.userRepo.SetResetToken("ivan@example.com", "stale-token", past))

	session, err := f.service.StartSession()
	require.NoError(t, err)
	_, err = f.service.BeginReset(session.ID, "stale-token")
	require.NoError(t, err)

	_, err = f.service.CompleteReset(ctx, session.ID, "newpassword1", "newpassword1")
	assert.ErrorIs(t, err, ErrResetInvalid)
}

func TestLogout_ClearsSessionState(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.registerUser(t, "judy@example.com", "password123")
	sid := f.signInToOTP(t, "judy@example.com", "password123")

	code := f.mailer.lastOTP("judy@example.com")
	_, err := f.service.VerifyOTP(ctx, sid, code)
	require.NoError(t, err)
	require.True(t, f.service.IsAuthenticated(sid))

	require.NoError(t, f.service.Logout(ctx, sid))
	assert.False(t, f.service.IsAuthenticated(sid))

	_, err = f.service.Session(sid)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAuthFlow_PublishesAuditEvents(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.registerUser(t, "kate@example.com", "password123")
	sid := f.signInToOTP(t, "kate@example.com", "password123")
	code := f.mailer.lastOTP("kate@example.com")
	_, err := f.service.VerifyOTP(ctx, sid, code)
	require.NoError(t, err)

	kinds := f.publisher.kinds()
	assert.Contains(t, kinds, model.EventRegistered)
	assert.Contains(t, kinds, model.EventOTPSent)
	assert.Contains(t, kinds, model.EventOTPVerified)
}
