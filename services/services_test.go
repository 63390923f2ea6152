package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"aceofspace-go/database"
	"aceofspace-go/models"
	"aceofspace-go/store"
	"aceofspace-go/utils"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

const testKey = "0123456789abcdef0123456789abcdef"

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type sentMail struct {
	to, subject, body string
}

// fakeNotifier records what would have been delivered.
type fakeNotifier struct {
	mu       sync.Mutex
	codes    map[string]string
	mails    []sentMail
	otpErr   error
	mailErrs []error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{codes: map[string]string{}}
}

func (n *fakeNotifier) SendOTP(ctx context.Context, address, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.otpErr != nil {
		return n.otpErr
	}
	n.codes[address] = code
	return nil
}

// SendMail consumes queued errors in order; once the queue is empty every
// send succeeds.
func (n *fakeNotifier) SendMail(ctx context.Context, address, subject, htmlBody string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.mailErrs) > 0 {
		err := n.mailErrs[0]
		n.mailErrs = n.mailErrs[1:]
		if err != nil {
			return err
		}
	}
	n.mails = append(n.mails, sentMail{to: address, subject: subject, body: htmlBody})
	return nil
}

func (n *fakeNotifier) code(address string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[address]
}

// memFiles is an in-memory document store.
type memFiles struct {
	mu      sync.Mutex
	files   map[string][]byte
	saveErr error
}

func newMemFiles() *memFiles {
	return &memFiles{files: map[string][]byte{}}
}

func (m *memFiles) Save(ctx context.Context, name string, r io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return "", m.saveErr
	}
	ref := "mem://" + name
	m.files[ref] = data
	return ref, nil
}

func (m *memFiles) Remove(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, ref)
	return nil
}

func (m *memFiles) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

type testEnv struct {
	clock      *fakeClock
	notifier   *fakeNotifier
	files      *memFiles
	identities *store.IdentityStore
	userRole   string
	adminID    string
	audit      *store.AuditStore
	tokens     *utils.TokenIssuer
	otp        *OTPEngine
	passwords  *PasswordManager
	auth       *AuthService
	kyc        *KYCService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Initialize(":memory:", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Seed(context.Background(), db, "admin@example.com", "Admin@123", zap.NewNop()))

	cipher, err := utils.NewFieldCipher(testKey)
	require.NoError(t, err)

	env := &testEnv{
		clock:      newFakeClock(),
		notifier:   newFakeNotifier(),
		files:      newMemFiles(),
		identities: store.NewIdentityStore(db),
		audit:      store.NewAuditStore(db),
	}

	role, err := store.NewRoleStore(db).FindByName(context.Background(), models.RoleUser)
	require.NoError(t, err)
	env.userRole = role.ID
	admin, err := env.identities.FindByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)
	env.adminID = admin.ID

	env.tokens, err = utils.NewTokenIssuer("test", "access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	require.NoError(t, err)
	env.tokens.WithClock(env.clock.Now)

	env.otp = NewOTPEngine(env.identities, 5*time.Minute, env.clock.Now)
	env.passwords = NewPasswordManager(env.identities, 5*time.Minute, env.clock.Now)
	env.auth = NewAuthService(AuthDeps{
		Identities: env.identities,
		Roles:      store.NewRoleStore(db),
		OTP:        env.otp,
		Passwords:  env.passwords,
		Tokens:     env.tokens,
		Notifier:   env.notifier,
		Audit:      env.audit,
		ResetURL:   "http://localhost:3000/reset-password",
	}, zap.NewNop())
	env.kyc = NewKYCService(store.NewKYCStore(db, cipher), env.files, 1024, env.audit, env.clock.Now, zap.NewNop())
	return env
}

// activeIdentity registers and verifies email, returning the stored identity.
func (e *testEnv) activeIdentity(t *testing.T, email, password string) *models.Identity {
	t.Helper()
	ctx := context.Background()

	res := e.auth.Register(ctx, models.RegisterRequest{FirstName: "Asha", LastName: "Rao", Email: email, Password: password})
	require.True(t, res.OK(), res.Message)
	res = e.auth.VerifyOTP(ctx, email, e.notifier.code(email))
	require.True(t, res.OK(), res.Message)

	identity, err := e.identities.FindByEmail(ctx, email)
	require.NoError(t, err)
	return identity
}

// ownerID stores an active identity directly, skipping registration.
func (e *testEnv) ownerID(t *testing.T, name string) string {
	t.Helper()
	identity := &models.Identity{
		Email:        name + "@example.com",
		PasswordHash: "unused",
		FirstName:    name,
		LastName:     "Owner",
		RoleID:       e.userRole,
		Active:       true,
	}
	require.NoError(t, e.identities.Create(context.Background(), identity))
	return identity.ID
}

func file(name string, content string) Upload {
	return Upload{Filename: name, Size: int64(len(content)), Content: bytes.NewBufferString(content)}
}

var errDown = errors.New("smtp down")
