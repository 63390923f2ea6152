package store_test

import (
	"context"
	"testing"
	"time"

	"aceofspace-go/database"
	"aceofspace-go/models"
	"aceofspace-go/store"
	"aceofspace-go/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Initialize(":memory:", logger.Silent)
	require.NoError(t, err)
	return db
}

func createIdentity(t *testing.T, db *gorm.DB, email string) *models.Identity {
	t.Helper()
	ctx := context.Background()
	role, _, err := store.NewRoleStore(db).Ensure(ctx, models.RoleUser, "Default")
	require.NoError(t, err)

	identity := &models.Identity{Email: email, PasswordHash: "hash", FirstName: "A", LastName: "B", RoleID: role.ID}
	require.NoError(t, store.NewIdentityStore(db).Create(ctx, identity))
	return identity
}

func TestIdentityCreateDuplicate(t *testing.T) {
	db := openDB(t)
	first := createIdentity(t, db, "dup@example.com")

	err := store.NewIdentityStore(db).Create(context.Background(), &models.Identity{Email: "dup@example.com", PasswordHash: "h", FirstName: "A", LastName: "B", RoleID: first.RoleID})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestIdentityFindByEmail(t *testing.T) {
	db := openDB(t)
	created := createIdentity(t, db, "find@example.com")
	s := store.NewIdentityStore(db)

	found, err := s.FindByEmail(context.Background(), "FIND@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, models.RoleUser, found.Role.Name)

	_, err = s.FindByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConsumeOTPIsConditional(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	identity := createIdentity(t, db, "otp@example.com")
	s := store.NewIdentityStore(db)

	now := time.Now()
	require.NoError(t, s.SetOTP(ctx, identity.ID, "123456", now.Add(time.Minute)))
	assert.ErrorIs(t, s.ConsumeOTP(ctx, identity.ID, "654321", now), store.ErrStale)
	assert.ErrorIs(t, s.ConsumeOTP(ctx, identity.ID, "123456", now.Add(2*time.Minute)), store.ErrStale)
	require.NoError(t, s.ConsumeOTP(ctx, identity.ID, "123456", now))
	assert.ErrorIs(t, s.ConsumeOTP(ctx, identity.ID, "123456", now), store.ErrStale)

	stored, err := s.FindByID(ctx, identity.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active)
	assert.Nil(t, stored.OTPCode)
	assert.Nil(t, stored.OTPExpiresAt)

	assert.ErrorIs(t, s.SetOTP(ctx, "missing", "123456", time.Now()), store.ErrNotFound)
}

func TestConsumeOTPRejectsExpiredCode(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	identity := createIdentity(t, db, "expired@example.com")
	s := store.NewIdentityStore(db)

	expiresAt := time.Date(2024, 3, 1, 12, 5, 0, 0, time.UTC)
	require.NoError(t, s.SetOTP(ctx, identity.ID, "123456", expiresAt))
	assert.ErrorIs(t, s.ConsumeOTP(ctx, identity.ID, "123456", expiresAt.Add(time.Millisecond)), store.ErrStale)

	stored, err := s.FindByID(ctx, identity.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
	require.NotNil(t, stored.OTPCode)

	// The boundary instant is still valid, whatever zone the caller uses.
	assert.NoError(t, s.ConsumeOTP(ctx, identity.ID, "123456", expiresAt.In(time.FixedZone("IST", 5*3600+1800))))
}

func TestConsumeResetTokenIsConditional(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	identity := createIdentity(t, db, "reset@example.com")
	s := store.NewIdentityStore(db)

	require.NoError(t, s.SetResetToken(ctx, identity.ID, "tok", time.Now().Add(time.Minute)))
	found, err := s.FindByResetToken(ctx, "reset@example.com", "tok")
	require.NoError(t, err)
	assert.Equal(t, identity.ID, found.ID)

	require.NoError(t, s.ConsumeResetToken(ctx, identity.ID, "tok", "newhash"))
	assert.ErrorIs(t, s.ConsumeResetToken(ctx, identity.ID, "tok", "other"), store.ErrStale)

	_, err = s.FindByResetToken(ctx, "reset@example.com", "tok")
	assert.ErrorIs(t, err, store.ErrNotFound)

	stored, err := s.FindByID(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, "newhash", stored.PasswordHash)
}

func TestUpdatePasswordChecksOldHash(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	identity := createIdentity(t, db, "pw@example.com")
	s := store.NewIdentityStore(db)

	assert.ErrorIs(t, s.UpdatePassword(ctx, identity.ID, "wrong", "new"), store.ErrStale)
	assert.NoError(t, s.UpdatePassword(ctx, identity.ID, "hash", "new"))
}

func TestIdentityList(t *testing.T) {
	db := openDB(t)
	createIdentity(t, db, "a@example.com")
	createIdentity(t, db, "b@example.com")
	createIdentity(t, db, "c@example.com")

	page, total, err := store.NewIdentityStore(db).List(context.Background(), 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 2)
}

func TestRoleEnsure(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	s := store.NewRoleStore(db)

	first, created, err := s.Ensure(ctx, "agent", "Agent")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := s.Ensure(ctx, "agent", "Agent")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	found, err := s.FindByName(ctx, " AGENT ")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestKYCStoreEncryptsDocumentNumber(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	cipher, err := utils.NewFieldCipher("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	s := store.NewKYCStore(db, cipher)
	owner := createIdentity(t, db, "doc@example.com").ID

	sub := &models.KYCSubmission{OwnerID: owner, DocumentType: models.DocPassport, DocumentNumber: "A1234567", DocumentFiles: []string{"a.png"}, Status: models.KYCPending}
	require.NoError(t, s.Create(ctx, sub))
	assert.Equal(t, "A1234567", sub.DocumentNumber)

	var raw string
	require.NoError(t, db.Raw("SELECT document_number FROM kyc_submissions WHERE id = ?", sub.ID).Scan(&raw).Error)
	assert.NotEqual(t, "A1234567", raw)

	found, err := s.FindByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "A1234567", found.DocumentNumber)
	assert.Equal(t, []string{"a.png"}, found.DocumentFiles)
}

func TestKYCStoreOneActivePerOwner(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	cipher, err := utils.NewFieldCipher("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	s := store.NewKYCStore(db, cipher)
	owner := createIdentity(t, db, "active@example.com").ID
	reviewer := createIdentity(t, db, "reviewer@example.com").ID

	first := &models.KYCSubmission{OwnerID: owner, DocumentType: models.DocPassport, DocumentNumber: "A1234567", DocumentFiles: []string{"a.png"}, Status: models.KYCPending}
	require.NoError(t, s.Create(ctx, first))

	active, err := s.HasActive(ctx, owner)
	require.NoError(t, err)
	assert.True(t, active)

	second := &models.KYCSubmission{OwnerID: owner, DocumentType: models.DocTaxID, DocumentNumber: "ABCDE1234F", DocumentFiles: []string{"b.png"}, Status: models.KYCPending}
	assert.ErrorIs(t, s.Create(ctx, second), store.ErrConflict)

	require.NoError(t, s.Adjudicate(ctx, first.ID, models.KYCRejected, nil, reviewer, time.Now()))
	assert.ErrorIs(t, s.Adjudicate(ctx, first.ID, models.KYCApproved, nil, reviewer, time.Now()), store.ErrStale)
	assert.ErrorIs(t, s.Adjudicate(ctx, "missing", models.KYCApproved, nil, reviewer, time.Now()), store.ErrNotFound)

	active, err = s.HasActive(ctx, owner)
	require.NoError(t, err)
	assert.False(t, active)

	third := &models.KYCSubmission{OwnerID: owner, DocumentType: models.DocTaxID, DocumentNumber: "ABCDE1234F", DocumentFiles: []string{"c.png"}, Status: models.KYCPending}
	require.NoError(t, s.Create(ctx, third))

	latest, err := s.Latest(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, third.ID, latest.ID)
}

func TestAuditRecordAndList(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	identity := createIdentity(t, db, "audit@example.com")
	s := store.NewAuditStore(db)

	require.NoError(t, s.Record(ctx, &identity.ID, "LOGIN", "AUTH", "Logged in"))
	require.NoError(t, s.Record(ctx, nil, "SEED", "ROLE", "Seeded"))

	logs, err := s.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestKYCStoreRequiresExistingOwner(t *testing.T) {
	db := openDB(t)
	cipher, err := utils.NewFieldCipher("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	sub := &models.KYCSubmission{OwnerID: "no-such-identity", DocumentType: models.DocPassport, DocumentNumber: "A1234567", DocumentFiles: []string{"a.png"}, Status: models.KYCPending}
	assert.Error(t, store.NewKYCStore(db, cipher).Create(context.Background(), sub))
}
