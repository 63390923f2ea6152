package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"aceofspace-go/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	m := NewPasswordManager(nil, time.Minute, nil)

	hash, err := m.Hash("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, m.Verify("hunter22", hash))
	assert.False(t, m.Verify("hunter23", hash))
}

func TestResetTokenIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := env.activeIdentity(t, "reset@example.com", "oldpass")

	token, err := env.passwords.RequestReset(ctx, identity)
	require.NoError(t, err)
	assert.Len(t, token, 64)

	_, err = env.passwords.ConsumeReset(ctx, "reset@example.com", token, "newpass")
	require.NoError(t, err)

	stored, err := env.identities.FindByID(ctx, identity.ID)
	require.NoError(t, err)
	assert.True(t, utils.CheckPasswordHash("newpass", stored.PasswordHash))
	assert.Nil(t, stored.ResetToken)
	assert.Nil(t, stored.ResetTokenExpiresAt)

	_, err = env.passwords.ConsumeReset(ctx, "reset@example.com", token, "another")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResetTokenExpires(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := env.activeIdentity(t, "slow@example.com", "oldpass")

	token, err := env.passwords.RequestReset(ctx, identity)
	require.NoError(t, err)

	env.clock.Advance(6 * time.Minute)
	_, err = env.passwords.ConsumeReset(ctx, "slow@example.com", token, "newpass")
	assert.ErrorIs(t, err, ErrResetExpired)

	stored, err := env.identities.FindByID(ctx, identity.ID)
	require.NoError(t, err)
	assert.True(t, utils.CheckPasswordHash("oldpass", stored.PasswordHash))
}

func TestResetRejectsShortPasswordAndKeepsToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := env.activeIdentity(t, "short@example.com", "oldpass")

	token, err := env.passwords.RequestReset(ctx, identity)
	require.NoError(t, err)

	_, err = env.passwords.ConsumeReset(ctx, "short@example.com", token, "abc")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = env.passwords.ConsumeReset(ctx, "short@example.com", token, "longenough")
	assert.NoError(t, err)
}

func TestResetTokenBoundToEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := env.activeIdentity(t, "owner@example.com", "oldpass")
	env.activeIdentity(t, "other@example.com", "oldpass")

	token, err := env.passwords.RequestReset(ctx, identity)
	require.NoError(t, err)

	_, err = env.passwords.ConsumeReset(ctx, "other@example.com", token, "newpass")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewResetTokenReplacesOld(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := env.activeIdentity(t, "twice@example.com", "oldpass")

	first, err := env.passwords.RequestReset(ctx, identity)
	require.NoError(t, err)
	second, err := env.passwords.RequestReset(ctx, identity)
	require.NoError(t, err)

	_, err = env.passwords.ConsumeReset(ctx, "twice@example.com", first, "newpass")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = env.passwords.ConsumeReset(ctx, "twice@example.com", second, "newpass")
	assert.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := env.activeIdentity(t, "change@example.com", "oldpass")

	assert.ErrorIs(t, env.passwords.Change(ctx, identity, "wrong", "newpass"), ErrBadCredentials)
	assert.ErrorIs(t, env.passwords.Change(ctx, identity, "oldpass", "abc"), ErrWeakPassword)
	require.NoError(t, env.passwords.Change(ctx, identity, "oldpass", "newpass"))

	assert.True(t, env.auth.Login(ctx, "change@example.com", "newpass").OK())
	assert.False(t, env.auth.Login(ctx, "change@example.com", "oldpass").OK())
}

func TestPasswordLengthBounds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := env.activeIdentity(t, "bounds@example.com", "oldpass")

	token, err := env.passwords.RequestReset(ctx, identity)
	require.NoError(t, err)
	_, err = env.passwords.ConsumeReset(ctx, "bounds@example.com", token, strings.Repeat("x", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	assert.ErrorIs(t, env.passwords.Change(ctx, identity, "oldpass", strings.Repeat("x", 80)), ErrPasswordTooLong)

	// Multi-byte characters count in bytes: 25 runes of 3 bytes each.
	assert.ErrorIs(t, env.passwords.Change(ctx, identity, "oldpass", strings.Repeat("€", 25)), ErrPasswordTooLong)
	assert.NoError(t, env.passwords.Change(ctx, identity, "oldpass", strings.Repeat("x", MaxPasswordBytes)))
}
