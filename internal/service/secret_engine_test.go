package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"gatehouse/internal/entity"
	"gatehouse/internal/utils"

	"github.com/stretchr/testify/require"
)

func newEngineFixture() (*SecretEngine, *memSecretRepo, *fakeClock) {
	repo := newMemSecretRepo()
	clock := newFakeClock()
	return NewSecretEngine(repo, clock), repo, clock
}

func TestIssue_NumericCodeForVerification(t *testing.T) {
	t.Parallel()
	engine, repo, clock := newEngineFixture()
	ctx := context.Background()

	code, recordID, err := engine.Issue(ctx, 1, entity.EmailVerification)
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^[1-9]\d{5}$`), code)

	secret, err := repo.FindByID(ctx, recordID)
	require.NoError(t, err)
	require.NotNil(t, secret)
	require.NotNil(t, secret.CodeDigest)
	require.Nil(t, secret.TokenDigest)
	require.Equal(t, utils.Digest(code), *secret.CodeDigest)
	require.Equal(t, 0, secret.Attempts)
	require.Equal(t, clock.Now().Add(15*time.Minute), secret.ExpiresAt)
}

func TestIssue_OpaqueTokenForReset(t *testing.T) {
	t.Parallel()
	engine, repo, _ := newEngineFixture()
	ctx := context.Background()

	token, recordID, err := engine.Issue(ctx, 1, entity.PasswordReset)
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), token)

	secret, err := repo.FindByID(ctx, recordID)
	require.NoError(t, err)
	require.NotNil(t, secret)
	require.Nil(t, secret.CodeDigest)
	require.NotNil(t, secret.TokenDigest)
	require.Equal(t, utils.Digest(token), *secret.TokenDigest)
}

func TestValidateByLookup_SuccessIsSingleUse(t *testing.T) {
	t.Parallel()
	engine, repo, _ := newEngineFixture()
	ctx := context.Background()

	code, _, err := engine.Issue(ctx, 7, entity.EmailVerification)
	require.NoError(t, err)

	require.NoError(t, engine.ValidateByLookup(ctx, 7, entity.EmailVerification, code))
	require.Equal(t, 0, repo.count())

	err = engine.ValidateByLookup(ctx, 7, entity.EmailVerification, code)
	require.ErrorIs(t, err, ErrSecretNotFound)
}

func TestValidateByLookup_PicksMostRecent(t *testing.T) {
	t.Parallel()
	engine, _, _ := newEngineFixture()
	ctx := context.Background()

	older, _, err := engine.Issue(ctx, 7, entity.EmailVerification)
	require.NoError(t, err)
	newer, _, err := engine.Issue(ctx, 7, entity.EmailVerification)
	require.NoError(t, err)

	if older == newer {
		t.Skip("collided codes")
	}
	err = engine.ValidateByLookup(ctx, 7, entity.EmailVerification, older)
	require.ErrorIs(t, err, ErrInvalidSecret)
	require.NoError(t, engine.ValidateByLookup(ctx, 7, entity.EmailVerification, newer))
}

func TestValidateByLookup_AttemptLimit(t *testing.T) {
	t.Parallel()
	engine, repo, _ := newEngineFixture()
	ctx := context.Background()

	code, recordID, err := engine.Issue(ctx, 7, entity.EmailVerification)
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "111111"
	}
	for i := 0; i < maxSecretAttempts; i++ {
		err := engine.ValidateByLookup(ctx, 7, entity.EmailVerification, wrong)
		require.ErrorIs(t, err, ErrInvalidSecret)
	}

	secret, err := repo.FindByID(ctx, recordID)
	require.NoError(t, err)
	require.NotNil(t, secret)
	require.Equal(t, maxSecretAttempts, secret.Attempts)

	// Sixth call fails even with the correct code, and the record is gone.
	err = engine.ValidateByLookup(ctx, 7, entity.EmailVerification, code)
	require.ErrorIs(t, err, ErrSecretExhausted)
	require.Equal(t, 0, repo.count())
}

func TestValidateByLookup_ExpiredDeletesRecord(t *testing.T) {
	t.Parallel()
	engine, repo, clock := newEngineFixture()
	ctx := context.Background()

	code, _, err := engine.Issue(ctx, 7, entity.EmailVerification)
	require.NoError(t, err)

	clock.Advance(15*time.Minute + time.Second)
	err = engine.ValidateByLookup(ctx, 7, entity.EmailVerification, code)
	require.ErrorIs(t, err, ErrSecretExpired)
	require.Equal(t, 0, repo.count())
}

func TestValidateByLookup_MissingRecord(t *testing.T) {
	t.Parallel()
	engine, _, _ := newEngineFixture()

	err := engine.ValidateByLookup(context.Background(), 42, entity.EmailVerification, "123456")
	require.ErrorIs(t, err, ErrSecretNotFound)
}

func TestValidateByID_ReturnsOwner(t *testing.T) {
	t.Parallel()
	engine, repo, _ := newEngineFixture()
	ctx := context.Background()

	code, recordID, err := engine.Issue(ctx, 9, entity.Login2FA)
	require.NoError(t, err)

	userID, err := engine.ValidateByID(ctx, recordID, entity.Login2FA, code)
	require.NoError(t, err)
	require.Equal(t, uint(9), userID)
	require.Equal(t, 0, repo.count())
}

func TestValidateByID_WrongPurpose(t *testing.T) {
	t.Parallel()
	engine, _, _ := newEngineFixture()
	ctx := context.Background()

	code, recordID, err := engine.Issue(ctx, 9, entity.EmailVerification)
	require.NoError(t, err)

	_, err = engine.ValidateByID(ctx, recordID, entity.Login2FA, code)
	require.ErrorIs(t, err, ErrWrongPurpose)
}

func TestValidateByID_UnknownRecord(t *testing.T) {
	t.Parallel()
	engine, _, _ := newEngineFixture()

	_, err := engine.ValidateByID(context.Background(), 404, entity.Login2FA, "123456")
	require.ErrorIs(t, err, ErrSecretNotFound)
}

func TestValidateByToken_Success(t *testing.T) {
	t.Parallel()
	engine, repo, _ := newEngineFixture()
	ctx := context.Background()

	token, _, err := engine.Issue(ctx, 3, entity.PasswordReset)
	require.NoError(t, err)

	userID, err := engine.ValidateByToken(ctx, token, entity.PasswordReset)
	require.NoError(t, err)
	require.Equal(t, uint(3), userID)
	require.Equal(t, 0, repo.count())

	_, err = engine.ValidateByToken(ctx, token, entity.PasswordReset)
	require.ErrorIs(t, err, ErrSecretNotFound)
}

func TestValidateByToken_Expired(t *testing.T) {
	t.Parallel()
	engine, repo, clock := newEngineFixture()
	ctx := context.Background()

	token, _, err := engine.Issue(ctx, 3, entity.PasswordReset)
	require.NoError(t, err)

	clock.Advance(time.Hour + time.Minute)
	_, err = engine.ValidateByToken(ctx, token, entity.PasswordReset)
	require.ErrorIs(t, err, ErrSecretExpired)
	require.Equal(t, 0, repo.count())
}

func TestValidateByToken_Unknown(t *testing.T) {
	t.Parallel()
	engine, _, _ := newEngineFixture()

	_, err := engine.ValidateByToken(context.Background(), "deadbeef", entity.PasswordReset)
	require.ErrorIs(t, err, ErrSecretNotFound)
}

func TestIssue_TTLPerPurpose(t *testing.T) {
	t.Parallel()
	engine, repo, clock := newEngineFixture()
	ctx := context.Background()

	cases := []struct {
		purpose entity.SecretPurpose
		ttl     time.Duration
	}{
		{entity.EmailVerification, 15 * time.Minute},
		{entity.Login2FA, 10 * time.Minute},
		{entity.PasswordReset, time.Hour},
	}
	for _, tc := range cases {
		_, recordID, err := engine.Issue(ctx, 1, tc.purpose)
		require.NoError(t, err)
		secret, err := repo.FindByID(ctx, recordID)
		require.NoError(t, err)
		require.NotNil(t, secret)
		require.Equal(t, clock.Now().Add(tc.ttl), secret.ExpiresAt, "purpose %s", tc.purpose)
	}
}
