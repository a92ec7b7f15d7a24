package service

import (
	"context"
	"time"

	"gatehouse/internal/entity"
	"gatehouse/internal/repository"
	"gatehouse/internal/utils"
)

const maxSecretAttempts = 5

// SecretEngine governs the lifecycle of one-time secrets across all three
// purposes: creation, validation, attempt limiting and expiry. Every
// validation ends in exactly one of: success (record deleted), soft failure
// (attempt counter incremented) or hard failure (record deleted).
type SecretEngine struct {
	secrets repository.OneTimeSecretRepository
	clock   Clock

	VerificationCodeTTL time.Duration
	Login2FATTL         time.Duration
	ResetTokenTTL       time.Duration
}

func NewSecretEngine(secrets repository.OneTimeSecretRepository, clock Clock) *SecretEngine {
	return &SecretEngine{secrets: secrets, clock: clock}
}

// Issue generates a secret for the purpose, persists its digest with the
// purpose's TTL, and returns the plaintext (for mail delivery) plus the
// stored record's id. Password reset gets an opaque 64-hex token; the other
// purposes get a 6-digit numeric code.
func (e *SecretEngine) Issue(ctx context.Context, userID uint, purpose entity.SecretPurpose) (string, uint, error) {
	secret := &entity.OneTimeSecret{
		UserID:    userID,
		Purpose:   purpose,
		ExpiresAt: e.now().Add(e.ttl(purpose)),
	}

	var plaintext string
	switch purpose {
	case entity.PasswordReset:
		token, err := utils.GenerateOpaqueToken()
		if err != nil {
			return "", 0, err
		}
		digest := utils.Digest(token)
		secret.TokenDigest = &digest
		plaintext = token
	default:
		code, err := utils.GenerateNumericCode()
		if err != nil {
			return "", 0, err
		}
		digest := utils.Digest(code)
		secret.CodeDigest = &digest
		plaintext = code
	}

	if err := e.secrets.Create(ctx, secret); err != nil {
		return "", 0, err
	}
	return plaintext, secret.ID, nil
}

// ValidateByLookup validates a candidate code against the most recently
// issued secret for (user, purpose). Used for email verification, where the
// client identifies itself by user id.
func (e *SecretEngine) ValidateByLookup(ctx context.Context, userID uint, purpose entity.SecretPurpose, candidate string) error {
	secret, err := e.secrets.FindMostRecent(ctx, userID, purpose)
	if err != nil {
		return err
	}
	if secret == nil {
		return ErrSecretNotFound
	}
	return e.checkAndConsume(ctx, secret, candidate)
}

// ValidateByID validates a candidate code against the record identified by
// the opaque handle the client carries (login 2FA). Returns the owning user
// id on success.
func (e *SecretEngine) ValidateByID(ctx context.Context, recordID uint, purpose entity.SecretPurpose, candidate string) (uint, error) {
	secret, err := e.secrets.FindByID(ctx, recordID)
	if err != nil {
		return 0, err
	}
	if secret == nil {
		return 0, ErrSecretNotFound
	}
	if secret.Purpose != purpose {
		return 0, ErrWrongPurpose
	}
	if err := e.checkAndConsume(ctx, secret, candidate); err != nil {
		return 0, err
	}
	return secret.UserID, nil
}

// ValidateByToken validates a password reset token, where the token itself is
// the lookup key. A reset token is long and unguessable, so there is no
// attempt limiting; consumption still deletes the record. Returns the owning
// user id on success.
func (e *SecretEngine) ValidateByToken(ctx context.Context, token string, purpose entity.SecretPurpose) (uint, error) {
	secret, err := e.secrets.FindByDigest(ctx, utils.Digest(token))
	if err != nil {
		return 0, err
	}
	if secret == nil {
		return 0, ErrSecretNotFound
	}
	if secret.Purpose != purpose {
		return 0, ErrWrongPurpose
	}
	if e.now().After(secret.ExpiresAt) {
		if _, err := e.secrets.Delete(ctx, secret.ID); err != nil {
			return 0, err
		}
		return 0, ErrSecretExpired
	}
	deleted, err := e.secrets.Delete(ctx, secret.ID)
	if err != nil {
		return 0, err
	}
	if !deleted {
		// Another request consumed the token first.
		return 0, ErrSecretNotFound
	}
	return secret.UserID, nil
}

func (e *SecretEngine) checkAndConsume(ctx context.Context, secret *entity.OneTimeSecret, candidate string) error {
	if secret.Attempts >= maxSecretAttempts {
		if _, err := e.secrets.Delete(ctx, secret.ID); err != nil {
			return err
		}
		return ErrSecretExhausted
	}
	if e.now().After(secret.ExpiresAt) {
		if _, err := e.secrets.Delete(ctx, secret.ID); err != nil {
			return err
		}
		return ErrSecretExpired
	}
	if !utils.DigestMatches(secret.Digest(), candidate) {
		if err := e.secrets.IncrementAttempts(ctx, secret.ID); err != nil {
			return err
		}
		return ErrInvalidSecret
	}
	deleted, err := e.secrets.Delete(ctx, secret.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrSecretNotFound
	}
	return nil
}

func (e *SecretEngine) now() time.Time {
	if e.clock == nil {
		return time.Now()
	}
	return e.clock.Now()
}

func (e *SecretEngine) ttl(purpose entity.SecretPurpose) time.Duration {
	switch purpose {
	case entity.Login2FA:
		if e.Login2FATTL > 0 {
			return e.Login2FATTL
		}
		return 10 * time.Minute
	case entity.PasswordReset:
		if e.ResetTokenTTL > 0 {
			return e.ResetTokenTTL
		}
		return time.Hour
	default:
		if e.VerificationCodeTTL > 0 {
			return e.VerificationCodeTTL
		}
		return 15 * time.Minute
	}
}
