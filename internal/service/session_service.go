package service

import (
	"context"
	"strconv"
	"time"

	"gatehouse/internal/entity"
	"gatehouse/internal/repository"
	"gatehouse/internal/utils"
)

type TokenPair struct {
	AccessToken      string
	ExpiresIn        int64
	RefreshToken     string
	RefreshExpiresIn int64
}

// SessionService issues stateless access tokens and storage-backed refresh
// tokens, and performs refresh rotation: every redemption deletes the token
// used and issues a replacement.
type SessionService struct {
	users  repository.UserRepository
	tokens repository.RefreshTokenRepository
	jwt    utils.JWTManager
	clock  Clock

	RefreshTokenTTL time.Duration
}

func NewSessionService(
	users repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	jwt utils.JWTManager,
	clock Clock,
) *SessionService {
	return &SessionService{
		users:  users,
		tokens: tokens,
		jwt:    jwt,
		clock:  clock,
	}
}

func (s *SessionService) IssueAccessToken(user *entity.User) (string, time.Duration, error) {
	subject := strconv.FormatUint(uint64(user.ID), 10)
	return s.jwt.IssueAccessToken(subject, user.Email, s.now())
}

// IssueRefreshToken persists only the token's digest; the plaintext exists
// on the wire and nowhere else.
func (s *SessionService) IssueRefreshToken(ctx context.Context, userID uint) (string, time.Time, error) {
	token, err := utils.GenerateOpaqueToken()
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := s.now().Add(s.refreshTTL())
	record := &entity.RefreshToken{
		UserID:      userID,
		TokenDigest: utils.Digest(token),
		ExpiresAt:   expiresAt,
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (s *SessionService) IssuePair(ctx context.Context, user *entity.User) (*TokenPair, error) {
	accessToken, accessTTL, err := s.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExpiry, err := s.IssueRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      accessToken,
		ExpiresIn:        int64(accessTTL.Seconds()),
		RefreshToken:     refreshToken,
		RefreshExpiresIn: int64(refreshExpiry.Sub(s.now()).Seconds()),
	}, nil
}

// ValidateAccessToken verifies signature and expiry. Malformed, forged and
// expired input all come back as utils.ErrInvalidToken.
func (s *SessionService) ValidateAccessToken(token string) (*utils.AccessClaims, error) {
	return s.jwt.ParseAccessToken(token)
}

// Refresh redeems a refresh token for a fresh access/refresh pair. The
// consumed row is deleted before the new pair is issued; a concurrent
// redemption of the same token finds the row gone and fails.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	record, err := s.tokens.FindByDigest(ctx, utils.Digest(refreshToken))
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrInvalidOrExpiredToken
	}

	if s.now().After(record.ExpiresAt) {
		if _, err := s.tokens.Delete(ctx, record.ID); err != nil {
			return nil, err
		}
		return nil, ErrInvalidOrExpiredToken
	}

	deleted, err := s.tokens.Delete(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, ErrInvalidOrExpiredToken
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return s.IssuePair(ctx, user)
}

// Revoke consumes the presented refresh token. Revoking an unknown token is
// a no-op so logout stays idempotent.
func (s *SessionService) Revoke(ctx context.Context, refreshToken string) error {
	record, err := s.tokens.FindByDigest(ctx, utils.Digest(refreshToken))
	if err != nil {
		return err
	}
	if record == nil {
		return nil
	}
	_, err = s.tokens.Delete(ctx, record.ID)
	return err
}

func (s *SessionService) RevokeAllForUser(ctx context.Context, userID uint) error {
	return s.tokens.DeleteAllForUser(ctx, userID)
}

func (s *SessionService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

func (s *SessionService) refreshTTL() time.Duration {
	if s.RefreshTokenTTL > 0 {
		return s.RefreshTokenTTL
	}
	return 7 * 24 * time.Hour
}
