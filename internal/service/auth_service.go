package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"gatehouse/internal/entity"
	"gatehouse/internal/repository"
	"gatehouse/internal/utils"
)

// Compared against when the email is unknown, so login latency does not
// reveal whether an account exists.
const dummyPasswordHash = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8yQbWc1x9uxw2sQ2sXUNx5x9xJ9F2S"

const minPasswordLength = 8

// AuthService sequences the user-facing flows: registration, email
// verification, login with optional mailed 2FA, password reset and token
// refresh. All one-time secret handling goes through the SecretEngine, all
// token handling through the SessionService.
type AuthService struct {
	users        repository.UserRepository
	engine       *SecretEngine
	sessions     *SessionService
	mailer       Mailer
	passwordHash PasswordHasher
	config       AuthConfig
}

func NewAuthService(
	users repository.UserRepository,
	engine *SecretEngine,
	sessions *SessionService,
	mailer Mailer,
	passwordHash PasswordHasher,
	config AuthConfig,
) *AuthService {
	return &AuthService{
		users:        users,
		engine:       engine,
		sessions:     sessions,
		mailer:       mailer,
		passwordHash: passwordHash,
		config:       config,
	}
}

// Register creates an unverified user and mails a verification code.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*entity.User, error) {
	email := utils.NormalizeEmail(input.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidInput
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrInvalidInput
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}

	hash, err := s.passwordHash.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.issueAndMailCode(ctx, user, entity.EmailVerification); err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyEmail consumes the mailed verification code and flips the user's
// verified flag.
func (s *AuthService) VerifyEmail(ctx context.Context, userID uint, code string) error {
	if err := s.engine.ValidateByLookup(ctx, userID, entity.EmailVerification, code); err != nil {
		return err
	}
	return s.users.MarkVerified(ctx, userID)
}

// Login checks credentials. Unknown email and wrong password are
// indistinguishable to the caller. With mandatory 2FA enabled the result
// carries a login handle instead of tokens; the pair is only issued after
// VerifyLogin2FA.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := utils.NormalizeEmail(input.Email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = s.passwordHash.Verify(dummyPasswordHash, input.Password)
		return nil, ErrInvalidCredentials
	}
	if !s.passwordHash.Verify(user.PasswordHash, input.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, ErrEmailNotVerified
	}

	if s.config.Require2FA {
		code, recordID, err := s.engine.Issue(ctx, user.ID, entity.Login2FA)
		if err != nil {
			return nil, err
		}
		if err := s.sendCode(ctx, user.Email, code, entity.Login2FA); err != nil {
			return nil, err
		}
		return &LoginResult{TwoFARequired: true, LoginID: recordID}, nil
	}

	pair, err := s.sessions.IssuePair(ctx, user)
	if err != nil {
		return nil, err
	}
	return loginResultFromPair(pair), nil
}

// VerifyLogin2FA consumes the mailed 2FA code identified by the login handle
// and issues the token pair.
func (s *AuthService) VerifyLogin2FA(ctx context.Context, loginID uint, code string) (*LoginResult, error) {
	userID, err := s.engine.ValidateByID(ctx, loginID, entity.Login2FA, code)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	pair, err := s.sessions.IssuePair(ctx, user)
	if err != nil {
		return nil, err
	}
	return loginResultFromPair(pair), nil
}

// ForgotPassword mails a reset link. An unknown email produces no observable
// action so the response does not reveal account existence.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	token, _, err := s.engine.Issue(ctx, user.ID, entity.PasswordReset)
	if err != nil {
		return err
	}

	if s.mailer == nil {
		return nil
	}
	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.config.AppBaseURL, "/"), token)
	if err := s.mailer.SendResetLink(ctx, user.Email, link); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}

// ResetPassword consumes the mailed reset token and replaces the password
// digest. All of the user's refresh tokens are revoked so sessions opened
// before the reset cannot be refreshed.
func (s *AuthService) ResetPassword(ctx context.Context, token string, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrInvalidInput
	}

	userID, err := s.engine.ValidateByToken(ctx, token, entity.PasswordReset)
	if err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	hash, err := s.passwordHash.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	return s.sessions.RevokeAllForUser(ctx, user.ID)
}

// Refresh rotates the presented refresh token into a fresh pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	pair, err := s.sessions.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return loginResultFromPair(pair), nil
}

// Logout consumes the presented refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.sessions.Revoke(ctx, refreshToken)
}

// LogoutAll revokes every refresh token the user holds.
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	return s.sessions.RevokeAllForUser(ctx, userID)
}

func (s *AuthService) GetCurrentUser(ctx context.Context, userID uint) (*entity.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) issueAndMailCode(ctx context.Context, user *entity.User, purpose entity.SecretPurpose) error {
	code, _, err := s.engine.Issue(ctx, user.ID, purpose)
	if err != nil {
		return err
	}
	return s.sendCode(ctx, user.Email, code, purpose)
}

func (s *AuthService) sendCode(ctx context.Context, email string, code string, purpose entity.SecretPurpose) error {
	if s.mailer == nil {
		return nil
	}
	if err := s.mailer.SendCode(ctx, email, code, purpose); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}
