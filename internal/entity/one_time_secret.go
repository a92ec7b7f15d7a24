package entity

import "time"

type SecretPurpose string

const (
	EmailVerification SecretPurpose = "email_verification"
	Login2FA          SecretPurpose = "login_2fa"
	PasswordReset     SecretPurpose = "password_reset"
)

// OneTimeSecret is a pending verification code, login 2FA code, or password
// reset token. Exactly one of CodeDigest/TokenDigest is set: numeric codes for
// email verification and login 2FA, an opaque token for password reset.
// Deletion is the only terminal state; there is no "used" flag.
type OneTimeSecret struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"not null;index:idx_secret_user_purpose,priority:1"`
	User   User `gorm:"constraint:OnDelete:CASCADE"`

	Purpose     SecretPurpose `gorm:"type:varchar(32);not null;index:idx_secret_user_purpose,priority:2"`
	CodeDigest  *string       `gorm:"type:varchar(64)"`
	TokenDigest *string       `gorm:"type:varchar(64);index"`

	ExpiresAt time.Time `gorm:"not null"`
	Attempts  int       `gorm:"not null;default:0"`

	CreatedAt time.Time
}

// Digest returns whichever digest field is populated for the purpose.
func (s *OneTimeSecret) Digest() string {
	if s.CodeDigest != nil {
		return *s.CodeDigest
	}
	if s.TokenDigest != nil {
		return *s.TokenDigest
	}
	return ""
}
