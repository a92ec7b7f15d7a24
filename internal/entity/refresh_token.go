package entity

import "time"

// RefreshToken stores only the digest of the opaque token handed to the
// client. A row is deleted, never updated, when the token is redeemed.
type RefreshToken struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"not null;index"`
	User   User `gorm:"constraint:OnDelete:CASCADE"`

	TokenDigest string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	ExpiresAt   time.Time `gorm:"not null"`

	CreatedAt time.Time
}
