package entity

import "time"

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string `gorm:"type:text;not null"`
	IsVerified   bool   `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
