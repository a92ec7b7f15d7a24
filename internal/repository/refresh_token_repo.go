package repository

import (
	"context"
	"errors"

	"gatehouse/internal/entity"

	"gorm.io/gorm"
)

// RefreshTokenRepository persists refresh token digests. Delete reports
// whether a row was removed: rotation relies on exactly one of two concurrent
// redemptions observing true.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *entity.RefreshToken) error
	FindByDigest(ctx context.Context, digest string) (*entity.RefreshToken, error)
	Delete(ctx context.Context, id uint) (bool, error)
	DeleteAllForUser(ctx context.Context, userID uint) error
}

type refreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *entity.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *refreshTokenRepository) FindByDigest(ctx context.Context, digest string) (*entity.RefreshToken, error) {
	var token entity.RefreshToken
	err := r.db.WithContext(ctx).
		Where("token_digest = ?", digest).
		First(&token).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *refreshTokenRepository) Delete(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&entity.RefreshToken{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *refreshTokenRepository) DeleteAllForUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&entity.RefreshToken{}).
		Error
}
