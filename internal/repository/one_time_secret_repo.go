package repository

import (
	"context"
	"errors"

	"gatehouse/internal/entity"

	"gorm.io/gorm"
)

// OneTimeSecretRepository persists pending verification codes, 2FA codes and
// reset tokens. Delete reports whether a row was actually removed so callers
// can detect a concurrent consumption of the same secret.
type OneTimeSecretRepository interface {
	Create(ctx context.Context, secret *entity.OneTimeSecret) error
	FindMostRecent(ctx context.Context, userID uint, purpose entity.SecretPurpose) (*entity.OneTimeSecret, error)
	FindByID(ctx context.Context, id uint) (*entity.OneTimeSecret, error)
	FindByDigest(ctx context.Context, digest string) (*entity.OneTimeSecret, error)
	IncrementAttempts(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) (bool, error)
}

type oneTimeSecretRepository struct {
	db *gorm.DB
}

func NewOneTimeSecretRepository(db *gorm.DB) OneTimeSecretRepository {
	return &oneTimeSecretRepository{db: db}
}

func (r *oneTimeSecretRepository) Create(ctx context.Context, secret *entity.OneTimeSecret) error {
	return r.db.WithContext(ctx).Create(secret).Error
}

func (r *oneTimeSecretRepository) FindMostRecent(
	ctx context.Context,
	userID uint,
	purpose entity.SecretPurpose,
) (*entity.OneTimeSecret, error) {

	var secret entity.OneTimeSecret
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND purpose = ?", userID, purpose).
		Order("created_at DESC, id DESC").
		First(&secret).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &secret, nil
}

func (r *oneTimeSecretRepository) FindByID(ctx context.Context, id uint) (*entity.OneTimeSecret, error) {
	var secret entity.OneTimeSecret
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&secret).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &secret, nil
}

func (r *oneTimeSecretRepository) FindByDigest(ctx context.Context, digest string) (*entity.OneTimeSecret, error) {
	var secret entity.OneTimeSecret
	err := r.db.WithContext(ctx).
		Where("token_digest = ?", digest).
		First(&secret).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &secret, nil
}

func (r *oneTimeSecretRepository) IncrementAttempts(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&entity.OneTimeSecret{}).
		Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + 1")).
		Error
}

func (r *oneTimeSecretRepository) Delete(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&entity.OneTimeSecret{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
