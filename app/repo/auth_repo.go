package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"fiber/responta/app/model"
)

type TokenRepository interface {
	AddBlacklistToken(ctx context.Context, token model.BlacklistedToken) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type TokenRepo struct {
	DB *gorm.DB
}

func NewTokenRepo(db *gorm.DB) *TokenRepo {
	return &TokenRepo{
		DB: db,
	}
}

func (r *TokenRepo) AddBlacklistToken(ctx context.Context, token model.BlacklistedToken) error {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	return translate(r.DB.WithContext(ctx).Create(&token).Error, "Token tidak ditemukan")
}

func (r *TokenRepo) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.BlacklistedToken{}).Where("token = ?", token).Count(&count).Error
	if err != nil {
		return false, translate(err, "Token tidak ditemukan")
	}
	return count > 0, nil
}

// PurgeExpired removes entries whose token would be rejected on expiry anyway.
func (r *TokenRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at < ?", now).Delete(&model.BlacklistedToken{})
	return res.RowsAffected, translate(res.Error, "Token tidak ditemukan")
}
