package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/emilythestrangee/qna-forum/backend/internal/models"
)

// UserRepository is the identity store. Reputation is kept in the user's
// preference bag.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Reputation(ctx context.Context, userID string) (int, error) {
	prefs, err := r.Preferences(ctx, userID)
	if err != nil {
		return 0, err
	}
	return prefs.Reputation, nil
}

// AddReputation adjusts the counter in a single UPDATE so concurrent
// writers from other processes compose instead of overwriting each other.
func (r *UserRepository) AddReputation(ctx context.Context, userID string, delta int) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("pref_reputation", gorm.Expr("pref_reputation + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Preferences(ctx context.Context, userID string) (models.UserPrefs, error) {
	var user models.User
	err := r.db.WithContext(ctx).Select("id", "pref_reputation").First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.UserPrefs{}, ErrUserNotFound
	}
	if err != nil {
		return models.UserPrefs{}, err
	}
	return user.Prefs, nil
}
