package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tasuku-app/tasuku/auth"
)

// UserStore implements auth.UserStore on GORM.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUserByID(ctx context.Context, id int64) (*auth.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToUser(), nil
}

func (s *UserStore) GetUserByName(ctx context.Context, name string) (*auth.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "name = ?", name).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToUser(), nil
}

func (s *UserStore) GetUserByExternalID(ctx context.Context, provider, externalID string) (*auth.User, error) {
	column, err := externalIDColumn(provider)
	if err != nil {
		return nil, err
	}
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, column+" = ?", externalID).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToUser(), nil
}

// CreateUser inserts the user and copies the assigned id back. A duplicate
// key (concurrent creation of the same identity, or a taken name) comes
// back as auth.ErrDuplicateExternalID for the resolver's single retry.
func (s *UserStore) CreateUser(ctx context.Context, user *auth.User) error {
	model := UserToModel(user)
	model.ID = 0
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return auth.ErrDuplicateExternalID
		}
		return err
	}
	user.ID = model.ID
	return nil
}

func (s *UserStore) UpdateUser(ctx context.Context, user *auth.User) error {
	if user.ID <= 0 {
		return fmt.Errorf("cannot update user without id")
	}
	model := UserToModel(user)
	result := s.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", user.ID).Updates(map[string]any{
		"name":          model.Name,
		"password_hash": model.PasswordHash,
		"discord_id":    model.DiscordID,
		"google_id":     model.GoogleID,
		"x_id":          model.XID,
		"email":         model.Email,
		"avatar":        model.Avatar,
		"access_token":  model.AccessToken,
	})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return auth.ErrDuplicateExternalID
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func externalIDColumn(provider string) (string, error) {
	switch provider {
	case auth.ProviderDiscord:
		return "discord_id", nil
	case auth.ProviderGoogle:
		return "google_id", nil
	case auth.ProviderX:
		return "x_id", nil
	}
	return "", fmt.Errorf("no external id column for provider %q", provider)
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return auth.ErrUserNotFound
	}
	return err
}
