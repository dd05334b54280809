package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/types"
)

// UserService serves user profiles and avatars
type UserService struct {
	db     *gorm.DB
	images storage.ImageStore
	logger *zap.Logger
}

var _ IUserService = (*UserService)(nil)

func NewUserService(db *gorm.DB, images storage.ImageStore, logger *zap.Logger) *UserService {
	return &UserService{db: db, images: images, logger: logger}
}

// GetUser returns the user as seen by viewerID (0 for anonymous)
func (s *UserService) GetUser(ctx context.Context, userID, viewerID uint) (*types.User, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	subscribed := false
	if viewerID != 0 && viewerID != userID {
		var count int64
		err := s.db.WithContext(ctx).Model(&models.Subscription{}).
			Where("author_id = ? AND subscriber_id = ?", userID, viewerID).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		subscribed = count > 0
	}

	view := types.NewUser(*user, subscribed)
	return &view, nil
}

// ListUsers returns one page of users ordered by id
func (s *UserService) ListUsers(ctx context.Context, viewerID uint, page types.PageRequest) ([]types.User, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	users := []models.User{}
	err := s.db.WithContext(ctx).Order("id").Offset(page.Offset()).Limit(page.Limit).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	subscribed := map[uint]bool{}
	if viewerID != 0 && len(users) > 0 {
		ids := make([]uint, 0, len(users))
		for _, u := range users {
			ids = append(ids, u.ID)
		}
		query := s.db.WithContext(ctx).Model(&models.Subscription{}).
			Where("subscriber_id = ? AND author_id IN ?", viewerID, ids)
		if subscribed, err = pluckSet(query, "author_id"); err != nil {
			return nil, 0, err
		}
	}

	views := make([]types.User, 0, len(users))
	for _, u := range users {
		views = append(views, types.NewUser(u, subscribed[u.ID]))
	}
	return views, total, nil
}

// SetAvatar stores a new avatar image and replaces the previous one
func (s *UserService) SetAvatar(ctx context.Context, userID uint, dataURI string) (string, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return "", err
	}

	img, err := storage.DecodeDataURI(dataURI)
	if err != nil {
		return "", invalid("avatar", err.Error())
	}
	url, err := s.images.Save(ctx, storage.Avatars, img)
	if err != nil {
		return "", err
	}

	// Update writes the new value back into user
	var previous string
	if user.Avatar != nil {
		previous = *user.Avatar
	}

	if err := s.db.WithContext(ctx).Model(user).Update("avatar", url).Error; err != nil {
		s.discardImage(ctx, url)
		return "", err
	}
	if previous != "" {
		s.discardImage(ctx, previous)
	}
	return url, nil
}

// DeleteAvatar clears the avatar. Clearing an empty avatar is not an error.
func (s *UserService) DeleteAvatar(ctx context.Context, userID uint) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Avatar == nil {
		return nil
	}
	previous := *user.Avatar

	if err := s.db.WithContext(ctx).Model(user).Update("avatar", nil).Error; err != nil {
		return err
	}
	s.discardImage(ctx, previous)
	return nil
}

func (s *UserService) findUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, kindError(ErrNotFound, msgUserNotFound)
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) discardImage(ctx context.Context, url string) {
	if err := s.images.Delete(ctx, url); err != nil {
		s.logger.Warn("failed to delete avatar", zap.String("url", url), zap.Error(err))
	}
}
