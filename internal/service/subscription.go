package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// NonFieldErrors is the field name used for validation errors that do not
// belong to a single input field
const NonFieldErrors = "errors"

type SubscriptionService struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ ISubscriptionService = (*SubscriptionService)(nil)

func NewSubscriptionService(db *gorm.DB, logger *zap.Logger) *SubscriptionService {
	return &SubscriptionService{db: db, logger: logger}
}

// Subscribe adds the subscriber -> author edge and returns the author as the
// subscriber now sees it. recipesLimit < 0 means every recipe.
func (s *SubscriptionService) Subscribe(ctx context.Context, subscriberID, authorID uint, recipesLimit int) (*types.Subscription, error) {
	var author models.User
	if err := s.db.WithContext(ctx).First(&author, authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, kindError(ErrNotFound, msgUserNotFound)
		}
		return nil, err
	}

	if subscriberID == authorID {
		return nil, invalid(NonFieldErrors, msgSubscribeSelf)
	}

	edge := models.Subscription{AuthorID: authorID, SubscriberID: subscriberID}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Subscription{}).Where(&edge).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, kindError(ErrConflict, msgAlreadySubscribed)
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&edge).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, kindError(ErrConflict, msgAlreadySubscribed)
		}
		return nil, err
	}

	s.logger.Info("subscribed", zap.Uint("subscriber_id", subscriberID), zap.Uint("author_id", authorID))

	views, err := s.project(ctx, []models.User{author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Unsubscribe removes the edge, failing when it does not exist
func (s *SubscriptionService) Unsubscribe(ctx context.Context, subscriberID, authorID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", authorID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return kindError(ErrNotFound, msgUserNotFound)
	}

	result := s.db.WithContext(ctx).
		Where("author_id = ? AND subscriber_id = ?", authorID, subscriberID).
		Delete(&models.Subscription{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return kindError(ErrNothingToRemove, msgNotSubscribed)
	}

	s.logger.Info("unsubscribed", zap.Uint("subscriber_id", subscriberID), zap.Uint("author_id", authorID))
	return nil
}

// ListSubscriptions returns one page of the authors the user follows, in
// follow order, and the total number of followed authors
func (s *SubscriptionService) ListSubscriptions(ctx context.Context, subscriberID uint, page types.PageRequest, recipesLimit int) ([]types.Subscription, int64, error) {
	query := s.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
		Where("subscriptions.subscriber_id = ?", subscriberID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	authors := []models.User{}
	err := query.
		Order("subscriptions.id ASC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&authors).Error
	if err != nil {
		return nil, 0, err
	}

	views, err := s.project(ctx, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

type recipeCount struct {
	AuthorID uint
	Count    int64
}

// project builds subscription views. Recipe counts come from one grouped
// query; previews are fetched per author.
func (s *SubscriptionService) project(ctx context.Context, authors []models.User, recipesLimit int) ([]types.Subscription, error) {
	views := make([]types.Subscription, 0, len(authors))
	if len(authors) == 0 {
		return views, nil
	}

	ids := make([]uint, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}

	var counts []recipeCount
	err := s.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS count").
		Where("author_id IN ?", ids).
		Group("author_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	countByAuthor := make(map[uint]int64, len(counts))
	for _, c := range counts {
		countByAuthor[c.AuthorID] = c.Count
	}

	for _, author := range authors {
		preview := s.db.WithContext(ctx).
			Where("author_id = ?", author.ID).
			Order("id DESC")
		if recipesLimit >= 0 {
			preview = preview.Limit(recipesLimit)
		}

		var recipes []models.Recipe
		if err := preview.Find(&recipes).Error; err != nil {
			return nil, err
		}

		minified := make([]types.RecipeMinified, 0, len(recipes))
		for _, r := range recipes {
			minified = append(minified, types.NewRecipeMinified(r))
		}

		views = append(views, types.Subscription{
			User:         types.NewUser(author, true),
			Recipes:      minified,
			RecipesCount: countByAuthor[author.ID],
		})
	}
	return views, nil
}
