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

// bookmarkList describes one of the per-user recipe lists
type bookmarkList struct {
	name         string
	model        func(customerID, recipeID uint) interface{}
	msgDuplicate string
	msgAbsent    string
}

var (
	favoritesList = bookmarkList{
		name: "favorites",
		model: func(customerID, recipeID uint) interface{} {
			return &models.Favorite{CustomerID: customerID, RecipeID: recipeID}
		},
		msgDuplicate: msgAlreadyFavorited,
		msgAbsent:    msgNotFavorited,
	}
	shoppingCartList = bookmarkList{
		name: "shopping_cart",
		model: func(customerID, recipeID uint) interface{} {
			return &models.ShoppingCart{CustomerID: customerID, RecipeID: recipeID}
		},
		msgDuplicate: msgAlreadyInCart,
		msgAbsent:    msgNotInCart,
	}
)

// BookmarkService manages favorites and the shopping cart. Both lists hold
// at most one entry per (customer, recipe) pair.
type BookmarkService struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ IBookmarkService = (*BookmarkService)(nil)

func NewBookmarkService(db *gorm.DB, logger *zap.Logger) *BookmarkService {
	return &BookmarkService{db: db, logger: logger}
}

func (s *BookmarkService) AddFavorite(ctx context.Context, userID, recipeID uint) (*types.RecipeMinified, error) {
	return s.add(ctx, favoritesList, userID, recipeID)
}

func (s *BookmarkService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return s.remove(ctx, favoritesList, userID, recipeID)
}

func (s *BookmarkService) AddToShoppingCart(ctx context.Context, userID, recipeID uint) (*types.RecipeMinified, error) {
	return s.add(ctx, shoppingCartList, userID, recipeID)
}

func (s *BookmarkService) RemoveFromShoppingCart(ctx context.Context, userID, recipeID uint) error {
	return s.remove(ctx, shoppingCartList, userID, recipeID)
}

func (s *BookmarkService) add(ctx context.Context, list bookmarkList, userID, recipeID uint) (*types.RecipeMinified, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, kindError(ErrNotFound, msgRecipeNotFound)
		}
		return nil, err
	}

	entry := list.model(userID, recipeID)

	var count int64
	if err := s.db.WithContext(ctx).Model(entry).Where(entry).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, kindError(ErrConflict, list.msgDuplicate)
	}

	// The unique index still guards against a concurrent insert slipping
	// between the check and the write.
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, kindError(ErrConflict, list.msgDuplicate)
		}
		return nil, err
	}

	s.logger.Debug("recipe bookmarked",
		zap.String("list", list.name),
		zap.Uint("user_id", userID),
		zap.Uint("recipe_id", recipeID))

	minified := types.NewRecipeMinified(recipe)
	return &minified, nil
}

func (s *BookmarkService) remove(ctx context.Context, list bookmarkList, userID, recipeID uint) error {
	exists, err := recipeExists(s.db.WithContext(ctx), recipeID)
	if err != nil {
		return err
	}
	if !exists {
		return kindError(ErrNotFound, msgRecipeNotFound)
	}

	entry := list.model(userID, recipeID)
	result := s.db.WithContext(ctx).Where(entry).Delete(list.model(0, 0))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return kindError(ErrNothingToRemove, list.msgAbsent)
	}

	s.logger.Debug("recipe unbookmarked",
		zap.String("list", list.name),
		zap.Uint("user_id", userID),
		zap.Uint("recipe_id", recipeID))
	return nil
}

func recipeExists(db *gorm.DB, recipeID uint) (bool, error) {
	var count int64
	if err := db.Model(&models.Recipe{}).Where("id = ?", recipeID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
