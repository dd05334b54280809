package service

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
	GenerateToken(user *models.User) (string, error)
	GetUserByID(ctx context.Context, userID uint) (*models.User, error)
	SetPassword(ctx context.Context, userID uint, currentPassword, newPassword string) error
}

// ICatalogService defines the interface for tag and ingredient lookups
type ICatalogService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id uint) (*models.Tag, error)
	ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	CreateRecipe(ctx context.Context, authorID uint, req *types.RecipeRequest) (*types.Recipe, error)
	UpdateRecipe(ctx context.Context, recipeID, userID uint, req *types.RecipeRequest) (*types.Recipe, error)
	DeleteRecipe(ctx context.Context, recipeID, userID uint) error
	GetRecipe(ctx context.Context, recipeID, viewerID uint) (*types.Recipe, error)
	Exists(ctx context.Context, recipeID uint) (bool, error)
	ListRecipes(ctx context.Context, viewerID uint, filter RecipeFilter, page types.PageRequest) ([]types.Recipe, int64, error)
}

// IBookmarkService defines the interface for favorites and the shopping cart
type IBookmarkService interface {
	AddFavorite(ctx context.Context, userID, recipeID uint) (*types.RecipeMinified, error)
	RemoveFavorite(ctx context.Context, userID, recipeID uint) error
	AddToShoppingCart(ctx context.Context, userID, recipeID uint) (*types.RecipeMinified, error)
	RemoveFromShoppingCart(ctx context.Context, userID, recipeID uint) error
}

// IShoppingListService defines the interface for shopping list aggregation
type IShoppingListService interface {
	ShoppingList(ctx context.Context, userID uint) ([]types.ShoppingListItem, error)
}

// ISubscriptionService defines the interface for the follow graph
type ISubscriptionService interface {
	Subscribe(ctx context.Context, subscriberID, authorID uint, recipesLimit int) (*types.Subscription, error)
	Unsubscribe(ctx context.Context, subscriberID, authorID uint) error
	ListSubscriptions(ctx context.Context, subscriberID uint, page types.PageRequest, recipesLimit int) ([]types.Subscription, int64, error)
}

// IUserService defines the interface for user profile operations
type IUserService interface {
	GetUser(ctx context.Context, userID, viewerID uint) (*types.User, error)
	ListUsers(ctx context.Context, viewerID uint, page types.PageRequest) ([]types.User, int64, error)
	SetAvatar(ctx context.Context, userID uint, dataURI string) (string, error)
	DeleteAvatar(ctx context.Context, userID uint) error
}
