package types

import (
	"github.com/pageza/foodgram/backend/internal/models"
)

// RecipeIngredient is an ingredient as it appears inside a recipe
type RecipeIngredient struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// Recipe is the full recipe view, computed for the requesting user
type Recipe struct {
	ID               uint               `json:"id"`
	Tags             []models.Tag       `json:"tags"`
	Author           User               `json:"author"`
	Ingredients      []RecipeIngredient `json:"ingredients"`
	IsFavorited      bool               `json:"is_favorited"`
	IsInShoppingCart bool               `json:"is_in_shopping_cart"`
	Name             string             `json:"name"`
	Image            string             `json:"image"`
	Text             string             `json:"text"`
	CookingTime      int                `json:"cooking_time"`
}

// RecipeMinified is the short form used by bookmarks and subscription previews
type RecipeMinified struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// NewRecipeMinified projects a recipe model onto its short form
func NewRecipeMinified(r models.Recipe) RecipeMinified {
	return RecipeMinified{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

// ShoppingListItem is one aggregated line of the shopping list
type ShoppingListItem struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	TotalAmount     int64  `json:"total_amount"`
}

// ShortLink is returned by the get-link endpoint
type ShortLink struct {
	ShortLink string `json:"short-link"`
}
