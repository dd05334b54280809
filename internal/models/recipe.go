package models

import (
	"time"
)

// Recipe is the aggregate root. Tags and ingredient amounts live in explicit
// join rows that are rebuilt as a whole on every write.
type Recipe struct {
	ID                uint                         `gorm:"primarykey" json:"id"`
	CreatedAt         time.Time                    `json:"-"`
	UpdatedAt         time.Time                    `json:"-"`
	AuthorID          uint                         `gorm:"not null;index" json:"-"`
	Author            User                         `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	Name              string                       `gorm:"size:256;not null" json:"name"`
	Image             string                       `gorm:"size:255;not null" json:"image"`
	Text              string                       `gorm:"type:text;not null" json:"text"`
	CookingTime       int                          `gorm:"not null;check:chk_recipes_cooking_time,cooking_time >= 1" json:"cooking_time"`
	TagLinks          []TagInRecipe                `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
	IngredientAmounts []AmountOfIngredientInRecipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
	Favorites         []Favorite                   `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
	ShoppingCarts     []ShoppingCart               `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Recipe) TableName() string {
	return "recipes"
}

// TagInRecipe links a tag to a recipe
type TagInRecipe struct {
	ID       uint `gorm:"primarykey"`
	RecipeID uint `gorm:"not null;uniqueIndex:idx_recipe_tags_recipe_tag"`
	TagID    uint `gorm:"not null;uniqueIndex:idx_recipe_tags_recipe_tag"`
	Tag      Tag  `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
}

func (TagInRecipe) TableName() string {
	return "recipe_tags"
}

// AmountOfIngredientInRecipe stores how much of an ingredient a recipe uses.
// An ingredient appears at most once per recipe.
type AmountOfIngredientInRecipe struct {
	ID           uint       `gorm:"primarykey"`
	RecipeID     uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredients_recipe_ingredient"`
	IngredientID uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredients_recipe_ingredient;index"`
	Ingredient   Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE"`
	Amount       int        `gorm:"not null;check:chk_recipe_ingredients_amount,amount >= 1"`
}

func (AmountOfIngredientInRecipe) TableName() string {
	return "recipe_ingredients"
}
