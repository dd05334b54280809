package models

import (
	"time"
)

// Favorite marks a recipe as favorited by a customer
type Favorite struct {
	ID         uint      `gorm:"primarykey"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	CustomerID uint      `gorm:"not null;uniqueIndex:idx_favorites_customer_recipe"`
	Customer   User      `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	RecipeID   uint      `gorm:"not null;uniqueIndex:idx_favorites_customer_recipe;index"`
}

func (Favorite) TableName() string {
	return "favorites"
}

// ShoppingCart places a recipe in a customer's shopping list
type ShoppingCart struct {
	ID         uint      `gorm:"primarykey"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	CustomerID uint      `gorm:"not null;uniqueIndex:idx_shopping_carts_customer_recipe"`
	Customer   User      `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	RecipeID   uint      `gorm:"not null;uniqueIndex:idx_shopping_carts_customer_recipe;index"`
}

func (ShoppingCart) TableName() string {
	return "shopping_carts"
}
