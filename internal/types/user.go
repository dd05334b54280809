package types

import (
	"github.com/pageza/foodgram/backend/internal/models"
)

// User is the public user view, computed for the requesting user
type User struct {
	Email        string  `json:"email"`
	ID           uint    `json:"id"`
	Username     string  `json:"username"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	IsSubscribed bool    `json:"is_subscribed"`
	Avatar       *string `json:"avatar"`
}

// NewUser projects a user model onto its public view
func NewUser(u models.User, isSubscribed bool) User {
	return User{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: isSubscribed,
		Avatar:       u.Avatar,
	}
}

// Subscription is an author as seen from one of its subscribers
type Subscription struct {
	User
	Recipes      []RecipeMinified `json:"recipes"`
	RecipesCount int64            `json:"recipes_count"`
}

// Avatar is returned after an avatar upload
type Avatar struct {
	Avatar string `json:"avatar"`
}

// Token is returned by the login endpoint
type Token struct {
	AuthToken string `json:"auth_token"`
}
