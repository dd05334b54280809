package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/shortlink"
	"github.com/pageza/foodgram/backend/internal/types"
)

const shoppingListFilename = "shopping_list.csv"

type RecipeHandler struct {
	recipes             service.IRecipeService
	bookmarks           service.IBookmarkService
	shoppingList        service.IShoppingListService
	metrics             *metrics.Metrics
	paginator           paginator
	publicURL           string
	creationLimiter     *middleware.RateLimiter
	modificationLimiter *middleware.RateLimiter
}

func NewRecipeHandler(recipes service.IRecipeService, bookmarks service.IBookmarkService, shoppingList service.IShoppingListService, m *metrics.Metrics, publicURL string, pageSize int) *RecipeHandler {
	return &RecipeHandler{
		recipes:      recipes,
		bookmarks:    bookmarks,
		shoppingList: shoppingList,
		metrics:      m,
		paginator:    paginator{publicURL: publicURL, pageSize: pageSize},
		publicURL:    publicURL,
	}
}

// NewRecipeHandlerWithRateLimit creates a recipe handler whose writes are
// limited per user (create) and per user and recipe (update, delete)
func NewRecipeHandlerWithRateLimit(recipes service.IRecipeService, bookmarks service.IBookmarkService, shoppingList service.IShoppingListService, m *metrics.Metrics, publicURL string, pageSize int, creationLimiter, modificationLimiter *middleware.RateLimiter) *RecipeHandler {
	h := NewRecipeHandler(recipes, bookmarks, shoppingList, m, publicURL, pageSize)
	h.creationLimiter = creationLimiter
	h.modificationLimiter = modificationLimiter
	return h
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := middleware.RequireAuth()

	create := []gin.HandlerFunc{auth}
	modify := []gin.HandlerFunc{auth}
	if h.creationLimiter != nil {
		create = append(create, h.creationLimiter.PerUser())
	}
	if h.modificationLimiter != nil {
		modify = append(modify, h.modificationLimiter.PerUserAndRecipe())
	}

	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.POST("", append(create, h.CreateRecipe)...)
		recipes.GET("/download_shopping_cart", auth, h.DownloadShoppingCart)
		recipes.GET("/:id", h.GetRecipe)
		recipes.PATCH("/:id", append(modify, h.UpdateRecipe)...)
		recipes.DELETE("/:id", append(modify, h.DeleteRecipe)...)
		recipes.GET("/:id/get-link", h.GetLink)
		recipes.POST("/:id/favorite", auth, h.AddFavorite)
		recipes.DELETE("/:id/favorite", auth, h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart", auth, h.AddToShoppingCart)
		recipes.DELETE("/:id/shopping_cart", auth, h.RemoveFromShoppingCart)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	page, ok := h.paginator.parse(c)
	if !ok {
		return
	}

	filter := service.RecipeFilter{
		Tags:             c.QueryArray("tags"),
		IsFavorited:      queryFlag(c, "is_favorited"),
		IsInShoppingCart: queryFlag(c, "is_in_shopping_cart"),
	}
	if raw := c.Query("author"); raw != "" {
		authorID, err := strconv.ParseUint(raw, 10, 0)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"author": []string{"Введите число."}})
			return
		}
		filter.AuthorID = uint(authorID)
	}

	recipes, total, err := h.recipes.ListRecipes(c.Request.Context(), middleware.ViewerID(c), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	if outOfRange(page, total) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": msgInvalidPage})
		return
	}

	c.JSON(http.StatusOK, pageOf(h.paginator, c, page, total, recipes))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	recipeID, ok := pathID(c)
	if !ok {
		return
	}

	recipe, err := h.recipes.GetRecipe(c.Request.Context(), recipeID, middleware.ViewerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req types.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	recipe, err := h.recipes.CreateRecipe(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.countRecipeWrite("create")
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	recipeID, ok := pathID(c)
	if !ok {
		return
	}

	var req types.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	recipe, err := h.recipes.UpdateRecipe(c.Request.Context(), recipeID, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.countRecipeWrite("update")
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	recipeID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.recipes.DeleteRecipe(c.Request.Context(), recipeID, userID); err != nil {
		respondError(c, err)
		return
	}

	h.countRecipeWrite("delete")
	c.Status(http.StatusNoContent)
}

// GetLink returns the short link of an existing recipe
func (h *RecipeHandler) GetLink(c *gin.Context) {
	recipeID, ok := pathID(c)
	if !ok {
		return
	}

	exists, err := h.recipes.Exists(c.Request.Context(), recipeID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !exists {
		notFound(c)
		return
	}

	c.JSON(http.StatusOK, types.ShortLink{
		ShortLink: fmt.Sprintf("%s/s/%s", h.publicURL, shortlink.Encode(uint64(recipeID))),
	})
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.addBookmark(c, "favorites", h.bookmarks.AddFavorite)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeBookmark(c, "favorites", h.bookmarks.RemoveFavorite)
}

func (h *RecipeHandler) AddToShoppingCart(c *gin.Context) {
	h.addBookmark(c, "shopping_cart", h.bookmarks.AddToShoppingCart)
}

func (h *RecipeHandler) RemoveFromShoppingCart(c *gin.Context) {
	h.removeBookmark(c, "shopping_cart", h.bookmarks.RemoveFromShoppingCart)
}

// DownloadShoppingCart sends the aggregated shopping list as a CSV attachment
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	items, err := h.shoppingList.ShoppingList(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := service.WriteShoppingList(&buf, items); err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, shoppingListFilename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *RecipeHandler) addBookmark(c *gin.Context, list string, add func(ctx context.Context, userID, recipeID uint) (*types.RecipeMinified, error)) {
	userID, _ := middleware.UserID(c)
	recipeID, ok := pathID(c)
	if !ok {
		return
	}

	recipe, err := add(c.Request.Context(), userID, recipeID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.countBookmarkChange(list, "add")
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) removeBookmark(c *gin.Context, list string, remove func(ctx context.Context, userID, recipeID uint) error) {
	userID, _ := middleware.UserID(c)
	recipeID, ok := pathID(c)
	if !ok {
		return
	}

	if err := remove(c.Request.Context(), userID, recipeID); err != nil {
		respondError(c, err)
		return
	}

	h.countBookmarkChange(list, "remove")
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) countRecipeWrite(operation string) {
	if h.metrics != nil {
		h.metrics.RecipeWrites.WithLabelValues(operation).Inc()
	}
}

func (h *RecipeHandler) countBookmarkChange(list, action string) {
	if h.metrics != nil {
		h.metrics.BookmarkChanges.WithLabelValues(list, action).Inc()
	}
}

func queryFlag(c *gin.Context, key string) bool {
	switch c.Query(key) {
	case "1", "true", "True":
		return true
	default:
		return false
	}
}
