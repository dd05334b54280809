package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// UserHandler serves accounts, avatars and subscriptions
type UserHandler struct {
	authService   service.IAuthService
	users         service.IUserService
	subscriptions service.ISubscriptionService
	metrics       *metrics.Metrics
	paginator     paginator
}

func NewUserHandler(authService service.IAuthService, users service.IUserService, subscriptions service.ISubscriptionService, m *metrics.Metrics, publicURL string, pageSize int) *UserHandler {
	return &UserHandler{
		authService:   authService,
		users:         users,
		subscriptions: subscriptions,
		metrics:       m,
		paginator:     paginator{publicURL: publicURL, pageSize: pageSize},
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := middleware.RequireAuth()

	users := router.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.POST("", h.Register)
		users.GET("/me", auth, h.Me)
		users.PUT("/me/avatar", auth, h.SetAvatar)
		users.DELETE("/me/avatar", auth, h.DeleteAvatar)
		users.POST("/set_password", auth, h.SetPassword)
		users.GET("/subscriptions", auth, h.ListSubscriptions)
		users.GET("/:id", h.GetUser)
		users.POST("/:id/subscribe", auth, h.Subscribe)
		users.DELETE("/:id/subscribe", auth, h.Unsubscribe)
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"email":      user.Email,
		"id":         user.ID,
		"username":   user.Username,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
	})
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page, ok := h.paginator.parse(c)
	if !ok {
		return
	}

	users, total, err := h.users.ListUsers(c.Request.Context(), middleware.ViewerID(c), page)
	if err != nil {
		respondError(c, err)
		return
	}
	if outOfRange(page, total) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": msgInvalidPage})
		return
	}

	c.JSON(http.StatusOK, pageOf(h.paginator, c, page, total, users))
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	h.renderUser(c, userID, userID)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := pathID(c)
	if !ok {
		return
	}
	h.renderUser(c, userID, middleware.ViewerID(c))
}

func (h *UserHandler) renderUser(c *gin.Context, userID, viewerID uint) {
	user, err := h.users.GetUser(c.Request.Context(), userID, viewerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req types.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.SetPassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) SetAvatar(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req types.AvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	url, err := h.users.SetAvatar(c.Request.Context(), userID, req.Avatar)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.Avatar{Avatar: url})
}

func (h *UserHandler) DeleteAvatar(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	if err := h.users.DeleteAvatar(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	authorID, ok := pathID(c)
	if !ok {
		return
	}

	subscription, err := h.subscriptions.Subscribe(c.Request.Context(), userID, authorID, recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}

	h.countSubscriptionChange("add")
	c.JSON(http.StatusCreated, subscription)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	authorID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.subscriptions.Unsubscribe(c.Request.Context(), userID, authorID); err != nil {
		respondError(c, err)
		return
	}

	h.countSubscriptionChange("remove")
	c.Status(http.StatusNoContent)
}

// ListSubscriptions pages through the authors the caller follows, each
// with a preview of at most recipes_limit recipes
func (h *UserHandler) ListSubscriptions(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	page, ok := h.paginator.parse(c)
	if !ok {
		return
	}

	subscriptions, total, err := h.subscriptions.ListSubscriptions(c.Request.Context(), userID, page, recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if outOfRange(page, total) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": msgInvalidPage})
		return
	}

	c.JSON(http.StatusOK, pageOf(h.paginator, c, page, total, subscriptions))
}

func (h *UserHandler) countSubscriptionChange(action string) {
	if h.metrics != nil {
		h.metrics.BookmarkChanges.WithLabelValues("subscriptions", action).Inc()
	}
}

// recipesLimit reads ?recipes_limit=; a missing or invalid value means no limit
func recipesLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("recipes_limit"))
	if err != nil || limit < 0 {
		return -1
	}
	return limit
}
