package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/shortlink"
)

// ShortLinkHandler resolves /s/<code> links handed out by get-link
type ShortLinkHandler struct {
	recipes   service.IRecipeService
	publicURL string
}

func NewShortLinkHandler(recipes service.IRecipeService, publicURL string) *ShortLinkHandler {
	return &ShortLinkHandler{recipes: recipes, publicURL: publicURL}
}

func (h *ShortLinkHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/s/:code", h.Redirect)
}

// Redirect rejects codes outside the alphabet before looking anything up,
// then sends the client to the recipe page
func (h *ShortLinkHandler) Redirect(c *gin.Context) {
	code := c.Param("code")
	if err := shortlink.Validate(code); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": msgInvalidLink})
		return
	}

	id, err := shortlink.Decode(code)
	if err != nil || id == 0 || uint64(uint(id)) != id {
		notFound(c)
		return
	}

	exists, err := h.recipes.Exists(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	if !exists {
		notFound(c)
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("%s/recipes/%d", h.publicURL, id))
}
