package api

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.openly.dev/pointy"

	"github.com/pageza/foodgram/backend/internal/types"
)

const maxPageSize = 100

// paginator reads page/limit query parameters and renders page links
// against the public base URL
type paginator struct {
	publicURL string
	pageSize  int
}

// parse returns false after answering 404 when page is not a positive number
// or lies beyond any addressable offset
func (p paginator) parse(c *gin.Context) (types.PageRequest, bool) {
	req := types.PageRequest{Page: 1, Limit: p.pageSize}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": msgInvalidPage})
			return req, false
		}
		req.Page = page
	}

	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			req.Limit = min(limit, maxPageSize)
		}
	}

	// pages whose offset does not fit an int are past any real result set
	if req.Page-1 > math.MaxInt/req.Limit {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": msgInvalidPage})
		return req, false
	}
	return req, true
}

// outOfRange reports a page past the last one; the first page always exists
func outOfRange(req types.PageRequest, total int64) bool {
	return req.Page > 1 && int64(req.Offset()) >= total
}

func pageOf[T any](p paginator, c *gin.Context, req types.PageRequest, total int64, results []T) types.Page[T] {
	if results == nil {
		results = []T{}
	}
	page := types.Page[T]{Count: total, Results: results}

	if int64(req.Page*req.Limit) < total {
		page.Next = p.link(c, req.Page+1)
	}
	if req.Page > 1 {
		page.Previous = p.link(c, req.Page-1)
	}
	return page
}

func (p paginator) link(c *gin.Context, page int) *string {
	query := c.Request.URL.Query()
	if page == 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}

	link := p.publicURL + c.Request.URL.Path
	if encoded := query.Encode(); encoded != "" {
		link += "?" + encoded
	}
	return pointy.String(link)
}
