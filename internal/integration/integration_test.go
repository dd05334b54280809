package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type client struct {
	t      *testing.T
	router http.Handler
}

func (c client) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

func TestFoodgramOnPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}

	db, _ := testhelpers.SetupPostgresDatabase(t)
	cfg := &config.Config{
		Server:     config.Server{PublicURL: "http://testserver", ShutdownTimeout: time.Second},
		Auth:       config.Auth{JWTSecret: "integration-secret", TokenTTL: time.Hour},
		Storage:    config.Storage{MediaURL: "/media"},
		Pagination: config.Pagination{PageSize: 6},
	}
	logger := zaptest.NewLogger(t)
	srv := server.New(cfg, db, nil, storage.NewLocalStore(t.TempDir(), "/media"), logger)
	api := client{t: t, router: srv.Router()}

	auth := service.NewAuthService(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger)
	author := testhelpers.CreateUser(t, db, "author")
	reader := testhelpers.CreateUser(t, db, "reader")
	authorToken, err := auth.GenerateToken(author)
	require.NoError(t, err)
	readerToken, err := auth.GenerateToken(reader)
	require.NoError(t, err)

	soup := testhelpers.CreateTag(t, db, "Суп", "soup")
	beets := testhelpers.CreateIngredient(t, db, "свёкла", "г")
	water := testhelpers.CreateIngredient(t, db, "вода", "мл")

	payload := map[string]interface{}{
		"ingredients":  []map[string]interface{}{{"id": beets.ID, "amount": 300}, {"id": water.ID, "amount": 1000}},
		"tags":         []uint{soup.ID},
		"image":        "data:image/png;base64,iVBORw0KGgo=",
		"name":         "Борщ",
		"text":         "Варить два часа.",
		"cooking_time": 120,
	}

	t.Run("transactional create rolls back on unknown ingredient", func(t *testing.T) {
		bad := map[string]interface{}{}
		for k, v := range payload {
			bad[k] = v
		}
		bad["ingredients"] = []map[string]interface{}{{"id": beets.ID, "amount": 1}, {"id": 9999, "amount": 1}}

		w := api.do(http.MethodPost, "/api/recipes", bad, authorToken)
		require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

		var count int64
		require.NoError(t, db.Model(&models.Recipe{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	w := api.do(http.MethodPost, "/api/recipes", payload, authorToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	t.Run("concurrent favorites keep one row", func(t *testing.T) {
		path := fmt.Sprintf("/api/recipes/%d/favorite", created.ID)
		codes := make([]int, 8)
		var wg sync.WaitGroup
		for i := range codes {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				codes[i] = api.do(http.MethodPost, path, nil, readerToken).Code
			}(i)
		}
		wg.Wait()

		inserted := 0
		for _, code := range codes {
			if code == http.StatusCreated {
				inserted++
			} else {
				assert.Equal(t, http.StatusConflict, code)
			}
		}
		assert.Equal(t, 1, inserted)

		var rows int64
		require.NoError(t, db.Model(&models.Favorite{}).Where("recipe_id = ?", created.ID).Count(&rows).Error)
		assert.Equal(t, int64(1), rows)
	})

	t.Run("shopping list sums on postgres", func(t *testing.T) {
		other := testhelpers.CreateRecipe(t, db, author, "Винегрет", []*models.Tag{soup}, map[uint]int{beets.ID: 200})
		for _, id := range []uint{created.ID, other.ID} {
			w := api.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/shopping_cart", id), nil, readerToken)
			require.Equal(t, http.StatusCreated, w.Code)
		}

		w := api.do(http.MethodGet, "/api/recipes/download_shopping_cart", nil, readerToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Название,Количество,Единицы измерения\nвода,1000,мл\nсвёкла,500,г\n", w.Body.String())
	})

	t.Run("subscriptions and deletion", func(t *testing.T) {
		w := api.do(http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe?recipes_limit=1", author.ID), nil, readerToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = api.do(http.MethodDelete, fmt.Sprintf("/api/recipes/%d", created.ID), nil, authorToken)
		require.Equal(t, http.StatusNoContent, w.Code)

		var links int64
		require.NoError(t, db.Model(&models.ShoppingCart{}).Where("recipe_id = ?", created.ID).Count(&links).Error)
		assert.Zero(t, links)
	})

	require.NoError(t, database.HealthCheck(context.Background(), db))
}
