package api_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

const (
	publicURL = "http://testserver"
	jwtSecret = "test-secret"
)

var pngDataURI = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\nfake"))

func init() {
	gin.SetMode(gin.TestMode)
}

// TestAPI is a router wired to real services over a temporary database
type TestAPI struct {
	Router  *gin.Engine
	DB      *gorm.DB
	Metrics *metrics.Metrics
	auth    *service.AuthService
}

func testConfig() *config.Config {
	return &config.Config{
		Server:     config.Server{PublicURL: publicURL},
		Auth:       config.Auth{JWTSecret: jwtSecret, TokenTTL: time.Hour},
		Pagination: config.Pagination{PageSize: 6},
		RateLimit:  config.RateLimit{Window: time.Hour, CreateLimit: 5, ModifyLimit: 10},
	}
}

func SetupTestAPI(t *testing.T) *TestAPI {
	return setupTestAPI(t, testConfig(), nil)
}

func setupTestAPI(t *testing.T, cfg *config.Config, redisClient *redis.Client) *TestAPI {
	db := testhelpers.SetupTestDatabase(t)
	m := metrics.New()
	logger := zaptest.NewLogger(t)

	router := gin.New()
	api.RegisterRoutes(router, api.Dependencies{
		DB:      db,
		Redis:   redisClient,
		Images:  storage.NewLocalStore(t.TempDir(), "/media"),
		Metrics: m,
		Config:  cfg,
		Logger:  logger,
	})

	return &TestAPI{
		Router:  router,
		DB:      db,
		Metrics: m,
		auth:    service.NewAuthService(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger),
	}
}

// CreateTestUserAndToken creates a user and signs a token for it
func (a *TestAPI) CreateTestUserAndToken(t *testing.T, username string) (*models.User, string) {
	user := testhelpers.CreateUser(t, a.DB, username)
	token, err := a.auth.GenerateToken(user)
	require.NoError(t, err)
	return user, token
}

// PerformRequestWithToken sends body as JSON; an empty token sends an anonymous request
func (a *TestAPI) PerformRequestWithToken(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func recipePayload(tags []uint, ingredients map[uint]int) map[string]interface{} {
	amounts := []map[string]interface{}{}
	for id, amount := range ingredients {
		amounts = append(amounts, map[string]interface{}{"id": id, "amount": amount})
	}
	return map[string]interface{}{
		"ingredients":  amounts,
		"tags":         tags,
		"image":        pngDataURI,
		"name":         "Omelette",
		"text":         "Whisk and fry.",
		"cooking_time": 10,
	}
}
