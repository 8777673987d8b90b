package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/recipehub/internal/auth"
	"github.com/geocoder89/recipehub/internal/cache"
	"github.com/geocoder89/recipehub/internal/config"
	"github.com/geocoder89/recipehub/internal/db"
	apphttp "github.com/geocoder89/recipehub/internal/http"
	"github.com/geocoder89/recipehub/internal/repo/memory"
	"github.com/geocoder89/recipehub/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	return config.Config{
		Env:            "test",
		ServiceName:    "recipehub-test",
		DBURL:          config.MemoryDBURL,
		TokenSecret:    "test-secret-key",
		TokenCacheTTL:  time.Minute,
		MaxBodyBytes:   1 << 20,
		AuthRateLimit:  0,
		AuthRateWindow: time.Minute,
		MediaBackend:   "disk",
		MediaDir:       t.TempDir(),
		MediaBaseURL:   "/media",
		AdminEmail:     "admin@example.com",
		AdminPassword:  "adminpass",
		AdminName:      "Admin",
	}
}

type testApp struct {
	router *gin.Engine
	store  *memory.Store
	images *storage.DiskStore
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store := memory.NewStore()

	images, err := storage.NewDiskStore(cfg.MediaDir, cfg.MediaBaseURL)
	require.NoError(t, err)

	svc := auth.NewService(
		auth.NewManager(cfg.TokenSecret, cfg.TokenTTL),
		store.Tokens(),
		store.Users(),
		cache.NewMemoryTokens(cfg.TokenCacheTTL),
	)

	_, err = db.EnsureSuperuser(context.Background(), store.Users(), cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
	require.NoError(t, err)

	router := apphttp.NewRouter(logger, cfg, apphttp.Deps{
		Users:       store.Users(),
		Recipes:     store.Recipes(),
		Tags:        store.Tags(),
		Ingredients: store.Ingredients(),
		Auth:        svc,
		Images:      images,
	})

	return &testApp{router: router, store: store, images: images}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)

	return rr
}

// register creates a user and returns its token.
func (a *testApp) register(t *testing.T, email, password string) string {
	t.Helper()

	rr := a.do(t, http.MethodPost, "/api/users/create", "", map[string]any{
		"email":    email,
		"password": password,
		"name":     "Test User",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	return a.login(t, email, password)
}

func (a *testApp) login(t *testing.T, email, password string) string {
	t.Helper()

	rr := a.do(t, http.MethodPost, "/api/users/token", "", map[string]any{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	decode(t, rr, &resp)
	require.NotEmpty(t, resp.Token)

	return resp.Token
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out), rr.Body.String())
}

type attributeJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type recipeJSON struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	TimeMinutes int             `json:"time_minutes"`
	Price       string          `json:"price"`
	Link        string          `json:"link"`
	Image       *string         `json:"image"`
	Tags        []attributeJSON `json:"tags"`
	Ingredients []attributeJSON `json:"ingredients"`
}

type errorJSON struct {
	Error struct {
		Code      string         `json:"code"`
		Message   string         `json:"message"`
		RequestID string         `json:"requestId"`
		Details   map[string]any `json:"details"`
	} `json:"error"`
}

func (a *testApp) createRecipe(t *testing.T, token string, body map[string]any) recipeJSON {
	t.Helper()

	rr := a.do(t, http.MethodPost, "/api/recipes/", token, body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var r recipeJSON
	decode(t, rr, &r)

	return r
}

func sampleRecipe(title string) map[string]any {
	return map[string]any{
		"title":        title,
		"time_minutes": 22,
		"price":        "5.25",
		"link":         "https://example.com/recipe.pdf",
	}
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func serve(a *testApp, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}
