package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/recipehub/internal/actorctx"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_AddsUserID(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "test", "recipehub")

	ctx := actorctx.WithRequestID(actorctx.WithUserID(context.Background(), 5), "req-9")
	log.InfoContext(ctx, "hello")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.EqualValues(t, 5, rec["user_id"])
	assert.Equal(t, "req-9", rec["request_id"])
	assert.Equal(t, "recipehub", rec["service"])
	assert.Equal(t, "test", rec["env"])
	assert.NotContains(t, rec, "trace_id")
}

func TestClassifyDBErr(t *testing.T) {
	assert.Equal(t, "unique_violation", classifyDBErr(&pgconn.PgError{Code: "23505"}))
	assert.Equal(t, "check_violation", classifyDBErr(&pgconn.PgError{Code: "23514"}))
	assert.Equal(t, "numeric_out_of_range", classifyDBErr(fmt.Errorf("insert recipe: %w", &pgconn.PgError{Code: "22003"})))
	assert.Equal(t, "pg_42P01", classifyDBErr(&pgconn.PgError{Code: "42P01"}))
	assert.Equal(t, "timeout", classifyDBErr(fmt.Errorf("query: %w", context.DeadlineExceeded)))
	assert.Equal(t, "canceled", classifyDBErr(context.Canceled))
	assert.Equal(t, "timeout", classifyDBErr(errors.New("i/o timeout")))
	assert.Equal(t, "unknown", classifyDBErr(errors.New("boom")))
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, levelFor("dev"))
	assert.Equal(t, slog.LevelDebug, levelFor("Local"))
	assert.Equal(t, slog.LevelInfo, levelFor("prod"))
}

func TestObserveDB_NilProm(t *testing.T) {
	var p *Prom
	called := false

	err := p.ObserveDB("op", func() error { called = true; return nil })
	require.NoError(t, err)
	assert.True(t, called)
}

func TestProm_MiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	p := NewProm(NewRegistry())

	r := gin.New()
	r.Use(p.GinHandleMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(p.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, p.ObserveDB("recipes.list", func() error { return nil }))
	p.ObserveLogin("ok")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `recipehub_http_requests_total{method="GET",route="/ping",status="204"} 1`), body)
	assert.Contains(t, body, "recipehub_db_query_duration_seconds")
	assert.Contains(t, body, `recipehub_auth_login_attempts_total{result="ok"} 1`)
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, samplerFor(0.1).Description(), "TraceIDRatioBased{0.1}")
}
