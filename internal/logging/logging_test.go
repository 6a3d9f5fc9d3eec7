package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRequestID_TagsLogger(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "servientrega-webhook", "debug")

	ctx := WithRequestID(context.Background(), "req-1")
	zerolog.Ctx(ctx).Info().Msg("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "servientrega-webhook", entry["service"])
	assert.Equal(t, "req-1", RequestID(ctx))
}

func TestMiddleware_GeneratesAndEchoesRequestID(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "servientrega-webhook", "info")
	gin.SetMode(gin.TestMode)

	var seen string
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping", func(c *gin.Context) {
		seen = RequestID(c.Request.Context())
		c.String(http.StatusOK, "PONG")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "given")
	r.ServeHTTP(w, req)
	assert.Equal(t, "given", seen)
	assert.True(t, strings.Contains(buf.String(), `"request_id":"given"`))
}
