package logger

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())

	var fromGin, fromStd string
	r.GET("/", func(c *gin.Context) {
		fromGin = RequestIDFrom(c)
		fromStd = RequestIDFrom(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	id := w.Header().Get(RequestIDHeader)
	require.Len(t, id, 36)
	assert.Equal(t, id, fromGin)
	assert.Equal(t, id, fromStd)
}

func TestRequestID_KeepsIncoming(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRequestIDFrom_Unknown(t *testing.T) {
	assert.Equal(t, "unknown", RequestIDFrom(context.Background()))
	assert.Equal(t, "job-1", RequestIDFrom(WithRequestID(context.Background(), "job-1")))
}

func TestNew_TeesToWriter(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("production", &buf)
	require.NoError(t, err)

	l.Info("batch scored", zap.Int("rows", 3))
	_ = l.Sync()
	assert.Contains(t, buf.String(), `"msg":"batch scored"`)
	assert.Contains(t, buf.String(), `"rows":3`)
}
