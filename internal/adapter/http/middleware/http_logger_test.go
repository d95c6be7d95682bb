package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loggingRig(base *slog.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Logging(base))
	r.POST("/echo", func(c *gin.Context) {
		var body struct {
			Items []map[string]any `json:"items"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(body.Items)})
	})
	return r
}

func postJSON(r *gin.Engine, payload []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

// largeItemsPayload builds a valid JSON document well past the log cap.
func largeItemsPayload(t *testing.T, n int) []byte {
	t.Helper()
	items := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, map[string]any{
			"productId": fmt.Sprintf("prod-%03d", i),
			"name":      map[string]string{"en": "Organic Jaggery Block", "mr": "सेंद्रिय गूळ"},
			"price":     249,
			"quantity":  i + 1,
		})
	}
	b, err := json.Marshal(map[string]any{"items": items})
	require.NoError(t, err)
	require.Greater(t, len(b), reqBodyLimit, "payload must exceed the log cap")
	return b
}

func TestLogging_LargeBodyReachesHandlerIntact(t *testing.T) {
	r := loggingRig(slog.New(slog.NewTextHandler(io.Discard, nil)))

	payload := largeItemsPayload(t, 200)
	w := postJSON(r, payload)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"count":200`)
}

func TestLogging_LargeBodyLogTruncated(t *testing.T) {
	var buf bytes.Buffer
	r := loggingRig(slog.New(slog.NewJSONHandler(&buf, nil)))

	w := postJSON(r, largeItemsPayload(t, 200))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Contains(t, buf.String(), "...truncated...")
}

func TestLogging_RedactsCredentialFields(t *testing.T) {
	var buf bytes.Buffer
	r := loggingRig(slog.New(slog.NewJSONHandler(&buf, nil)))

	w := postJSON(r, []byte(`{"items":[],"password":"hunter2"}`))
	require.Equal(t, http.StatusOK, w.Code)

	logged := buf.String()
	assert.NotContains(t, logged, "hunter2")
	assert.Contains(t, logged, "redacted")
}

func TestCapForLog(t *testing.T) {
	short := []byte(strings.Repeat("a", 16))
	got, truncated := capForLog(short, 32)
	assert.False(t, truncated)
	assert.Equal(t, short, got)

	long := []byte(strings.Repeat("b", 64))
	got, truncated = capForLog(long, 32)
	assert.True(t, truncated)
	assert.Len(t, got, 32)
}
