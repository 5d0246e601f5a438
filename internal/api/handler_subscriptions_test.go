package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"greeting-metrics-backend/config"
	"greeting-metrics-backend/internal/model"
	"greeting-metrics-backend/internal/store"
)

func newTestRouter(t *testing.T, loc *time.Location) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Zone{},
		&model.GreetingMetric{},
		&model.PushSubscription{},
	))

	router := NewRouter(store.NewGormStore(db), &webpush.Options{VAPIDPublicKey: "test-public-key"}, &config.ServerConfig{
		RateLimitPerSec: 1000,
		CacheTTLSeconds: 1,
	}, loc)
	return router, db
}

func TestSubscriptionLifecycle(t *testing.T) {
	router, db := newTestRouter(t, time.UTC)

	body, _ := json.Marshal(map[string]any{
		"endpoint": "https://example.com/push/abc",
		"p256dh":   "key",
		"auth":     "secret",
		"venue_id": 1,
	})
	req := httptest.NewRequest(http.MethodPut, "/api/subscriptions", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	var count int64
	db.Model(&model.PushSubscription{}).Count(&count)
	assert.Equal(t, int64(1), count)

	req = httptest.NewRequest(http.MethodGet, "/api/subscriptions?endpoint=https://example.com/push/abc", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"venue_id":1`)

	delBody, _ := json.Marshal(map[string]any{"endpoint": "https://example.com/push/abc"})
	req = httptest.NewRequest(http.MethodDelete, "/api/subscriptions", bytes.NewReader(delBody))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	db.Model(&model.PushSubscription{}).Count(&count)
	assert.Zero(t, count)
}

func TestPutSubscriptionValidation(t *testing.T) {
	router, _ := newTestRouter(t, time.UTC)

	body, _ := json.Marshal(map[string]any{"endpoint": "https://example.com/push"})
	req := httptest.NewRequest(http.MethodPut, "/api/subscriptions", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	router, _ := newTestRouter(t, time.UTC)

	req := httptest.NewRequest(http.MethodGet, "/api/vapid_public_key", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test-public-key")
}

