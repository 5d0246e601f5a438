package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"greeting-metrics-backend/config"
	"greeting-metrics-backend/internal/mw"
	"greeting-metrics-backend/internal/store"
)

// NewRouter creates and configures a new Gin router. loc is the venue
// timezone used to interpret business-date parameters.
func NewRouter(s store.Store, webpushOptions *webpush.Options, cfg *config.ServerConfig, loc *time.Location) *gin.Engine {
	r := gin.Default()

	if loc == nil {
		loc = time.UTC
	}

	db := s.DB()
	handler := NewHandler(s, webpushOptions)

	rateLimit := rate.Limit(10)
	if cfg.RateLimitPerSec > 0 {
		rateLimit = rate.Limit(cfg.RateLimitPerSec)
	}
	rateLimiter := mw.RateLimiter(rateLimit, 5, cfg.RequestIPHeader)

	cacheTTL := 60 * time.Second
	if cfg.CacheTTLSeconds > 0 {
		cacheTTL = time.Duration(cfg.CacheTTLSeconds) * time.Second
	}
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/venues/:venue_id/metrics", caching, GetMetrics(db, loc))
		api.GET("/venues/:venue_id/metrics/summary", caching, GetMetricsSummary(db, loc))
		api.GET("/cameras/:camera_id/zones", caching, GetZones(db))

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
