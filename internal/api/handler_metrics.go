package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"greeting-metrics-backend/internal/engine"
	"greeting-metrics-backend/internal/model"
)

// metricResponse is the flattened structure for one greeting metric.
type metricResponse struct {
	ID                  int64      `json:"id"`
	TableName           string     `json:"tableName"`
	BusinessDate        string     `json:"businessDate"`
	SeatedAt            time.Time  `json:"seatedAt"`
	GreetedAt           *time.Time `json:"greetedAt"`
	GreetingTimeSeconds *int       `json:"greetingTimeSeconds"`
	Status              string     `json:"status"`
}

// GetMetrics handles GET /api/venues/{venue_id}/metrics?date=YYYY-MM-DD.
// Without a date parameter the current business date is used. The date is
// interpreted in the venue timezone, matching how metrics are stamped.
func GetMetrics(db *gorm.DB, loc *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, businessDate, ok := metricsQueryParams(c, loc)
		if !ok {
			return
		}

		var metrics []model.GreetingMetric
		if err := db.
			Where("venue_id = ? AND business_date = ?", venueID, businessDate).
			Order("seated_at ASC").
			Find(&metrics).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve metrics"})
			return
		}

		response := make([]metricResponse, 0, len(metrics))
		for _, m := range metrics {
			response = append(response, metricResponse{
				ID:                  m.ID,
				TableName:           m.TableName,
				BusinessDate:        m.BusinessDate.Format("2006-01-02"),
				SeatedAt:            m.SeatedAt,
				GreetedAt:           m.GreetedAt,
				GreetingTimeSeconds: m.GreetingTimeSeconds,
				Status:              string(m.Status),
			})
		}
		c.JSON(http.StatusOK, response)
	}
}

// summaryResponse aggregates one business date for a venue.
type summaryResponse struct {
	BusinessDate       string         `json:"businessDate"`
	CountsByStatus     map[string]int `json:"countsByStatus"`
	AvgGreetingSeconds *float64       `json:"avgGreetingSeconds"`
	MaxGreetingSeconds *int           `json:"maxGreetingSeconds"`
}

// GetMetricsSummary handles GET /api/venues/{venue_id}/metrics/summary.
func GetMetricsSummary(db *gorm.DB, loc *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, businessDate, ok := metricsQueryParams(c, loc)
		if !ok {
			return
		}

		type statusRow struct {
			Status string
			Count  int
		}
		var rows []statusRow
		if err := db.
			Model(&model.GreetingMetric{}).
			Select("status, COUNT(*) as count").
			Where("venue_id = ? AND business_date = ?", venueID, businessDate).
			Group("status").
			Scan(&rows).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate metrics"})
			return
		}

		counts := make(map[string]int, len(rows))
		for _, r := range rows {
			counts[r.Status] = r.Count
		}

		type timingRow struct {
			Avg *float64
			Max *int
		}
		var timing timingRow
		if err := db.
			Model(&model.GreetingMetric{}).
			Select("AVG(greeting_time_seconds) as avg, MAX(greeting_time_seconds) as max").
			Where("venue_id = ? AND business_date = ? AND status = ?", venueID, businessDate, model.MetricGreeted).
			Scan(&timing).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate greeting times"})
			return
		}

		c.JSON(http.StatusOK, summaryResponse{
			BusinessDate:       businessDate.Format("2006-01-02"),
			CountsByStatus:     counts,
			AvgGreetingSeconds: timing.Avg,
			MaxGreetingSeconds: timing.Max,
		})
	}
}

// metricsQueryParams resolves the venue id and business date of a metrics
// request. Stored business dates are local midnights, so the date parameter
// must be parsed in the same location or the equality filter matches nothing.
func metricsQueryParams(c *gin.Context, loc *time.Location) (int64, time.Time, bool) {
	venueID, err := strconv.ParseInt(c.Param("venue_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid venue ID"})
		return 0, time.Time{}, false
	}

	dateParam := c.Query("date")
	if dateParam == "" {
		return venueID, engine.BusinessDate(time.Now().In(loc)), true
	}

	businessDate, err := time.ParseInLocation("2006-01-02", dateParam, loc)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'date' format. Use YYYY-MM-DD."})
		return 0, time.Time{}, false
	}
	return venueID, businessDate, true
}
