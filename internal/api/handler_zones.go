package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"greeting-metrics-backend/internal/model"
)

// zoneResponse represents one configured zone.
type zoneResponse struct {
	ID        int64  `json:"id"`
	TableName string `json:"tableName"`
	Kind      string `json:"kind"`
	Polygon   string `json:"polygon"`
}

// GetZones handles the GET /api/cameras/{camera_id}/zones request.
func GetZones(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cameraID, err := strconv.ParseInt(c.Param("camera_id"), 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid camera ID"})
			return
		}

		var zones []model.Zone
		if err := db.
			Where("camera_id = ? AND active = ?", cameraID, true).
			Order("table_name ASC, kind ASC").
			Find(&zones).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve zones"})
			return
		}

		response := make([]zoneResponse, 0, len(zones))
		for _, z := range zones {
			response = append(response, zoneResponse{
				ID:        z.ID,
				TableName: z.TableName,
				Kind:      string(z.Kind),
				Polygon:   z.Polygon,
			})
		}
		c.JSON(http.StatusOK, response)
	}
}
