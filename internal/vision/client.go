package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"greeting-metrics-backend/config"
)

// Client calls the external vision-analysis service for one camera
// snapshot per poll cycle. The service owns image capture and inference;
// this client only validates its output at the boundary.
type Client struct {
	cfg    config.VisionRequest
	client *http.Client
	loc    *time.Location
}

// NewClient creates a vision service client.
func NewClient(cfg config.VisionRequest, loc *time.Location) *Client {
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		loc: loc,
	}
}

const capturedAtLayout = "2006-01-02 15:04:05"

// Analyze requests the per-zone detections for one camera and validates
// the response.
func (c *Client) Analyze(ctx context.Context, cameraID int64) (*SnapshotAnalysis, error) {
	requestID := uuid.NewString()

	payload := map[string]any{
		"camera_id":  cameraID,
		"request_id": requestID,
	}
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range c.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vision service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vision response: %w", err)
	}
	if apiResp.Code != 0 {
		return nil, fmt.Errorf("vision service returned non-zero application code: %d", apiResp.Code)
	}

	capturedAt, err := c.parseCapturedAt(apiResp.Data.CapturedAt)
	if err != nil {
		return nil, err
	}

	fingerprint := apiResp.Data.Fingerprint
	if fingerprint == "" {
		fingerprint = requestID
	}

	detections := make([]ZoneDetection, 0, len(apiResp.Data.Detections))
	for _, d := range apiResp.Data.Detections {
		if d.ZoneID <= 0 || d.PersonCount < 0 {
			log.Printf("Warning: dropping malformed detection for camera %d: %+v", cameraID, d)
			continue
		}
		detections = append(detections, d)
	}

	return &SnapshotAnalysis{
		CameraID:    cameraID,
		CapturedAt:  capturedAt,
		Fingerprint: fingerprint,
		Detections:  detections,
	}, nil
}

// parseCapturedAt converts the service's timestamp string, respecting the
// configured venue timezone.
func (c *Client) parseCapturedAt(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("vision response is missing captured_at")
	}
	capturedAt, err := time.ParseInLocation(capturedAtLayout, raw, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse captured_at %q: %w", raw, err)
	}
	return capturedAt, nil
}
