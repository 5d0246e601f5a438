package vision

import "time"

// ZoneDetection is one per-zone person-count result from the vision
// service.
type ZoneDetection struct {
	ZoneID      int64   `json:"zone_id"`
	PersonCount int     `json:"person_count"`
	Confidence  float64 `json:"confidence"`
}

// SnapshotAnalysis is the validated result of analyzing one camera
// snapshot.
type SnapshotAnalysis struct {
	CameraID    int64
	CapturedAt  time.Time
	Fingerprint string
	Detections  []ZoneDetection
}

// apiResponse models the vision service's wire format.
type apiResponse struct {
	Code int `json:"code"`
	Data struct {
		CameraID    int64           `json:"camera_id"`
		CapturedAt  string          `json:"captured_at"`
		Fingerprint string          `json:"fingerprint"`
		Detections  []ZoneDetection `json:"detections"`
	} `json:"data"`
}
