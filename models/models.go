package models

import (
	"encoding/json"
	"time"
)

// PredictRequest is the payload a client sends to request a crime-type
// prediction. Every field is optional; missing context falls back to the
// encoder's defaults.
type PredictRequest struct {
	Location  string   `json:"location"`
	LGA       string   `json:"lga,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Weather   string   `json:"weather,omitempty"`
	DateTime  string   `json:"dateTime,omitempty"`
	Hour      *int     `json:"hour,omitempty"`
	TopK      int      `json:"topK,omitempty"`
}

// PredictionRecord is a stored prediction with the resolved context and
// ranked results.
type PredictionRecord struct {
	ID          int64                  `json:"id"`
	Timestamp   time.Time              `json:"timestamp"`
	Location    string                 `json:"location,omitempty"`
	LGA         string                 `json:"lga,omitempty"`
	Latitude    *float64               `json:"latitude,omitempty"`
	Longitude   *float64               `json:"longitude,omitempty"`
	Geocoded    bool                   `json:"geocoded"`
	Weather     string                 `json:"weather,omitempty"`
	TimePeriod  string                 `json:"timePeriod,omitempty"`
	DayOfWeek   string                 `json:"dayOfWeek,omitempty"`
	IsHoliday   bool                   `json:"isHoliday"`
	CrimeType   string                 `json:"crimeType"`
	Confidence  float64                `json:"confidence"`
	LatencyMs   float64                `json:"latencyMs"`
	Predictions json.RawMessage        `json:"predictions"` // Store as JSON
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
