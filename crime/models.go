package crime

import "time"

// Observation is one raw context record for which a crime-type prediction is
// sought. String fields are free-form user input; the encoder owns all
// normalisation and fallback handling.
type Observation struct {
	Location         string  `json:"location"`
	LGA              string  `json:"lga"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	WeatherCondition string  `json:"weatherCondition"`
	IsHoliday        bool    `json:"isHoliday"`
	TimePeriod       string  `json:"timePeriod"`
	DayOfWeek        string  `json:"dayOfWeek"`
	Hour             int     `json:"hour"`
}

// LabeledObservation pairs an observation with the crime type recorded for
// it. ObservedAt is the raw event timestamp the time features were derived
// from.
type LabeledObservation struct {
	Observation
	CrimeType  string    `json:"crimeType"`
	ObservedAt time.Time `json:"observedAt"`
}

// Prediction is a single crime type with its estimated probability.
type Prediction struct {
	CrimeType  string  `json:"crimeType"`
	Confidence float64 `json:"confidence"`
}

// FeatureWeight is one encoded feature's share of the forest's impurity
// decrease.
type FeatureWeight struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// PredictionSummary packages the ranked predictions together with the
// derived context the model actually saw, so callers can display (and audit)
// what went into the prediction.
type PredictionSummary struct {
	CrimeType  string       `json:"crimeType"`
	Confidence float64      `json:"confidence"`
	TopK       []Prediction `json:"topK"`

	Location   string  `json:"location"`
	LGA        string  `json:"lga"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Geocoded   bool    `json:"geocoded"`
	Weather    string  `json:"weatherCondition"`
	TimePeriod string  `json:"timePeriod"`
	DayOfWeek  string  `json:"dayOfWeek"`
	IsHoliday  bool    `json:"isHoliday"`
	LatencyMs  float64 `json:"latencyMs"`
}

// ModelStats exposes metadata about a trained model.
type ModelStats struct {
	TrainedAt    time.Time   `json:"trainedAt"`
	SampleCount  int         `json:"sampleCount"`
	TreeCount    int         `json:"treeCount"`
	FeatureCount int         `json:"featureCount"`
	LabelCount   int         `json:"labelCount"`
	Labels       []LabelStat `json:"labels"`
}

// LabelStat summarises training sample density per crime type.
type LabelStat struct {
	Label   string `json:"label"`
	Samples int    `json:"samples"`
}
