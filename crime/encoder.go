package crime

// Feature encoding for crime observations.
//
// The encoder learns one vocabulary per categorical field at training time
// and turns an Observation into a fixed-length numeric vector: four numeric
// features (latitude, longitude, hour, holiday flag) followed by a one-hot
// block per categorical field. Slot 0 of every block is a reserved "unknown"
// bucket, so category values never seen at fit time degrade gracefully
// instead of failing. The exact same fitted state must be used at inference
// time; mixing encoder state from one training run with a forest from
// another produces silently wrong vectors.

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// Lagos geographic centroid, substituted for invalid coordinates.
const (
	DefaultLatitude  = 6.5244
	DefaultLongitude = 3.3792
)

// Bounding box for plausible Lagos coordinates.
const (
	minLatitude  = 6.3
	maxLatitude  = 6.7
	minLongitude = 3.1
	maxLongitude = 3.6
)

// Time-period buckets derived from hour of day.
const (
	PeriodMorning   = "Morning"
	PeriodAfternoon = "Afternoon"
	PeriodEvening   = "Evening"
	PeriodNight     = "Night"
)

const numericFeatureCount = 4

// DeriveTimePeriod buckets an hour of day into one of the four time periods.
// Hours outside 0-23 are wrapped so the function is total.
func DeriveTimePeriod(hour int) string {
	hour = ((hour % 24) + 24) % 24
	switch {
	case hour < 12:
		return PeriodMorning
	case hour < 17:
		return PeriodAfternoon
	case hour < 20:
		return PeriodEvening
	default:
		return PeriodNight
	}
}

// DeriveDayOfWeek returns the full weekday name for a date.
func DeriveDayOfWeek(date time.Time) string {
	return date.Weekday().String()
}

// NormalizeCoordinates replaces degenerate or out-of-range coordinates with
// the Lagos centroid. (0,0) is a failed geocode, never a real location.
func NormalizeCoordinates(lat, lon float64) (float64, float64) {
	if lat != lat || lon != lon { // NaN
		return DefaultLatitude, DefaultLongitude
	}
	if lat == 0 && lon == 0 {
		return DefaultLatitude, DefaultLongitude
	}
	if lat < minLatitude || lat > maxLatitude || lon < minLongitude || lon > maxLongitude {
		return DefaultLatitude, DefaultLongitude
	}
	return lat, lon
}

// EncoderState holds the category vocabularies learned at fit time. Slot
// numbers are 1-based within each one-hot block; slot 0 is the unknown
// bucket. The state is immutable after FitEncoder and safe for concurrent
// use.
type EncoderState struct {
	Locations map[string]int `json:"locations"`
	Areas     map[string]int `json:"areas"`
	Weather   map[string]int `json:"weatherConditions"`
	Periods   map[string]int `json:"timePeriods"`
	Days      map[string]int `json:"daysOfWeek"`
}

// FitEncoder learns the category vocabulary for every categorical field from
// the training observations. Vocabulary slots are assigned in sorted order so
// fitting the same data always produces the same state.
func FitEncoder(observations []Observation) (*EncoderState, error) {
	if len(observations) == 0 {
		return nil, errors.New("cannot fit encoder on empty training set")
	}

	locations := map[string]bool{}
	areas := map[string]bool{}
	weather := map[string]bool{}
	periods := map[string]bool{}
	days := map[string]bool{}

	for _, obs := range observations {
		addCategory(locations, normalizeLocation(obs.Location))
		addCategory(areas, strings.TrimSpace(obs.LGA))
		addCategory(weather, strings.TrimSpace(obs.WeatherCondition))
		addCategory(periods, strings.TrimSpace(obs.TimePeriod))
		addCategory(days, strings.TrimSpace(obs.DayOfWeek))
	}

	return &EncoderState{
		Locations: buildVocabulary(locations),
		Areas:     buildVocabulary(areas),
		Weather:   buildVocabulary(weather),
		Periods:   buildVocabulary(periods),
		Days:      buildVocabulary(days),
	}, nil
}

func addCategory(set map[string]bool, value string) {
	if value != "" {
		set[value] = true
	}
}

func buildVocabulary(set map[string]bool) map[string]int {
	values := make([]string, 0, len(set))
	for value := range set {
		values = append(values, value)
	}
	sort.Strings(values)

	vocabulary := make(map[string]int, len(values))
	for i, value := range values {
		vocabulary[value] = i + 1
	}
	return vocabulary
}

func normalizeLocation(location string) string {
	return strings.ToLower(strings.TrimSpace(location))
}

// FeatureCount returns the encoded vector length.
func (s *EncoderState) FeatureCount() int {
	return numericFeatureCount +
		len(s.Locations) + 1 +
		len(s.Areas) + 1 +
		len(s.Weather) + 1 +
		len(s.Periods) + 1 +
		len(s.Days) + 1
}

// Encode turns an observation into a feature vector using the fitted state.
// It is a pure function: unseen categories land in the unknown bucket and
// invalid coordinates are replaced by the centroid; the vocabulary is never
// extended at inference time.
func (s *EncoderState) Encode(obs Observation) []float64 {
	vector := make([]float64, s.FeatureCount())

	lat, lon := NormalizeCoordinates(obs.Latitude, obs.Longitude)
	vector[0] = lat
	vector[1] = lon
	vector[2] = float64(((obs.Hour % 24) + 24) % 24)
	if obs.IsHoliday {
		vector[3] = 1
	}

	offset := numericFeatureCount
	offset = setOneHot(vector, offset, s.Locations, normalizeLocation(obs.Location))
	offset = setOneHot(vector, offset, s.Areas, strings.TrimSpace(obs.LGA))
	offset = setOneHot(vector, offset, s.Weather, strings.TrimSpace(obs.WeatherCondition))
	offset = setOneHot(vector, offset, s.Periods, strings.TrimSpace(obs.TimePeriod))
	setOneHot(vector, offset, s.Days, strings.TrimSpace(obs.DayOfWeek))

	return vector
}

// EncodeBatch encodes observations in order, one row per input.
func (s *EncoderState) EncodeBatch(observations []Observation) [][]float64 {
	matrix := make([][]float64, len(observations))
	for i, obs := range observations {
		matrix[i] = s.Encode(obs)
	}
	return matrix
}

func setOneHot(vector []float64, offset int, vocabulary map[string]int, value string) int {
	slot := 0 // unknown bucket
	if value != "" {
		slot = vocabulary[value]
	}
	vector[offset+slot] = 1
	return offset + len(vocabulary) + 1
}

// FeatureNames returns a human-readable name per vector dimension, in vector
// order. Used for feature-importance reporting.
func (s *EncoderState) FeatureNames() []string {
	names := make([]string, 0, s.FeatureCount())
	names = append(names, "latitude", "longitude", "hour", "is_holiday")
	names = append(names, blockNames("location", s.Locations)...)
	names = append(names, blockNames("lga", s.Areas)...)
	names = append(names, blockNames("weather_condition", s.Weather)...)
	names = append(names, blockNames("time_period", s.Periods)...)
	names = append(names, blockNames("day_of_week", s.Days)...)
	return names
}

func blockNames(field string, vocabulary map[string]int) []string {
	block := make([]string, len(vocabulary)+1)
	block[0] = field + "=<unknown>"
	for value, slot := range vocabulary {
		block[slot] = field + "=" + value
	}
	return block
}

// validate checks that a deserialized state is structurally usable.
func (s *EncoderState) validate() error {
	if s == nil {
		return errors.New("encoder state is missing")
	}
	if s.Locations == nil || s.Areas == nil || s.Weather == nil || s.Periods == nil || s.Days == nil {
		return errors.New("encoder state has missing vocabularies")
	}
	return nil
}
