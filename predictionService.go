package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"time"

	"crimewatch/crime"
	"crimewatch/db"
	"crimewatch/geocode"
	"crimewatch/history"
	"crimewatch/models"
	"crimewatch/utils"
)

const defaultTopK = 3

// predictionService resolves raw prediction requests into encoded
// observations, runs the model and persists the result.
type predictionService struct {
	model    *crime.Model
	geocoder *geocode.NominatimClient
	store    db.DBClient
}

func newPredictionService(model *crime.Model, geocoder *geocode.NominatimClient, store db.DBClient) *predictionService {
	return &predictionService{model: model, geocoder: geocoder, store: store}
}

var requestDateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseRequestTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range requestDateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// resolveObservation fills in every context field the model needs. Missing
// coordinates are geocoded from the location text; a failed geocode leaves
// them at zero so the encoder substitutes the Lagos centroid.
func (s *predictionService) resolveObservation(req models.PredictRequest) (crime.Observation, bool) {
	logger := utils.GetLogger()
	ctx := context.Background()

	when, hasTime := parseRequestTime(req.DateTime)
	if !hasTime {
		when = time.Now()
	}
	hour := when.Hour()
	if req.Hour != nil {
		hour = *req.Hour
	}

	lga := req.LGA
	if lga == "" {
		lga = crime.LGAFromLocation(req.Location)
	}

	var lat, lon float64
	geocoded := false
	if req.Latitude != nil && req.Longitude != nil {
		lat, lon = *req.Latitude, *req.Longitude
	} else if s.geocoder != nil && req.Location != "" {
		result, found, err := s.geocoder.Geocode(req.Location)
		if err != nil {
			logger.WarnContext(ctx, "geocoding failed, using default coordinates",
				slog.String("location", req.Location),
				slog.Any("error", err),
			)
		} else if found {
			lat, lon = result.Latitude, result.Longitude
			geocoded = true
		}
	}

	return crime.Observation{
		Location:         req.Location,
		LGA:              lga,
		Latitude:         lat,
		Longitude:        lon,
		WeatherCondition: req.Weather,
		Hour:             hour,
		TimePeriod:       crime.DeriveTimePeriod(hour),
		DayOfWeek:        crime.DeriveDayOfWeek(when),
		IsHoliday:        crime.IsHoliday(when),
	}, geocoded
}

// predict runs the full request pipeline and returns the summary emitted to
// clients together with the record persisted to the history store.
func (s *predictionService) predict(req models.PredictRequest) (crime.PredictionSummary, error) {
	started := time.Now()

	obs, geocoded := s.resolveObservation(req)

	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	ranked, err := s.model.TopK(obs, topK)
	if err != nil {
		return crime.PredictionSummary{}, err
	}

	lat, lon := crime.NormalizeCoordinates(obs.Latitude, obs.Longitude)
	latency := time.Since(started).Seconds() * 1000

	summary := crime.PredictionSummary{
		CrimeType:  ranked[0].CrimeType,
		Confidence: ranked[0].Confidence,
		TopK:       ranked,
		Location:   obs.Location,
		LGA:        obs.LGA,
		Latitude:   lat,
		Longitude:  lon,
		Geocoded:   geocoded,
		Weather:    obs.WeatherCondition,
		TimePeriod: obs.TimePeriod,
		DayOfWeek:  obs.DayOfWeek,
		IsHoliday:  obs.IsHoliday,
		LatencyMs:  latency,
	}

	s.storePrediction(summary)
	return summary, nil
}

// storePrediction persists a summary. Storage failures are logged, never
// surfaced to the requester.
func (s *predictionService) storePrediction(summary crime.PredictionSummary) {
	predictionsJSON, err := json.Marshal(summary.TopK)
	if err != nil {
		log.Printf("[Predict] Failed to marshal predictions for storage: %v\n", err)
		return
	}

	lat, lng := summary.Latitude, summary.Longitude
	record := &models.PredictionRecord{
		Timestamp:   time.Now(),
		Location:    summary.Location,
		LGA:         summary.LGA,
		Latitude:    &lat,
		Longitude:   &lng,
		Geocoded:    summary.Geocoded,
		Weather:     summary.Weather,
		TimePeriod:  summary.TimePeriod,
		DayOfWeek:   summary.DayOfWeek,
		IsHoliday:   summary.IsHoliday,
		CrimeType:   summary.CrimeType,
		Confidence:  summary.Confidence,
		LatencyMs:   summary.LatencyMs,
		Predictions: json.RawMessage(predictionsJSON),
	}

	if s.store != nil {
		if err := s.store.StorePrediction(record); err != nil {
			log.Printf("[Predict] Failed to store prediction: %v\n", err)
		}
		return
	}

	if err := history.SavePrediction(record); err != nil {
		log.Printf("[Predict] Failed to save prediction to file: %v\n", err)
	}
}

// recentPredictions reads history from whichever store is configured.
func (s *predictionService) recentPredictions(limit int) ([]models.PredictionRecord, error) {
	if s.store != nil {
		return s.store.GetRecentPredictions(limit)
	}
	return history.LoadPredictions()
}
