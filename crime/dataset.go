package crime

// Training data source: a CSV feed of historical observations. The loader
// validates the required columns up front (missing columns are a fatal
// configuration error), derives the time features from date_time with the
// same policy the encoder uses at inference time, and drops rows that lack
// a label or coordinates.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"
)

// CrimeTypes is the offense vocabulary used by the synthetic generator.
var CrimeTypes = []string{"Robbery", "Assault", "Kidnapping", "Burglary", "Fraud", "Theft", "Murder"}

// WeatherConditions is the weather vocabulary used by the synthetic generator.
var WeatherConditions = []string{"Clear", "Rainy", "Cloudy", "Sunny", "Stormy"}

// PlaceNames are free-text location values for synthetic rows.
var PlaceNames = []string{
	"Ikeja", "Yaba", "Lekki", "Surulere", "Agege",
	"Ajah", "Ikorodu", "Epe", "Victoria Island", "Ojota",
}

var requiredColumns = []string{
	"crime_type", "location", "latitude", "longitude", "weather_condition",
}

var dateTimeLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// LoadDataset reads labeled observations from a CSV file. It returns the
// usable rows and the number of rows skipped for missing label/coordinates.
func LoadDataset(path string) ([]LabeledObservation, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read dataset header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	// The administrative area column appears as either lga or area.
	if _, ok := columns["lga"]; !ok {
		if idx, ok := columns["area"]; ok {
			columns["lga"] = idx
		}
	}
	if _, ok := columns["date_time"]; !ok {
		if idx, ok := columns["date"]; ok {
			columns["date_time"] = idx
		}
	}

	var missing []string
	for _, name := range append(append([]string(nil), requiredColumns...), "lga", "date_time") {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("dataset is missing required columns: %s", strings.Join(missing, ", "))
	}

	var samples []LabeledObservation
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A ragged row is a bad row, not a bad file. Anything else
			// would silently truncate the corpus if ignored.
			if errors.Is(err, csv.ErrFieldCount) {
				skipped++
				continue
			}
			return nil, skipped, fmt.Errorf("failed to read dataset row: %w", err)
		}

		sample, ok := parseRow(record, columns)
		if !ok {
			skipped++
			continue
		}
		samples = append(samples, sample)
	}

	if len(samples) == 0 {
		return nil, skipped, fmt.Errorf("dataset %s contains no usable rows", path)
	}
	return samples, skipped, nil
}

func parseRow(record []string, columns map[string]int) (LabeledObservation, bool) {
	field := func(name string) string {
		idx := columns[name]
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	crimeType := field("crime_type")
	if crimeType == "" {
		return LabeledObservation{}, false
	}

	lat, latErr := strconv.ParseFloat(field("latitude"), 64)
	lon, lonErr := strconv.ParseFloat(field("longitude"), 64)
	if latErr != nil || lonErr != nil {
		return LabeledObservation{}, false
	}

	when, ok := parseDateTime(field("date_time"))
	if !ok {
		return LabeledObservation{}, false
	}

	obs := Observation{
		Location:         field("location"),
		LGA:              field("lga"),
		Latitude:         lat,
		Longitude:        lon,
		WeatherCondition: field("weather_condition"),
		Hour:             when.Hour(),
		TimePeriod:       DeriveTimePeriod(when.Hour()),
		DayOfWeek:        DeriveDayOfWeek(when),
		IsHoliday:        IsHoliday(when),
	}
	return LabeledObservation{Observation: obs, CrimeType: crimeType, ObservedAt: when}, true
}

func parseDateTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// GenerateSyntheticDataset builds a seeded synthetic training set across the
// crime-type, area and weather vocabularies, with timestamps spread over the
// two years before now. The same seed always yields the same rows.
func GenerateSyntheticDataset(n int, seed int64) []LabeledObservation {
	rng := rand.New(rand.NewSource(seed))
	areas := append(append([]string(nil), LGAs...), LCDAs...)
	end := time.Now().UTC().Truncate(time.Hour)

	samples := make([]LabeledObservation, n)
	for i := 0; i < n; i++ {
		when := end.Add(-time.Duration(rng.Intn(2*365*24)) * time.Hour)
		lat := minLatitude + rng.Float64()*(maxLatitude-minLatitude)
		lon := minLongitude + rng.Float64()*(maxLongitude-minLongitude)

		samples[i] = LabeledObservation{
			Observation: Observation{
				Location:         PlaceNames[rng.Intn(len(PlaceNames))],
				LGA:              areas[rng.Intn(len(areas))],
				Latitude:         lat,
				Longitude:        lon,
				WeatherCondition: WeatherConditions[rng.Intn(len(WeatherConditions))],
				Hour:             when.Hour(),
				TimePeriod:       DeriveTimePeriod(when.Hour()),
				DayOfWeek:        DeriveDayOfWeek(when),
				IsHoliday:        IsHoliday(when),
			},
			CrimeType:  CrimeTypes[rng.Intn(len(CrimeTypes))],
			ObservedAt: when,
		}
	}
	return samples
}

// WriteDatasetCSV persists labeled observations in the canonical CSV layout
// accepted by LoadDataset.
func WriteDatasetCSV(samples []LabeledObservation, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dataset file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := []string{
		"crime_type", "location", "lga", "latitude", "longitude",
		"weather_condition", "date_time", "time_period", "day_of_week", "is_holiday",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write dataset header: %w", err)
	}

	for _, sample := range samples {
		holiday := "0"
		if sample.IsHoliday {
			holiday = "1"
		}
		row := []string{
			sample.CrimeType,
			sample.Location,
			sample.LGA,
			strconv.FormatFloat(sample.Latitude, 'f', 6, 64),
			strconv.FormatFloat(sample.Longitude, 'f', 6, 64),
			sample.WeatherCondition,
			sample.ObservedAt.Format("2006-01-02 15:04:05"),
			sample.TimePeriod,
			sample.DayOfWeek,
			holiday,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write dataset row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
