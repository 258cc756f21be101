package crime

import (
	"math"
	"testing"
	"time"
)

func TestDeriveTimePeriodCoversEveryHour(t *testing.T) {
	t.Parallel()

	valid := map[string]bool{
		PeriodMorning: true, PeriodAfternoon: true, PeriodEvening: true, PeriodNight: true,
	}
	for hour := 0; hour < 24; hour++ {
		period := DeriveTimePeriod(hour)
		if !valid[period] {
			t.Fatalf("hour %d produced unexpected period %q", hour, period)
		}
	}

	if got := DeriveTimePeriod(9); got != PeriodMorning {
		t.Errorf("hour 9: expected %s, got %s", PeriodMorning, got)
	}
	if got := DeriveTimePeriod(12); got != PeriodAfternoon {
		t.Errorf("hour 12: expected %s, got %s", PeriodAfternoon, got)
	}
	if got := DeriveTimePeriod(17); got != PeriodEvening {
		t.Errorf("hour 17: expected %s, got %s", PeriodEvening, got)
	}
	if got := DeriveTimePeriod(23); got != PeriodNight {
		t.Errorf("hour 23: expected %s, got %s", PeriodNight, got)
	}
}

func TestDeriveDayOfWeek(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC)
	if got := DeriveDayOfWeek(date); got != "Monday" {
		t.Fatalf("expected Monday, got %s", got)
	}
}

func TestNormalizeCoordinates(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		lat, lon float64
		wantDef  bool
	}{
		{"valid", 6.5244, 3.3792, false},
		{"zero zero", 0, 0, true},
		{"out of range north", 51.5, -0.1, true},
		{"out of range lon", 6.5, 7.1, true},
		{"nan", math.NaN(), 3.3, true},
	}

	for _, tc := range cases {
		lat, lon := NormalizeCoordinates(tc.lat, tc.lon)
		if tc.wantDef {
			if lat != DefaultLatitude || lon != DefaultLongitude {
				t.Errorf("%s: expected centroid, got (%f, %f)", tc.name, lat, lon)
			}
		} else if lat != tc.lat || lon != tc.lon {
			t.Errorf("%s: expected coordinates unchanged, got (%f, %f)", tc.name, lat, lon)
		}
	}
}

func TestEncoderFitAndEncode(t *testing.T) {
	t.Parallel()

	observations := []Observation{
		{Location: "Ikeja", LGA: "Ikeja", WeatherCondition: "Clear", TimePeriod: PeriodMorning, DayOfWeek: "Monday", Latitude: 6.55, Longitude: 3.35, Hour: 9},
		{Location: "Lekki", LGA: "Eti-Osa", WeatherCondition: "Rainy", TimePeriod: PeriodNight, DayOfWeek: "Friday", Latitude: 6.45, Longitude: 3.5, Hour: 22},
	}

	state, err := FitEncoder(observations)
	if err != nil {
		t.Fatalf("FitEncoder returned error: %v", err)
	}

	vector := state.Encode(observations[0])
	if len(vector) != state.FeatureCount() {
		t.Fatalf("vector length %d does not match FeatureCount %d", len(vector), state.FeatureCount())
	}
	if vector[0] != 6.55 || vector[1] != 3.35 {
		t.Errorf("expected coordinates passed through, got (%f, %f)", vector[0], vector[1])
	}
	if vector[2] != 9 {
		t.Errorf("expected hour 9, got %f", vector[2])
	}

	// Encoding the same observation twice must be bit-identical.
	again := state.Encode(observations[0])
	for i := range vector {
		if vector[i] != again[i] {
			t.Fatalf("encoding is not deterministic at dimension %d", i)
		}
	}
}

func TestEncoderUnknownCategoriesUseUnknownBucket(t *testing.T) {
	t.Parallel()

	observations := []Observation{
		{Location: "Ikeja", LGA: "Ikeja", WeatherCondition: "Clear", TimePeriod: PeriodMorning, DayOfWeek: "Monday"},
		{Location: "Lekki", LGA: "Eti-Osa", WeatherCondition: "Rainy", TimePeriod: PeriodNight, DayOfWeek: "Friday"},
	}
	state, err := FitEncoder(observations)
	if err != nil {
		t.Fatalf("FitEncoder returned error: %v", err)
	}

	unseen := Observation{
		Location:         "Some Place Never Seen",
		LGA:              "UnknownArea123",
		WeatherCondition: "Harmattan",
		TimePeriod:       PeriodMorning,
		DayOfWeek:        "Monday",
	}
	vector := state.Encode(unseen)

	// Unknown location lands in slot 0 of the location block.
	locOffset := numericFeatureCount
	if vector[locOffset] != 1 {
		t.Errorf("expected unknown location bucket to be set")
	}
	for value, slot := range state.Locations {
		if vector[locOffset+slot] != 0 {
			t.Errorf("known location %q unexpectedly set", value)
		}
	}

	// Empty location is legal and also encodes to the unknown bucket.
	empty := state.Encode(Observation{TimePeriod: PeriodMorning, DayOfWeek: "Monday"})
	if empty[locOffset] != 1 {
		t.Errorf("expected empty location to use unknown bucket")
	}

	// Fitting must not have grown vocabularies at inference time.
	if len(state.Locations) != 2 {
		t.Fatalf("vocabulary grew after encode: %d locations", len(state.Locations))
	}
}

func TestEncodeBatchPreservesRowOrder(t *testing.T) {
	t.Parallel()

	observations := []Observation{
		{Location: "Ikeja", LGA: "Ikeja", WeatherCondition: "Clear", TimePeriod: PeriodMorning, DayOfWeek: "Monday", Hour: 1},
		{Location: "Lekki", LGA: "Eti-Osa", WeatherCondition: "Rainy", TimePeriod: PeriodNight, DayOfWeek: "Friday", Hour: 2},
		{Location: "Epe", LGA: "Epe", WeatherCondition: "Stormy", TimePeriod: PeriodEvening, DayOfWeek: "Sunday", Hour: 3},
	}
	state, err := FitEncoder(observations)
	if err != nil {
		t.Fatalf("FitEncoder returned error: %v", err)
	}

	matrix := state.EncodeBatch(observations)
	if len(matrix) != len(observations) {
		t.Fatalf("expected %d rows, got %d", len(observations), len(matrix))
	}
	for i, obs := range observations {
		if matrix[i][2] != float64(obs.Hour) {
			t.Errorf("row %d out of order: hour %f", i, matrix[i][2])
		}
	}
}

func TestFitEncoderRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	if _, err := FitEncoder(nil); err == nil {
		t.Fatal("expected error for empty training set")
	}
}

func TestFeatureNamesMatchVectorLayout(t *testing.T) {
	t.Parallel()

	observations := []Observation{
		{Location: "Ikeja", LGA: "Ikeja", WeatherCondition: "Clear", TimePeriod: PeriodMorning, DayOfWeek: "Monday"},
		{Location: "Lekki", LGA: "Eti-Osa", WeatherCondition: "Rainy", TimePeriod: PeriodNight, DayOfWeek: "Friday"},
	}
	state, err := FitEncoder(observations)
	if err != nil {
		t.Fatalf("FitEncoder returned error: %v", err)
	}

	names := state.FeatureNames()
	if len(names) != state.FeatureCount() {
		t.Fatalf("expected %d names, got %d", state.FeatureCount(), len(names))
	}
	if names[0] != "latitude" || names[3] != "is_holiday" {
		t.Errorf("unexpected numeric feature names: %v", names[:4])
	}
	for i, name := range names {
		if name == "" {
			t.Errorf("feature %d has no name", i)
		}
	}
}
