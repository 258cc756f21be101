package crime

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

var testLGAs = []string{
	"Ikeja", "Eti-Osa", "Surulere", "Agege", "Epe", "Ikorodu", "Apapa", "Badagry",
}

// trainingSet builds a seeded synthetic set of n rows across the 7 crime
// types and 8 LGAs.
func trainingSet(n int, seed int64) []LabeledObservation {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	samples := make([]LabeledObservation, n)
	for i := 0; i < n; i++ {
		when := start.Add(time.Duration(rng.Intn(365*24)) * time.Hour)
		samples[i] = LabeledObservation{
			Observation: Observation{
				Location:         PlaceNames[rng.Intn(len(PlaceNames))],
				LGA:              testLGAs[rng.Intn(len(testLGAs))],
				Latitude:         6.3 + rng.Float64()*0.4,
				Longitude:        3.1 + rng.Float64()*0.5,
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

func smallTrainOptions() TrainOptions {
	return TrainOptions{TreeCount: 25, MaxDepth: 8, MinSamplesLeaf: 2, Seed: 42}
}

func knownCrimeTypes(t *testing.T, model *Model) map[string]bool {
	t.Helper()
	known := make(map[string]bool)
	for _, label := range model.Labels() {
		known[label] = true
	}
	return known
}

func TestTrainAndPredictKnownContext(t *testing.T) {
	t.Parallel()

	model, err := Train(trainingSet(1000, 42), smallTrainOptions())
	if err != nil {
		t.Fatalf("Train returned error: %v", err)
	}

	pred, err := model.Predict(Observation{
		LGA:              "Ikeja",
		WeatherCondition: "Clear",
		Hour:             12,
		TimePeriod:       DeriveTimePeriod(12),
		DayOfWeek:        "Monday",
		Latitude:         6.6,
		Longitude:        3.35,
	})
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}

	if !knownCrimeTypes(t, model)[pred.CrimeType] {
		t.Fatalf("predicted label %q is not in the training label set", pred.CrimeType)
	}
	if pred.Confidence <= 0 || pred.Confidence > 1 {
		t.Fatalf("confidence out of range: %f", pred.Confidence)
	}
}

func TestPredictDegradedInputIsStable(t *testing.T) {
	t.Parallel()

	model, err := Train(trainingSet(600, 7), smallTrainOptions())
	if err != nil {
		t.Fatalf("Train returned error: %v", err)
	}

	// Empty location, unseen area, failed geocode coordinates: must not
	// error, must substitute the centroid, and must be deterministic.
	degraded := Observation{
		Location:         "",
		LGA:              "UnknownArea123",
		Latitude:         0.0,
		Longitude:        0.0,
		WeatherCondition: "Clear",
		Hour:             9,
		TimePeriod:       DeriveTimePeriod(9),
		DayOfWeek:        "Tuesday",
	}

	first, err := model.Predict(degraded)
	if err != nil {
		t.Fatalf("Predict returned error on degraded input: %v", err)
	}
	second, err := model.Predict(degraded)
	if err != nil {
		t.Fatalf("Predict returned error on repeat: %v", err)
	}

	if first != second {
		t.Fatalf("repeated predictions differ: %+v vs %+v", first, second)
	}
	if !knownCrimeTypes(t, model)[first.CrimeType] {
		t.Fatalf("predicted label %q is not in the training label set", first.CrimeType)
	}
}

func TestPredictProbaOrderingIsStable(t *testing.T) {
	t.Parallel()

	model, err := Train(trainingSet(500, 11), smallTrainOptions())
	if err != nil {
		t.Fatalf("Train returned error: %v", err)
	}

	obs := Observation{
		LGA: "Epe", WeatherCondition: "Rainy", Hour: 21,
		TimePeriod: DeriveTimePeriod(21), DayOfWeek: "Saturday",
		Latitude: 6.58, Longitude: 3.57,
	}

	first, err := model.PredictProba(obs)
	if err != nil {
		t.Fatalf("PredictProba returned error: %v", err)
	}
	second, err := model.PredictProba(obs)
	if err != nil {
		t.Fatalf("PredictProba returned error: %v", err)
	}

	if len(first) != len(model.Labels()) {
		t.Fatalf("expected one entry per label, got %d", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("ranking differs at position %d: %+v vs %+v", i, first[i], second[i])
		}
		if i > 0 && first[i].Confidence > first[i-1].Confidence {
			t.Fatalf("ranking not descending at position %d", i)
		}
	}

	top, err := model.TopK(obs, 3)
	if err != nil {
		t.Fatalf("TopK returned error: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(top))
	}
}

func TestTrainRejectsSingleClass(t *testing.T) {
	t.Parallel()

	samples := trainingSet(50, 3)
	for i := range samples {
		samples[i].CrimeType = "Theft"
	}

	if _, err := Train(samples, smallTrainOptions()); !errors.Is(err, ErrTooFewClasses) {
		t.Fatalf("expected ErrTooFewClasses, got %v", err)
	}
}

func TestTrainRejectsEmptyAndUnlabeled(t *testing.T) {
	t.Parallel()

	if _, err := Train(nil, smallTrainOptions()); err == nil {
		t.Fatal("expected error for empty training set")
	}

	samples := trainingSet(10, 5)
	samples[4].CrimeType = ""
	if _, err := Train(samples, smallTrainOptions()); err == nil {
		t.Fatal("expected error for row without crime type")
	}
}

func TestUntrainedModelRejectsPredict(t *testing.T) {
	t.Parallel()

	var model Model
	if _, err := model.Predict(Observation{LGA: "Ikeja"}); !errors.Is(err, ErrNotTrained) {
		t.Fatalf("expected ErrNotTrained, got %v", err)
	}
}

func TestModelSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	model, err := Train(trainingSet(400, 19), smallTrainOptions())
	if err != nil {
		t.Fatalf("Train returned error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "crime_model.json")
	if err := model.Save(path); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	obs := Observation{
		LGA: "Ikeja", WeatherCondition: "Cloudy", Hour: 14,
		TimePeriod: DeriveTimePeriod(14), DayOfWeek: "Wednesday",
		Latitude: 6.5, Longitude: 3.35,
	}
	want, err := model.PredictProba(obs)
	if err != nil {
		t.Fatalf("PredictProba returned error: %v", err)
	}

	// Loading twice and predicting twice must agree with the in-memory
	// model and with each other.
	for i := 0; i < 2; i++ {
		loaded, err := LoadModel(path)
		if err != nil {
			t.Fatalf("LoadModel returned error: %v", err)
		}
		got, err := loaded.PredictProba(obs)
		if err != nil {
			t.Fatalf("PredictProba on loaded model returned error: %v", err)
		}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("loaded model diverges at position %d: %+v vs %+v", j, got[j], want[j])
			}
		}
	}

	stats := model.Stats()
	if stats.LabelCount != len(CrimeTypes) {
		t.Errorf("expected %d labels, got %d", len(CrimeTypes), stats.LabelCount)
	}
	if stats.SampleCount != 400 {
		t.Errorf("expected 400 samples, got %d", stats.SampleCount)
	}
}

func TestLoadModelRejectsBadArtifacts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	missing := filepath.Join(dir, "nope.json")
	if _, err := LoadModel(missing); err == nil {
		t.Fatal("expected error for missing artifact")
	}

	garbage := filepath.Join(dir, "garbage.json")
	if err := os.WriteFile(garbage, []byte("not json at all"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadModel(garbage); err == nil {
		t.Fatal("expected error for malformed artifact")
	}

	wrongVersion := filepath.Join(dir, "v99.json")
	if err := os.WriteFile(wrongVersion, []byte(`{"schemaVersion": 99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadModel(wrongVersion); err == nil {
		t.Fatal("expected error for unknown schema version")
	}

	// A bare forest without encoder state (the old tuple-shaped artifact)
	// must be rejected, not half-loaded.
	bareForest := filepath.Join(dir, "bare.json")
	if err := os.WriteFile(bareForest, []byte(`{"schemaVersion": 1, "labels": ["a","b"], "forest": {"trees": [{"nodes": [{"isLeaf": true, "counts": [1,1]}]}], "classCount": 2}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadModel(bareForest); err == nil {
		t.Fatal("expected error for artifact without encoder state")
	}
}

func TestConcurrentSavesLeaveValidArtifact(t *testing.T) {
	t.Parallel()

	model, err := Train(trainingSet(200, 29), smallTrainOptions())
	if err != nil {
		t.Fatalf("Train returned error: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "crime_model.json")

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = model.Save(path)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("save %d returned error: %v", i, err)
		}
	}

	// Whichever writer won, the artifact must be a complete document and
	// every temp file must be gone.
	if _, err := LoadModel(path); err != nil {
		t.Fatalf("LoadModel returned error: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "crime_model.json" {
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		t.Fatalf("expected only the artifact, found %v", names)
	}
}

func TestTrainFailureLeavesNoArtifact(t *testing.T) {
	t.Parallel()

	samples := trainingSet(50, 23)
	for i := range samples {
		samples[i].CrimeType = "Robbery"
	}

	path := filepath.Join(t.TempDir(), "crime_model.json")
	model, err := Train(samples, smallTrainOptions())
	if err == nil {
		t.Fatal("expected training to fail on single-class data")
	}
	if model != nil {
		t.Fatal("expected no model on training failure")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatal("no artifact should exist after failed training")
	}
}

func TestFeatureImportanceRanking(t *testing.T) {
	t.Parallel()

	model, err := Train(trainingSet(300, 31), smallTrainOptions())
	if err != nil {
		t.Fatalf("Train returned error: %v", err)
	}

	ranked := model.FeatureImportance()
	if len(ranked) == 0 {
		t.Fatal("expected feature importance entries")
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Weight > ranked[i-1].Weight {
			t.Fatalf("importance not sorted at position %d", i)
		}
	}
}
