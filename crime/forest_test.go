package crime

import (
	"errors"
	"math"
	"testing"
)

// separableData builds two well-separated clusters so even a tiny forest
// classifies them reliably.
func separableData() ([][]float64, []int) {
	var features [][]float64
	var labels []int
	for i := 0; i < 20; i++ {
		features = append(features, []float64{0.1 + float64(i)*0.005, 0.2})
		labels = append(labels, 0)
		features = append(features, []float64{0.9 - float64(i)*0.005, 0.8})
		labels = append(labels, 1)
	}
	return features, labels
}

func TestForestTrainAndPredict(t *testing.T) {
	t.Parallel()

	features, labels := separableData()
	forest, err := TrainForest(features, labels, 2, ForestConfig{TreeCount: 20, MaxDepth: 4, Seed: 1})
	if err != nil {
		t.Fatalf("TrainForest returned error: %v", err)
	}

	label, err := forest.Predict([]float64{0.12, 0.2})
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	if label != 0 {
		t.Fatalf("expected class 0, got %d", label)
	}

	label, err = forest.Predict([]float64{0.88, 0.8})
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	if label != 1 {
		t.Fatalf("expected class 1, got %d", label)
	}
}

func TestForestPredictProbaSumsToOne(t *testing.T) {
	t.Parallel()

	features, labels := separableData()
	forest, err := TrainForest(features, labels, 2, ForestConfig{TreeCount: 15, MaxDepth: 4, Seed: 7})
	if err != nil {
		t.Fatalf("TrainForest returned error: %v", err)
	}

	inputs := [][]float64{{0.1, 0.2}, {0.5, 0.5}, {0.95, 0.85}}
	for _, input := range inputs {
		proba, err := forest.PredictProba(input)
		if err != nil {
			t.Fatalf("PredictProba returned error: %v", err)
		}
		sum := 0.0
		for _, p := range proba {
			if p < 0 {
				t.Fatalf("negative probability %f", p)
			}
			sum += p
		}
		if math.Abs(sum-1.0) > 1e-6 {
			t.Fatalf("probabilities sum to %f, want 1.0", sum)
		}
	}
}

func TestForestDeterministicUnderFixedSeed(t *testing.T) {
	t.Parallel()

	features, labels := separableData()
	cfg := ForestConfig{TreeCount: 10, MaxDepth: 5, Seed: 42}

	first, err := TrainForest(features, labels, 2, cfg)
	if err != nil {
		t.Fatalf("TrainForest returned error: %v", err)
	}
	second, err := TrainForest(features, labels, 2, cfg)
	if err != nil {
		t.Fatalf("TrainForest returned error: %v", err)
	}

	input := []float64{0.4, 0.45}
	p1, err := first.PredictProba(input)
	if err != nil {
		t.Fatalf("PredictProba returned error: %v", err)
	}
	p2, err := second.PredictProba(input)
	if err != nil {
		t.Fatalf("PredictProba returned error: %v", err)
	}

	for i := range p1 {
		if p1[i] != p2[i] {
			t.Fatalf("probabilities differ at class %d: %f vs %f", i, p1[i], p2[i])
		}
	}
}

func TestForestRejectsUntrainedPredict(t *testing.T) {
	t.Parallel()

	var forest Forest
	if _, err := forest.PredictProba([]float64{0.5}); !errors.Is(err, ErrNotTrained) {
		t.Fatalf("expected ErrNotTrained, got %v", err)
	}
}

func TestForestRejectsSingleClass(t *testing.T) {
	t.Parallel()

	features := [][]float64{{0.1}, {0.2}, {0.3}}
	labels := []int{0, 0, 0}
	if _, err := TrainForest(features, labels, 1, ForestConfig{TreeCount: 5}); !errors.Is(err, ErrTooFewClasses) {
		t.Fatalf("expected ErrTooFewClasses, got %v", err)
	}
}

func TestForestRejectsRaggedMatrix(t *testing.T) {
	t.Parallel()

	features := [][]float64{{0.1, 0.2}, {0.3}}
	labels := []int{0, 1}
	if _, err := TrainForest(features, labels, 2, ForestConfig{TreeCount: 5}); err == nil {
		t.Fatal("expected error for ragged feature matrix")
	}
}

func TestForestImportanceIsNormalized(t *testing.T) {
	t.Parallel()

	features, labels := separableData()
	forest, err := TrainForest(features, labels, 2, ForestConfig{TreeCount: 10, MaxDepth: 4, Seed: 3})
	if err != nil {
		t.Fatalf("TrainForest returned error: %v", err)
	}

	sum := 0.0
	for _, v := range forest.Importance {
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-6 {
		t.Fatalf("importance sums to %f, want 1.0", sum)
	}
	// The first feature separates the clusters, so it should dominate.
	if forest.Importance[0] < forest.Importance[1] {
		t.Errorf("expected feature 0 to dominate importance: %v", forest.Importance)
	}
}
