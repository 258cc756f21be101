package crime

// Model pairs a fitted EncoderState with the Forest trained on its output.
// The two are created together by Train, persisted together in a single
// artifact, and loaded together; using an encoder from one training run with
// a forest from another is a correctness bug this design rules out.
//
// A Model is immutable once trained. Re-training always produces a fresh
// Model; a serving process swaps the whole value, so in-flight predictions
// keep using the artifact they started with.

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ArtifactSchemaVersion tags the persisted artifact layout. Loading any
// other version is a configuration error.
const ArtifactSchemaVersion = 1

// Model is a trained crime classifier: encoder state, label vocabulary and
// forest, bound one-to-one.
type Model struct {
	encoder     *EncoderState
	forest      *Forest
	labels      []string
	trainedAt   time.Time
	sampleCount int
	labelCounts map[string]int
}

// TrainOptions configures a training run. Zero values fall back to the
// defaults in DefaultForestConfig.
type TrainOptions struct {
	TreeCount      int
	MaxDepth       int
	MinSamplesLeaf int
	Seed           int64
}

// DefaultTrainOptions mirrors the tuned dashboard model configuration.
func DefaultTrainOptions() TrainOptions {
	cfg := DefaultForestConfig()
	return TrainOptions{
		TreeCount:      cfg.TreeCount,
		MaxDepth:       cfg.MaxDepth,
		MinSamplesLeaf: cfg.MinSamplesLeaf,
		Seed:           cfg.Seed,
	}
}

// Train fits a new Model on labeled observations. It fails without side
// effects when the data cannot produce a usable classifier: no rows, or
// fewer than 2 distinct crime types.
func Train(samples []LabeledObservation, opts TrainOptions) (*Model, error) {
	if len(samples) == 0 {
		return nil, errors.New("training set is empty")
	}

	labelCounts := make(map[string]int)
	for i, sample := range samples {
		if sample.CrimeType == "" {
			return nil, fmt.Errorf("training row %d has no crime type", i)
		}
		labelCounts[sample.CrimeType]++
	}
	if len(labelCounts) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewClasses, len(labelCounts))
	}

	labels := make([]string, 0, len(labelCounts))
	for label := range labelCounts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	labelIndex := make(map[string]int, len(labels))
	for i, label := range labels {
		labelIndex[label] = i
	}

	observations := make([]Observation, len(samples))
	y := make([]int, len(samples))
	for i, sample := range samples {
		observations[i] = sample.Observation
		y[i] = labelIndex[sample.CrimeType]
	}

	encoder, err := FitEncoder(observations)
	if err != nil {
		return nil, err
	}

	features := encoder.EncodeBatch(observations)

	seed := opts.Seed
	if seed == 0 {
		seed = DefaultForestConfig().Seed
	}
	forest, err := TrainForest(features, y, len(labels), ForestConfig{
		TreeCount:      opts.TreeCount,
		MaxDepth:       opts.MaxDepth,
		MinSamplesLeaf: opts.MinSamplesLeaf,
		Seed:           seed,
	})
	if err != nil {
		return nil, err
	}

	return &Model{
		encoder:     encoder,
		forest:      forest,
		labels:      labels,
		trainedAt:   time.Now().UTC(),
		sampleCount: len(samples),
		labelCounts: labelCounts,
	}, nil
}

// Labels returns the training label vocabulary in stable (sorted) order.
func (m *Model) Labels() []string {
	return append([]string(nil), m.labels...)
}

// Encoder exposes the fitted encoder state, e.g. for feature-name reporting.
func (m *Model) Encoder() *EncoderState {
	return m.encoder
}

// FeatureImportance returns (name, weight) pairs sorted by descending weight.
func (m *Model) FeatureImportance() []FeatureWeight {
	names := m.encoder.FeatureNames()
	ranked := make([]FeatureWeight, 0, len(names))
	for i, name := range names {
		if i >= len(m.forest.Importance) {
			break
		}
		ranked = append(ranked, FeatureWeight{Feature: name, Weight: m.forest.Importance[i]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Weight > ranked[j].Weight })
	return ranked
}

// Predict returns the single most likely crime type for an observation.
// The returned label is always a member of the training label set.
func (m *Model) Predict(obs Observation) (Prediction, error) {
	ranked, err := m.TopK(obs, 1)
	if err != nil {
		return Prediction{}, err
	}
	return ranked[0], nil
}

// PredictProba returns the full distribution over crime types, ordered by
// descending probability with ties broken by label order.
func (m *Model) PredictProba(obs Observation) ([]Prediction, error) {
	if m == nil || m.forest == nil {
		return nil, ErrNotTrained
	}

	proba, err := m.forest.PredictProba(m.encoder.Encode(obs))
	if err != nil {
		return nil, err
	}

	ranked := make([]Prediction, len(proba))
	for i, p := range proba {
		ranked[i] = Prediction{CrimeType: m.labels[i], Confidence: p}
	}
	// SliceStable keeps label order for equal confidences, so identical
	// inputs always rank identically.
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Confidence > ranked[j].Confidence })
	return ranked, nil
}

// TopK returns the k most likely crime types, descending by confidence.
func (m *Model) TopK(obs Observation, k int) ([]Prediction, error) {
	ranked, err := m.PredictProba(obs)
	if err != nil {
		return nil, err
	}
	if k <= 0 || k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k], nil
}

// Stats returns summary metadata about the trained model.
func (m *Model) Stats() ModelStats {
	labels := make([]LabelStat, 0, len(m.labels))
	for _, label := range m.labels {
		labels = append(labels, LabelStat{Label: label, Samples: m.labelCounts[label]})
	}

	featureCount := 0
	if m.encoder != nil {
		featureCount = m.encoder.FeatureCount()
	}

	return ModelStats{
		TrainedAt:    m.trainedAt,
		SampleCount:  m.sampleCount,
		TreeCount:    len(m.forest.Trees),
		FeatureCount: featureCount,
		LabelCount:   len(m.labels),
		Labels:       labels,
	}
}

// artifact is the on-disk layout of a persisted model.
type artifact struct {
	SchemaVersion int            `json:"schemaVersion"`
	TrainedAt     time.Time      `json:"trainedAt"`
	SampleCount   int            `json:"sampleCount"`
	Labels        []string       `json:"labels"`
	LabelCounts   map[string]int `json:"labelCounts"`
	Encoder       *EncoderState  `json:"encoder"`
	Forest        *Forest        `json:"forest"`
}

// Save persists the model as a single artifact. The file is written to a
// temp path and renamed, so readers never observe a partial artifact.
func (m *Model) Save(path string) error {
	if m == nil || m.forest == nil {
		return ErrNotTrained
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	payload, err := json.Marshal(artifact{
		SchemaVersion: ArtifactSchemaVersion,
		TrainedAt:     m.trainedAt,
		SampleCount:   m.sampleCount,
		Labels:        m.labels,
		LabelCounts:   m.labelCounts,
		Encoder:       m.encoder,
		Forest:        m.forest,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}

	// Each writer gets its own temp file, so concurrent saves to the
	// same path cannot interleave before the rename.
	temp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp model file: %w", err)
	}
	tempPath := temp.Name()
	if _, err := temp.Write(payload); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp model file: %w", err)
	}
	return nil
}

// LoadModel reads a persisted artifact and validates it wholesale. Any
// malformed, incomplete or unknown-version artifact is rejected with a
// configuration error; there is no partial load.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load model (%s): %w", path, err)
	}

	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("unable to parse model artifact: %w", err)
	}

	switch art.SchemaVersion {
	case ArtifactSchemaVersion:
		// current layout
	default:
		return nil, fmt.Errorf("unsupported model artifact schema version %d (expected %d)",
			art.SchemaVersion, ArtifactSchemaVersion)
	}

	if err := art.Encoder.validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact: %w", err)
	}
	if err := art.Forest.validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact: %w", err)
	}
	if len(art.Labels) < 2 {
		return nil, errors.New("invalid model artifact: fewer than 2 labels")
	}
	if art.Forest.ClassCount != len(art.Labels) {
		return nil, fmt.Errorf("invalid model artifact: forest has %d classes but %d labels",
			art.Forest.ClassCount, len(art.Labels))
	}

	return &Model{
		encoder:     art.Encoder,
		forest:      art.Forest,
		labels:      art.Labels,
		trainedAt:   art.TrainedAt,
		sampleCount: art.SampleCount,
		labelCounts: art.LabelCounts,
	}, nil
}
