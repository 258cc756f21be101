package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"crimewatch/crime"
)

// EvaluationConfig holds evaluation parameters
type EvaluationConfig struct {
	ModelPath  string
	DataPath   string
	ReportPath string
	Verbose    bool
}

// ClassMetrics tracks per-class performance. Recall is correct over true
// instances of the class, precision is correct over predictions of it.
type ClassMetrics struct {
	ClassName     string  `json:"className"`
	TotalSamples  int     `json:"totalSamples"`
	CorrectCount  int     `json:"correctCount"`
	Precision     float64 `json:"precision"`
	Recall        float64 `json:"recall"`
	AvgConfidence float64 `json:"avgConfidence"`
}

// EvaluationReport contains comprehensive evaluation results
type EvaluationReport struct {
	Timestamp       time.Time                 `json:"timestamp"`
	ModelPath       string                    `json:"modelPath"`
	TotalSamples    int                       `json:"totalSamples"`
	CorrectCount    int                       `json:"correctCount"`
	OverallAccuracy float64                   `json:"overallAccuracy"`
	AvgConfidence   float64                   `json:"avgConfidence"`
	ClassMetrics    []ClassMetrics            `json:"classMetrics"`
	ConfusionMatrix map[string]map[string]int `json:"confusionMatrix"`
	ProcessingTime  time.Duration             `json:"processingTime"`
}

func main() {
	config := parseFlags()

	log.SetFlags(log.Ldate | log.Ltime)
	log.Println("=== Model Evaluation Pipeline ===")
	log.Printf("Model: %s\n", config.ModelPath)
	log.Printf("Evaluation data: %s\n", config.DataPath)
	log.Println()

	// Load model
	log.Println("Loading trained model...")
	model, err := crime.LoadModel(config.ModelPath)
	if err != nil {
		log.Fatalf("ERROR: Failed to load model: %v", err)
	}

	stats := model.Stats()
	log.Printf("Loaded %d trees covering %d crime types\n",
		stats.TreeCount, stats.LabelCount)
	log.Println()

	// Load evaluation data
	log.Println("Loading evaluation data...")
	samples, skipped, err := crime.LoadDataset(config.DataPath)
	if err != nil {
		log.Fatalf("ERROR: Failed to load dataset: %v", err)
	}
	log.Printf("Loaded %d rows (%d skipped)\n", len(samples), skipped)
	log.Println()

	// Evaluate
	log.Println("Evaluating model performance...")
	report := evaluateModel(model, samples, config)

	printEvaluationReport(report)

	if config.ReportPath != "" {
		if err := saveReport(report, config.ReportPath); err != nil {
			log.Printf("WARNING: Failed to save report: %v\n", err)
		} else {
			log.Printf("\nReport saved to: %s\n", config.ReportPath)
		}
	}

	log.Println()
	printVerdict(report)
}

func parseFlags() EvaluationConfig {
	config := EvaluationConfig{}

	flag.StringVar(&config.ModelPath, "model", "storage/crime_model.json",
		"Path to trained model artifact")
	flag.StringVar(&config.DataPath, "data", "storage/crime_data.csv",
		"CSV file with labeled observations to evaluate against")
	flag.StringVar(&config.ReportPath, "report", "",
		"Optional path to write the JSON evaluation report")
	flag.BoolVar(&config.Verbose, "verbose", false, "Enable verbose logging")

	flag.Parse()

	if _, err := os.Stat(config.ModelPath); os.IsNotExist(err) {
		log.Fatalf("ERROR: Model does not exist: %s", config.ModelPath)
	}
	if _, err := os.Stat(config.DataPath); os.IsNotExist(err) {
		log.Fatalf("ERROR: Dataset does not exist: %s", config.DataPath)
	}

	return config
}

func evaluateModel(model *crime.Model, samples []crime.LabeledObservation, config EvaluationConfig) EvaluationReport {
	started := time.Now()

	report := EvaluationReport{
		Timestamp:       started,
		ModelPath:       config.ModelPath,
		ConfusionMatrix: make(map[string]map[string]int),
	}

	type classTally struct {
		total      int
		correct    int
		confidence float64
	}
	tallies := make(map[string]*classTally)
	totalConfidence := 0.0

	for _, sample := range samples {
		pred, err := model.Predict(sample.Observation)
		if err != nil {
			log.Printf("  WARNING: prediction failed: %v\n", err)
			continue
		}

		report.TotalSamples++
		totalConfidence += pred.Confidence

		tally := tallies[sample.CrimeType]
		if tally == nil {
			tally = &classTally{}
			tallies[sample.CrimeType] = tally
		}
		tally.total++
		tally.confidence += pred.Confidence

		if report.ConfusionMatrix[sample.CrimeType] == nil {
			report.ConfusionMatrix[sample.CrimeType] = make(map[string]int)
		}
		report.ConfusionMatrix[sample.CrimeType][pred.CrimeType]++

		if pred.CrimeType == sample.CrimeType {
			report.CorrectCount++
			tally.correct++
		} else if config.Verbose {
			log.Printf("  miss: %s predicted as %s (%.2f)\n",
				sample.CrimeType, pred.CrimeType, pred.Confidence)
		}
	}

	if report.TotalSamples > 0 {
		report.OverallAccuracy = float64(report.CorrectCount) / float64(report.TotalSamples)
		report.AvgConfidence = totalConfidence / float64(report.TotalSamples)
	}

	// Column sums of the confusion matrix give how often each class
	// was predicted, which is the precision denominator.
	predictedCounts := make(map[string]int)
	for _, row := range report.ConfusionMatrix {
		for predicted, count := range row {
			predictedCounts[predicted] += count
		}
	}

	classes := make([]string, 0, len(tallies))
	for class := range tallies {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	for _, class := range classes {
		tally := tallies[class]
		metrics := ClassMetrics{
			ClassName:    class,
			TotalSamples: tally.total,
			CorrectCount: tally.correct,
		}
		if tally.total > 0 {
			metrics.Recall = float64(tally.correct) / float64(tally.total)
			metrics.AvgConfidence = tally.confidence / float64(tally.total)
		}
		if predicted := predictedCounts[class]; predicted > 0 {
			metrics.Precision = float64(tally.correct) / float64(predicted)
		}
		report.ClassMetrics = append(report.ClassMetrics, metrics)
	}

	report.ProcessingTime = time.Since(started)
	return report
}

func printEvaluationReport(report EvaluationReport) {
	log.Println()
	log.Println("=== Evaluation Results ===")
	log.Printf("Total samples:    %d\n", report.TotalSamples)
	log.Printf("Correct:          %d\n", report.CorrectCount)
	log.Printf("Overall accuracy: %.1f%%\n", report.OverallAccuracy*100)
	log.Printf("Avg confidence:   %.3f\n", report.AvgConfidence)
	log.Println()

	log.Println("Per-class performance:")
	for _, metrics := range report.ClassMetrics {
		log.Printf("  %-20s: precision %.1f%%, recall %.1f%% (%d/%d), avg confidence %.3f\n",
			metrics.ClassName, metrics.Precision*100, metrics.Recall*100,
			metrics.CorrectCount, metrics.TotalSamples, metrics.AvgConfidence)
	}
	log.Println()
	log.Printf("Evaluation time: %.2f seconds\n", report.ProcessingTime.Seconds())
}

func saveReport(report EvaluationReport, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func printVerdict(report EvaluationReport) {
	switch {
	case report.OverallAccuracy >= 0.8:
		log.Println("Verdict: model performs well on this dataset")
	case report.OverallAccuracy >= 0.5:
		log.Println("Verdict: model is usable but would benefit from more training data")
	default:
		log.Println("Verdict: model accuracy is low; check data quality and class balance")
	}
}
