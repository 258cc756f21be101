package main

import (
	"flag"
	"log"
	"math/rand"
	"os"
	"sort"
	"time"

	"crimewatch/crime"
	"crimewatch/db"
	"crimewatch/utils"

	"github.com/joho/godotenv"
)

// Config holds training configuration
type Config struct {
	Source      string
	DataPath    string
	OutputPath  string
	TreeCount   int
	MaxDepth    int
	MinLeaf     int
	Seed        int64
	HoldoutFrac float64
	Verbose     bool
}

func main() {
	config := parseFlags()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Printf("=== Crime Model Training Pipeline ===\n")
	if config.Source == "mongo" {
		log.Printf("Training data: mongodb (%s)\n", os.Getenv("DB_URI"))
	} else {
		log.Printf("Training data: %s\n", config.DataPath)
	}
	log.Printf("Output model: %s\n", config.OutputPath)
	log.Println()

	startTime := time.Now()

	// Step 1: Load the dataset
	log.Println("Step 1: Loading dataset...")
	samples, skipped, err := loadSamples(config)
	if err != nil {
		log.Fatalf("ERROR: Failed to load dataset: %v", err)
	}
	log.Printf("Loaded %d usable rows (%d skipped)\n", len(samples), skipped)
	printLabelDistribution(samples)
	log.Println()

	// Step 2: Split off a holdout set
	log.Println("Step 2: Splitting train/holdout...")
	train, holdout := splitSamples(samples, config.HoldoutFrac, config.Seed)
	log.Printf("Training rows: %d, holdout rows: %d\n", len(train), len(holdout))
	log.Println()

	// Step 3: Train the forest
	log.Println("Step 3: Training random forest...")
	opts := crime.TrainOptions{
		TreeCount:      config.TreeCount,
		MaxDepth:       config.MaxDepth,
		MinSamplesLeaf: config.MinLeaf,
		Seed:           config.Seed,
	}
	model, err := crime.Train(train, opts)
	if err != nil {
		log.Fatalf("ERROR: Training failed: %v", err)
	}

	stats := model.Stats()
	log.Printf("Trained %d trees over %d features and %d crime types\n",
		stats.TreeCount, stats.FeatureCount, stats.LabelCount)
	log.Println()

	// Step 4: Evaluate on the holdout set
	if len(holdout) > 0 {
		log.Println("Step 4: Evaluating on holdout set...")
		accuracy := evaluateHoldout(model, holdout, config.Verbose)
		log.Printf("Holdout accuracy: %.1f%% over %d rows\n", accuracy*100, len(holdout))
		log.Println()
	}

	// Step 5: Save the model artifact
	log.Println("Step 5: Saving model to disk...")
	if err := model.Save(config.OutputPath); err != nil {
		log.Fatalf("ERROR: Failed to save model: %v", err)
	}
	log.Printf("Model saved to: %s\n", config.OutputPath)
	log.Println()

	printTopFeatures(model)
	log.Printf("Total training time: %.2f seconds\n", time.Since(startTime).Seconds())
	log.Println("Training complete!")
}

func parseFlags() Config {
	config := Config{}

	flag.StringVar(&config.Source, "source", "csv",
		"Training data source: csv or mongo")
	flag.StringVar(&config.DataPath, "data", "storage/crime_data.csv",
		"CSV file with labeled crime observations (csv source only)")
	flag.StringVar(&config.OutputPath, "output", "storage/crime_model.json",
		"Output path for the trained model artifact")
	flag.IntVar(&config.TreeCount, "trees", 150, "Number of trees in the forest")
	flag.IntVar(&config.MaxDepth, "depth", 12, "Maximum tree depth")
	flag.IntVar(&config.MinLeaf, "min-leaf", 2, "Minimum samples per leaf")
	flag.Int64Var(&config.Seed, "seed", 42, "Random seed for training")
	flag.Float64Var(&config.HoldoutFrac, "holdout", 0.2,
		"Fraction of rows held out for evaluation")
	flag.BoolVar(&config.Verbose, "verbose", false, "Enable verbose logging")

	flag.Parse()

	if config.Source != "csv" && config.Source != "mongo" {
		log.Fatalf("ERROR: unknown data source %q (want csv or mongo)", config.Source)
	}
	if config.Source == "csv" {
		if _, err := os.Stat(config.DataPath); os.IsNotExist(err) {
			log.Fatalf("ERROR: Dataset does not exist: %s", config.DataPath)
		}
	}
	if config.HoldoutFrac < 0 || config.HoldoutFrac >= 1 {
		log.Fatalf("ERROR: holdout fraction must be in [0, 1), got %v", config.HoldoutFrac)
	}

	return config
}

func loadSamples(config Config) ([]crime.LabeledObservation, int, error) {
	if config.Source == "mongo" {
		_ = godotenv.Load()
		client, err := db.NewMongoClient(utils.GetEnv("DB_URI", "mongodb://localhost:27017"))
		if err != nil {
			return nil, 0, err
		}
		defer client.Close()
		return client.LoadObservations(0)
	}
	return crime.LoadDataset(config.DataPath)
}

func splitSamples(samples []crime.LabeledObservation, holdoutFrac float64, seed int64) ([]crime.LabeledObservation, []crime.LabeledObservation) {
	shuffled := append([]crime.LabeledObservation(nil), samples...)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	holdoutCount := int(float64(len(shuffled)) * holdoutFrac)
	return shuffled[holdoutCount:], shuffled[:holdoutCount]
}

func evaluateHoldout(model *crime.Model, holdout []crime.LabeledObservation, verbose bool) float64 {
	correct := 0
	for _, sample := range holdout {
		pred, err := model.Predict(sample.Observation)
		if err != nil {
			log.Printf("  WARNING: prediction failed: %v\n", err)
			continue
		}
		if pred.CrimeType == sample.CrimeType {
			correct++
		} else if verbose {
			log.Printf("  miss: %s predicted as %s (%.2f)\n",
				sample.CrimeType, pred.CrimeType, pred.Confidence)
		}
	}
	return float64(correct) / float64(len(holdout))
}

func printLabelDistribution(samples []crime.LabeledObservation) {
	counts := make(map[string]int)
	for _, sample := range samples {
		counts[sample.CrimeType]++
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	log.Println("Class distribution:")
	for _, label := range labels {
		log.Printf("  %-20s: %4d rows\n", label, counts[label])
	}
}

func printTopFeatures(model *crime.Model) {
	ranked := model.FeatureImportance()
	limit := 10
	if len(ranked) < limit {
		limit = len(ranked)
	}

	log.Println("Top features by importance:")
	for _, fw := range ranked[:limit] {
		log.Printf("  %-30s: %.4f\n", fw.Feature, fw.Weight)
	}
	log.Println()
}
