package main

import (
	"fmt"
	"log"
	"math"
	"os"

	"crimewatch/crime"
)

// Checks that the full training pipeline is deterministic: training twice on
// the same dataset with the same seed must yield identical probability
// distributions for every row.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run main.go <path-to-dataset-csv>")
	}

	dataPath := os.Args[1]
	log.Printf("Testing training determinism with: %s\n", dataPath)

	samples, skipped, err := crime.LoadDataset(dataPath)
	if err != nil {
		log.Fatalf("failed to load dataset: %v", err)
	}
	log.Printf("Loaded %d rows (%d skipped)\n", len(samples), skipped)

	const numRuns = 3
	opts := crime.DefaultTrainOptions()

	var runs []*crime.Model
	for i := 0; i < numRuns; i++ {
		model, err := crime.Train(samples, opts)
		if err != nil {
			log.Fatalf("Run %d failed: %v", i+1, err)
		}
		runs = append(runs, model)
		log.Printf("Run %d: trained %d trees\n", i+1, model.Stats().TreeCount)
	}

	fmt.Println("\n=== Determinism Check ===")
	allIdentical := true
	maxDiff := 0.0

	for row, sample := range samples {
		baseline, err := runs[0].PredictProba(sample.Observation)
		if err != nil {
			log.Fatalf("prediction failed on row %d: %v", row, err)
		}

		for run := 1; run < numRuns; run++ {
			probs, err := runs[run].PredictProba(sample.Observation)
			if err != nil {
				log.Fatalf("prediction failed on row %d: %v", row, err)
			}
			for i := range baseline {
				diff := math.Abs(baseline[i].Confidence - probs[i].Confidence)
				if diff > maxDiff {
					maxDiff = diff
				}
				if diff > 0 || baseline[i].CrimeType != probs[i].CrimeType {
					allIdentical = false
					fmt.Printf("row %d differs between run 1 and run %d: %s=%.15f vs %s=%.15f\n",
						row, run+1, baseline[i].CrimeType, baseline[i].Confidence,
						probs[i].CrimeType, probs[i].Confidence)
				}
			}
		}
	}

	if allIdentical {
		fmt.Println("All runs produced IDENTICAL predictions (deterministic)")
	} else {
		fmt.Printf("Training is NON-DETERMINISTIC (max diff: %e)\n", maxDiff)
		fmt.Println("Same data and seed should always reproduce the same model!")
	}
}
