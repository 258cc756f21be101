package main

import (
	"flag"
	"log"

	"crimewatch/crime"
)

func main() {
	count := flag.Int("count", 2000, "Number of synthetic rows to generate")
	seed := flag.Int64("seed", 42, "Random seed")
	output := flag.String("output", "storage/crime_data.csv", "Output CSV path")
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime)

	if *count <= 0 {
		log.Fatalf("ERROR: count must be positive, got %d", *count)
	}

	log.Printf("Generating %d synthetic crime observations (seed %d)...\n", *count, *seed)
	samples := crime.GenerateSyntheticDataset(*count, *seed)

	if err := crime.WriteDatasetCSV(samples, *output); err != nil {
		log.Fatalf("ERROR: Failed to write dataset: %v", err)
	}

	counts := make(map[string]int)
	for _, sample := range samples {
		counts[sample.CrimeType]++
	}
	log.Println("Class distribution:")
	for _, label := range crime.CrimeTypes {
		log.Printf("  %-20s: %4d rows\n", label, counts[label])
	}

	log.Printf("Dataset written to: %s\n", *output)
}
