package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"

	"crimewatch/crime"
	"crimewatch/models"
)

// Drives the prediction API the way the dashboard frontend does, with a
// stream of randomized requests. Useful for smoke-testing a running server.
func main() {
	endpoint := flag.String("url", "http://localhost:5000/api/predict", "Prediction endpoint")
	count := flag.Int("count", 10, "Number of requests to send")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed for request generation")
	delay := flag.Duration("delay", 2*time.Second, "Delay between requests")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	fmt.Printf("Sending %d prediction request(s) to %s\n\n", *count, *endpoint)
	for i := 0; i < *count; i++ {
		req := randomRequest(rng)
		if err := sendRequest(*endpoint, req); err != nil {
			log.Printf("request failed for %q: %v\n", req.Location, err)
		}

		if i < *count-1 && *delay > 0 {
			time.Sleep(*delay)
		}
	}
}

func randomRequest(rng *rand.Rand) models.PredictRequest {
	hour := rng.Intn(24)
	when := time.Now().Add(-time.Duration(rng.Intn(30*24)) * time.Hour)

	return models.PredictRequest{
		Location: crime.PlaceNames[rng.Intn(len(crime.PlaceNames))],
		Weather:  crime.WeatherConditions[rng.Intn(len(crime.WeatherConditions))],
		DateTime: when.Format("2006-01-02 15:04:05"),
		Hour:     &hour,
		TopK:     3,
	}
}

func sendRequest(endpoint string, req models.PredictRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := http.Post(endpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var summary crime.PredictionSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("%-18s -> %-12s (%.1f%%) [lga=%s, period=%s, %.1fms]\n",
		req.Location, summary.CrimeType, summary.Confidence*100,
		summary.LGA, summary.TimePeriod, summary.LatencyMs)
	return nil
}
