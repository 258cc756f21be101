package main

import (
	"flag"
	"log"
	"time"

	"crimewatch/crime"
)

func main() {
	modelPath := flag.String("model", "storage/crime_model.json", "Path to trained model artifact")
	location := flag.String("location", "", "Free-text location within Lagos")
	lga := flag.String("lga", "", "Local government area (derived from location when empty)")
	weather := flag.String("weather", "", "Weather condition (Clear, Rainy, Cloudy, Sunny, Stormy)")
	dateTime := flag.String("time", "", "Observation time, e.g. 2024-06-12 18:30:00 (defaults to now)")
	topK := flag.Int("topk", 3, "Number of ranked predictions to print")
	flag.Parse()

	log.SetFlags(0)

	model, err := crime.LoadModel(*modelPath)
	if err != nil {
		log.Fatalf("ERROR: Failed to load model: %v", err)
	}

	when := time.Now()
	if *dateTime != "" {
		parsed, err := time.Parse("2006-01-02 15:04:05", *dateTime)
		if err != nil {
			log.Fatalf("ERROR: Invalid -time value %q: %v", *dateTime, err)
		}
		when = parsed
	}

	area := *lga
	if area == "" {
		area = crime.LGAFromLocation(*location)
	}

	obs := crime.Observation{
		Location:         *location,
		LGA:              area,
		WeatherCondition: *weather,
		Hour:             when.Hour(),
		TimePeriod:       crime.DeriveTimePeriod(when.Hour()),
		DayOfWeek:        crime.DeriveDayOfWeek(when),
		IsHoliday:        crime.IsHoliday(when),
	}

	ranked, err := model.TopK(obs, *topK)
	if err != nil {
		log.Fatalf("ERROR: Prediction failed: %v", err)
	}

	log.Printf("Context: lga=%s, period=%s, day=%s, holiday=%v, weather=%s\n",
		obs.LGA, obs.TimePeriod, obs.DayOfWeek, obs.IsHoliday, obs.WeatherCondition)
	log.Println("Predicted crime types:")
	for i, pred := range ranked {
		log.Printf("  %d. %-15s %.1f%%\n", i+1, pred.CrimeType, pred.Confidence*100)
	}
}
