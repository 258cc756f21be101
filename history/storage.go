package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"crimewatch/models"
	"crimewatch/utils"
)

var (
	predictionsFile = "predictions.json"
	mu              sync.RWMutex
)

// loadPredictionsInternal loads all stored predictions from the JSON file (without lock)
func loadPredictionsInternal() ([]models.PredictionRecord, error) {
	filePath := filepath.Join("storage", predictionsFile)

	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		// Return empty slice if file doesn't exist
		return []models.PredictionRecord{}, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading predictions file: %v", err)
	}

	if len(data) == 0 {
		return []models.PredictionRecord{}, nil
	}

	var records []models.PredictionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("error unmarshaling predictions: %v", err)
	}

	return records, nil
}

// LoadPredictions loads all stored predictions from the JSON file
func LoadPredictions() ([]models.PredictionRecord, error) {
	mu.RLock()
	defer mu.RUnlock()
	return loadPredictionsInternal()
}

// SavePrediction appends a new prediction record to the JSON file
func SavePrediction(record *models.PredictionRecord) error {
	mu.Lock()
	defer mu.Unlock()

	// Load existing records (without lock since we already have write lock)
	records, err := loadPredictionsInternal()
	if err != nil {
		return err
	}

	// Set ID and timestamp if not set
	if record.ID == 0 {
		record.ID = time.Now().UnixNano()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	// Append new record
	records = append(records, *record)

	// Ensure directory exists
	filePath := filepath.Join("storage", predictionsFile)
	dir := filepath.Dir(filePath)
	if dir != "." && dir != "" {
		if err := utils.CreateFolder(dir); err != nil {
			return fmt.Errorf("error creating directory: %v", err)
		}
	}

	// Write back to file
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling predictions: %v", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("error writing predictions file: %v", err)
	}

	return nil
}
