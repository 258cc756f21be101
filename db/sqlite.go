package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"crimewatch/models"
	"crimewatch/utils"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

type SQLiteClient struct {
	db *sql.DB
}

func NewSQLiteClient(dataSourceName string) (*SQLiteClient, error) {
	// Extract the file path before query parameters
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}

	// Create the directory if it doesn't exist (cross-platform)
	dbDir := filepath.Dir(dbPath)
	if dbDir != "." && dbDir != "" {
		if err := utils.CreateFolder(dbDir); err != nil {
			return nil, fmt.Errorf("error creating database directory: %s", err)
		}
	}

	// Add busy timeout param to DSN (milliseconds)
	if !strings.Contains(dataSourceName, "_busy_timeout") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_busy_timeout=5000" // 5 seconds
		} else {
			dataSourceName += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %s", err)
	}

	err = createTables(db)
	if err != nil {
		return nil, fmt.Errorf("error creating tables: %s", err)
	}

	return &SQLiteClient{db: db}, nil
}

// createTables creates the required tables if they don't exist
func createTables(db *sql.DB) error {
	createPredictionsTable := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        location TEXT,
        lga TEXT,
        latitude REAL,
        longitude REAL,
        geocoded INTEGER NOT NULL DEFAULT 0,
        weather TEXT,
        time_period TEXT,
        day_of_week TEXT,
        is_holiday INTEGER NOT NULL DEFAULT 0,
        crime_type TEXT NOT NULL,
        confidence REAL NOT NULL DEFAULT 0,
        latency_ms REAL NOT NULL DEFAULT 0,
        predictions TEXT NOT NULL,
        metadata TEXT
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_timestamp ON predictions(timestamp);
    CREATE INDEX IF NOT EXISTS idx_predictions_lga ON predictions(lga);
    CREATE INDEX IF NOT EXISTS idx_predictions_location ON predictions(latitude, longitude);
    `

	_, err := db.Exec(createPredictionsTable)
	if err != nil {
		return fmt.Errorf("error creating predictions table: %s", err)
	}

	return nil
}

func (db *SQLiteClient) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// StorePrediction stores a prediction record in the database
func (db *SQLiteClient) StorePrediction(record *models.PredictionRecord) error {
	predictionsJSON, err := json.Marshal(record.Predictions)
	if err != nil {
		return fmt.Errorf("error marshaling predictions: %s", err)
	}

	var metadataJSON *string
	if record.Metadata != nil {
		metadataBytes, err := json.Marshal(record.Metadata)
		if err != nil {
			return fmt.Errorf("error marshaling metadata: %s", err)
		}
		metadataStr := string(metadataBytes)
		metadataJSON = &metadataStr
	}

	geocodedInt := 0
	if record.Geocoded {
		geocodedInt = 1
	}
	holidayInt := 0
	if record.IsHoliday {
		holidayInt = 1
	}

	_, err = db.db.Exec(`
		INSERT INTO predictions (
			timestamp, location, lga, latitude, longitude, geocoded,
			weather, time_period, day_of_week, is_holiday, crime_type,
			confidence, latency_ms, predictions, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Timestamp,
		record.Location,
		record.LGA,
		record.Latitude,
		record.Longitude,
		geocodedInt,
		record.Weather,
		record.TimePeriod,
		record.DayOfWeek,
		holidayInt,
		record.CrimeType,
		record.Confidence,
		record.LatencyMs,
		string(predictionsJSON),
		metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("error storing prediction: %s", err)
	}
	return nil
}

const predictionColumns = `id, timestamp, location, lga, latitude, longitude, geocoded,
       weather, time_period, day_of_week, is_holiday, crime_type,
       confidence, latency_ms, predictions, metadata`

func (db *SQLiteClient) scanPredictions(rows *sql.Rows) ([]models.PredictionRecord, error) {
	var records []models.PredictionRecord
	for rows.Next() {
		var r models.PredictionRecord
		var geocodedInt, holidayInt int
		var predictionsJSON string
		var metadataJSON *string

		err := rows.Scan(
			&r.ID,
			&r.Timestamp,
			&r.Location,
			&r.LGA,
			&r.Latitude,
			&r.Longitude,
			&geocodedInt,
			&r.Weather,
			&r.TimePeriod,
			&r.DayOfWeek,
			&holidayInt,
			&r.CrimeType,
			&r.Confidence,
			&r.LatencyMs,
			&predictionsJSON,
			&metadataJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning prediction: %s", err)
		}

		r.Geocoded = geocodedInt == 1
		r.IsHoliday = holidayInt == 1
		r.Predictions = json.RawMessage(predictionsJSON)

		if metadataJSON != nil {
			err = json.Unmarshal([]byte(*metadataJSON), &r.Metadata)
			if err != nil {
				return nil, fmt.Errorf("error unmarshaling metadata: %s", err)
			}
		}

		records = append(records, r)
	}

	return records, nil
}

// GetRecentPredictions retrieves the newest predictions, most recent first
func (db *SQLiteClient) GetRecentPredictions(limit int) ([]models.PredictionRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.db.Query(fmt.Sprintf(`
		SELECT %s
		FROM predictions
		ORDER BY timestamp DESC
		LIMIT ?
	`, predictionColumns), limit)
	if err != nil {
		return nil, fmt.Errorf("error querying predictions: %s", err)
	}
	defer rows.Close()

	return db.scanPredictions(rows)
}

// GetPredictionsByArea retrieves predictions for a single LGA
func (db *SQLiteClient) GetPredictionsByArea(lga string, limit int) ([]models.PredictionRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.db.Query(fmt.Sprintf(`
		SELECT %s
		FROM predictions
		WHERE lga = ? COLLATE NOCASE
		ORDER BY timestamp DESC
		LIMIT ?
	`, predictionColumns), lga, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying predictions by area: %s", err)
	}
	defer rows.Close()

	return db.scanPredictions(rows)
}

// GetPredictionsByLocation retrieves predictions within a radius of a location
func (db *SQLiteClient) GetPredictionsByLocation(lat, lng float64, radiusKm float64) ([]models.PredictionRecord, error) {
	// Bounding-box approximation of the Haversine distance; adequate at
	// city scale.
	rows, err := db.db.Query(fmt.Sprintf(`
		SELECT %s
		FROM predictions
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		  AND ABS(latitude - ?) < ? AND ABS(longitude - ?) < ?
		ORDER BY timestamp DESC
	`, predictionColumns), lat, radiusKm/111.0, lng, radiusKm/(111.0*math.Cos(lat*math.Pi/180.0)))
	if err != nil {
		return nil, fmt.Errorf("error querying predictions by location: %s", err)
	}
	defer rows.Close()

	return db.scanPredictions(rows)
}

func (db *SQLiteClient) TotalPredictions() (int, error) {
	var count int
	err := db.db.QueryRow("SELECT COUNT(*) FROM predictions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting predictions: %s", err)
	}
	return count, nil
}

// DeleteCollection deletes a collection (table) from the database
func (db *SQLiteClient) DeleteCollection(collectionName string) error {
	_, err := db.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", collectionName))
	if err != nil {
		return fmt.Errorf("error deleting collection: %v", err)
	}
	return nil
}
