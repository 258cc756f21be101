package db

import (
	"fmt"

	"crimewatch/models"
	"crimewatch/utils"
)

// DBClient abstracts the prediction history store. Both the SQLite and the
// MongoDB client implement it; callers pick one through NewDBClient.
type DBClient interface {
	Close() error
	StorePrediction(record *models.PredictionRecord) error
	GetRecentPredictions(limit int) ([]models.PredictionRecord, error)
	GetPredictionsByArea(lga string, limit int) ([]models.PredictionRecord, error)
	GetPredictionsByLocation(lat, lng float64, radiusKm float64) ([]models.PredictionRecord, error)
	TotalPredictions() (int, error)
	DeleteCollection(collectionName string) error
}

// NewDBClient returns the store selected by DB_TYPE (sqlite or mongo).
func NewDBClient() (DBClient, error) {
	dbType := utils.GetEnv("DB_TYPE", "sqlite")

	switch dbType {
	case "sqlite":
		dsn := utils.GetEnv("SQLITE_DB_PATH", "storage/crimewatch.db")
		return NewSQLiteClient(dsn)
	case "mongo", "mongodb":
		uri := utils.GetEnv("DB_URI", "mongodb://localhost:27017")
		return NewMongoClient(uri)
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE value: %s", dbType)
	}
}
