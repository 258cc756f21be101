package db

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"time"

	"crimewatch/crime"
	"crimewatch/models"
	"crimewatch/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoClient struct {
	client *mongo.Client
}

func NewMongoClient(uri string) (*MongoClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %s", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("error pinging MongoDB: %s", err)
	}

	return &MongoClient{client: client}, nil
}

func (m *MongoClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *MongoClient) predictions() *mongo.Collection {
	dbName := utils.GetEnv("DB_NAME", "crime")
	return m.client.Database(dbName).Collection("prediction")
}

// StorePrediction stores a prediction record in the prediction collection
func (m *MongoClient) StorePrediction(record *models.PredictionRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	if record.ID == 0 {
		record.ID = time.Now().UnixNano()
	}

	_, err := m.predictions().InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("error storing prediction: %s", err)
	}
	return nil
}

func (m *MongoClient) findPredictions(filter bson.M, limit int) ([]models.PredictionRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cursor, err := m.predictions().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying predictions: %s", err)
	}
	defer cursor.Close(ctx)

	var records []models.PredictionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("error decoding predictions: %s", err)
	}
	return records, nil
}

// GetRecentPredictions retrieves the newest predictions, most recent first
func (m *MongoClient) GetRecentPredictions(limit int) ([]models.PredictionRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	return m.findPredictions(bson.M{}, limit)
}

// areaFilter matches an LGA name case-insensitively. The name is user
// input; quoting it keeps regex metacharacters from altering the match.
func areaFilter(lga string) bson.M {
	pattern := fmt.Sprintf("^%s$", regexp.QuoteMeta(lga))
	return bson.M{"lga": bson.M{"$regex": pattern, "$options": "i"}}
}

// GetPredictionsByArea retrieves predictions for a single LGA
func (m *MongoClient) GetPredictionsByArea(lga string, limit int) ([]models.PredictionRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	return m.findPredictions(areaFilter(lga), limit)
}

// GetPredictionsByLocation retrieves predictions within a radius of a location
func (m *MongoClient) GetPredictionsByLocation(lat, lng float64, radiusKm float64) ([]models.PredictionRecord, error) {
	latDelta := radiusKm / 111.0
	lngDelta := radiusKm / (111.0 * math.Cos(lat*math.Pi/180.0))

	filter := bson.M{
		"latitude":  bson.M{"$gte": lat - latDelta, "$lte": lat + latDelta},
		"longitude": bson.M{"$gte": lng - lngDelta, "$lte": lng + lngDelta},
	}
	return m.findPredictions(filter, 0)
}

func (m *MongoClient) TotalPredictions() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := m.predictions().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("error counting predictions: %s", err)
	}
	return int(count), nil
}

// observationRow is the historical crime record layout in the data
// collection (one document per recorded incident).
type observationRow struct {
	CrimeType        string    `bson:"crime_type"`
	Location         string    `bson:"location"`
	LGA              string    `bson:"lga"`
	Latitude         float64   `bson:"latitude"`
	Longitude        float64   `bson:"longitude"`
	WeatherCondition string    `bson:"weather_condition"`
	DateTime         time.Time `bson:"date_time"`
}

// LoadObservations reads historical labeled observations from the data
// collection, for training straight from the hosted database instead of a
// CSV export. Rows without a label or timestamp are skipped; the second
// return value counts them.
func (m *MongoClient) LoadObservations(limit int) ([]crime.LabeledObservation, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	collection := utils.GetEnv("DB_DATA_COLLECTION", "crime_data")
	dbName := utils.GetEnv("DB_NAME", "crime")

	opts := options.Find()
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cursor, err := m.client.Database(dbName).Collection(collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying observations: %s", err)
	}
	defer cursor.Close(ctx)

	var samples []crime.LabeledObservation
	skipped := 0
	for cursor.Next(ctx) {
		var row observationRow
		if err := cursor.Decode(&row); err != nil {
			skipped++
			continue
		}
		if row.CrimeType == "" || row.DateTime.IsZero() {
			skipped++
			continue
		}

		samples = append(samples, crime.LabeledObservation{
			Observation: crime.Observation{
				Location:         row.Location,
				LGA:              row.LGA,
				Latitude:         row.Latitude,
				Longitude:        row.Longitude,
				WeatherCondition: row.WeatherCondition,
				Hour:             row.DateTime.Hour(),
				TimePeriod:       crime.DeriveTimePeriod(row.DateTime.Hour()),
				DayOfWeek:        crime.DeriveDayOfWeek(row.DateTime),
				IsHoliday:        crime.IsHoliday(row.DateTime),
			},
			CrimeType:  row.CrimeType,
			ObservedAt: row.DateTime,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, skipped, fmt.Errorf("error reading observations: %s", err)
	}

	return samples, skipped, nil
}

// DeleteCollection drops a collection from the database
func (m *MongoClient) DeleteCollection(collectionName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dbName := utils.GetEnv("DB_NAME", "crime")
	if err := m.client.Database(dbName).Collection(collectionName).Drop(ctx); err != nil {
		return fmt.Errorf("error deleting collection: %v", err)
	}
	return nil
}
