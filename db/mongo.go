package db

import (
	"context"
	"fmt"
	"time"

	"shm-monitor/stream"
	"shm-monitor/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists event records and accuracy points in MongoDB. Selected
// with DB_TYPE=mongo for deployments that already run a Mongo instance.
type MongoStore struct {
	client *mongo.Client
	dbName string
}

type eventDoc struct {
	RunID     string    `bson:"runId"`
	Seq       int       `bson:"seq"`
	RMS       float64   `bson:"rms"`
	Predicted string    `bson:"predicted"`
	Actual    string    `bson:"actual"`
	Scored    bool      `bson:"scored"`
	CreatedAt time.Time `bson:"createdAt"`
}

type trendDoc struct {
	RunID    string  `bson:"runId"`
	Seq      int     `bson:"seq"`
	Accuracy float64 `bson:"accuracy"`
}

// NewMongoStore connects to the given URI and verifies the connection.
func NewMongoStore(uri string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %s", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("error pinging MongoDB: %s", err)
	}

	return &MongoStore{
		client: client,
		dbName: utils.GetEnv("MONGO_DB_NAME", "shm-monitor"),
	}, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) events() *mongo.Collection {
	return s.client.Database(s.dbName).Collection("events")
}

func (s *MongoStore) trend() *mongo.Collection {
	return s.client.Database(s.dbName).Collection("accuracy_trend")
}

// StoreEvent inserts one event record for the run.
func (s *MongoStore) StoreEvent(runID string, record stream.EventRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.events().InsertOne(ctx, eventDoc{
		RunID:     runID,
		Seq:       record.Seq,
		RMS:       record.RMS,
		Predicted: record.Predicted,
		Actual:    record.Actual,
		Scored:    record.Scored,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("error storing event: %s", err)
	}
	return nil
}

// StoreAccuracyPoint inserts one accuracy trend point for the run.
func (s *MongoStore) StoreAccuracyPoint(runID string, point stream.AccuracyPoint) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.trend().InsertOne(ctx, trendDoc{
		RunID:    runID,
		Seq:      point.Seq,
		Accuracy: point.Accuracy,
	})
	if err != nil {
		return fmt.Errorf("error storing accuracy point: %s", err)
	}
	return nil
}

// EventsForRun returns all event records of a run in sequence order.
func (s *MongoStore) EventsForRun(runID string) ([]stream.EventRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := s.events().Find(ctx, bson.M{"runId": runID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying events: %s", err)
	}
	defer cursor.Close(ctx)

	var records []stream.EventRecord
	for cursor.Next(ctx) {
		var doc eventDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding event: %s", err)
		}
		records = append(records, stream.EventRecord{
			Seq:       doc.Seq,
			RMS:       doc.RMS,
			Predicted: doc.Predicted,
			Actual:    doc.Actual,
			Scored:    doc.Scored,
		})
	}
	return records, cursor.Err()
}

// TrendForRun returns the accuracy trend of a run in sequence order.
func (s *MongoStore) TrendForRun(runID string) ([]stream.AccuracyPoint, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := s.trend().Find(ctx, bson.M{"runId": runID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying accuracy trend: %s", err)
	}
	defer cursor.Close(ctx)

	var points []stream.AccuracyPoint
	for cursor.Next(ctx) {
		var doc trendDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding accuracy point: %s", err)
		}
		points = append(points, stream.AccuracyPoint{
			Seq:      doc.Seq,
			Accuracy: doc.Accuracy,
		})
	}
	return points, cursor.Err()
}
