package db

import (
	"fmt"

	"shm-monitor/stream"
	"shm-monitor/utils"
)

// EventStore persists the streaming evaluator's output sequences, grouped by
// run id. The core loop does not depend on persistence; the server feeds the
// store after each processed window.
type EventStore interface {
	StoreEvent(runID string, record stream.EventRecord) error
	StoreAccuracyPoint(runID string, point stream.AccuracyPoint) error
	EventsForRun(runID string) ([]stream.EventRecord, error)
	TrendForRun(runID string) ([]stream.AccuracyPoint, error)
	Close() error
}

// NewEventStore selects a backing store from the DB_TYPE environment
// variable: "sqlite" (default), "mongo" or "json".
func NewEventStore() (EventStore, error) {
	dbType := utils.GetEnv("DB_TYPE", "sqlite")
	switch dbType {
	case "sqlite":
		return NewSQLiteStore(utils.GetEnv("SQLITE_DB_PATH", "storage/events.db"))
	case "mongo":
		return NewMongoStore(utils.GetEnv("MONGO_URI", "mongodb://localhost:27017"))
	case "json":
		return NewJSONFileStore(utils.GetEnv("JSON_STORE_DIR", "storage/runs"))
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE: %s", dbType)
	}
}
