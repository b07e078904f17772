package db

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"shm-monitor/stream"
	"shm-monitor/utils"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

// SQLiteStore persists event records and accuracy points in a local SQLite
// database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) the database at the given DSN.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	// Extract the file path before query parameters
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}

	dbDir := filepath.Dir(dbPath)
	if dbDir != "." && dbDir != "" {
		if err := utils.CreateFolder(dbDir); err != nil {
			return nil, fmt.Errorf("error creating database directory: %s", err)
		}
	}

	// Add busy timeout param to DSN (milliseconds)
	if !strings.Contains(dataSourceName, "_busy_timeout") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_busy_timeout=5000"
		} else {
			dataSourceName += "?_busy_timeout=5000"
		}
	}

	database, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %s", err)
	}

	if err := createTables(database); err != nil {
		return nil, fmt.Errorf("error creating tables: %s", err)
	}

	return &SQLiteStore{db: database}, nil
}

func createTables(database *sql.DB) error {
	createEventsTable := `
    CREATE TABLE IF NOT EXISTS events (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT NOT NULL,
        seq INTEGER NOT NULL,
        rms REAL NOT NULL,
        predicted TEXT NOT NULL,
        actual TEXT NOT NULL,
        scored INTEGER NOT NULL DEFAULT 0,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        UNIQUE (run_id, seq)
    );
    CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id);
    `

	createTrendTable := `
    CREATE TABLE IF NOT EXISTS accuracy_trend (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT NOT NULL,
        seq INTEGER NOT NULL,
        accuracy REAL NOT NULL,
        UNIQUE (run_id, seq)
    );
    CREATE INDEX IF NOT EXISTS idx_trend_run ON accuracy_trend(run_id);
    `

	if _, err := database.Exec(createEventsTable); err != nil {
		return fmt.Errorf("error creating events table: %s", err)
	}
	if _, err := database.Exec(createTrendTable); err != nil {
		return fmt.Errorf("error creating accuracy_trend table: %s", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StoreEvent inserts one event record for the run.
func (s *SQLiteStore) StoreEvent(runID string, record stream.EventRecord) error {
	scoredInt := 0
	if record.Scored {
		scoredInt = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO events (run_id, seq, rms, predicted, actual, scored)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, record.Seq, record.RMS, record.Predicted, record.Actual, scoredInt,
	)
	if err != nil {
		return fmt.Errorf("error storing event: %s", err)
	}
	return nil
}

// StoreAccuracyPoint inserts one accuracy trend point for the run.
func (s *SQLiteStore) StoreAccuracyPoint(runID string, point stream.AccuracyPoint) error {
	_, err := s.db.Exec(`
		INSERT INTO accuracy_trend (run_id, seq, accuracy)
		VALUES (?, ?, ?)`,
		runID, point.Seq, point.Accuracy,
	)
	if err != nil {
		return fmt.Errorf("error storing accuracy point: %s", err)
	}
	return nil
}

// EventsForRun returns all event records of a run in sequence order.
func (s *SQLiteStore) EventsForRun(runID string) ([]stream.EventRecord, error) {
	rows, err := s.db.Query(`
		SELECT seq, rms, predicted, actual, scored
		FROM events
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("error querying events: %s", err)
	}
	defer rows.Close()

	var records []stream.EventRecord
	for rows.Next() {
		var record stream.EventRecord
		var scoredInt int
		if err := rows.Scan(&record.Seq, &record.RMS, &record.Predicted, &record.Actual, &scoredInt); err != nil {
			return nil, fmt.Errorf("error scanning event: %s", err)
		}
		record.Scored = scoredInt == 1
		records = append(records, record)
	}
	return records, rows.Err()
}

// TrendForRun returns the accuracy trend of a run in sequence order.
func (s *SQLiteStore) TrendForRun(runID string) ([]stream.AccuracyPoint, error) {
	rows, err := s.db.Query(`
		SELECT seq, accuracy
		FROM accuracy_trend
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("error querying accuracy trend: %s", err)
	}
	defer rows.Close()

	var points []stream.AccuracyPoint
	for rows.Next() {
		var point stream.AccuracyPoint
		if err := rows.Scan(&point.Seq, &point.Accuracy); err != nil {
			return nil, fmt.Errorf("error scanning accuracy point: %s", err)
		}
		points = append(points, point)
	}
	return points, rows.Err()
}
