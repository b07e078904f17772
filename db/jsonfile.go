package db

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"shm-monitor/stream"
	"shm-monitor/utils"
)

// JSONFileStore keeps one JSON document per run directory. A fallback for
// environments without SQLite or MongoDB; selected with DB_TYPE=json.
type JSONFileStore struct {
	mu  sync.RWMutex
	dir string
}

type runDocument struct {
	Events []stream.EventRecord   `json:"events"`
	Trend  []stream.AccuracyPoint `json:"trend"`
}

// NewJSONFileStore stores run documents under dir, creating it if needed.
func NewJSONFileStore(dir string) (*JSONFileStore, error) {
	if err := utils.CreateFolder(dir); err != nil {
		return nil, fmt.Errorf("error creating store directory: %v", err)
	}
	return &JSONFileStore{dir: dir}, nil
}

func (s *JSONFileStore) Close() error {
	return nil
}

func (s *JSONFileStore) runPath(runID string) string {
	return filepath.Join(s.dir, runID+".json")
}

// loadRun reads the run document; callers hold the appropriate lock.
func (s *JSONFileStore) loadRun(runID string) (runDocument, error) {
	var doc runDocument
	data, err := os.ReadFile(s.runPath(runID))
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("error reading run file: %v", err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("error unmarshaling run file: %v", err)
	}
	return doc, nil
}

// saveRun writes the document back atomically; callers hold the write lock.
func (s *JSONFileStore) saveRun(runID string, doc runDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling run file: %v", err)
	}

	path := s.runPath(runID)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("error writing run file: %v", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("error renaming run file: %v", err)
	}
	return nil
}

// StoreEvent appends one event record to the run document.
func (s *JSONFileStore) StoreEvent(runID string, record stream.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadRun(runID)
	if err != nil {
		return err
	}
	doc.Events = append(doc.Events, record)
	return s.saveRun(runID, doc)
}

// StoreAccuracyPoint appends one trend point to the run document.
func (s *JSONFileStore) StoreAccuracyPoint(runID string, point stream.AccuracyPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadRun(runID)
	if err != nil {
		return err
	}
	doc.Trend = append(doc.Trend, point)
	return s.saveRun(runID, doc)
}

// EventsForRun returns all event records of a run in stored order.
func (s *JSONFileStore) EventsForRun(runID string) ([]stream.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.loadRun(runID)
	if err != nil {
		return nil, err
	}
	return doc.Events, nil
}

// TrendForRun returns the accuracy trend of a run in stored order.
func (s *JSONFileStore) TrendForRun(runID string) ([]stream.AccuracyPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.loadRun(runID)
	if err != nil {
		return nil, err
	}
	return doc.Trend, nil
}
