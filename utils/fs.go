package utils

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// CreateFolder creates dir (and parents) if it does not already exist.
func CreateFolder(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// GenerateRunID returns a unique identifier for one monitoring run. Event
// records persisted by the store are grouped under this id.
func GenerateRunID() string {
	return uuid.NewString()
}
