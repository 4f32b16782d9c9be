package storage

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/pfrederiksen/city-events/internal/event"
)

// Storage handles persistence of record snapshots
type Storage struct {
	dataDir string
	now     func() time.Time
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if dataDir == "~" || strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, strings.TrimPrefix(dataDir[1:], "/"))
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
		now:     time.Now,
	}, nil
}

// Dir returns the resolved data directory.
func (s *Storage) Dir() string {
	return s.dataDir
}

// SnapshotPath returns the path to the snapshot file for a profile and city
func (s *Storage) SnapshotPath(profileName, city string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("snapshot_%s_%s.json", fileKey(profileName), fileKey(city)))
}

// fileKey lower-cases s and replaces anything but letters, digits and
// combining marks with '-'. Input with none of those gets a short hash so
// distinct names never share a file.
func fileKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "all"
	}
	key := strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsMark(r)
	}), "-")
	if key == "" {
		sum := sha1.Sum([]byte(s))
		return "x" + hex.EncodeToString(sum[:4])
	}
	return key
}
