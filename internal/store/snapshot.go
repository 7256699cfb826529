package store

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/studylog/learning-tracker/internal/domain/badge"
	"github.com/studylog/learning-tracker/internal/domain/calendar"
	"github.com/studylog/learning-tracker/internal/domain/goal"
	"github.com/studylog/learning-tracker/internal/domain/progress"
)

// Snapshot is a point-in-time copy of all four collections. Computations
// take a Snapshot and never observe later writes to the Store.
type Snapshot struct {
	Goals   []goal.Goal      `json:"goals"`
	Entries []progress.Entry `json:"entries"`
	Events  []calendar.Event `json:"events"`
	Badges  []badge.Badge    `json:"badges"`
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Goals:   append([]goal.Goal(nil), s.Goals...),
		Entries: append([]progress.Entry(nil), s.Entries...),
		Events:  append([]calendar.Event(nil), s.Events...),
		Badges:  badge.CloneAll(s.Badges),
	}
}

// IsEmpty reports whether the snapshot holds no goals, entries or events.
// Badges are derived and do not count.
func (s Snapshot) IsEmpty() bool {
	return len(s.Goals) == 0 && len(s.Entries) == 0 && len(s.Events) == 0
}

// Fingerprint returns a BLAKE2b-256 digest of the snapshot contents.
// Equal snapshots yield equal fingerprints, so it keys derived-data caches.
func (s Snapshot) Fingerprint() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("store: fingerprint: %w", err)
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
