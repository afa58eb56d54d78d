// Package transcript writes per-session turn records to disk. Records are a
// debugging and audit aid; the advisor core never reads them back.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agrosense/agrosense/pkg/advisor"
	"github.com/agrosense/agrosense/pkg/catalog"
	"github.com/agrosense/agrosense/pkg/scoring"
)

// TurnRecord captures everything the advisor decided in one turn.
type TurnRecord struct {
	Turn           int                `json:"turn"`
	Timestamp      time.Time          `json:"timestamp"`
	Query          string             `json:"query"`
	Parameters     advisor.Parameters `json:"parameters"`
	MissingFields  []catalog.Key      `json:"missing_fields,omitempty"`
	NeedsMoreInfo  bool               `json:"needs_more_info"`
	Candidates     []scoring.Result   `json:"candidates,omitempty"`
	Answer         string             `json:"answer"`
	DurationMillis int64              `json:"duration_ms"`
}

// Recorder writes turn records for one session under baseDir/sessionID.
type Recorder struct {
	sessionDir string
	turn       int
}

// NewRecorder creates the session directory and returns a recorder.
func NewRecorder(baseDir, sessionID string) (*Recorder, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("transcript base directory is required")
	}
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	sessionDir := filepath.Join(baseDir, sessionID)
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &Recorder{sessionDir: sessionDir}, nil
}

// SessionDir returns the directory turn records are written to.
func (r *Recorder) SessionDir() string {
	return r.sessionDir
}

// RecordTurn assigns the next turn number and writes the record as
// turn-<n>.json.
func (r *Recorder) RecordTurn(record TurnRecord) error {
	r.turn++
	record.Turn = r.turn
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	path := filepath.Join(r.sessionDir, fmt.Sprintf("turn-%03d.json", r.turn))
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode turn record: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write turn record: %w", err)
	}
	return nil
}

// FromState builds a record from a finished turn.
func FromState(state advisor.ConversationState, duration time.Duration) TurnRecord {
	return TurnRecord{
		Timestamp:      time.Now().UTC(),
		Query:          state.Query,
		Parameters:     state.Parameters,
		MissingFields:  state.MissingFields,
		NeedsMoreInfo:  state.NeedsMoreInfo,
		Candidates:     state.CandidateResults,
		Answer:         state.Answer,
		DurationMillis: duration.Milliseconds(),
	}
}
