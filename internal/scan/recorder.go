package scan

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Failure describes one lookup that did not produce an owner.
type Failure struct {
	RunID    string    `json:"run_id"`
	Contract string    `json:"contract"`
	TokenID  uint64    `json:"token_id"`
	Error    string    `json:"error"`
	At       time.Time `json:"at"`
}

// FailureRecorder captures failed lookups for later inspection.
type FailureRecorder interface {
	Record(Failure)
}

// JSONLRecorder appends failures as JSON lines so a later run can target the gaps.
type JSONLRecorder struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	log  zerolog.Logger
}

// NewJSONLRecorder creates/opens the target file and returns a recorder.
// Write errors are reported on log.
func NewJSONLRecorder(path string, log zerolog.Logger) (*JSONLRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLRecorder{
		file: file,
		enc:  json.NewEncoder(file),
		log:  log.With().Str("path", path).Logger(),
	}, nil
}

// Record writes a single failure; lookups settle concurrently so writes are serialized.
func (r *JSONLRecorder) Record(f Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return
	}
	if err := r.enc.Encode(f); err != nil {
		r.log.Error().Err(err).Uint64("token_id", f.TokenID).Msg("failed to record lookup failure")
	}
}

// Close flushes and closes the file handle.
func (r *JSONLRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
