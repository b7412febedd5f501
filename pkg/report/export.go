// Package report renders analysis results: JSON exports on disk and
// lipgloss tables on the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const stampLayout = "20060102_150405"

// Envelope wraps every exported payload with the run that produced it.
type Envelope struct {
	RunID       uuid.UUID `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Kind        string    `json:"kind"`
	Data        any       `json:"data"`
}

// NewEnvelope stamps data with a fresh run id.
func NewEnvelope(kind string, data any) Envelope {
	return Envelope{RunID: uuid.New(), GeneratedAt: time.Now().UTC(), Kind: kind, Data: data}
}

// Filename is "<kind>_<YYYYMMDD_HHMMSS>.json".
func Filename(kind string, at time.Time) string {
	return fmt.Sprintf("%s_%s.json", kind, at.UTC().Format(stampLayout))
}

// ExportJSON writes data, wrapped in an Envelope, to dir and returns the path.
func ExportJSON(dir, kind string, data any) (string, error) {
	env := NewEnvelope(kind, data)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", kind, err)
	}
	path := filepath.Join(dir, Filename(kind, env.GeneratedAt))
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	log.Info().Str("path", path).Str("run_id", env.RunID.String()).Msg("report exported")
	return path, nil
}
