package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/riverclinic/ubscare/pkg/types"
)

// JSONRenderer writes the assembled record as a JSON document into the
// export directory. PDF layout belongs to the reporting collaborator; this
// renderer is the handoff format it consumes.
type JSONRenderer struct {
	dir string
}

// NewJSONRenderer creates a renderer writing into dir.
func NewJSONRenderer(dir string) (*JSONRenderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	return &JSONRenderer{dir: dir}, nil
}

var _ Renderer = (*JSONRenderer)(nil)

type exportDocument struct {
	Patient     *types.Patient       `json:"patient"`
	GeneratedAt string               `json:"generated_at"`
	History     []types.HistoryEntry `json:"history"`
}

// Render writes the document and returns its path.
func (r *JSONRenderer) Render(patient *types.Patient, history []types.HistoryEntry) (string, error) {
	doc := exportDocument{
		Patient:     patient,
		GeneratedAt: types.NowISO(),
		History:     history,
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("prontuario_%s_%s.json", patient.ID, time.Now().Format("20060102_150405"))
	path := filepath.Join(r.dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
