package diag

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/Linkrw12/taiyaki/internal/version"
	"github.com/Linkrw12/taiyaki/pkg/ctc"
	"github.com/Linkrw12/taiyaki/pkg/lbf"
)

// Snapshot records why a batch was captured. It is stored both beside the
// batch as JSON and inside the batch file's manifest section, so a batch
// file found on its own still explains itself.
type Snapshot struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Version    string    `json:"version"`
	Topology   string    `json:"topology"`
	Batch      int       `json:"batch"`
	MeanLoss   float64   `json:"mean_loss"`
	Threshold  float64   `json:"threshold,omitempty"`
	Outliers   []int     `json:"outliers,omitempty"`
	Degenerate []int     `json:"degenerate,omitempty"`
}

// NewSnapshot builds a snapshot for one report.
func NewSnapshot(topo ctc.Topology, rep Report) Snapshot {
	s := Snapshot{
		ID:         "batch-" + uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Version:    version.String(),
		Topology:   topo.String(),
		Batch:      rep.Batch,
		MeanLoss:   rep.MeanLoss,
		Outliers:   rep.Outliers,
		Degenerate: rep.Degenerate,
	}
	if rep.Ready {
		s.Threshold = rep.Threshold
	}
	return s
}

// Dump writes the snapshot under dir as <id>.json and, when bf is non-nil,
// the batch as <id>.lbf with the snapshot as its manifest. It returns the
// paths written.
func Dump(dir string, s Snapshot, bf *lbf.BatchFile) (jsonPath, batchPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("snapshot dir: %w", err)
	}
	data, err := gojson.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encode snapshot: %w", err)
	}

	jsonPath = filepath.Join(dir, s.ID+".json")
	if err := os.WriteFile(jsonPath, append(data, '\n'), 0o644); err != nil {
		return "", "", fmt.Errorf("write snapshot: %w", err)
	}
	if bf == nil {
		return jsonPath, "", nil
	}

	withManifest := *bf
	withManifest.Manifest = data
	batchPath = filepath.Join(dir, s.ID+".lbf")
	if err := lbf.WriteBatchFile(batchPath, &withManifest); err != nil {
		return "", "", fmt.Errorf("write batch: %w", err)
	}
	return jsonPath, batchPath, nil
}

// LoadSnapshot reads a snapshot JSON file back.
func LoadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var s Snapshot
	if err := gojson.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}
