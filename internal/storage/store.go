package storage

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/duffsim/internal/engine"
	"github.com/san-kum/duffsim/internal/trajectory"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.dat"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string              `json:"id"`
	Timestamp  time.Time           `json:"timestamp"`
	Preset     string              `json:"preset,omitempty"`
	Integrator string              `json:"integrator"`
	Parameters engine.Parameters   `json:"parameters"`
	Initial    engine.InitialState `json:"initial"`
	Steps      int                 `json:"steps"`
	Metrics    map[string]float64  `json:"metrics"`
}

// Duration is the simulated time covered by the run.
func (m RunMetadata) Duration() float64 {
	return float64(m.Steps) * m.Parameters.StepSize
}

// Save writes the run metadata and its trajectory in the text format and
// returns the new run id. Non-finite metric values are dropped because JSON
// cannot encode them.
func (s *Store) Save(meta RunMetadata, samples []engine.Sample) (string, error) {
	meta.ID = "duffing_" + uuid.NewString()
	meta.Timestamp = time.Now()
	meta.Steps = len(samples)
	meta.Metrics = finiteOnly(meta.Metrics)

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}

	if err := WriteTrajectoryFile(filepath.Join(runDir, trajectoryFile), samples, trajectory.TextOptions{}); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// WriteTrajectoryFile creates path and writes samples in the text format.
func WriteTrajectoryFile(path string, samples []engine.Sample, opts trajectory.TextOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := trajectory.WriteText(f, samples, opts); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ReadTrajectoryFile reads a text-format trajectory from path.
func ReadTrajectoryFile(path string) ([]engine.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	samples, err := trajectory.ReadText(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return samples, nil
}

func finiteOnly(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

// List returns stored runs, oldest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) TrajectoryPath(runID string) string {
	return filepath.Join(s.baseDir, runID, trajectoryFile)
}

func (s *Store) LoadTrajectory(runID string) ([]engine.Sample, error) {
	return ReadTrajectoryFile(s.TrajectoryPath(runID))
}
