package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/ltilab/internal/config"
	"github.com/san-kum/ltilab/internal/response"
)

const (
	configFile   = "config.yaml"
	metaFile     = "metadata.json"
	responseFile = "response.csv"
	bodeFile     = "bode.csv"
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
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	System     string             `json:"system"`
	Timestamp  time.Time          `json:"timestamp"`
	Integrator string             `json:"integrator"`
	Input      string             `json:"input"`
	ClosedLoop bool               `json:"closed_loop"`
	Stable     bool               `json:"stable"`
	Poles      []response.Root    `json:"poles"`
	Zeros      []response.Root    `json:"zeros"`
	StepInfo   map[string]float64 `json:"step_info,omitempty"`
	Margins    response.Margins   `json:"margins"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// Save writes a run directory holding the config, a metadata summary, the
// time response and the Bode arrays.
func (s *Store) Save(name string, cfg config.Config, r *response.Report) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", sanitize(name), now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), &cfg); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Name:       name,
		System:     r.Name,
		Timestamp:  now,
		Integrator: cfg.Options().Integrator,
		Input:      r.Input,
		ClosedLoop: r.ClosedLoop,
		Stable:     r.Stable,
		Poles:      r.Poles,
		Zeros:      r.Zeros,
		Margins:    r.Margins,
	}
	if r.StepInfo != nil {
		meta.StepInfo = r.StepInfo.AsMap()
	}
	if r.Time != nil {
		meta.Metrics = r.Time.Metrics
	}

	if err := writeFile(filepath.Join(runDir, metaFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(runDir, responseFile), func(w io.Writer) error {
		return WriteResponseCSV(w, r.Time)
	}); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(runDir, bodeFile), func(w io.Writer) error {
		return WriteBodeCSV(w, r.Frequency)
	}); err != nil {
		return "", err
	}

	return runID, nil
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func sanitize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "run"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '+':
			return r
		}
		return '-'
	}, name)
}

// List returns the stored runs, oldest first. Directories without readable
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metaFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

func (s *Store) LoadResponse(runID string) (*response.TimeResult, error) {
	cols, err := readColumns(filepath.Join(s.baseDir, runID, responseFile), 3)
	if err != nil {
		return nil, err
	}
	return &response.TimeResult{Times: cols[0], Inputs: cols[1], Outputs: cols[2]}, nil
}

func (s *Store) LoadBode(runID string) (*response.FrequencyResult, error) {
	cols, err := readColumns(filepath.Join(s.baseDir, runID, bodeFile), 3)
	if err != nil {
		return nil, err
	}
	return &response.FrequencyResult{Omega: cols[0], MagnitudeDB: cols[1], PhaseDeg: cols[2]}, nil
}

func readColumns(path string, n int) ([][]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = n

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	cols := make([][]float64, n)
	for i := range cols {
		cols[i] = make([]float64, 0, len(records))
	}
	for i, record := range records {
		if i == 0 {
			continue
		}
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", filepath.Base(path), i+1, err)
			}
			cols[j] = append(cols[j], v)
		}
	}
	return cols, nil
}
