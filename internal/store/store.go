// Package store persists completed runs under a base directory, one
// subdirectory per run holding metadata.json, the stage populations and the
// resampled diagnostic series as CSV. It also provides the JSON forms of
// sweep and probe results used for file export and cache payloads.
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"coronal/internal/integrate"
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

// RunMetadata describes one persisted run.
type RunMetadata struct {
	ID         string    `json:"id"`
	Species    string    `json:"species"`
	Method     string    `json:"method"`
	Te         float64   `json:"te"`
	Ne         float64   `json:"ne"`
	RefuelRate float64   `json:"refuel_rate"`
	Tolerance  float64   `json:"tolerance"`
	Points     int       `json:"points"`
	Evals      int       `json:"evals"`
	Timestamp  time.Time `json:"timestamp"`
}

// SaveRun writes one run to a fresh directory and returns its generated ID.
func (s *Store) SaveRun(meta RunMetadata, result *integrate.Result) (string, error) {
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%s", meta.Species, uuid.NewString())
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}
	meta.Points = len(result.Times)
	meta.Evals = result.Evals

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := s.writeStates(filepath.Join(runDir, "states.csv"), result); err != nil {
		return "", err
	}
	if err := s.writeSeries(filepath.Join(runDir, "series.csv"), result); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeStates emits time, the stage populations and the per-point
// integration accounting.
func (s *Store) writeStates(path string, result *integrate.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if len(result.States) == 0 {
		return nil
	}

	header := []string{"time"}
	for k := range result.States[0] {
		header = append(header, fmt.Sprintf("n%d", k))
	}
	header = append(header, "evals", "t_internal")
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range result.States {
		row := []string{formatFloat(result.Times[i])}
		for _, v := range result.States[i] {
			row = append(row, formatFloat(v))
		}
		row = append(row,
			strconv.Itoa(result.Accounting.EvalCount[i]),
			formatFloat(result.Accounting.InternalTime[i]))
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// writeSeries emits the resampled diagnostic channels, vector channels as
// one indexed column per component.
func (s *Store) writeSeries(path string, result *integrate.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	series := result.Series
	if series == nil || len(series.Times) == 0 {
		return nil
	}

	names := series.Channels()
	header := []string{"time"}
	for _, name := range names {
		if _, ok := series.Scalar[name]; ok {
			header = append(header, name)
			continue
		}
		_, width := series.Vector[name].Dims()
		for k := 0; k < width; k++ {
			header = append(header, fmt.Sprintf("%s_%d", name, k))
		}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range series.Times {
		row := []string{formatFloat(series.Times[i])}
		for _, name := range names {
			if col, ok := series.Scalar[name]; ok {
				row = append(row, formatFloat(col[i]))
				continue
			}
			m := series.Vector[name]
			_, width := m.Dims()
			for k := 0; k < width; k++ {
				row = append(row, formatFloat(m.At(i, k)))
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// formatFloat keeps densities spanning fifty decades round-trip exact.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns the metadata of every stored run, newest first.
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
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

// Load returns the metadata of one stored run.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadStates reads back the stage populations of a stored run.
func (s *Store) LoadStates(runID string) (times []float64, states [][]float64, err error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []float64{}, [][]float64{}, nil
	}

	// Stage columns sit between the time column and the two accounting
	// columns.
	stages := len(records[0]) - 3
	if stages < 1 {
		return nil, nil, fmt.Errorf("store: malformed states header in run %s", runID)
	}

	for _, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, err
		}
		state := make([]float64, stages)
		for k := 0; k < stages; k++ {
			v, err := strconv.ParseFloat(record[1+k], 64)
			if err != nil {
				return nil, nil, err
			}
			state[k] = v
		}
		times = append(times, t)
		states = append(states, state)
	}
	return times, states, nil
}
