// Package storage persists simulation runs as flat files: one
// directory per run with metadata.json and transforms.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
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
	ID        string             `json:"id"`
	Scenario  string             `json:"scenario"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	StepDt    float64            `json:"step_dt"`
	Duration  float64            `json:"duration"`
	Ticks     int                `json:"ticks"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Frame is one body pose at one tick.
type Frame struct {
	Tick  int
	Time  float64
	Body  int
	X     float64
	Y     float64
	Z     float64
	Speed float64
	State string
}

// Save writes a run directory and returns the run ID.
func (s *Store) Save(meta RunMetadata, frames []Frame) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Scenario, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "transforms.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	header := []string{"tick", "time", "body", "x", "y", "z", "speed", "state"}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, f := range frames {
		row := []string{
			strconv.Itoa(f.Tick),
			strconv.FormatFloat(f.Time, 'f', 6, 64),
			strconv.Itoa(f.Body),
			strconv.FormatFloat(f.X, 'f', 6, 64),
			strconv.FormatFloat(f.Y, 'f', 6, 64),
			strconv.FormatFloat(f.Z, 'f', 6, 64),
			strconv.FormatFloat(f.Speed, 'f', 6, 64),
			f.State,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

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
	return runs, nil
}

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

// LoadFrames reads back the per-body pose rows of a run.
func (s *Store) LoadFrames(runID string) ([]Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "transforms.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Frame{}, nil
	}

	frames := make([]Frame, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < 8 {
			continue
		}
		tick, err := strconv.Atoi(rec[0])
		if err != nil {
			continue
		}
		t, _ := strconv.ParseFloat(rec[1], 64)
		bodyIdx, _ := strconv.Atoi(rec[2])
		x, _ := strconv.ParseFloat(rec[3], 64)
		y, _ := strconv.ParseFloat(rec[4], 64)
		z, _ := strconv.ParseFloat(rec[5], 64)
		speed, _ := strconv.ParseFloat(rec[6], 64)
		frames = append(frames, Frame{
			Tick: tick, Time: t, Body: bodyIdx,
			X: x, Y: y, Z: z, Speed: speed, State: rec[7],
		})
	}
	return frames, nil
}
