package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/ltilab/internal/config"
	"github.com/san-kum/ltilab/internal/response"
	"github.com/san-kum/ltilab/internal/service"
)

func evaluate(t *testing.T, cfg config.Config) *response.Report {
	t.Helper()
	r, err := service.New(nil, nil).Evaluate(context.Background(), cfg)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	return r
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := *config.GetPreset("pid-loop")
	report := evaluate(t, cfg)

	runID, err := st.Save("pid study", cfg, report)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "pid-study_") {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Name != "pid study" || meta.System != report.Name {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if !meta.ClosedLoop || !meta.Stable {
		t.Error("expected stable closed loop")
	}
	if len(meta.Poles) != 3 {
		t.Errorf("expected 3 poles, got %d", len(meta.Poles))
	}
	if meta.StepInfo["SteadyStateValue"] == 0 {
		t.Error("expected step info in metadata")
	}
	if meta.Integrator != "foh" {
		t.Errorf("expected integrator foh, got %s", meta.Integrator)
	}

	loaded, err := st.LoadConfig(runID)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if *loaded != cfg {
		t.Errorf("config mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}

	tr, err := st.LoadResponse(runID)
	if err != nil {
		t.Fatalf("load response failed: %v", err)
	}
	if tr.Len() != report.Time.Len() {
		t.Fatalf("expected %d samples, got %d", report.Time.Len(), tr.Len())
	}
	for i := range tr.Outputs {
		if tr.Outputs[i] != report.Time.Outputs[i] {
			t.Fatalf("sample %d: expected %g, got %g", i, report.Time.Outputs[i], tr.Outputs[i])
		}
	}

	fr, err := st.LoadBode(runID)
	if err != nil {
		t.Fatalf("load bode failed: %v", err)
	}
	if fr.Len() != 50 || fr.PhaseDeg[10] != report.Frequency.PhaseDeg[10] {
		t.Error("bode arrays did not round trip")
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	cfg := *config.DefaultConfig()
	report := evaluate(t, cfg)
	first, err := st.Save("a", cfg, report)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	second, err := st.Save("b", cfg, report)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	os.MkdirAll(filepath.Join(tmpDir, "stray"), 0755)

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first || runs[1].ID != second {
		t.Errorf("runs not in save order: %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	cfg := *config.DefaultConfig()
	runID, err := st.Save("test", cfg, evaluate(t, cfg))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"config.yaml", "metadata.json", "response.csv", "bode.csv"} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestWriteBodeCSV_ZeroResponse(t *testing.T) {
	f := &response.FrequencyResult{
		Omega:       []float64{0.1, 1},
		MagnitudeDB: []float64{math.Inf(-1), math.Inf(-1)},
		PhaseDeg:    []float64{0, 0},
	}
	var buf bytes.Buffer
	if err := WriteBodeCSV(&buf, f); err != nil {
		t.Fatal(err)
	}
	want := "omega,magnitude_db,phase_deg\n0.1,-Inf,0\n1,-Inf,0\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestWriteResponseCSV(t *testing.T) {
	tr := &response.TimeResult{
		Times:   []float64{0, 0.01},
		Inputs:  []float64{1, 1},
		Outputs: []float64{0, 0.00995016625083},
	}
	var buf bytes.Buffer
	if err := WriteResponseCSV(&buf, tr); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || lines[0] != "t,u,y" || lines[2] != "0.01,1,0.00995016625083" {
		t.Errorf("unexpected csv %q", buf.String())
	}
}

func TestExportJSON(t *testing.T) {
	cfg := *config.DefaultConfig()
	cfg.Plant.K = 0
	var buf bytes.Buffer
	if err := ExportJSON(&buf, evaluate(t, cfg)); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	for _, key := range []string{"poles", "time", "frequency", "margins"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing %q", key)
		}
	}
}
