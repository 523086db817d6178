package export

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/ltilab/internal/config"
	"github.com/san-kum/ltilab/internal/response"
	"github.com/san-kum/ltilab/internal/service"
)

func report(t *testing.T, cfg config.Config) *response.Report {
	t.Helper()
	r, err := service.New(nil, nil).Evaluate(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"out/step.png", "png", false},
		{"bode.SVG", "svg", false},
		{"plot.pdf", "pdf", false},
		{"plot.txt", "", true},
		{"plot", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := Format(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResponse_SVG(t *testing.T) {
	r := report(t, *config.GetPreset("underdamped"))
	var buf bytes.Buffer
	if err := Response(&buf, "svg", r.Time, r.StepInfo, "underdamped"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Error("expected svg document")
	}
}

func TestBode_PNG(t *testing.T) {
	r := report(t, *config.GetPreset("pid-loop"))
	var buf bytes.Buffer
	if err := Bode(&buf, "png", r.Frequency, "pid loop"); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("expected png signature")
	}
}

func TestBode_ZeroResponse(t *testing.T) {
	cfg := *config.DefaultConfig()
	cfg.Plant.K = 0
	r := report(t, cfg)
	if err := Bode(io.Discard, "svg", r.Frequency, "zero"); err != nil {
		t.Fatal(err)
	}
}

func TestPoleZero(t *testing.T) {
	r := report(t, *config.GetPreset("nonminimum-phase"))
	var buf bytes.Buffer
	if err := PoleZero(&buf, "svg", r.Poles, r.Zeros, "nmp"); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Error("empty output")
	}
}

func TestSaveFile(t *testing.T) {
	r := report(t, *config.DefaultConfig())
	path := filepath.Join(t.TempDir(), "plots", "step.png")

	err := SaveFile(path, func(w io.Writer, format string) error {
		return Response(w, format, r.Time, nil, "step")
	})
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("empty file")
	}

	if err := SaveFile(filepath.Join(t.TempDir(), "x.bmp"), nil); err == nil {
		t.Error("expected unsupported format error")
	}
}

func TestResponse_Empty(t *testing.T) {
	if err := Response(io.Discard, "svg", &response.TimeResult{}, nil, ""); err == nil {
		t.Error("expected error for empty response")
	}
}
