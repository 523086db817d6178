package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/ltilab/internal/response"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteResponseCSV writes t,u,y rows with a header.
func WriteResponseCSV(w io.Writer, tr *response.TimeResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"t", "u", "y"}); err != nil {
		return err
	}
	if tr != nil {
		for i := range tr.Times {
			row := []string{formatFloat(tr.Times[i]), formatFloat(tr.Inputs[i]), formatFloat(tr.Outputs[i])}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBodeCSV writes omega,magnitude_db,phase_deg rows with a header. A zero
// response is written as -Inf dB.
func WriteBodeCSV(w io.Writer, f *response.FrequencyResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"omega", "magnitude_db", "phase_deg"}); err != nil {
		return err
	}
	if f != nil {
		for i := range f.Omega {
			row := []string{formatFloat(f.Omega[i]), formatFloat(f.MagnitudeDB[i]), formatFloat(f.PhaseDeg[i])}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportJSON writes the full report, indented.
func ExportJSON(w io.Writer, r *response.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}
