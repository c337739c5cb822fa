package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type sourcedReport struct {
	Source string `json:"source" yaml:"source"`
	Report any    `json:"report" yaml:"report"`
}

// payload returns the report itself for a single file and a list of
// source/report pairs otherwise.
func payload(reports []FileReport) any {
	if len(reports) == 1 {
		return reports[0].Report
	}
	out := make([]sourcedReport, 0, len(reports))
	for _, fr := range reports {
		out = append(out, sourcedReport{Source: fr.Source, Report: fr.Report})
	}
	return out
}

// WriteJSON writes reports as indented JSON.
func WriteJSON(w io.Writer, reports []FileReport) error {
	return EncodeJSON(w, payload(reports))
}

// WriteYAML writes reports as YAML.
func WriteYAML(w io.Writer, reports []FileReport) error {
	return EncodeYAML(w, payload(reports))
}

// EncodeJSON writes any analysis result as indented JSON.
func EncodeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// EncodeYAML writes any analysis result as YAML.
func EncodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write yaml report: %w", err)
	}
	return enc.Close()
}

// WriteFile creates path and fills it with write. A failed close is
// reported, so a short write never passes silently.
func WriteFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report %s: %w", path, err)
	}
	return nil
}
