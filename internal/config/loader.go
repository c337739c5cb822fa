package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/taskgraph/internal/task"
)

// Format identifies a task file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// FormatFromPath picks a format by file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".hcl":
		return FormatHCL
	default:
		return FormatJSON
	}
}

// Load reads and validates a task file. The format follows the extension.
func Load(path string) (*task.TaskFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tasks file: %w", err)
	}

	tf, err := Parse(data, FormatFromPath(path), path)
	if err != nil {
		return nil, fmt.Errorf("parse tasks file %s: %w", path, err)
	}
	return tf, nil
}

// Parse decodes task file contents. name is used in HCL diagnostics only.
func Parse(data []byte, format Format, name string) (*task.TaskFile, error) {
	var (
		tf  *task.TaskFile
		err error
	)
	switch format {
	case FormatYAML:
		tf, err = parseYAML(data)
	case FormatHCL:
		tf, err = parseHCL(data, name)
	default:
		tf, err = task.DecodeTasks(data)
	}
	if err != nil {
		return nil, err
	}

	if err := validate(tf); err != nil {
		return nil, err
	}
	return tf, nil
}

// parseYAML re-encodes the YAML document as JSON so both formats share
// one lenient decoder and one default-substitution policy.
func parseYAML(data []byte) (*task.TaskFile, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%v: %w", err, task.ErrInvalidInput)
	}
	if doc == nil {
		return nil, fmt.Errorf("empty document: %w", task.ErrInvalidInput)
	}

	js, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert YAML: %v: %w", err, task.ErrInvalidInput)
	}
	return task.DecodeTasks(js)
}

// validate checks for empty and duplicate ids and out-of-range hours.
// Dangling dependency references are left for the analyzer to report.
func validate(tf *task.TaskFile) error {
	if err := task.CheckIDs(tf.Tasks); err != nil {
		return err
	}
	return task.CheckHours(tf.Tasks)
}
