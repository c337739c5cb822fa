package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/ppiankov/taskgraph/internal/task"
)

// hclTaskFile is the top-level structure of an HCL task file:
//
//	description = "checkout"
//
//	task "api" {
//	  title           = "Build API"
//	  dependencies    = ["schema"]
//	  estimated_hours = 6
//	}
type hclTaskFile struct {
	Description string     `hcl:"description,optional"`
	Tasks       []*hclTask `hcl:"task,block"`
}

type hclTask struct {
	ID             string   `hcl:"id,label"`
	Title          string   `hcl:"title,optional"`
	Description    string   `hcl:"description,optional"`
	Category       string   `hcl:"category,optional"`
	Priority       int      `hcl:"priority,optional"`
	Dependencies   []string `hcl:"dependencies,optional"`
	EstimatedHours *float64 `hcl:"estimated_hours,optional"`
	AmbiguityFlags []string `hcl:"ambiguity_flags,optional"`
}

func parseHCL(data []byte, name string) (*task.TaskFile, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, name)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s: %w", diags.Error(), task.ErrInvalidInput)
	}

	var parsed hclTaskFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("%s: %w", diags.Error(), task.ErrInvalidInput)
	}

	tf := &task.TaskFile{
		Description: parsed.Description,
		Tasks:       make([]task.Task, 0, len(parsed.Tasks)),
	}
	for _, ht := range parsed.Tasks {
		t := task.Task{
			ID:             ht.ID,
			Title:          ht.Title,
			Description:    ht.Description,
			Category:       ht.Category,
			Priority:       ht.Priority,
			Dependencies:   ht.Dependencies,
			AmbiguityFlags: ht.AmbiguityFlags,
		}
		if ht.EstimatedHours != nil {
			t.EstimatedHours = *ht.EstimatedHours
		}
		tf.Tasks = append(tf.Tasks, t)
	}
	tf.Tasks = task.Normalize(tf.Tasks)

	return tf, nil
}
