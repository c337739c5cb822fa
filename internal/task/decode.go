package task

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// DecodeTasks parses a JSON task list leniently. The document may be a
// {"tasks": [...]} object or a bare array of task records.
//
// Loosely typed fields follow the default-substitution policy:
//   - dependencies may be a string, an array of strings, null or absent
//   - estimatedHours (or estimated_hours) that is not a number becomes 0
//   - unknown fields are ignored
//
// A non-string id or a non-string dependency entry is a caller contract
// violation and yields ErrInvalidInput.
func DecodeTasks(data []byte) (*TaskFile, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("malformed JSON: %w", ErrInvalidInput)
	}

	root := gjson.ParseBytes(data)
	tf := &TaskFile{}

	list := root
	if root.IsObject() {
		tf.Description = stringField(root, "description")
		list = root.Get("tasks")
		if !list.Exists() {
			return nil, fmt.Errorf("tasks is required: %w", ErrInvalidInput)
		}
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("tasks must be an array: %w", ErrInvalidInput)
	}

	var decodeErr error
	tf.Tasks = []Task{}
	list.ForEach(func(_, item gjson.Result) bool {
		t, err := decodeTask(len(tf.Tasks), item)
		if err != nil {
			decodeErr = err
			return false
		}
		tf.Tasks = append(tf.Tasks, t)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}

	return tf, nil
}

func decodeTask(i int, r gjson.Result) (Task, error) {
	if !r.IsObject() {
		return Task{}, fmt.Errorf("task %d is not an object: %w", i, ErrInvalidInput)
	}

	id := r.Get("id")
	if id.Type != gjson.String {
		return Task{}, fmt.Errorf("task %d: id must be a string: %w", i, ErrInvalidInput)
	}

	deps, err := decodeDependencies(r.Get("dependencies"))
	if err != nil {
		return Task{}, fmt.Errorf("task %q: %w", id.String(), err)
	}

	t := Task{
		ID:             id.String(),
		Title:          stringField(r, "title"),
		Description:    stringField(r, "description"),
		Category:       stringField(r, "category"),
		Dependencies:   deps,
		EstimatedHours: hoursField(r),
	}
	if p := r.Get("priority"); p.Type == gjson.Number {
		t.Priority = int(p.Int())
	}
	r.Get("ambiguityFlags").ForEach(func(_, f gjson.Result) bool {
		if f.Type == gjson.String {
			t.AmbiguityFlags = append(t.AmbiguityFlags, f.String())
		}
		return true
	})

	return t, nil
}

// decodeDependencies supports both string and array formats.
// String: "dependencies": "a" → []string{"a"}
// Array:  "dependencies": ["a", "b"] → []string{"a", "b"}
func decodeDependencies(r gjson.Result) ([]string, error) {
	deps := []string{}
	switch {
	case !r.Exists() || r.Type == gjson.Null:
		return deps, nil
	case r.Type == gjson.String:
		if s := r.String(); s != "" {
			deps = append(deps, s)
		}
		return deps, nil
	case r.IsArray():
		var err error
		r.ForEach(func(_, d gjson.Result) bool {
			if d.Type != gjson.String {
				err = fmt.Errorf("dependencies must be strings, got %s: %w", d.Raw, ErrInvalidInput)
				return false
			}
			deps = append(deps, d.String())
			return true
		})
		return deps, err
	default:
		return nil, fmt.Errorf("dependencies must be a string or an array: %w", ErrInvalidInput)
	}
}

func hoursField(r gjson.Result) float64 {
	h := r.Get("estimatedHours")
	if !h.Exists() {
		h = r.Get("estimated_hours")
	}
	if h.Type != gjson.Number {
		return 0
	}
	return NormalizeHours(h.Float())
}

func stringField(r gjson.Result, key string) string {
	v := r.Get(key)
	if v.Type != gjson.String {
		return ""
	}
	return v.String()
}
