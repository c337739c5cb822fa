package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/ppiankov/taskgraph/internal/task"
)

const reportIDHeader = "X-Report-ID"

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readTasks decodes a {"tasks": [...]} body and rejects empty or repeated
// ids and durations above task.MaxHours.
func (s *Server) readTasks(w http.ResponseWriter, r *http.Request) ([]task.Task, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("max %d bytes: %w", tooLarge.Limit, ErrBodyTooLarge)
		}
		return nil, fmt.Errorf("read request body: %w", task.ErrInvalidInput)
	}

	tf, err := task.DecodeTasks(body)
	if err != nil {
		return nil, err
	}
	if err := task.CheckIDs(tf.Tasks); err != nil {
		return nil, err
	}
	if err := task.CheckHours(tf.Tasks); err != nil {
		return nil, err
	}
	return tf.Tasks, nil
}

// handleValidate handles POST /api/validate.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.readTasks(w, r)
	if err != nil {
		WriteError(w, err)
		return
	}

	report := task.Validate(tasks)

	if s.cfg.Store != nil {
		source := r.URL.Query().Get("source")
		if source == "" {
			source = "api"
		}
		id, err := s.cfg.Store.Save(r.Context(), source, report)
		if err != nil {
			WriteError(w, err)
			return
		}
		w.Header().Set(reportIDHeader, id)
	}

	writeJSON(w, http.StatusOK, report)
}

// handleCycles handles POST /api/cycles.
func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.readTasks(w, r)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task.DetectCycle(tasks))
}

// handleCriticalPath handles POST /api/critical-path.
func (s *Server) handleCriticalPath(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.readTasks(w, r)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task.CriticalPath(tasks))
}

// handleLevels handles POST /api/levels. With ?strict=true a cyclic graph
// is rejected with 422 instead of force-leveled.
func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.readTasks(w, r)
	if err != nil {
		WriteError(w, err)
		return
	}

	strict, _ := strconv.ParseBool(r.URL.Query().Get("strict"))
	if !strict {
		writeJSON(w, http.StatusOK, task.ParallelLevels(tasks))
		return
	}

	levels, err := task.ParallelLevelsStrict(tasks)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, levels)
}

// handleListReports handles GET /api/reports?limit=N.
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		WriteError(w, errHistoryDisabled)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			WriteError(w, fmt.Errorf("limit must be a non-negative integer: %w", task.ErrInvalidInput))
			return
		}
		limit = n
	}

	entries, err := s.cfg.Store.List(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleGetReport handles GET /api/reports/{id}.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		WriteError(w, errHistoryDisabled)
		return
	}

	entry, err := s.cfg.Store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
