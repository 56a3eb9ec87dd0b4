package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/claude/kinetic/internal/models"
)

type startRequest struct {
	ProgramID    string      `json:"programId"`
	WorkoutIndex *int        `json:"workoutIndex"`
	Date         models.Date `json:"date"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Current(ns(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProgramID == "" || req.WorkoutIndex == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "programId and workoutIndex are required"})
		return
	}

	program, err := s.store.GetProgram(r.Context(), ns(r), req.ProgramID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess, err := s.sessions.Start(ns(r), *program, *req.WorkoutIndex, req.Date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleDiscardSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Discard(ns(r)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// optionalNumber tells an omitted field apart from an explicit null or
// blank. Numeric strings are accepted since form inputs send them.
type optionalNumber struct {
	Set   bool
	Value *float64
}

func (n *optionalNumber) UnmarshalJSON(data []byte) error {
	n.Set = true
	n.Value = nil
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		n.Value = &f
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
		n.Value = &f
	}
	return nil
}

type setRequest struct {
	Status models.SetStatus `json:"status"`
	Weight optionalNumber   `json:"weight"`
	Reps   optionalNumber   `json:"reps"`
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	ex, err1 := strconv.Atoi(chi.URLParam(r, "ex"))
	set, err2 := strconv.Atoi(chi.URLParam(r, "set"))
	if err1 != nil || err2 != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise and set must be integers"})
		return
	}
	var req setRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" && !req.Weight.Set && !req.Reps.Set {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status, weight or reps required"})
		return
	}

	id := ns(r)
	sess, err := s.sessions.Current(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if req.Status != "" {
		if sess, err = s.sessions.SetStatus(id, ex, set, req.Status); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.Weight.Set || req.Reps.Set {
		var weight, reps *float64
		if ex >= 0 && ex < len(sess.Workout.Exercises) {
			perf := sess.Workout.Exercises[ex].Performance
			if set >= 0 && set < len(perf) {
				weight, reps = perf[set].Weight, perf[set].Reps
			}
		}
		if req.Weight.Set {
			weight = req.Weight.Value
		}
		if req.Reps.Set {
			reps = req.Reps.Value
		}
		if sess, err = s.sessions.RecordSet(id, ex, set, weight, reps); err != nil {
			s.writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, sess)
}

type metricRequest struct {
	MetricValue string `json:"metricValue"`
	MetricUnit  string `json:"metricUnit"`
}

func (s *Server) handleEditMetric(w http.ResponseWriter, r *http.Request) {
	ex, err := strconv.Atoi(chi.URLParam(r, "ex"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise must be an integer"})
		return
	}
	var req metricRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	unit, err := models.ParseMetricUnit(req.MetricUnit)
	if err != nil {
		unit = models.MetricUnit(req.MetricUnit)
	}
	sess, err := s.sessions.EditMetric(ns(r), ex, strings.TrimSpace(req.MetricValue), unit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Finish(ns(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Resume(ns(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type feedbackRequest struct {
	Intensity int    `json:"intensity"`
	Notes     string `json:"notes"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	saved, err := s.sessions.SubmitFeedback(r.Context(), ns(r), req.Intensity, req.Notes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.CounterWorkoutsCompleted.Inc()
	}
	writeJSON(w, http.StatusCreated, saved)
}
