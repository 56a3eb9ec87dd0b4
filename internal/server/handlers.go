package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/kinetic/internal/author"
	"github.com/claude/kinetic/internal/models"
	"github.com/claude/kinetic/internal/planner"
	"github.com/claude/kinetic/internal/session"
	"github.com/claude/kinetic/internal/storage"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProfile(r.Context(), ns(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var p models.Profile
	if !decodeJSON(w, r, &p) {
		return
	}
	saved, err := s.store.PutProfile(r.Context(), ns(r), p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := s.store.ListPrograms(r.Context(), ns(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, programs)
}

func (s *Server) handleCreateProgram(w http.ResponseWriter, r *http.Request) {
	var p models.Program
	if !decodeJSON(w, r, &p) {
		return
	}
	created, err := s.store.CreateProgram(r.Context(), ns(r), p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProgram(r.Context(), ns(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProgram(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProgram(r.Context(), ns(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProgramSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetProgram(r.Context(), ns(r), id); err != nil {
		s.writeError(w, err)
		return
	}
	entries, err := s.store.ScheduleForProgram(r.Context(), ns(r), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// scheduleRequest places a program. A missing startDate means today and
// missing weekdays mean Monday, Wednesday and Friday.
type scheduleRequest struct {
	StartDate models.Date        `json:"startDate"`
	Weekdays  planner.WeekdaySet `json:"weekdays"`
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.StartDate.IsZero() {
		req.StartDate = models.Today()
	}
	if req.Weekdays == nil {
		req.Weekdays = planner.DefaultWeekdays()
	}

	entries, err := s.scheduler.Schedule(r.Context(), ns(r), chi.URLParam(r, "id"), req.StartDate, req.Weekdays)
	if s.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		s.metrics.CounterSchedulePlacement.WithLabelValues(outcome).Inc()
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	today := models.Today()
	year, month := today.Year(), today.Month()
	if v := r.URL.Query().Get("month"); v != "" {
		t, err := time.Parse("2006-01", v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "month must be YYYY-MM"})
			return
		}
		year, month = t.Year(), t.Month()
	}

	view, err := s.scheduler.Month(r.Context(), ns(r), year, month, today)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	day, err := dateParam(r, "date")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	view, err := s.scheduler.Today(r.Context(), ns(r), day)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.store.ListHistory(r.Context(), ns(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleHistoryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.HistoryStats(r.Context(), ns(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	workout, err := s.store.GetWorkout(r.Context(), ns(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, session.ErrNoSession),
		errors.Is(err, session.ErrWorkoutNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSessionActive),
		errors.Is(err, session.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, storage.ErrInvalidProgram),
		errors.Is(err, storage.ErrInvalidProfile),
		errors.Is(err, planner.ErrEmptyProgram),
		errors.Is(err, planner.ErrNoWeekdays),
		errors.Is(err, planner.ErrInvalidDate),
		errors.Is(err, planner.ErrSafetyBound),
		errors.Is(err, session.ErrRestDay),
		errors.Is(err, session.ErrInvalidIntensity),
		errors.Is(err, session.ErrSetOutOfRange),
		errors.Is(err, session.ErrInvalidUnit),
		errors.Is(err, session.ErrInvalidStatus),
		errors.Is(err, author.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, author.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, author.ErrMalformed),
		errors.Is(err, author.ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// decodeJSON reads a JSON body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

// ns is the storage namespace of the caller.
func ns(r *http.Request) string {
	return userInfoFromContext(r).Login
}

// dateParam reads a YYYY-MM-DD query parameter, defaulting to today.
func dateParam(r *http.Request, name string) (models.Date, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return models.Today(), nil
	}
	d, err := models.ParseDate(v)
	if err != nil {
		return models.Date{}, fmt.Errorf("%s must be YYYY-MM-DD", name)
	}
	return d, nil
}
