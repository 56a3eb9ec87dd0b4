package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/claude/kinetic/internal/models"
)

// ListHistory returns the namespace's workout history, newest date first.
// Records on the same date keep their stored order.
func (s *Store) ListHistory(ctx context.Context, ns string) ([]models.CompletedWorkout, error) {
	history, err := Load(ctx, s.kv, ns, KeyHistory, []models.CompletedWorkout{})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date.After(history[j].Date)
	})
	return history, nil
}

// GetWorkout returns one history record by ID.
func (s *Store) GetWorkout(ctx context.Context, ns, id string) (*models.CompletedWorkout, error) {
	history, err := Load(ctx, s.kv, ns, KeyHistory, []models.CompletedWorkout{})
	if err != nil {
		return nil, err
	}
	for i := range history {
		if history[i].ID == id {
			return &history[i], nil
		}
	}
	return nil, fmt.Errorf("workout %s: %w", id, ErrNotFound)
}

// AppendHistory adds w to the history. History is append-only.
func (s *Store) AppendHistory(ctx context.Context, ns string, w models.CompletedWorkout) (models.CompletedWorkout, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	history, err := Load(ctx, s.kv, ns, KeyHistory, []models.CompletedWorkout{})
	if err != nil {
		return models.CompletedWorkout{}, err
	}
	history = append(history, w)
	if err := Save(ctx, s.kv, ns, KeyHistory, history); err != nil {
		return models.CompletedWorkout{}, err
	}
	return w, nil
}

// HistoryStats summarizes the history of a namespace.
type HistoryStats struct {
	Workouts         int          `json:"workouts"`
	Completed        int          `json:"completed"`
	SetsDone         int          `json:"setsDone"`
	SetsMissed       int          `json:"setsMissed"`
	AverageIntensity float64      `json:"averageIntensity"`
	LastWorkout      *models.Date `json:"lastWorkout,omitempty"`
}

// HistoryStats computes totals over the whole history.
func (s *Store) HistoryStats(ctx context.Context, ns string) (HistoryStats, error) {
	history, err := s.ListHistory(ctx, ns)
	if err != nil {
		return HistoryStats{}, err
	}
	var stats HistoryStats
	intensitySum, rated := 0, 0
	for _, w := range history {
		stats.Workouts++
		if w.Completed {
			stats.Completed++
		}
		if w.Intensity > 0 {
			intensitySum += w.Intensity
			rated++
		}
		for _, ex := range w.Exercises {
			for _, set := range ex.Performance {
				if set.Status == models.SetDone {
					stats.SetsDone++
				} else {
					stats.SetsMissed++
				}
			}
		}
	}
	if rated > 0 {
		stats.AverageIntensity = float64(intensitySum) / float64(rated)
	}
	if len(history) > 0 {
		last := history[0].Date
		stats.LastWorkout = &last
	}
	return stats, nil
}
