package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/claude/kinetic/internal/models"
	"github.com/claude/kinetic/internal/storage"
)

// ProgramTOML is the on-disk TOML shape of a program. A [[workout]] with no
// [[workout.exercise]] tables is a rest day.
type ProgramTOML struct {
	ID          string        `toml:"id"`
	Name        string        `toml:"name"`
	Description string        `toml:"description"`
	Workouts    []WorkoutTOML `toml:"workout"`
}

type WorkoutTOML struct {
	Name      string         `toml:"name"`
	Exercises []ExerciseTOML `toml:"exercise"`
}

type ExerciseTOML struct {
	Name        string `toml:"name"`
	Sets        int    `toml:"sets"`
	Value       string `toml:"value"`
	Unit        string `toml:"unit"`
	Description string `toml:"description"`
}

func (p ProgramTOML) program() (models.Program, error) {
	out := models.Program{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Workouts:    make([]models.WorkoutDay, len(p.Workouts)),
	}
	for i, w := range p.Workouts {
		day := models.WorkoutDay{Name: w.Name, Exercises: []models.ExerciseSpec{}}
		for _, ex := range w.Exercises {
			unit := models.UnitReps
			if ex.Unit != "" {
				u, err := models.ParseMetricUnit(ex.Unit)
				if err != nil {
					return models.Program{}, fmt.Errorf("%s / %s: %w", w.Name, ex.Name, err)
				}
				unit = u
			}
			day.Exercises = append(day.Exercises, models.ExerciseSpec{
				Name:        ex.Name,
				Sets:        ex.Sets,
				MetricValue: ex.Value,
				MetricUnit:  unit,
				Description: ex.Description,
			})
		}
		out.Workouts[i] = day
	}
	return out, nil
}

// LoadProgramFile reads a program from a .toml or .json file and validates
// it. The program is not saved.
func LoadProgramFile(path string) (models.Program, error) {
	var p models.Program
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		var pt ProgramTOML
		if _, err := toml.DecodeFile(path, &pt); err != nil {
			return models.Program{}, fmt.Errorf("decoding %s: %w", path, err)
		}
		var err error
		if p, err = pt.program(); err != nil {
			return models.Program{}, fmt.Errorf("reading %s: %w", path, err)
		}
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return models.Program{}, fmt.Errorf("reading %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return models.Program{}, fmt.Errorf("decoding %s: %w", path, err)
		}
	default:
		return models.Program{}, fmt.Errorf("unsupported program file %s: want .toml or .json", path)
	}

	if err := storage.NormalizeProgram(&p); err != nil {
		return models.Program{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
