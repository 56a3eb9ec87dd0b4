package models

import "fmt"

// WeightUnit is the unit weights are entered in.
type WeightUnit string

const (
	WeightLbs WeightUnit = "lbs"
	WeightKg  WeightUnit = "kg"
)

// DefaultGoal is the goal assumed for a fresh profile.
const DefaultGoal = "muscle-gain"

// Profile holds the user's personal details. Numeric fields are nil when
// never entered.
type Profile struct {
	Name       string     `json:"name"`
	Age        *int       `json:"age,omitempty"`
	Weight     *float64   `json:"weight,omitempty"`
	Height     *float64   `json:"height,omitempty"`
	Goal       string     `json:"goal"`
	WeightUnit WeightUnit `json:"weightUnit"`
}

// DefaultProfile returns the profile used before the user saves one.
func DefaultProfile() Profile {
	return Profile{Goal: DefaultGoal, WeightUnit: WeightLbs}
}

// Normalize fills defaults and validates the weight unit.
func (p *Profile) Normalize() error {
	if p.Goal == "" {
		p.Goal = DefaultGoal
	}
	switch p.WeightUnit {
	case "":
		p.WeightUnit = WeightLbs
	case WeightLbs, WeightKg:
	default:
		return fmt.Errorf("weightUnit must be %q or %q, got %q", WeightLbs, WeightKg, p.WeightUnit)
	}
	if p.Age != nil && *p.Age <= 0 {
		p.Age = nil
	}
	if p.Weight != nil && *p.Weight <= 0 {
		p.Weight = nil
	}
	if p.Height != nil && *p.Height <= 0 {
		p.Height = nil
	}
	return nil
}
