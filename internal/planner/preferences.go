package planner

import (
	"fmt"

	"meal-rotation-planner/internal/recipe"
)

// UserPreferences carries the per-user knobs for plan generation. The
// zero value is not useful; start from DefaultPreferences.
type UserPreferences struct {
	DietaryRestrictions []recipe.DietaryTag `json:"dietary_restrictions,omitempty"`
	DietaryMatchMode    recipe.MatchMode    `json:"dietary_match_mode"`

	// Cooking-time ceilings in minutes. Zero disables the ceiling for
	// that kind of day.
	MaxPrepTimeWeeknight int `json:"max_prep_time_weeknight"`
	MaxPrepTimeWeekend   int `json:"max_prep_time_weekend"`

	// AvoidConsecutiveComplex rejects a complex recipe when the slot
	// filled immediately before it also received a complex one.
	AvoidConsecutiveComplex bool `json:"avoid_consecutive_complex"`

	// CuisineVarietyWeight balances cuisine novelty against time fit
	// when scoring, from 0 (fit only) to 1 (novelty only).
	CuisineVarietyWeight float64 `json:"cuisine_variety_weight"`
}

// DefaultPreferences returns the preferences applied to users who never
// saved any.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		DietaryMatchMode:        recipe.MatchAll,
		MaxPrepTimeWeeknight:    45,
		MaxPrepTimeWeekend:      120,
		AvoidConsecutiveComplex: true,
		CuisineVarietyWeight:    0.5,
	}
}

// Validate checks the ranges the scorer depends on.
func (p UserPreferences) Validate() error {
	if p.CuisineVarietyWeight < 0 || p.CuisineVarietyWeight > 1 {
		return fmt.Errorf("cuisine variety weight %v out of range [0, 1]", p.CuisineVarietyWeight)
	}
	if p.MaxPrepTimeWeeknight < 0 {
		return fmt.Errorf("weeknight time ceiling %d is negative", p.MaxPrepTimeWeeknight)
	}
	if p.MaxPrepTimeWeekend < 0 {
		return fmt.Errorf("weekend time ceiling %d is negative", p.MaxPrepTimeWeekend)
	}
	return nil
}

// ceilingFor returns the applicable time ceiling in minutes, zero when
// the ceiling is disabled.
func (p UserPreferences) ceilingFor(weekend bool) int {
	if weekend {
		return p.MaxPrepTimeWeekend
	}
	return p.MaxPrepTimeWeeknight
}
