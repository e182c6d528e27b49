package planner

import (
	"time"

	"meal-rotation-planner/internal/recipe"
)

// DayContext is everything about the target slot's day a score depends on.
type DayContext struct {
	Date    time.Time
	Weekend bool
	// PrecedingComplexity is the complexity of the recipe assigned to
	// the slot filled immediately before this one.
	PrecedingComplexity float64
}

func newDayContext(date time.Time, rot *RotationState) DayContext {
	return DayContext{
		Date:                date,
		Weekend:             isWeekend(date),
		PrecedingComplexity: rot.LastComplexity(),
	}
}

// Scorer evaluates one recipe for one slot. Hard constraints yield
// (0, false); eligible recipes yield a score in [0, 1] blending cuisine
// novelty with time fit.
type Scorer struct {
	prefs UserPreferences
	calc  recipe.ComplexityCalculator
}

// NewScorer creates a Scorer. calc must not be nil.
func NewScorer(prefs UserPreferences, calc recipe.ComplexityCalculator) *Scorer {
	return &Scorer{prefs: prefs, calc: calc}
}

// Score returns the recipe's score for the day and whether it is
// eligible at all. It never allocates; generation calls it once per
// candidate per slot.
func (s *Scorer) Score(r recipe.Recipe, day DayContext, rot *RotationState) (float64, bool) {
	if rot.Used(r.Type, r.ID) {
		return 0, false
	}

	ceiling := s.prefs.ceilingFor(day.Weekend)
	total := r.TotalTimeMinutes()
	if ceiling > 0 && total > ceiling {
		return 0, false
	}

	if s.prefs.AvoidConsecutiveComplex && day.PrecedingComplexity > recipe.ComplexThreshold {
		if recipe.ComplexityOf(r, s.calc) > recipe.ComplexThreshold {
			return 0, false
		}
	}

	// Novelty decays with every prior use of the cuisine; an unseen
	// cuisine scores 1.
	novelty := 1.0 / (1.0 + float64(rot.CuisineCount(r.Cuisine)))

	// Fit rewards using the available time budget. Without a ceiling
	// there is nothing to fit against, so it stays neutral.
	fit := 0.5
	if ceiling > 0 {
		fit = float64(total) / float64(ceiling)
	}

	w := s.prefs.CuisineVarietyWeight
	return w*novelty + (1-w)*fit, true
}
