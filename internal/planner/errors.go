package planner

import (
	"errors"
	"fmt"
)

// ErrInvalidWeekCount is returned when a plan is requested for fewer than
// one week.
var ErrInvalidWeekCount = errors.New("week count must be at least 1")

// InsufficientRecipesError reports that a required course has no eligible
// recipes before any slot filling starts.
type InsufficientRecipesError struct {
	Course  Course
	Minimum int
	Current int
}

func (e *InsufficientRecipesError) Error() string {
	return fmt.Sprintf("insufficient %s recipes: need at least %d, have %d", e.Course, e.Minimum, e.Current)
}

// AlgorithmError reports that slot filling started but could not finish.
// Nothing of the partial plan survives.
type AlgorithmError struct {
	Reason string
}

func (e *AlgorithmError) Error() string {
	return "planning failed: " + e.Reason
}

func algorithmErrorf(format string, args ...any) error {
	return &AlgorithmError{Reason: fmt.Sprintf(format, args...)}
}

// InvalidDateError reports a start date or slot date the planner cannot
// work with.
type InvalidDateError struct {
	Date   string
	Reason string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %s: %s", e.Date, e.Reason)
}

// RotationStateError reports a rotation state that is inconsistent with
// the recipes supplied for planning.
type RotationStateError struct {
	Reason string
}

func (e *RotationStateError) Error() string {
	return "invalid rotation state: " + e.Reason
}

// InvalidMealTypeError reports a course name that is not one of the three
// planned courses.
type InvalidMealTypeError struct {
	Value string
}

func (e *InvalidMealTypeError) Error() string {
	return fmt.Sprintf("invalid meal type %q", e.Value)
}

// RecipeNotFoundError reports a recipe ID that does not resolve against
// the available recipe set.
type RecipeNotFoundError struct {
	ID string
}

func (e *RecipeNotFoundError) Error() string {
	return fmt.Sprintf("recipe %s not found", e.ID)
}
