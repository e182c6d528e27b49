// Package planner generates multi-week dinner plans from a user's
// favorite recipes. Selection is deterministic: identical recipes,
// preferences and rotation state always produce an identical plan.
package planner

import (
	"time"

	"meal-rotation-planner/internal/recipe"
)

// Course identifies one of the three courses planned for every dinner.
type Course string

const (
	CourseAppetizer Course = "appetizer"
	CourseMain      Course = "main_course"
	CourseDessert   Course = "dessert"
)

// courseOrder is the fill and output order within a day.
var courseOrder = [3]Course{CourseAppetizer, CourseMain, CourseDessert}

// ParseCourse converts a stored or user-supplied string into a Course.
func ParseCourse(s string) (Course, error) {
	switch Course(s) {
	case CourseAppetizer, CourseMain, CourseDessert:
		return Course(s), nil
	}
	return "", &InvalidMealTypeError{Value: s}
}

// recipeType maps a course to the recipe type that can fill it.
func (c Course) recipeType() recipe.Type {
	switch c {
	case CourseAppetizer:
		return recipe.TypeAppetizer
	case CourseDessert:
		return recipe.TypeDessert
	default:
		return recipe.TypeMainCourse
	}
}

// PlanStatus represents the lifecycle state of a meal plan.
type PlanStatus string

const (
	StatusIdle     PlanStatus = "idle"
	StatusActive   PlanStatus = "active"
	StatusArchived PlanStatus = "archived"
)

// MealAssignment binds one recipe to one course slot on one date.
type MealAssignment struct {
	Date     time.Time `json:"date"`
	Course   Course    `json:"course_type"`
	RecipeID string    `json:"recipe_id"`
	// AccompanimentID is set when a main course was paired with a side.
	AccompanimentID string `json:"accompaniment_recipe_id,omitempty"`
	// PrepRequired flags recipes whose preparation starts hours ahead.
	PrepRequired bool `json:"prep_required"`
}

// WeekMealPlan is one Monday-to-Sunday week of assignments, ordered
// chronologically and by course within each day.
type WeekMealPlan struct {
	StartDate   time.Time        `json:"start_date"`
	Status      PlanStatus       `json:"status"`
	Assignments []MealAssignment `json:"assignments"`
}

// MultiWeekMealPlan is the full output of one planning run.
type MultiWeekMealPlan struct {
	StartDate time.Time      `json:"start_date"`
	Weeks     []WeekMealPlan `json:"weeks"`
}

// Week returns the n-th week of the plan, 1-based.
func (p *MultiWeekMealPlan) Week(n int) (*WeekMealPlan, bool) {
	if n < 1 || n > len(p.Weeks) {
		return nil, false
	}
	return &p.Weeks[n-1], true
}

// Assignments flattens the plan into one chronological slice.
func (p *MultiWeekMealPlan) Assignments() []MealAssignment {
	out := make([]MealAssignment, 0, len(p.Weeks)*slotsPerWeek)
	for _, w := range p.Weeks {
		out = append(out, w.Assignments...)
	}
	return out
}

// FindAssignment returns the assignment for a date and course, if any.
func (p *MultiWeekMealPlan) FindAssignment(date time.Time, course Course) (*MealAssignment, bool) {
	day := midnightUTC(date)
	for wi := range p.Weeks {
		for ai := range p.Weeks[wi].Assignments {
			a := &p.Weeks[wi].Assignments[ai]
			if a.Course == course && a.Date.Equal(day) {
				return a, true
			}
		}
	}
	return nil, false
}

// Clone deep-copies the plan so a regeneration can supersede it without
// touching the original.
func (p *MultiWeekMealPlan) Clone() *MultiWeekMealPlan {
	out := &MultiWeekMealPlan{
		StartDate: p.StartDate,
		Weeks:     make([]WeekMealPlan, len(p.Weeks)),
	}
	for i, w := range p.Weeks {
		cw := w
		cw.Assignments = make([]MealAssignment, len(w.Assignments))
		copy(cw.Assignments, w.Assignments)
		out.Weeks[i] = cw
	}
	return out
}

// midnightUTC normalizes a date to midnight UTC so equal calendar days
// compare equal regardless of the wall clock they were built with.
func midnightUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
