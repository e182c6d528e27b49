package planner

import (
	"fmt"
	"sort"
	"time"

	"meal-rotation-planner/internal/recipe"
)

// Planner generates, regenerates and patches multi-week meal plans. A
// Planner is stateless between calls; all run state lives in the
// RotationState the caller threads through.
type Planner struct {
	calc       recipe.ComplexityCalculator
	randomized bool
	seed       int64
}

// New returns a deterministic Planner. A nil calc falls back to the
// default weighted calculator.
func New(calc recipe.ComplexityCalculator) *Planner {
	if calc == nil {
		calc = recipe.NewWeightedComplexity()
	}
	return &Planner{calc: calc}
}

// NewRandomized returns a Planner that draws candidates with probability
// proportional to score instead of always taking the top one. Every run
// seeds its generator from seed, so the same inputs and seed reproduce
// the same plan. There is no unseeded mode.
func NewRandomized(calc recipe.ComplexityCalculator, seed int64) *Planner {
	p := New(calc)
	p.randomized = true
	p.seed = seed
	return p
}

func (p *Planner) newSelector(prefs UserPreferences) *Selector {
	scorer := NewScorer(prefs, p.calc)
	if p.randomized {
		return NewRandomizedSelector(scorer, p.seed)
	}
	return NewSelector(scorer)
}

// Generate builds weekCount consecutive weeks starting at startDate,
// which must be a Monday. rot carries the user's rotation history; nil
// starts a fresh one. On success rot is advanced past everything the
// plan consumed; on failure it is left untouched and no plan is
// returned.
func (p *Planner) Generate(recipes []recipe.Recipe, prefs UserPreferences, rot *RotationState, weekCount int, startDate time.Time) (*MultiWeekMealPlan, error) {
	if err := prefs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid preferences: %w", err)
	}
	if weekCount < 1 {
		return nil, ErrInvalidWeekCount
	}
	start, err := validateStartDate(startDate)
	if err != nil {
		return nil, err
	}
	if rot == nil {
		rot = NewRotationState()
	}

	pools := newCandidatePools(recipes, prefs)
	if err := rot.validateRecipes(pools.byID); err != nil {
		return nil, err
	}
	if err := pools.requireCourses(); err != nil {
		return nil, err
	}

	work := rot.Clone()
	sel := p.newSelector(prefs)

	plan := &MultiWeekMealPlan{
		StartDate: start,
		Weeks:     make([]WeekMealPlan, 0, weekCount),
	}
	for w := 0; w < weekCount; w++ {
		week, err := fillWeek(sel, pools, start.AddDate(0, 0, w*daysPerWeek), work)
		if err != nil {
			return nil, err
		}
		plan.Weeks = append(plan.Weeks, week)
	}

	work.commitTo(rot)
	return plan, nil
}

// Regenerate rebuilds only the given weeks (1-based) of an existing
// plan. The untouched weeks are preserved exactly, and because rot still
// holds their recipes as used, regenerated weeks never collide with them
// within the same cycle. The input plan is not modified; the returned
// plan supersedes it.
func (p *Planner) Regenerate(plan *MultiWeekMealPlan, weekNumbers []int, recipes []recipe.Recipe, prefs UserPreferences, rot *RotationState) (*MultiWeekMealPlan, error) {
	if plan == nil || len(plan.Weeks) == 0 {
		return nil, fmt.Errorf("nothing to regenerate: plan has no weeks")
	}
	if err := prefs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid preferences: %w", err)
	}
	targets, err := normalizeWeekNumbers(weekNumbers, len(plan.Weeks))
	if err != nil {
		return nil, err
	}
	if rot == nil {
		rot = NewRotationState()
	}

	pools := newCandidatePools(recipes, prefs)
	if err := rot.validateRecipes(pools.byID); err != nil {
		return nil, err
	}
	if err := pools.requireCourses(); err != nil {
		return nil, err
	}

	work := rot.Clone()
	sel := p.newSelector(prefs)

	out := plan.Clone()
	for _, n := range targets {
		week, err := fillWeek(sel, pools, out.Weeks[n-1].StartDate, work)
		if err != nil {
			return nil, err
		}
		out.Weeks[n-1] = week
	}

	work.commitTo(rot)
	return out, nil
}

// ReplaceMeal swaps a single assignment, leaving every other slot of the
// plan byte-for-byte intact. The replacement runs through the normal
// scoring pipeline, so it respects and advances rot like any other
// assignment.
func (p *Planner) ReplaceMeal(plan *MultiWeekMealPlan, date time.Time, course Course, recipes []recipe.Recipe, prefs UserPreferences, rot *RotationState) (*MultiWeekMealPlan, error) {
	if plan == nil || len(plan.Weeks) == 0 {
		return nil, fmt.Errorf("nothing to replace: plan has no weeks")
	}
	if err := prefs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid preferences: %w", err)
	}
	if _, err := ParseCourse(string(course)); err != nil {
		return nil, err
	}
	if rot == nil {
		rot = NewRotationState()
	}

	day := midnightUTC(date)
	if _, found := plan.FindAssignment(day, course); !found {
		return nil, &InvalidDateError{
			Date:   day.Format(dateLayout),
			Reason: fmt.Sprintf("plan has no %s slot on this date", course),
		}
	}

	pools := newCandidatePools(recipes, prefs)
	if err := rot.validateRecipes(pools.byID); err != nil {
		return nil, err
	}
	if len(pools.pool(course.recipeType())) == 0 {
		return nil, &InsufficientRecipesError{Course: course, Minimum: 1, Current: 0}
	}

	work := rot.Clone()
	sel := p.newSelector(prefs)

	replacement, err := sel.SelectMeal(course, pools.pool(course.recipeType()), pools.pool(recipe.TypeAccompaniment), newDayContext(day, work), work)
	if err != nil {
		return nil, err
	}

	out := plan.Clone()
	slot, _ := out.FindAssignment(day, course)
	*slot = replacement

	work.commitTo(rot)
	return out, nil
}

func validateStartDate(t time.Time) (time.Time, error) {
	if t.IsZero() {
		return time.Time{}, &InvalidDateError{Date: "0001-01-01", Reason: "start date is unset"}
	}
	day := midnightUTC(t)
	if day.Weekday() != time.Monday {
		return time.Time{}, &InvalidDateError{Date: day.Format(dateLayout), Reason: "plans start on a Monday"}
	}
	return day, nil
}

// normalizeWeekNumbers validates 1-based week numbers and returns them
// sorted and deduplicated.
func normalizeWeekNumbers(weekNumbers []int, weekCount int) ([]int, error) {
	if len(weekNumbers) == 0 {
		return nil, fmt.Errorf("no weeks selected for regeneration")
	}
	seen := make(map[int]struct{}, len(weekNumbers))
	out := make([]int, 0, len(weekNumbers))
	for _, n := range weekNumbers {
		if n < 1 || n > weekCount {
			return nil, fmt.Errorf("week %d out of range 1..%d", n, weekCount)
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}
