package planner

import (
	"sort"
	"time"

	"meal-rotation-planner/internal/recipe"
)

const (
	daysPerWeek   = 7
	coursesPerDay = 3
	slotsPerWeek  = daysPerWeek * coursesPerDay

	dateLayout = "2006-01-02"
)

// candidatePools holds the dietary-eligible recipes partitioned by type.
// Each pool is sorted by ID so selection never depends on input order.
type candidatePools struct {
	byType map[recipe.Type][]recipe.Recipe
	byID   map[string]recipe.Recipe
}

func newCandidatePools(recipes []recipe.Recipe, prefs UserPreferences) *candidatePools {
	byID := make(map[string]recipe.Recipe, len(recipes))
	for _, r := range recipes {
		byID[r.ID] = r
	}

	eligible := recipe.FilterByDiet(recipes, prefs.DietaryRestrictions, prefs.DietaryMatchMode)
	byType := make(map[recipe.Type][]recipe.Recipe, 4)
	for _, r := range eligible {
		byType[r.Type] = append(byType[r.Type], r)
	}
	for _, pool := range byType {
		sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })
	}

	return &candidatePools{byType: byType, byID: byID}
}

func (p *candidatePools) pool(t recipe.Type) []recipe.Recipe {
	return p.byType[t]
}

// requireCourses fails on the first required course whose eligible pool
// is empty. It runs before any slot is filled so a failing run produces
// no partial state.
func (p *candidatePools) requireCourses() error {
	for _, c := range courseOrder {
		if len(p.byType[c.recipeType()]) == 0 {
			return &InsufficientRecipesError{Course: c, Minimum: 1, Current: 0}
		}
	}
	return nil
}

// fillWeek assigns all 21 slots of the week starting at start, days in
// calendar order, appetizer then main then dessert within each day.
func fillWeek(sel *Selector, pools *candidatePools, start time.Time, rot *RotationState) (WeekMealPlan, error) {
	week := WeekMealPlan{
		StartDate:   start,
		Status:      StatusIdle,
		Assignments: make([]MealAssignment, 0, slotsPerWeek),
	}

	startCycle := rot.CycleNumber()
	accompaniments := pools.pool(recipe.TypeAccompaniment)

	for day := 0; day < daysPerWeek; day++ {
		date := start.AddDate(0, 0, day)
		for _, course := range courseOrder {
			a, err := sel.SelectMeal(course, pools.pool(course.recipeType()), accompaniments, newDayContext(date, rot), rot)
			if err != nil {
				return WeekMealPlan{}, err
			}
			week.Assignments = append(week.Assignments, a)
		}
	}

	// Within one rotation cycle a main course may appear once. The used
	// set already guarantees that; this re-check catches selection bugs.
	// Skipped when a cycle boundary was crossed mid-week, since repeats
	// are legitimate across the boundary.
	if rot.CycleNumber() == startCycle {
		seen := make(map[string]struct{}, daysPerWeek)
		for _, a := range week.Assignments {
			if a.Course != CourseMain {
				continue
			}
			if _, dup := seen[a.RecipeID]; dup {
				return WeekMealPlan{}, algorithmErrorf("main course %s assigned twice in week starting %s", a.RecipeID, start.Format(dateLayout))
			}
			seen[a.RecipeID] = struct{}{}
		}
	}

	return week, nil
}
