package planner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"meal-rotation-planner/internal/recipe"
)

var testCuisines = []recipe.Cuisine{
	recipe.CuisineItalian,
	recipe.CuisineMexican,
	recipe.CuisineIndian,
	recipe.CuisineFrench,
	recipe.CuisineJapanese,
	recipe.CuisineThai,
	recipe.CuisineAmerican,
	recipe.CuisineMediterranean,
}

// mondayUTC is an arbitrary Monday all tests plan from.
func mondayUTC() time.Time {
	return time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
}

func testRecipesOf(t recipe.Type, prefix string, n int) []recipe.Recipe {
	out := make([]recipe.Recipe, 0, n)
	for i := 0; i < n; i++ {
		r := recipe.Recipe{
			ID:                fmt.Sprintf("%s-%02d", prefix, i),
			Title:             fmt.Sprintf("%s %02d", prefix, i),
			Type:              t,
			Cuisine:           testCuisines[i%len(testCuisines)],
			IngredientsCount:  5 + i%4,
			InstructionsCount: 3 + i%3,
			PrepTimeMinutes:   10,
			CookTimeMinutes:   20,
		}
		if i%2 == 0 {
			r.DietaryTags = []recipe.DietaryTag{recipe.TagVegetarian}
		}
		out = append(out, r)
	}
	return out
}

// testLibrary builds a library with deterministic IDs, 30-minute total
// times, cycling cuisines and vegetarian tags on every even recipe.
func testLibrary(mains, apps, desserts, accs int) []recipe.Recipe {
	var out []recipe.Recipe
	out = append(out, testRecipesOf(recipe.TypeMainCourse, "main", mains)...)
	out = append(out, testRecipesOf(recipe.TypeAppetizer, "app", apps)...)
	out = append(out, testRecipesOf(recipe.TypeDessert, "dessert", desserts)...)
	for i, acc := range testRecipesOf(recipe.TypeAccompaniment, "acc", accs) {
		if i%2 == 0 {
			acc.AccompanimentCategory = recipe.CategorySalad
		} else {
			acc.AccompanimentCategory = recipe.CategorySide
		}
		out = append(out, acc)
	}
	return out
}

func marshalPlan(t *testing.T, plan *MultiWeekMealPlan) []byte {
	t.Helper()
	data, err := json.Marshal(plan)
	if err != nil {
		t.Fatalf("Failed to marshal plan: %v", err)
	}
	return data
}

func mainCourseIDs(weeks ...WeekMealPlan) []string {
	var ids []string
	for _, w := range weeks {
		for _, a := range w.Assignments {
			if a.Course == CourseMain {
				ids = append(ids, a.RecipeID)
			}
		}
	}
	return ids
}

func TestGeneratePlanShape(t *testing.T) {
	library := testLibrary(16, 8, 8, 4)
	rot := NewRotationState()

	plan, err := New(nil).Generate(library, DefaultPreferences(), rot, 2, mondayUTC())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(plan.Weeks) != 2 {
		t.Fatalf("Expected 2 weeks, got %d", len(plan.Weeks))
	}
	for wi, week := range plan.Weeks {
		if len(week.Assignments) != 21 {
			t.Fatalf("Expected 21 assignments in week %d, got %d", wi+1, len(week.Assignments))
		}
		wantStart := mondayUTC().AddDate(0, 0, wi*7)
		if !week.StartDate.Equal(wantStart) {
			t.Errorf("Expected week %d to start %s, got %s", wi+1, wantStart, week.StartDate)
		}
		if week.Status != StatusIdle {
			t.Errorf("Expected generated week status %q, got %q", StatusIdle, week.Status)
		}
		for i, a := range week.Assignments {
			wantDate := wantStart.AddDate(0, 0, i/3)
			wantCourse := courseOrder[i%3]
			if !a.Date.Equal(wantDate) {
				t.Errorf("Assignment %d: expected date %s, got %s", i, wantDate, a.Date)
			}
			if a.Course != wantCourse {
				t.Errorf("Assignment %d: expected course %s, got %s", i, wantCourse, a.Course)
			}
			if a.RecipeID == "" {
				t.Errorf("Assignment %d has no recipe", i)
			}
		}
	}
}

func TestGenerateMainCourseUniqueness(t *testing.T) {
	// 14 main slots against 16 mains: no cycle reset, so no repeats.
	library := testLibrary(16, 8, 8, 0)

	plan, err := New(nil).Generate(library, DefaultPreferences(), NewRotationState(), 2, mondayUTC())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	seen := make(map[string]bool)
	for _, id := range mainCourseIDs(plan.Weeks...) {
		if seen[id] {
			t.Errorf("Main course %s assigned twice across the plan", id)
		}
		seen[id] = true
	}
}

func TestGenerateDietaryCompliance(t *testing.T) {
	library := testLibrary(16, 8, 8, 4)
	prefs := DefaultPreferences()
	prefs.DietaryRestrictions = []recipe.DietaryTag{recipe.TagVegetarian}

	byID := make(map[string]recipe.Recipe, len(library))
	for _, r := range library {
		byID[r.ID] = r
	}

	plan, err := New(nil).Generate(library, prefs, NewRotationState(), 1, mondayUTC())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	for _, a := range plan.Assignments() {
		if !byID[a.RecipeID].HasTag(recipe.TagVegetarian) {
			t.Errorf("Assignment %s/%s violates the vegetarian restriction", a.Date.Format(dateLayout), a.Course)
		}
		if a.AccompanimentID != "" && !byID[a.AccompanimentID].HasTag(recipe.TagVegetarian) {
			t.Errorf("Accompaniment %s violates the vegetarian restriction", a.AccompanimentID)
		}
	}
}

func TestGenerateTimeCompliance(t *testing.T) {
	// Ten quick mains plus four that only fit the weekend ceiling.
	library := testLibrary(10, 8, 8, 0)
	for i := 0; i < 4; i++ {
		library = append(library, recipe.Recipe{
			ID:                fmt.Sprintf("slow-%02d", i),
			Title:             fmt.Sprintf("Slow %02d", i),
			Type:              recipe.TypeMainCourse,
			Cuisine:           testCuisines[i],
			IngredientsCount:  8,
			InstructionsCount: 6,
			PrepTimeMinutes:   30,
			CookTimeMinutes:   70,
		})
	}
	byID := make(map[string]recipe.Recipe, len(library))
	for _, r := range library {
		byID[r.ID] = r
	}

	prefs := DefaultPreferences()
	plan, err := New(nil).Generate(library, prefs, NewRotationState(), 1, mondayUTC())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	for _, a := range plan.Assignments() {
		ceiling := prefs.MaxPrepTimeWeeknight
		if isWeekend(a.Date) {
			ceiling = prefs.MaxPrepTimeWeekend
		}
		if total := byID[a.RecipeID].TotalTimeMinutes(); total > ceiling {
			t.Errorf("%s on %s takes %d minutes, ceiling is %d", a.RecipeID, a.Date.Format(dateLayout), total, ceiling)
		}
	}
}

func TestGenerateDeterminism(t *testing.T) {
	library := testLibrary(16, 8, 8, 4)

	base := NewRotationState()
	base.markUsed(recipe.TypeMainCourse, "main-03")
	base.bumpCuisine(recipe.CuisineItalian)
	base.bumpCuisine(recipe.CuisineItalian)
	base.setLastComplexity(5.2)

	run := func() ([]byte, []byte) {
		rot := base.Clone()
		plan, err := New(nil).Generate(library, DefaultPreferences(), rot, 3, mondayUTC())
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		snap, err := json.Marshal(rot.Snapshot())
		if err != nil {
			t.Fatalf("Failed to marshal snapshot: %v", err)
		}
		return marshalPlan(t, plan), snap
	}

	plan1, snap1 := run()
	plan2, snap2 := run()
	if !bytes.Equal(plan1, plan2) {
		t.Error("Two runs over identical inputs produced different plans")
	}
	if !bytes.Equal(snap1, snap2) {
		t.Error("Two runs over identical inputs produced different rotation snapshots")
	}
}

func TestGenerateRandomizedSeedReproducible(t *testing.T) {
	library := testLibrary(16, 8, 8, 4)

	run := func(seed int64) []byte {
		plan, err := NewRandomized(nil, seed).Generate(library, DefaultPreferences(), NewRotationState(), 2, mondayUTC())
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		return marshalPlan(t, plan)
	}

	if !bytes.Equal(run(42), run(42)) {
		t.Error("Same seed produced different plans")
	}
}

func TestGenerateInsufficientRecipes(t *testing.T) {
	// No main courses at all.
	library := testLibrary(0, 8, 8, 0)

	_, err := New(nil).Generate(library, DefaultPreferences(), NewRotationState(), 1, mondayUTC())
	var insufficient *InsufficientRecipesError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Expected InsufficientRecipesError, got %v", err)
	}
	if insufficient.Course != CourseMain {
		t.Errorf("Expected course %s, got %s", CourseMain, insufficient.Course)
	}
	if insufficient.Minimum != 1 || insufficient.Current != 0 {
		t.Errorf("Expected minimum 1 and current 0, got %d and %d", insufficient.Minimum, insufficient.Current)
	}
}

func TestGenerateUnfillableSlot(t *testing.T) {
	// Mains exist but none fit under either ceiling, which is an
	// algorithmic dead end rather than an availability problem.
	library := testLibrary(0, 8, 8, 0)
	for i := 0; i < 3; i++ {
		library = append(library, recipe.Recipe{
			ID:                fmt.Sprintf("slow-%02d", i),
			Title:             fmt.Sprintf("Slow %02d", i),
			Type:              recipe.TypeMainCourse,
			Cuisine:           recipe.CuisineFrench,
			IngredientsCount:  8,
			InstructionsCount: 6,
			PrepTimeMinutes:   60,
			CookTimeMinutes:   180,
		})
	}

	rot := NewRotationState()
	before, err := json.Marshal(rot.Snapshot())
	if err != nil {
		t.Fatalf("Failed to marshal snapshot: %v", err)
	}

	_, genErr := New(nil).Generate(library, DefaultPreferences(), rot, 1, mondayUTC())
	var algo *AlgorithmError
	if !errors.As(genErr, &algo) {
		t.Fatalf("Expected AlgorithmError, got %v", genErr)
	}

	after, err := json.Marshal(rot.Snapshot())
	if err != nil {
		t.Fatalf("Failed to marshal snapshot: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Error("Failed run mutated the rotation state")
	}
}

func TestGenerateInvalidInputs(t *testing.T) {
	library := testLibrary(8, 4, 4, 0)

	t.Run("WeekCount", func(t *testing.T) {
		_, err := New(nil).Generate(library, DefaultPreferences(), NewRotationState(), 0, mondayUTC())
		if !errors.Is(err, ErrInvalidWeekCount) {
			t.Errorf("Expected ErrInvalidWeekCount, got %v", err)
		}
	})

	t.Run("NotAMonday", func(t *testing.T) {
		tuesday := mondayUTC().AddDate(0, 0, 1)
		_, err := New(nil).Generate(library, DefaultPreferences(), NewRotationState(), 1, tuesday)
		var invalid *InvalidDateError
		if !errors.As(err, &invalid) {
			t.Errorf("Expected InvalidDateError, got %v", err)
		}
	})

	t.Run("ZeroDate", func(t *testing.T) {
		_, err := New(nil).Generate(library, DefaultPreferences(), NewRotationState(), 1, time.Time{})
		var invalid *InvalidDateError
		if !errors.As(err, &invalid) {
			t.Errorf("Expected InvalidDateError, got %v", err)
		}
	})

	t.Run("BadPreferences", func(t *testing.T) {
		prefs := DefaultPreferences()
		prefs.CuisineVarietyWeight = 1.5
		_, err := New(nil).Generate(library, prefs, NewRotationState(), 1, mondayUTC())
		if err == nil {
			t.Error("Expected an error for out-of-range variety weight, got nil")
		}
	})

	t.Run("StaleRotationState", func(t *testing.T) {
		rot := NewRotationState()
		rot.markUsed(recipe.TypeMainCourse, "deleted-recipe")
		_, err := New(nil).Generate(library, DefaultPreferences(), rot, 1, mondayUTC())
		var stateErr *RotationStateError
		if !errors.As(err, &stateErr) {
			t.Errorf("Expected RotationStateError, got %v", err)
		}
	})
}

func TestRegenerateContinuity(t *testing.T) {
	// 50 mains cover the 35 slots of five weeks plus a regenerated week
	// without ever exhausting the pool.
	library := testLibrary(50, 40, 40, 4)
	rot := NewRotationState()
	planner := New(nil)

	original, err := planner.Generate(library, DefaultPreferences(), rot, 5, mondayUTC())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	regenerated, err := planner.Regenerate(original, []int{3}, library, DefaultPreferences(), rot)
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}

	// 1. Untouched weeks survive byte for byte.
	for _, wi := range []int{0, 1, 3, 4} {
		before, err := json.Marshal(original.Weeks[wi])
		if err != nil {
			t.Fatalf("Failed to marshal week: %v", err)
		}
		after, err := json.Marshal(regenerated.Weeks[wi])
		if err != nil {
			t.Fatalf("Failed to marshal week: %v", err)
		}
		if !bytes.Equal(before, after) {
			t.Errorf("Week %d changed during regeneration", wi+1)
		}
	}

	// 2. The new week avoids everything still locked in, including the
	// discarded week's own recipes, which stay consumed.
	locked := make(map[string]bool)
	for _, id := range mainCourseIDs(original.Weeks...) {
		locked[id] = true
	}
	for _, id := range mainCourseIDs(regenerated.Weeks[2]) {
		if locked[id] {
			t.Errorf("Regenerated week reuses main course %s", id)
		}
	}

	// 3. The input plan is superseded, not mutated.
	origWeek3, err := json.Marshal(original.Weeks[2])
	if err != nil {
		t.Fatalf("Failed to marshal week: %v", err)
	}
	newWeek3, err := json.Marshal(regenerated.Weeks[2])
	if err != nil {
		t.Fatalf("Failed to marshal week: %v", err)
	}
	if bytes.Equal(origWeek3, newWeek3) {
		t.Error("Expected week 3 to change, it did not")
	}
}

func TestRegenerateInvalidWeeks(t *testing.T) {
	library := testLibrary(16, 8, 8, 0)
	rot := NewRotationState()
	planner := New(nil)

	plan, err := planner.Generate(library, DefaultPreferences(), rot, 2, mondayUTC())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := planner.Regenerate(plan, []int{3}, library, DefaultPreferences(), rot); err == nil {
		t.Error("Expected an error for out-of-range week number, got nil")
	}
	if _, err := planner.Regenerate(plan, nil, library, DefaultPreferences(), rot); err == nil {
		t.Error("Expected an error for empty week selection, got nil")
	}
	if _, err := planner.Regenerate(nil, []int{1}, library, DefaultPreferences(), rot); err == nil {
		t.Error("Expected an error for nil plan, got nil")
	}
}

func TestReplaceMeal(t *testing.T) {
	library := testLibrary(16, 8, 8, 4)
	rot := NewRotationState()
	planner := New(nil)

	plan, err := planner.Generate(library, DefaultPreferences(), rot, 1, mondayUTC())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	wednesday := mondayUTC().AddDate(0, 0, 2)
	oldSlot, found := plan.FindAssignment(wednesday, CourseMain)
	if !found {
		t.Fatal("Expected a main course on Wednesday")
	}
	oldID := oldSlot.RecipeID

	patched, err := planner.ReplaceMeal(plan, wednesday, CourseMain, library, DefaultPreferences(), rot)
	if err != nil {
		t.Fatalf("ReplaceMeal failed: %v", err)
	}

	newSlot, found := patched.FindAssignment(wednesday, CourseMain)
	if !found {
		t.Fatal("Replaced slot disappeared")
	}
	if newSlot.RecipeID == oldID {
		t.Errorf("Expected a different recipe, still %s", oldID)
	}

	// Every other slot is untouched.
	for _, a := range plan.Weeks[0].Assignments {
		if a.Course == CourseMain && a.Date.Equal(wednesday) {
			continue
		}
		after, found := patched.FindAssignment(a.Date, a.Course)
		if !found {
			t.Fatalf("Slot %s/%s disappeared", a.Date.Format(dateLayout), a.Course)
		}
		if *after != a {
			t.Errorf("Slot %s/%s changed during replacement", a.Date.Format(dateLayout), a.Course)
		}
	}

	t.Run("UnknownSlot", func(t *testing.T) {
		outside := mondayUTC().AddDate(0, 0, 14)
		_, err := planner.ReplaceMeal(plan, outside, CourseMain, library, DefaultPreferences(), rot)
		var invalid *InvalidDateError
		if !errors.As(err, &invalid) {
			t.Errorf("Expected InvalidDateError, got %v", err)
		}
	})

	t.Run("UnknownCourse", func(t *testing.T) {
		_, err := planner.ReplaceMeal(plan, wednesday, Course("brunch"), library, DefaultPreferences(), rot)
		var invalid *InvalidMealTypeError
		if !errors.As(err, &invalid) {
			t.Errorf("Expected InvalidMealTypeError, got %v", err)
		}
	})
}

func TestParseCourse(t *testing.T) {
	for _, s := range []string{"appetizer", "main_course", "dessert"} {
		c, err := ParseCourse(s)
		if err != nil {
			t.Fatalf("Expected no error for %q, got %v", s, err)
		}
		if string(c) != s {
			t.Errorf("Expected course %q, got %q", s, c)
		}
	}

	_, err := ParseCourse("brunch")
	var invalid *InvalidMealTypeError
	if !errors.As(err, &invalid) {
		t.Fatalf("Expected InvalidMealTypeError, got %v", err)
	}
	if invalid.Value != "brunch" {
		t.Errorf("Expected offending value \"brunch\", got %q", invalid.Value)
	}
}
