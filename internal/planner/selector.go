package planner

import (
	"math/rand"

	"meal-rotation-planner/internal/recipe"
)

// Selector resolves one slot: it picks the winning recipe among the
// eligible candidates, optionally pairs an accompaniment, and records
// both in the rotation state.
type Selector struct {
	scorer *Scorer
	rng    *rand.Rand
}

// NewSelector returns a deterministic selector: the highest score wins,
// ties broken by ascending recipe ID.
func NewSelector(scorer *Scorer) *Selector {
	return &Selector{scorer: scorer}
}

// NewRandomizedSelector returns a selector that draws among eligible
// candidates with probability proportional to score. The seed fixes the
// whole sequence, so randomized runs stay reproducible.
func NewRandomizedSelector(scorer *Scorer, seed int64) *Selector {
	return &Selector{scorer: scorer, rng: rand.New(rand.NewSource(seed))}
}

// SelectMeal fills one slot from the course's pool and records the
// choice in rot. Main courses that accept an accompaniment get one when
// an eligible accompaniment exists; a missing accompaniment is never an
// error.
func (sel *Selector) SelectMeal(course Course, pool, accompaniments []recipe.Recipe, day DayContext, rot *RotationState) (MealAssignment, error) {
	t := course.recipeType()
	if len(pool) == 0 {
		return MealAssignment{}, &InsufficientRecipesError{Course: course, Minimum: 1, Current: 0}
	}

	idx, ok := sel.pick(pool, day, rot, nil)
	if !ok && rot.UsedCount(t) > 0 {
		// A snapshot taken against a larger library can arrive with the
		// whole current pool already consumed. Start a fresh cycle and
		// retry once.
		rot.resetCategory(t)
		idx, ok = sel.pick(pool, day, rot, nil)
	}
	if !ok {
		return MealAssignment{}, algorithmErrorf("no eligible %s recipe for %s", course, day.Date.Format(dateLayout))
	}

	chosen := pool[idx]
	rot.markUsed(t, chosen.ID)
	rot.bumpCuisine(chosen.Cuisine)
	rot.setLastComplexity(recipe.ComplexityOf(chosen, sel.scorer.calc))
	if rot.exhausted(t, pool) {
		rot.resetCategory(t)
	}

	assignment := MealAssignment{
		Date:         day.Date,
		Course:       course,
		RecipeID:     chosen.ID,
		PrepRequired: chosen.RequiresAdvancePrep(),
	}

	if course == CourseMain && chosen.AcceptsAccompaniment {
		allow := func(acc recipe.Recipe) bool { return accompanimentAllowed(chosen, acc) }
		if accIdx, found := sel.pick(accompaniments, day, rot, allow); found {
			acc := accompaniments[accIdx]
			assignment.AccompanimentID = acc.ID
			rot.markUsed(recipe.TypeAccompaniment, acc.ID)
			rot.bumpCuisine(acc.Cuisine)
			if rot.exhausted(recipe.TypeAccompaniment, accompaniments) {
				rot.resetCategory(recipe.TypeAccompaniment)
			}
		}
	}

	return assignment, nil
}

// pick returns the index of the winning candidate, or false when nothing
// is eligible. allow narrows the pool further when non-nil.
func (sel *Selector) pick(pool []recipe.Recipe, day DayContext, rot *RotationState, allow func(recipe.Recipe) bool) (int, bool) {
	if sel.rng != nil {
		return sel.pickWeighted(pool, day, rot, allow)
	}

	best := -1
	bestScore := 0.0
	for i := range pool {
		score, ok := sel.eligible(pool[i], day, rot, allow)
		if !ok {
			continue
		}
		if best < 0 || score > bestScore || (score == bestScore && pool[i].ID < pool[best].ID) {
			best = i
			bestScore = score
		}
	}
	return best, best >= 0
}

// pickWeighted draws with probability proportional to score. When every
// eligible candidate scores zero it falls back to a uniform draw.
func (sel *Selector) pickWeighted(pool []recipe.Recipe, day DayContext, rot *RotationState, allow func(recipe.Recipe) bool) (int, bool) {
	total := 0.0
	count := 0
	for i := range pool {
		score, ok := sel.eligible(pool[i], day, rot, allow)
		if !ok {
			continue
		}
		total += score
		count++
	}
	if count == 0 {
		return -1, false
	}

	if total <= 0 {
		nth := sel.rng.Intn(count)
		for i := range pool {
			if _, ok := sel.eligible(pool[i], day, rot, allow); !ok {
				continue
			}
			if nth == 0 {
				return i, true
			}
			nth--
		}
		return -1, false
	}

	draw := sel.rng.Float64() * total
	last := -1
	for i := range pool {
		score, ok := sel.eligible(pool[i], day, rot, allow)
		if !ok {
			continue
		}
		last = i
		draw -= score
		if draw < 0 {
			return i, true
		}
	}
	// Rounding can leave a sliver of the draw unconsumed; the final
	// eligible candidate takes it.
	return last, last >= 0
}

func (sel *Selector) eligible(r recipe.Recipe, day DayContext, rot *RotationState, allow func(recipe.Recipe) bool) (float64, bool) {
	if allow != nil && !allow(r) {
		return 0, false
	}
	return sel.scorer.Score(r, day, rot)
}

// accompanimentAllowed reports whether acc can pair with the main. An
// empty preference list accepts any category.
func accompanimentAllowed(main, acc recipe.Recipe) bool {
	if acc.Type != recipe.TypeAccompaniment {
		return false
	}
	if len(main.PreferredAccompaniments) == 0 {
		return true
	}
	for _, c := range main.PreferredAccompaniments {
		if acc.AccompanimentCategory == c {
			return true
		}
	}
	return false
}
