package planner

import (
	"fmt"
	"sort"

	"meal-rotation-planner/internal/recipe"
)

// RotationState accumulates what earlier plans already used so later
// plans rotate instead of repeating. One value belongs to one user and
// is owned by a single planning run at a time; the planner mutates it
// only when a run succeeds.
type RotationState struct {
	cuisineUsage   map[recipe.Cuisine]int
	used           map[recipe.Type]map[string]struct{}
	cycle          uint64
	lastComplexity float64
}

// NewRotationState returns an empty state for a user with no history.
func NewRotationState() *RotationState {
	return &RotationState{
		cuisineUsage: make(map[recipe.Cuisine]int),
		used:         make(map[recipe.Type]map[string]struct{}),
	}
}

// CycleNumber returns how many times a category pool has been exhausted
// and reset across the user's history.
func (rs *RotationState) CycleNumber() uint64 {
	return rs.cycle
}

// LastComplexity returns the complexity of the most recently assigned
// primary recipe.
func (rs *RotationState) LastComplexity() float64 {
	return rs.lastComplexity
}

// CuisineCount returns how many assignments the cuisine has received.
func (rs *RotationState) CuisineCount(c recipe.Cuisine) int {
	return rs.cuisineUsage[c]
}

// Used reports whether the recipe was already assigned in the current
// rotation cycle of its type.
func (rs *RotationState) Used(t recipe.Type, id string) bool {
	_, ok := rs.used[t][id]
	return ok
}

// UsedCount returns how many recipes of the type the current cycle has
// consumed.
func (rs *RotationState) UsedCount(t recipe.Type) int {
	return len(rs.used[t])
}

func (rs *RotationState) markUsed(t recipe.Type, id string) {
	set, ok := rs.used[t]
	if !ok {
		set = make(map[string]struct{})
		rs.used[t] = set
	}
	set[id] = struct{}{}
}

func (rs *RotationState) bumpCuisine(c recipe.Cuisine) {
	if c == "" {
		return
	}
	rs.cuisineUsage[c]++
}

func (rs *RotationState) setLastComplexity(score float64) {
	rs.lastComplexity = score
}

// exhausted reports whether every recipe in the pool sits in the used set
// of its type. An empty pool is never considered exhausted; it is an
// availability problem, not a rotation one.
func (rs *RotationState) exhausted(t recipe.Type, pool []recipe.Recipe) bool {
	if len(pool) == 0 {
		return false
	}
	set := rs.used[t]
	if len(set) < len(pool) {
		return false
	}
	for i := range pool {
		if _, ok := set[pool[i].ID]; !ok {
			return false
		}
	}
	return true
}

// resetCategory starts a new rotation cycle for one recipe type.
func (rs *RotationState) resetCategory(t recipe.Type) {
	delete(rs.used, t)
	rs.cycle++
}

// Clone deep-copies the state so a run can stage mutations and commit
// them only on success.
func (rs *RotationState) Clone() *RotationState {
	out := &RotationState{
		cuisineUsage:   make(map[recipe.Cuisine]int, len(rs.cuisineUsage)),
		used:           make(map[recipe.Type]map[string]struct{}, len(rs.used)),
		cycle:          rs.cycle,
		lastComplexity: rs.lastComplexity,
	}
	for c, n := range rs.cuisineUsage {
		out.cuisineUsage[c] = n
	}
	for t, set := range rs.used {
		cp := make(map[string]struct{}, len(set))
		for id := range set {
			cp[id] = struct{}{}
		}
		out.used[t] = cp
	}
	return out
}

// commitTo replaces dst's contents with rs's. The staged clone keeps
// exclusive ownership of its maps, so handing them over is safe.
func (rs *RotationState) commitTo(dst *RotationState) {
	dst.cuisineUsage = rs.cuisineUsage
	dst.used = rs.used
	dst.cycle = rs.cycle
	dst.lastComplexity = rs.lastComplexity
}

// validateRecipes checks that every used recipe ID still resolves against
// the supplied recipe set. IDs that merely fell out of the dietary filter
// are fine; IDs missing from the set entirely mean the state and the
// favorites no longer describe the same library.
func (rs *RotationState) validateRecipes(byID map[string]recipe.Recipe) error {
	for t, set := range rs.used {
		for id := range set {
			if _, ok := byID[id]; !ok {
				return &RotationStateError{
					Reason: fmt.Sprintf("used %s recipe %s is not in the supplied recipe set", t, id),
				}
			}
		}
	}
	return nil
}

// RotationSnapshot is the persistence form of a RotationState. Slices are
// sorted so equal states always marshal to identical bytes.
type RotationSnapshot struct {
	CuisineUsageCounts       map[string]int      `json:"cuisine_usage_counts"`
	UsedRecipeIDs            map[string][]string `json:"used_recipe_ids"`
	CycleNumber              uint64              `json:"cycle_number"`
	LastAssignmentComplexity float64             `json:"last_assignment_complexity"`
}

// Snapshot converts the state into its persistence form.
func (rs *RotationState) Snapshot() RotationSnapshot {
	snap := RotationSnapshot{
		CuisineUsageCounts:       make(map[string]int, len(rs.cuisineUsage)),
		UsedRecipeIDs:            make(map[string][]string, len(rs.used)),
		CycleNumber:              rs.cycle,
		LastAssignmentComplexity: rs.lastComplexity,
	}
	for c, n := range rs.cuisineUsage {
		snap.CuisineUsageCounts[string(c)] = n
	}
	for t, set := range rs.used {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		snap.UsedRecipeIDs[string(t)] = ids
	}
	return snap
}

// FromSnapshot rebuilds a RotationState from its persistence form.
func FromSnapshot(snap RotationSnapshot) (*RotationState, error) {
	rs := NewRotationState()
	rs.cycle = snap.CycleNumber
	rs.lastComplexity = snap.LastAssignmentComplexity

	for c, n := range snap.CuisineUsageCounts {
		if n < 0 {
			return nil, &RotationStateError{
				Reason: fmt.Sprintf("cuisine %s has negative usage count %d", c, n),
			}
		}
		if n > 0 {
			rs.cuisineUsage[recipe.Cuisine(c)] = n
		}
	}

	for rawType, ids := range snap.UsedRecipeIDs {
		t, err := recipe.ParseType(rawType)
		if err != nil {
			return nil, &RotationStateError{
				Reason: fmt.Sprintf("used recipe set has unknown type %q", rawType),
			}
		}
		for _, id := range ids {
			if id == "" {
				return nil, &RotationStateError{
					Reason: fmt.Sprintf("used %s recipe set contains an empty id", t),
				}
			}
			rs.markUsed(t, id)
		}
	}
	return rs, nil
}
