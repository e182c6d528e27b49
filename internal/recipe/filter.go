package recipe

import "fmt"

// MatchMode controls how a recipe's dietary tags are compared against a
// user's restrictions.
type MatchMode int

const (
	// MatchAll keeps a recipe only when it carries every restriction.
	MatchAll MatchMode = iota
	// MatchAny keeps a recipe when it carries at least one restriction.
	MatchAny
)

// String implements fmt.Stringer.
func (m MatchMode) String() string {
	switch m {
	case MatchAll:
		return "all"
	case MatchAny:
		return "any"
	}
	return fmt.Sprintf("MatchMode(%d)", int(m))
}

// ParseMatchMode converts a stored or user-supplied string into a MatchMode.
func ParseMatchMode(s string) (MatchMode, error) {
	switch s {
	case "all", "":
		return MatchAll, nil
	case "any":
		return MatchAny, nil
	}
	return MatchAll, fmt.Errorf("unknown match mode %q", s)
}

// MarshalText implements encoding.TextMarshaler so preference documents
// store the mode as "all" or "any".
func (m MatchMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MatchMode) UnmarshalText(text []byte) error {
	mode, err := ParseMatchMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// FilterByDiet returns the recipes whose dietary tags satisfy the given
// restrictions under the given mode. An empty restriction list keeps
// everything. The input slice is never mutated.
func FilterByDiet(recipes []Recipe, restrictions []DietaryTag, mode MatchMode) []Recipe {
	if len(restrictions) == 0 {
		out := make([]Recipe, len(recipes))
		copy(out, recipes)
		return out
	}

	out := make([]Recipe, 0, len(recipes))
	for _, r := range recipes {
		if matchesDiet(r, restrictions, mode) {
			out = append(out, r)
		}
	}
	return out
}

func matchesDiet(r Recipe, restrictions []DietaryTag, mode MatchMode) bool {
	switch mode {
	case MatchAny:
		for _, tag := range restrictions {
			if r.HasTag(tag) {
				return true
			}
		}
		return false
	default:
		for _, tag := range restrictions {
			if !r.HasTag(tag) {
				return false
			}
		}
		return true
	}
}
