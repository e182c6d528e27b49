// Package recipe defines the planning view of a favorite recipe together
// with the pure helpers (dietary filtering, complexity scoring) that run
// before any slot is scored.
package recipe

import "fmt"

// Type classifies a recipe by the course it can fill.
type Type string

const (
	TypeAppetizer     Type = "appetizer"
	TypeMainCourse    Type = "main_course"
	TypeDessert       Type = "dessert"
	TypeAccompaniment Type = "accompaniment"
)

// ParseType converts a stored or user-supplied string into a Type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeAppetizer, TypeMainCourse, TypeDessert, TypeAccompaniment:
		return Type(s), nil
	}
	return "", fmt.Errorf("unknown recipe type %q", s)
}

// Valid reports whether t is one of the known recipe types.
func (t Type) Valid() bool {
	_, err := ParseType(string(t))
	return err == nil
}

// Cuisine labels the culinary tradition a recipe belongs to. The planner
// only counts occurrences per label, so the set is open-ended; these are
// the values the favorites API emits today.
type Cuisine string

const (
	CuisineItalian       Cuisine = "italian"
	CuisineMexican       Cuisine = "mexican"
	CuisineIndian        Cuisine = "indian"
	CuisineFrench        Cuisine = "french"
	CuisineJapanese      Cuisine = "japanese"
	CuisineThai          Cuisine = "thai"
	CuisineAmerican      Cuisine = "american"
	CuisineMediterranean Cuisine = "mediterranean"
	CuisineChinese       Cuisine = "chinese"
	CuisineOther         Cuisine = "other"
)

// DietaryTag is a dietary property a recipe satisfies, e.g. "vegetarian".
// Tags are free-form; the constants below cover the common ones.
type DietaryTag string

const (
	TagVegetarian DietaryTag = "vegetarian"
	TagVegan      DietaryTag = "vegan"
	TagGlutenFree DietaryTag = "gluten_free"
	TagDairyFree  DietaryTag = "dairy_free"
	TagNutFree    DietaryTag = "nut_free"
)

// AccompanimentCategory groups accompaniment recipes so main courses can
// declare which kinds of pairing they accept.
type AccompanimentCategory string

const (
	CategorySalad AccompanimentCategory = "salad"
	CategorySide  AccompanimentCategory = "side"
	CategoryBread AccompanimentCategory = "bread"
	CategorySauce AccompanimentCategory = "sauce"
)

// Recipe is the planning-relevant projection of a favorite recipe. It
// carries counts and durations rather than full ingredient or instruction
// text; the planner never needs the bodies.
type Recipe struct {
	ID                string       `json:"id"`
	Title             string       `json:"title"`
	Type              Type         `json:"recipe_type"`
	Cuisine           Cuisine      `json:"cuisine,omitempty"`
	IngredientsCount  int          `json:"ingredients_count"`
	InstructionsCount int          `json:"instructions_count"`
	PrepTimeMinutes   int          `json:"prep_time_minutes,omitempty"`
	CookTimeMinutes   int          `json:"cook_time_minutes,omitempty"`
	AdvancePrepHours  int          `json:"advance_prep_hours,omitempty"`
	Complexity        float64      `json:"complexity,omitempty"`
	DietaryTags       []DietaryTag `json:"dietary_tags,omitempty"`

	// Pairing fields. AcceptsAccompaniment and the preferred categories
	// only matter on main courses; AccompanimentCategory only matters on
	// recipes of TypeAccompaniment.
	AcceptsAccompaniment    bool                    `json:"accepts_accompaniment,omitempty"`
	PreferredAccompaniments []AccompanimentCategory `json:"preferred_accompaniment_categories,omitempty"`
	AccompanimentCategory   AccompanimentCategory   `json:"accompaniment_category,omitempty"`

	SourceURL string `json:"source_url,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// TotalTimeMinutes is the combined prep and cook time. Zero means the
// source never declared a duration.
func (r Recipe) TotalTimeMinutes() int {
	return r.PrepTimeMinutes + r.CookTimeMinutes
}

// HasTag reports whether the recipe carries the given dietary tag.
func (r Recipe) HasTag(tag DietaryTag) bool {
	for _, t := range r.DietaryTags {
		if t == tag {
			return true
		}
	}
	return false
}

// RequiresAdvancePrep reports whether any step must start hours before
// the meal (marinating, proofing, overnight soaking).
func (r Recipe) RequiresAdvancePrep() bool {
	return r.AdvancePrepHours > 0
}

// Validate checks the fields every stored recipe must carry.
func (r Recipe) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("recipe has no id")
	}
	if r.Title == "" {
		return fmt.Errorf("recipe %s has no title", r.ID)
	}
	if !r.Type.Valid() {
		return fmt.Errorf("recipe %s has unknown type %q", r.ID, r.Type)
	}
	if r.IngredientsCount < 0 || r.InstructionsCount < 0 {
		return fmt.Errorf("recipe %s has negative counts", r.ID)
	}
	return nil
}
