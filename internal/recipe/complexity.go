package recipe

// ComplexThreshold is the complexity score at which a recipe counts as
// complex for consecutive-day checks.
const ComplexThreshold = 7.0

// maxComplexity caps derived scores so precomputed and derived values
// share the same 0-10 scale.
const maxComplexity = 10.0

// ComplexityCalculator derives a 0-10 complexity score from the size of a
// recipe. Implementations must be pure: same counts, same score.
type ComplexityCalculator interface {
	Score(ingredientsCount, instructionsCount int) float64
}

// WeightedComplexity scores a recipe as a weighted sum of its ingredient
// and instruction counts, capped at 10. Instruction count dominates
// because long methods cost more evenings than long shopping lists.
type WeightedComplexity struct {
	IngredientWeight  float64
	InstructionWeight float64
}

// NewWeightedComplexity returns the default calculator.
func NewWeightedComplexity() WeightedComplexity {
	return WeightedComplexity{
		IngredientWeight:  0.35,
		InstructionWeight: 0.65,
	}
}

// Score implements ComplexityCalculator.
func (w WeightedComplexity) Score(ingredientsCount, instructionsCount int) float64 {
	if ingredientsCount < 0 {
		ingredientsCount = 0
	}
	if instructionsCount < 0 {
		instructionsCount = 0
	}
	score := w.IngredientWeight*float64(ingredientsCount) + w.InstructionWeight*float64(instructionsCount)
	if score > maxComplexity {
		return maxComplexity
	}
	return score
}

// ComplexityOf returns the recipe's precomputed complexity when present,
// otherwise derives one with calc.
func ComplexityOf(r Recipe, calc ComplexityCalculator) float64 {
	if r.Complexity > 0 {
		return r.Complexity
	}
	return calc.Score(r.IngredientsCount, r.InstructionsCount)
}
