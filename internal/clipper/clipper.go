// Package clipper imports recipes from web pages. It reads the
// schema.org Recipe markup most recipe sites publish, first as JSON-LD
// and then as microdata, and reduces it to the planning fields.
package clipper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"meal-rotation-planner/internal/recipe"
)

// Clipper fetches and extracts recipes from URLs.
type Clipper struct {
	httpClient *http.Client
}

// New creates a Clipper with a default HTTP client.
func New() *Clipper {
	return &Clipper{httpClient: &http.Client{Timeout: 15 * time.Second}}
}

// NewWithClient creates a Clipper using the given HTTP client.
func NewWithClient(client *http.Client) *Clipper {
	return &Clipper{httpClient: client}
}

// ClipURL fetches the URL and extracts the recipe it documents. The
// returned recipe has no ID; the caller assigns one before storing it.
func (c *Clipper) ClipURL(ctx context.Context, url string) (*recipe.Recipe, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	rec, err := Extract(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to extract recipe from %s: %w", url, err)
	}
	rec.SourceURL = url
	return rec, nil
}

// Extract parses recipe markup from an HTML document. It fails rather
// than return a partial record, since recipes without ingredient and
// instruction counts cannot be scored.
func Extract(r io.Reader) (*recipe.Recipe, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	rec, found := extractJSONLD(doc)
	if !found {
		rec, found = extractMicrodata(doc)
	}
	if !found {
		return nil, fmt.Errorf("no recipe markup found")
	}

	if rec.Title == "" {
		return nil, fmt.Errorf("recipe markup has no title")
	}
	if rec.IngredientsCount == 0 || rec.InstructionsCount == 0 {
		return nil, fmt.Errorf("recipe markup is incomplete: %d ingredients, %d instructions",
			rec.IngredientsCount, rec.InstructionsCount)
	}
	return rec, nil
}

// extractJSONLD scans script[type="application/ld+json"] blocks for a
// schema.org Recipe node, including nodes nested under @graph.
func extractJSONLD(doc *goquery.Document) (*recipe.Recipe, bool) {
	var rec *recipe.Recipe
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var raw any
		if err := json.Unmarshal([]byte(s.Text()), &raw); err != nil {
			return true // malformed block, keep scanning
		}
		for _, node := range candidateNodes(raw) {
			if !isRecipeNode(node) {
				continue
			}
			rec = recipeFromNode(node)
			return false
		}
		return true
	})
	return rec, rec != nil
}

func candidateNodes(raw any) []map[string]any {
	var out []map[string]any
	switch v := raw.(type) {
	case map[string]any:
		out = append(out, v)
		if graph, ok := v["@graph"].([]any); ok {
			for _, g := range graph {
				if m, ok := g.(map[string]any); ok {
					out = append(out, m)
				}
			}
		}
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

func isRecipeNode(node map[string]any) bool {
	switch t := node["@type"].(type) {
	case string:
		return t == "Recipe"
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

func recipeFromNode(node map[string]any) *recipe.Recipe {
	rec := &recipe.Recipe{
		Title:             ldString(node["name"]),
		IngredientsCount:  len(ldStrings(node["recipeIngredient"])),
		InstructionsCount: instructionCount(node["recipeInstructions"]),
		PrepTimeMinutes:   ParseDurationMinutes(ldString(node["prepTime"])),
		CookTimeMinutes:   ParseDurationMinutes(ldString(node["cookTime"])),
		Cuisine:           mapCuisine(ldString(node["recipeCuisine"])),
		DietaryTags:       mapDiets(ldStrings(node["suitableForDiet"])),
	}
	if rec.IngredientsCount == 0 {
		rec.IngredientsCount = len(ldStrings(node["ingredients"]))
	}
	rec.Type, rec.AccompanimentCategory = mapCategory(ldStrings(node["recipeCategory"]))
	return rec
}

// ldString pulls a string out of a JSON-LD value that may be a bare
// string or a list of them.
func ldString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case []any:
		for _, item := range s {
			if str, ok := item.(string); ok && strings.TrimSpace(str) != "" {
				return strings.TrimSpace(str)
			}
		}
	}
	return ""
}

func ldStrings(v any) []string {
	switch s := v.(type) {
	case string:
		if strings.TrimSpace(s) == "" {
			return nil
		}
		return []string{strings.TrimSpace(s)}
	case []any:
		var out []string
		for _, item := range s {
			if str, ok := item.(string); ok && strings.TrimSpace(str) != "" {
				out = append(out, strings.TrimSpace(str))
			}
		}
		return out
	}
	return nil
}

// instructionCount accepts either a list of HowToStep objects (or plain
// strings) or one free-text blob.
func instructionCount(v any) int {
	switch steps := v.(type) {
	case []any:
		return len(steps)
	case string:
		return countTextSteps(steps)
	}
	return 0
}

func countTextSteps(text string) int {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	if count <= 1 && strings.TrimSpace(text) != "" {
		// Single-paragraph instructions: count sentences instead.
		count = 0
		for _, s := range strings.Split(text, ". ") {
			if strings.TrimSpace(s) != "" {
				count++
			}
		}
	}
	return count
}

// extractMicrodata reads itemprop-annotated markup, the older schema.org
// publishing style.
func extractMicrodata(doc *goquery.Document) (*recipe.Recipe, bool) {
	root := doc.Find(`[itemtype*="schema.org/Recipe"]`).First()
	if root.Length() == 0 {
		return nil, false
	}

	rec := &recipe.Recipe{
		Title:            strings.TrimSpace(root.Find(`[itemprop="name"]`).First().Text()),
		IngredientsCount: root.Find(`[itemprop="recipeIngredient"], [itemprop="ingredients"]`).Length(),
		PrepTimeMinutes:  ParseDurationMinutes(propValue(root, "prepTime")),
		CookTimeMinutes:  ParseDurationMinutes(propValue(root, "cookTime")),
		Cuisine:          mapCuisine(strings.TrimSpace(root.Find(`[itemprop="recipeCuisine"]`).First().Text())),
	}

	instructions := root.Find(`[itemprop="recipeInstructions"]`)
	if instructions.Length() > 1 {
		rec.InstructionsCount = instructions.Length()
	} else if items := instructions.Find("li"); items.Length() > 0 {
		rec.InstructionsCount = items.Length()
	} else {
		rec.InstructionsCount = countTextSteps(instructions.Text())
	}

	var categories []string
	root.Find(`[itemprop="recipeCategory"]`).Each(func(_ int, s *goquery.Selection) {
		categories = append(categories, strings.TrimSpace(s.Text()))
	})
	rec.Type, rec.AccompanimentCategory = mapCategory(categories)

	return rec, true
}

// propValue prefers the machine-readable content attribute over the
// rendered text, matching how sites annotate durations.
func propValue(root *goquery.Selection, prop string) string {
	node := root.Find(fmt.Sprintf(`[itemprop=%q]`, prop)).First()
	if content, ok := node.Attr("content"); ok && content != "" {
		return content
	}
	if datetime, ok := node.Attr("datetime"); ok && datetime != "" {
		return datetime
	}
	return strings.TrimSpace(node.Text())
}

func mapCuisine(s string) recipe.Cuisine {
	switch strings.ToLower(s) {
	case "":
		return ""
	case "italian":
		return recipe.CuisineItalian
	case "mexican", "tex-mex":
		return recipe.CuisineMexican
	case "indian":
		return recipe.CuisineIndian
	case "french":
		return recipe.CuisineFrench
	case "japanese":
		return recipe.CuisineJapanese
	case "thai":
		return recipe.CuisineThai
	case "american", "southern":
		return recipe.CuisineAmerican
	case "mediterranean", "greek":
		return recipe.CuisineMediterranean
	case "chinese":
		return recipe.CuisineChinese
	}
	return recipe.CuisineOther
}

func mapCategory(categories []string) (recipe.Type, recipe.AccompanimentCategory) {
	for _, c := range categories {
		switch strings.ToLower(c) {
		case "appetizer", "appetizers", "starter", "starters":
			return recipe.TypeAppetizer, ""
		case "dessert", "desserts":
			return recipe.TypeDessert, ""
		case "salad", "salads":
			return recipe.TypeAccompaniment, recipe.CategorySalad
		case "side dish", "side dishes", "side", "sides":
			return recipe.TypeAccompaniment, recipe.CategorySide
		case "bread", "breads":
			return recipe.TypeAccompaniment, recipe.CategoryBread
		case "sauce", "sauces", "condiment", "condiments":
			return recipe.TypeAccompaniment, recipe.CategorySauce
		}
	}
	return recipe.TypeMainCourse, ""
}

func mapDiets(diets []string) []recipe.DietaryTag {
	var tags []recipe.DietaryTag
	seen := make(map[recipe.DietaryTag]bool)
	add := func(tag recipe.DietaryTag) {
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	for _, d := range diets {
		switch {
		case strings.Contains(d, "VegetarianDiet"):
			add(recipe.TagVegetarian)
		case strings.Contains(d, "VeganDiet"):
			add(recipe.TagVegan)
		case strings.Contains(d, "GlutenFreeDiet"):
			add(recipe.TagGlutenFree)
		case strings.Contains(d, "LowLactoseDiet"):
			add(recipe.TagDairyFree)
		}
	}
	return tags
}
