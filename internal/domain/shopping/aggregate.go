// Package shopping turns the recipes of a meal plan into an aggregated purchase list
package shopping

import (
	"sort"
	"strconv"
	"strings"

	"github.com/alchemorsel/nutrition/internal/domain/mealplan"
)

// UnknownIngredient is the display name used when a name lookup fails
const UnknownIngredient = "Unknown"

// RecipeIngredient is one quantity line of a recipe
type RecipeIngredient struct {
	ID           string
	RecipeIDs    []string
	IngredientID string
	Quantity     float64
	Unit         string
}

// LineItem is a recipe ingredient line scaled by the servings planned for its recipe
type LineItem struct {
	IngredientID string
	RecipeID     string
	Quantity     float64
	Unit         string
}

// Item is one aggregated purchase entry
type Item struct {
	IngredientID   string
	IngredientName string
	Quantity       float64
	Unit           string
	RecipeCount    int
}

// ServingsByRecipe sums the planned servings of every referenced recipe.
// Meals without a recipe are ignored.
func ServingsByRecipe(meals []mealplan.Meal) map[string]float64 {
	out := make(map[string]float64)
	for _, m := range meals {
		if m.RecipeID == "" {
			continue
		}
		out[m.RecipeID] += m.Servings
	}
	return out
}

// Scale multiplies each ingredient row by the servings of the first linked
// recipe present in multipliers. Rows with no ingredient link, or with no
// linked recipe in the plan, are dropped.
func Scale(rows []RecipeIngredient, multipliers map[string]float64) []LineItem {
	lines := make([]LineItem, 0, len(rows))
	for _, row := range rows {
		if row.IngredientID == "" {
			continue
		}
		for _, recipeID := range row.RecipeIDs {
			m, ok := multipliers[recipeID]
			if !ok {
				continue
			}
			lines = append(lines, LineItem{
				IngredientID: row.IngredientID,
				RecipeID:     recipeID,
				Quantity:     row.Quantity * m,
				Unit:         row.Unit,
			})
			break
		}
	}
	return lines
}

// IngredientIDs returns the distinct ingredient ids of lines in first-seen order
func IngredientIDs(lines []LineItem) []string {
	seen := make(map[string]struct{}, len(lines))
	var ids []string
	for _, l := range lines {
		if _, ok := seen[l.IngredientID]; ok {
			continue
		}
		seen[l.IngredientID] = struct{}{}
		ids = append(ids, l.IngredientID)
	}
	return ids
}

type key struct {
	ingredientID string
	unit         string
}

type bucket struct {
	quantities []float64
	recipes    map[string]struct{}
}

// Aggregate merges lines sharing (ingredient, unit).
//
// Quantities are summed in sorted order so the result does not depend on the
// order of lines, then rounded to one decimal. Names come from names keyed by
// ingredient id; an absent name becomes UnknownIngredient. The output is
// sorted by name, then ingredient id, then unit, and units are normalized
// for display.
func Aggregate(lines []LineItem, names map[string]string) []Item {
	buckets := make(map[key]*bucket)
	for _, l := range lines {
		k := key{ingredientID: l.IngredientID, unit: l.Unit}
		b, ok := buckets[k]
		if !ok {
			b = &bucket{recipes: make(map[string]struct{})}
			buckets[k] = b
		}
		b.quantities = append(b.quantities, l.Quantity)
		if l.RecipeID != "" {
			b.recipes[l.RecipeID] = struct{}{}
		}
	}

	items := make([]Item, 0, len(buckets))
	for k, b := range buckets {
		name, ok := names[k.ingredientID]
		if !ok || strings.TrimSpace(name) == "" {
			name = UnknownIngredient
		}
		items = append(items, Item{
			IngredientID:   k.ingredientID,
			IngredientName: name,
			Quantity:       round1(sum(b.quantities)),
			Unit:           k.unit,
			RecipeCount:    len(b.recipes),
		})
	}

	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.IngredientName != b.IngredientName {
			return a.IngredientName < b.IngredientName
		}
		if a.IngredientID != b.IngredientID {
			return a.IngredientID < b.IngredientID
		}
		return a.Unit < b.Unit
	})

	for i := range items {
		items[i].Unit = NormalizeUnit(items[i].Unit)
	}
	return items
}

// unitAliases maps stored unit spellings to their display form
var unitAliases = map[string]string{
	"гр": "г",
}

// NormalizeUnit maps unit spellings to their display form. Applying it twice
// gives the same result as applying it once.
func NormalizeUnit(unit string) string {
	trimmed := strings.TrimSpace(unit)
	if alias, ok := unitAliases[trimmed]; ok {
		return alias
	}
	return trimmed
}

func sum(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var total float64
	for _, v := range sorted {
		total += v
	}
	return total
}

// round1 matches the display rounding of plan stats: half to even on the
// exact binary value
func round1(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	return r
}
