package shopping

import (
	"math/rand"
	"testing"
	"time"

	"github.com/alchemorsel/nutrition/internal/domain/mealplan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServingsByRecipe(t *testing.T) {
	meals := []mealplan.Meal{
		{RecipeID: "r1", Servings: 1},
		{RecipeID: "r1", Servings: 3},
		{RecipeID: "r2", Servings: 2},
		{RecipeID: "", Servings: 5},
	}

	servings := ServingsByRecipe(meals)

	assert.Equal(t, map[string]float64{"r1": 4, "r2": 2}, servings)
}

func TestScale(t *testing.T) {
	rows := []RecipeIngredient{
		{RecipeIDs: []string{"rX", "r2", "r1"}, IngredientID: "i1", Quantity: 10, Unit: "г"},
		{RecipeIDs: []string{"r1"}, IngredientID: "", Quantity: 99, Unit: "г"},
		{RecipeIDs: []string{"rY"}, IngredientID: "i2", Quantity: 5, Unit: "шт"},
		{RecipeIDs: []string{"r1"}, IngredientID: "i3", Unit: "шт"},
	}

	lines := Scale(rows, map[string]float64{"r1": 2, "r2": 3})

	require.Len(t, lines, 2)
	// first linked recipe that belongs to the plan wins
	assert.Equal(t, LineItem{IngredientID: "i1", RecipeID: "r2", Quantity: 30, Unit: "г"}, lines[0])
	assert.Equal(t, LineItem{IngredientID: "i3", RecipeID: "r1", Quantity: 0, Unit: "шт"}, lines[1])
}

func TestAggregate_SingleRecipeScenarios(t *testing.T) {
	names := map[string]string{"flour": "Flour", "sugar": "Sugar"}

	t.Run("servings scale the quantity", func(t *testing.T) {
		meals := []mealplan.Meal{{RecipeID: "r1", Servings: 2}}
		rows := []RecipeIngredient{{RecipeIDs: []string{"r1"}, IngredientID: "flour", Quantity: 100, Unit: "г"}}

		items := Aggregate(Scale(rows, ServingsByRecipe(meals)), names)

		require.Len(t, items, 1)
		assert.Equal(t, Item{IngredientID: "flour", IngredientName: "Flour", Quantity: 200, Unit: "г", RecipeCount: 1}, items[0])
		assert.Equal(t, "Flour (200г)", Label(items[0]))
	})

	t.Run("repeated meals add their servings", func(t *testing.T) {
		meals := []mealplan.Meal{{RecipeID: "r1", Servings: 1}, {RecipeID: "r1", Servings: 3}}
		rows := []RecipeIngredient{{RecipeIDs: []string{"r1"}, IngredientID: "sugar", Quantity: 50, Unit: "г"}}

		items := Aggregate(Scale(rows, ServingsByRecipe(meals)), names)

		require.Len(t, items, 1)
		assert.Equal(t, 200.0, items[0].Quantity)
		assert.Equal(t, 1, items[0].RecipeCount)
	})
}

func TestAggregate_MergesByIngredientAndUnit(t *testing.T) {
	lines := []LineItem{
		{IngredientID: "i1", RecipeID: "r1", Quantity: 100, Unit: "г"},
		{IngredientID: "i1", RecipeID: "r2", Quantity: 50, Unit: "г"},
		{IngredientID: "i1", RecipeID: "r2", Quantity: 1, Unit: "шт"},
		{IngredientID: "i2", RecipeID: "r1", Quantity: 0.25, Unit: "л"},
		{IngredientID: "i2", RecipeID: "r1", Quantity: 0.125, Unit: "л"},
	}
	names := map[string]string{"i1": "Eggs", "i2": "Milk"}

	items := Aggregate(lines, names)

	require.Len(t, items, 3)
	assert.Equal(t, Item{IngredientID: "i1", IngredientName: "Eggs", Quantity: 150, Unit: "г", RecipeCount: 2}, items[0])
	assert.Equal(t, Item{IngredientID: "i1", IngredientName: "Eggs", Quantity: 1, Unit: "шт", RecipeCount: 1}, items[1])
	assert.Equal(t, Item{IngredientID: "i2", IngredientName: "Milk", Quantity: 0.4, Unit: "л", RecipeCount: 1}, items[2])
}

func TestAggregate_UnknownNamesAndOrdering(t *testing.T) {
	lines := []LineItem{
		{IngredientID: "i3", RecipeID: "r1", Quantity: 1, Unit: "шт"},
		{IngredientID: "i2", RecipeID: "r1", Quantity: 1, Unit: "шт"},
		{IngredientID: "i1", RecipeID: "r1", Quantity: 1, Unit: "шт"},
	}
	names := map[string]string{"i1": "Basil", "i2": ""}

	items := Aggregate(lines, names)

	require.Len(t, items, 3)
	assert.Equal(t, "Basil", items[0].IngredientName)
	// "Unknown" ties are broken by ingredient id
	assert.Equal(t, UnknownIngredient, items[1].IngredientName)
	assert.Equal(t, "i2", items[1].IngredientID)
	assert.Equal(t, "i3", items[2].IngredientID)
}

func TestAggregate_NormalizesUnitsForDisplay(t *testing.T) {
	lines := []LineItem{{IngredientID: "i1", RecipeID: "r1", Quantity: 200, Unit: "гр"}}

	items := Aggregate(lines, map[string]string{"i1": "Flour"})

	require.Len(t, items, 1)
	assert.Equal(t, "г", items[0].Unit)
	assert.Equal(t, "Flour (200г)", Label(items[0]))
}

func TestAggregate_OrderIndependent(t *testing.T) {
	var lines []LineItem
	ingredients := []string{"i1", "i2", "i3", "i4"}
	units := []string{"г", "мл"}
	for n := 0; n < 60; n++ {
		lines = append(lines, LineItem{
			IngredientID: ingredients[n%len(ingredients)],
			RecipeID:     []string{"r1", "r2", "r3"}[n%3],
			Quantity:     0.1 * float64(n%7+1),
			Unit:         units[n%len(units)],
		})
	}
	names := map[string]string{"i1": "Apple", "i2": "Bean", "i3": "Corn", "i4": "Date"}
	want := Aggregate(lines, names)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for round := 0; round < 25; round++ {
		shuffled := append([]LineItem(nil), lines...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		assert.Equal(t, want, Aggregate(shuffled, names))
	}
}

func TestAggregate_RoundsHalvesToEven(t *testing.T) {
	lines := []LineItem{
		{IngredientID: "i1", RecipeID: "r1", Quantity: 12, Unit: "г"},
		{IngredientID: "i1", RecipeID: "r2", Quantity: 0.25, Unit: "г"},
		{IngredientID: "i2", RecipeID: "r1", Quantity: 0.35, Unit: "л"},
		{IngredientID: "i3", RecipeID: "r1", Quantity: 2.45, Unit: "шт"},
	}
	names := map[string]string{"i1": "A", "i2": "B", "i3": "C"}

	items := Aggregate(lines, names)

	require.Len(t, items, 3)
	assert.Equal(t, 12.2, items[0].Quantity)
	assert.Equal(t, 0.3, items[1].Quantity)
	assert.Equal(t, 2.5, items[2].Quantity)
}

func TestNormalizeUnit(t *testing.T) {
	cases := map[string]string{
		"гр":   "г",
		"г":    "г",
		" гр ": "г",
		"шт":   "шт",
		"":     "",
		"ml":   "ml",
	}
	for in, want := range cases {
		once := NormalizeUnit(in)
		assert.Equal(t, want, once, in)
		assert.Equal(t, once, NormalizeUnit(once), "normalizing %q twice", in)
	}
}

func TestIngredientIDs(t *testing.T) {
	lines := []LineItem{{IngredientID: "b"}, {IngredientID: "a"}, {IngredientID: "b"}}

	assert.Equal(t, []string{"b", "a"}, IngredientIDs(lines))
	assert.Empty(t, IngredientIDs(nil))
}
