// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/alchemorsel/nutrition/internal/application/records"
	"github.com/alchemorsel/nutrition/internal/domain/mealplan"
	"github.com/alchemorsel/nutrition/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/nutrition/internal/ports/outbound"
)

// NutritionBase seeds an in-memory store with the tables of the nutrition base
type NutritionBase struct {
	Store  *memory.RecordStore
	Tables outbound.Tables
	faker  *gofakeit.Faker
}

// NewNutritionBase creates an empty base with a seeded faker
func NewNutritionBase(seed int64) *NutritionBase {
	return &NutritionBase{
		Store:  memory.NewRecordStore(),
		Tables: outbound.DefaultTables(),
		faker:  gofakeit.New(seed),
	}
}

// AddRecipe stores a recipe with a generated name and returns its id
func (b *NutritionBase) AddRecipe(calories, protein float64) string {
	return b.AddNamedRecipe(b.faker.Lunch(), calories, protein)
}

// AddNamedRecipe stores a recipe and returns its id
func (b *NutritionBase) AddNamedRecipe(name string, calories, protein float64) string {
	recs := b.Store.Seed(b.Tables.Recipes, outbound.Fields{
		records.RecipeName:     name,
		records.RecipeCalories: calories,
		records.RecipeProtein:  protein,
		records.RecipeFat:      float64(b.faker.Number(5, 40)),
		records.RecipeCarbs:    float64(b.faker.Number(10, 90)),
		records.RecipePrepTime: float64(b.faker.Number(5, 60)),
		records.RecipeQuick:    b.faker.Bool(),
	})
	return recs[0].ID
}

// AddIngredient stores an ingredient and returns its id
func (b *NutritionBase) AddIngredient(name string) string {
	if name == "" {
		name = b.faker.Vegetable()
	}
	recs := b.Store.Seed(b.Tables.Ingredients, outbound.Fields{records.IngredientName: name})
	return recs[0].ID
}

// AddRecipeIngredient links an ingredient line to a recipe
func (b *NutritionBase) AddRecipeIngredient(recipeID, ingredientID string, quantity float64, unit string) string {
	recs := b.Store.Seed(b.Tables.RecipeIngredients, outbound.Fields{
		records.RecipeIngredientRecipes:    []string{recipeID},
		records.RecipeIngredientIngredient: []string{ingredientID},
		records.RecipeIngredientQuantity:   quantity,
		records.RecipeIngredientUnit:       unit,
	})
	return recs[0].ID
}

// AddMealPlan stores a plan for the week starting at weekStart and returns its id
func (b *NutritionBase) AddMealPlan(name string, weekStart time.Time) string {
	plan, err := mealplan.NewPlan("rec"+b.faker.LetterN(14), weekStart, name, "")
	if err != nil {
		panic(err)
	}
	recs := b.Store.Seed(b.Tables.MealPlans, records.PlanToFields(plan))
	return recs[0].ID
}

// AddPlannedMeal schedules a recipe within a plan and returns the meal id
func (b *NutritionBase) AddPlannedMeal(planID, recipeID string, date time.Time, servings float64) string {
	recs := b.Store.Seed(b.Tables.PlannedMeals, records.MealToFields(planID, mealplan.Meal{
		Name:     "Обед: " + b.faker.Lunch(),
		RecipeID: recipeID,
		Date:     date,
		Type:     mealplan.Lunch,
		Servings: servings,
	}))
	return recs[0].ID
}

// RandomRecord builds a record with a fake id for mock expectations
func RandomRecord(fields outbound.Fields) outbound.Record {
	return outbound.Record{
		ID:          memory.NewRecordID(),
		CreatedTime: gofakeit.Date().UTC(),
		Fields:      fields,
	}
}
