// Package records provides mapping between domain types and remote store rows
package records

import (
	"fmt"

	"github.com/alchemorsel/nutrition/internal/domain/mealplan"
	"github.com/alchemorsel/nutrition/internal/domain/recipe"
	"github.com/alchemorsel/nutrition/internal/domain/shopping"
	"github.com/alchemorsel/nutrition/internal/ports/outbound"
)

// Recipes
const (
	RecipeName     = "Recipe Name"
	RecipeCalories = "Calories"
	RecipeProtein  = "Protein (g)"
	RecipeFat      = "Fat (g)"
	RecipeCarbs    = "Carbs (g)"
	RecipePrepTime = "Prep Time (min)"
	RecipeQuick    = "Быстрое"
	RecipeTags     = "Tags"
)

// Meal plans
const (
	PlanName      = "Plan Name"
	PlanUser      = "User"
	PlanWeekStart = "Week Start"
	PlanWeekEnd   = "Week End"
	PlanStatus    = "Status"
	PlanNotes     = "Notes"
)

// Planned meals
const (
	MealName     = "Meal Name"
	MealPlan     = "Meal Plan"
	MealRecipe   = "Recipe"
	MealDate     = "Date"
	MealType     = "Meal Type"
	MealServings = "Servings"
)

// Ingredients and recipe ingredient lines
const (
	IngredientName             = "Ingredient Name"
	RecipeIngredientRecipes    = "Recipes 2"
	RecipeIngredientIngredient = "Ingredients"
	RecipeIngredientQuantity   = "Количество"
	RecipeIngredientUnit       = "Единица измерения"
)

// Shopping lists and their items
const (
	ListName         = "List Name"
	ListMealPlan     = "Meal Plan"
	ListShoppingDate = "Shopping Date"
	ListStatus       = "Status"
	ListTotalCost    = "Total Cost (EUR)"

	ItemLabel      = "Item"
	ItemList       = "Shopping List"
	ItemIngredient = "Ingredient"
	ItemQuantity   = "Quantity"
	ItemUnit       = "Unit"
	ItemPurchased  = "Purchased"
	ItemPrice      = "Price"
)

// RecordToRecipe converts a Recipes row. ok is false when the row lacks a
// name, calories or protein and cannot take part in planning.
func RecordToRecipe(r outbound.Record) (recipe.Recipe, bool) {
	name := r.Fields.String(RecipeName)
	calories, hasCalories := r.Fields.Float(RecipeCalories)
	protein, hasProtein := r.Fields.Float(RecipeProtein)
	if name == "" || !hasCalories || !hasProtein {
		return recipe.Recipe{}, false
	}

	fat, _ := r.Fields.Float(RecipeFat)
	carbs, _ := r.Fields.Float(RecipeCarbs)
	prep, _ := r.Fields.Float(RecipePrepTime)

	return recipe.Recipe{
		ID:       r.ID,
		Name:     name,
		Calories: calories,
		Protein:  protein,
		Fat:      fat,
		Carbs:    carbs,
		PrepTime: int(prep),
		Quick:    r.Fields.Bool(RecipeQuick),
		Tags:     r.Fields.Strings(RecipeTags),
	}, true
}

// PlanToFields converts a plan to a Meal_Plans row
func PlanToFields(p *mealplan.Plan) outbound.Fields {
	return outbound.Fields{
		PlanName:      p.Name,
		PlanUser:      []string{p.UserID},
		PlanWeekStart: mealplan.FormatDate(p.WeekStart),
		PlanWeekEnd:   mealplan.FormatDate(p.WeekEnd),
		PlanStatus:    p.Status,
		PlanNotes:     p.Notes,
	}
}

// RecordToPlan converts a Meal_Plans row. Meals are not loaded.
func RecordToPlan(r outbound.Record) (*mealplan.Plan, error) {
	start, err := mealplan.ParseDate(r.Fields.String(PlanWeekStart))
	if err != nil {
		return nil, fmt.Errorf("meal plan %s: %w", r.ID, err)
	}

	end := start.AddDate(0, 0, mealplan.DaysInWeek-1)
	if raw := r.Fields.String(PlanWeekEnd); raw != "" {
		if parsed, err := mealplan.ParseDate(raw); err == nil {
			end = parsed
		}
	}

	return &mealplan.Plan{
		ID:        r.ID,
		Name:      r.Fields.String(PlanName),
		UserID:    r.Fields.FirstLink(PlanUser),
		WeekStart: start,
		WeekEnd:   end,
		Status:    r.Fields.String(PlanStatus),
		Notes:     r.Fields.String(PlanNotes),
	}, nil
}

// MealToFields converts a planned meal to a Planned_Meals row linked to planID
func MealToFields(planID string, m mealplan.Meal) outbound.Fields {
	return outbound.Fields{
		MealName:     m.Name,
		MealPlan:     []string{planID},
		MealRecipe:   []string{m.RecipeID},
		MealDate:     mealplan.FormatDate(m.Date),
		MealType:     string(m.Type),
		MealServings: m.Servings,
	}
}

// RecordToMeal converts a Planned_Meals row. Missing servings read as one
// serving and an unparsable date is left zero.
func RecordToMeal(r outbound.Record) mealplan.Meal {
	servings, ok := r.Fields.Float(MealServings)
	if !ok {
		servings = mealplan.DefaultServings
	}
	date, _ := mealplan.ParseDate(r.Fields.String(MealDate))

	return mealplan.Meal{
		ID:       r.ID,
		Name:     r.Fields.String(MealName),
		RecipeID: r.Fields.FirstLink(MealRecipe),
		Date:     date,
		Type:     mealplan.MealType(r.Fields.String(MealType)),
		Servings: servings,
	}
}

// RecordToRecipeIngredient converts a Recipe_Ingredients row. A missing
// quantity reads as zero and a missing unit as "".
func RecordToRecipeIngredient(r outbound.Record) shopping.RecipeIngredient {
	quantity, _ := r.Fields.Float(RecipeIngredientQuantity)
	return shopping.RecipeIngredient{
		ID:           r.ID,
		RecipeIDs:    r.Fields.Links(RecipeIngredientRecipes),
		IngredientID: r.Fields.FirstLink(RecipeIngredientIngredient),
		Quantity:     quantity,
		Unit:         r.Fields.String(RecipeIngredientUnit),
	}
}

// ListToFields converts a shopping list to a Shopping_Lists row
func ListToFields(l *shopping.List) outbound.Fields {
	return outbound.Fields{
		ListName:         l.Name,
		ListMealPlan:     []string{l.MealPlanID},
		ListShoppingDate: mealplan.FormatDate(l.ShoppingDate),
		ListStatus:       l.Status,
	}
}

// RecordToList converts a Shopping_Lists row. Items are not loaded.
func RecordToList(r outbound.Record) *shopping.List {
	date, _ := mealplan.ParseDate(r.Fields.String(ListShoppingDate))
	cost, _ := r.Fields.Float(ListTotalCost)

	return &shopping.List{
		ID:           r.ID,
		Name:         r.Fields.String(ListName),
		MealPlanID:   r.Fields.FirstLink(ListMealPlan),
		ShoppingDate: date,
		Status:       r.Fields.String(ListStatus),
		TotalCost:    cost,
	}
}

// ItemToFields converts a list line to a Shopping_List_Items row linked to listID
func ItemToFields(listID string, item shopping.ListItem) outbound.Fields {
	return outbound.Fields{
		ItemLabel:      item.Label,
		ItemList:       []string{listID},
		ItemIngredient: []string{item.IngredientID},
		ItemQuantity:   item.Quantity,
		ItemUnit:       item.Unit,
		ItemPurchased:  item.Purchased,
	}
}

// RecordToItem converts a Shopping_List_Items row
func RecordToItem(r outbound.Record) shopping.ListItem {
	quantity, _ := r.Fields.Float(ItemQuantity)
	price, _ := r.Fields.Float(ItemPrice)

	return shopping.ListItem{
		ID:           r.ID,
		Label:        r.Fields.String(ItemLabel),
		IngredientID: r.Fields.FirstLink(ItemIngredient),
		Quantity:     quantity,
		Unit:         r.Fields.String(ItemUnit),
		Purchased:    r.Fields.Bool(ItemPurchased),
		Price:        price,
	}
}
