// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
)

// MealPlanService defines the use cases for weekly meal plans
type MealPlanService interface {
	CreateMealPlan(ctx context.Context, cmd CreateMealPlanCommand) (*MealPlanCreatedDTO, error)
	GetMealPlan(ctx context.Context, mealPlanID string) (*MealPlanDetailDTO, error)
}

// ShoppingListService defines the use cases for shopping lists derived from meal plans
type ShoppingListService interface {
	GenerateShoppingList(ctx context.Context, cmd GenerateShoppingListCommand) (*ShoppingListGeneratedDTO, error)
	GetShoppingList(ctx context.Context, shoppingListID string) (*ShoppingListDTO, error)

	// DeleteShoppingList removes the list and every item linked to it
	DeleteShoppingList(ctx context.Context, shoppingListID string) error
}

// Command objects for operations

// CreateMealPlanCommand contains data for generating a meal plan.
// Dates are YYYY-MM-DD strings; PlanName and Notes are optional.
type CreateMealPlanCommand struct {
	UserID    string
	WeekStart string
	PlanName  string
	Notes     string
}

// GenerateShoppingListCommand contains data for deriving a shopping list.
// ShoppingDate defaults to the plan's week start when empty.
type GenerateShoppingListCommand struct {
	MealPlanID   string
	ShoppingDate string
}

// Response DTOs

// MealPlanCreatedDTO summarises a freshly generated plan
type MealPlanCreatedDTO struct {
	MealPlanID  string  `json:"meal_plan_id"`
	PlanName    string  `json:"plan_name"`
	WeekStart   string  `json:"week_start"`
	WeekEnd     string  `json:"week_end"`
	TotalMeals  int     `json:"total_meals"`
	AvgCalories float64 `json:"avg_calories"`
	AvgProtein  float64 `json:"avg_protein"`
}

// MealPlanDTO is the data transfer object for a stored plan
type MealPlanDTO struct {
	ID        string `json:"id"`
	PlanName  string `json:"plan_name"`
	UserID    string `json:"user_id"`
	WeekStart string `json:"week_start"`
	WeekEnd   string `json:"week_end"`
	Status    string `json:"status"`
	Notes     string `json:"notes"`
}

// PlannedMealDTO for planned meal data
type PlannedMealDTO struct {
	ID       string  `json:"id"`
	MealName string  `json:"meal_name"`
	RecipeID string  `json:"recipe_id"`
	Date     string  `json:"date"`
	MealType string  `json:"meal_type"`
	Servings float64 `json:"servings"`
}

// MealPlanDetailDTO is a plan with its meals ordered by date and slot
type MealPlanDetailDTO struct {
	MealPlan     MealPlanDTO      `json:"meal_plan"`
	PlannedMeals []PlannedMealDTO `json:"planned_meals"`
	TotalMeals   int              `json:"total_meals"`
}

// ShoppingListGeneratedDTO summarises a freshly generated list
type ShoppingListGeneratedDTO struct {
	ShoppingListID string `json:"shopping_list_id"`
	MealPlanID     string `json:"meal_plan_id"`
	ItemsCount     int    `json:"items_count"`
	TotalRecipes   int    `json:"total_recipes"`
	TotalMeals     int    `json:"total_meals"`
}

// ShoppingListItemDTO for shopping list item data
type ShoppingListItemDTO struct {
	ID           string  `json:"id"`
	ItemName     string  `json:"item_name"`
	IngredientID string  `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	Purchased    bool    `json:"purchased"`
	Price        float64 `json:"price"`
}

// ShoppingListDTO is a stored list with its items
type ShoppingListDTO struct {
	ShoppingListID string                `json:"shopping_list_id"`
	ListName       string                `json:"list_name"`
	MealPlanID     string                `json:"meal_plan_id"`
	Status         string                `json:"status"`
	ShoppingDate   string                `json:"shopping_date"`
	TotalCost      float64               `json:"total_cost"`
	ItemsCount     int                   `json:"items_count"`
	Items          []ShoppingListItemDTO `json:"items"`
}
