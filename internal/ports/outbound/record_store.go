// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"time"
)

// MaxBatchSize is the largest number of records a single bulk write may carry
const MaxBatchSize = 10

// RecordStore is the façade over the remote tabular store.
// Every table is addressed by name and every row is an untyped field map.
type RecordStore interface {
	// Create inserts one row and returns it with its assigned id
	Create(ctx context.Context, table string, fields Fields) (*Record, error)

	// CreateBatch inserts rows in chunks of MaxBatchSize, sequentially, preserving input order.
	// When a chunk fails the records committed by earlier chunks are returned with the error.
	CreateBatch(ctx context.Context, table string, rows []Fields) ([]Record, error)

	// Get fails with a NOT_FOUND AppError when the id does not exist
	Get(ctx context.Context, table, id string) (*Record, error)

	// ListAll returns every row of the table that satisfies filter; nil selects all rows
	ListAll(ctx context.Context, table string, filter Filter) ([]Record, error)

	// Update merges fields into an existing row
	Update(ctx context.Context, table, id string, fields Fields) (*Record, error)

	Delete(ctx context.Context, table, id string) error
	DeleteBatch(ctx context.Context, table string, ids []string) error

	// TestConnectivity performs a cheap read and reports whether it succeeded
	TestConnectivity(ctx context.Context) bool
}

// Record is one row of a remote table
type Record struct {
	ID          string    `json:"id"`
	CreatedTime time.Time `json:"createdTime"`
	Fields      Fields    `json:"fields"`
}

// Tables names the remote tables used by the service
type Tables struct {
	Recipes           string
	Ingredients       string
	RecipeIngredients string
	MealPlans         string
	PlannedMeals      string
	ShoppingLists     string
	ShoppingListItems string
}

// DefaultTables returns the table names of the nutrition base
func DefaultTables() Tables {
	return Tables{
		Recipes:           "Recipes",
		Ingredients:       "Ingredients",
		RecipeIngredients: "Recipe_Ingredients",
		MealPlans:         "Meal_Plans",
		PlannedMeals:      "Planned_Meals",
		ShoppingLists:     "Shopping_Lists",
		ShoppingListItems: "Shopping_List_Items",
	}
}

// Telemetry records business events emitted by the application services
type Telemetry interface {
	MealPlanCreated(meals int)
	ShoppingListGenerated(items int)
	ShoppingListDeleted(items int)
}
