// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/alchemorsel/nutrition/internal/ports/inbound"
	"github.com/alchemorsel/nutrition/internal/ports/outbound"
)

// MockRecordStore provides a mock implementation of outbound.RecordStore
type MockRecordStore struct {
	mock.Mock
}

// Create creates a record
func (m *MockRecordStore) Create(ctx context.Context, table string, fields outbound.Fields) (*outbound.Record, error) {
	args := m.Called(ctx, table, fields)
	if rec, ok := args.Get(0).(*outbound.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

// CreateBatch creates records in bulk
func (m *MockRecordStore) CreateBatch(ctx context.Context, table string, rows []outbound.Fields) ([]outbound.Record, error) {
	args := m.Called(ctx, table, rows)
	recs, _ := args.Get(0).([]outbound.Record)
	return recs, args.Error(1)
}

// Get gets a record by id
func (m *MockRecordStore) Get(ctx context.Context, table, id string) (*outbound.Record, error) {
	args := m.Called(ctx, table, id)
	if rec, ok := args.Get(0).(*outbound.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

// ListAll lists the records of a table
func (m *MockRecordStore) ListAll(ctx context.Context, table string, filter outbound.Filter) ([]outbound.Record, error) {
	args := m.Called(ctx, table, filter)
	recs, _ := args.Get(0).([]outbound.Record)
	return recs, args.Error(1)
}

// Update updates a record
func (m *MockRecordStore) Update(ctx context.Context, table, id string, fields outbound.Fields) (*outbound.Record, error) {
	args := m.Called(ctx, table, id, fields)
	if rec, ok := args.Get(0).(*outbound.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

// Delete deletes a record
func (m *MockRecordStore) Delete(ctx context.Context, table, id string) error {
	args := m.Called(ctx, table, id)
	return args.Error(0)
}

// DeleteBatch deletes records in bulk
func (m *MockRecordStore) DeleteBatch(ctx context.Context, table string, ids []string) error {
	args := m.Called(ctx, table, ids)
	return args.Error(0)
}

// TestConnectivity reports store reachability
func (m *MockRecordStore) TestConnectivity(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

// MockMealPlanService provides a mock implementation of inbound.MealPlanService
type MockMealPlanService struct {
	mock.Mock
}

// CreateMealPlan creates a meal plan
func (m *MockMealPlanService) CreateMealPlan(ctx context.Context, cmd inbound.CreateMealPlanCommand) (*inbound.MealPlanCreatedDTO, error) {
	args := m.Called(ctx, cmd)
	if dto, ok := args.Get(0).(*inbound.MealPlanCreatedDTO); ok {
		return dto, args.Error(1)
	}
	return nil, args.Error(1)
}

// GetMealPlan gets a meal plan
func (m *MockMealPlanService) GetMealPlan(ctx context.Context, mealPlanID string) (*inbound.MealPlanDetailDTO, error) {
	args := m.Called(ctx, mealPlanID)
	if dto, ok := args.Get(0).(*inbound.MealPlanDetailDTO); ok {
		return dto, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockShoppingListService provides a mock implementation of inbound.ShoppingListService
type MockShoppingListService struct {
	mock.Mock
}

// GenerateShoppingList generates a shopping list
func (m *MockShoppingListService) GenerateShoppingList(ctx context.Context, cmd inbound.GenerateShoppingListCommand) (*inbound.ShoppingListGeneratedDTO, error) {
	args := m.Called(ctx, cmd)
	if dto, ok := args.Get(0).(*inbound.ShoppingListGeneratedDTO); ok {
		return dto, args.Error(1)
	}
	return nil, args.Error(1)
}

// GetShoppingList gets a shopping list
func (m *MockShoppingListService) GetShoppingList(ctx context.Context, shoppingListID string) (*inbound.ShoppingListDTO, error) {
	args := m.Called(ctx, shoppingListID)
	if dto, ok := args.Get(0).(*inbound.ShoppingListDTO); ok {
		return dto, args.Error(1)
	}
	return nil, args.Error(1)
}

// DeleteShoppingList deletes a shopping list
func (m *MockShoppingListService) DeleteShoppingList(ctx context.Context, shoppingListID string) error {
	args := m.Called(ctx, shoppingListID)
	return args.Error(0)
}

// RecordingTelemetry captures business events for assertions
type RecordingTelemetry struct {
	mu               sync.Mutex
	MealPlans        []int
	ShoppingLists    []int
	DeletedListItems []int
}

// MealPlanCreated records a created meal plan
func (r *RecordingTelemetry) MealPlanCreated(meals int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.MealPlans = append(r.MealPlans, meals)
}

// ShoppingListGenerated records a generated shopping list
func (r *RecordingTelemetry) ShoppingListGenerated(items int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ShoppingLists = append(r.ShoppingLists, items)
}

// ShoppingListDeleted records a deleted shopping list
func (r *RecordingTelemetry) ShoppingListDeleted(items int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.DeletedListItems = append(r.DeletedListItems, items)
}
