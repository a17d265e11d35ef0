// Package shopping provides the application layer for shopping lists
// This implements the use cases defined in the inbound ports
package shopping

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alchemorsel/nutrition/internal/application/records"
	"github.com/alchemorsel/nutrition/internal/domain/mealplan"
	"github.com/alchemorsel/nutrition/internal/domain/shopping"
	"github.com/alchemorsel/nutrition/internal/ports/inbound"
	"github.com/alchemorsel/nutrition/internal/ports/outbound"
	"github.com/alchemorsel/nutrition/pkg/errors"
)

// DefaultLookupConcurrency bounds parallel ingredient name lookups
const DefaultLookupConcurrency = 4

// Config holds tunables for the shopping list service
type Config struct {
	LookupConcurrency int
}

// Service implements the shopping list use cases
type Service struct {
	store     outbound.RecordStore
	tables    outbound.Tables
	telemetry outbound.Telemetry
	config    Config
	tracer    trace.Tracer
	logger    *zap.Logger
}

var _ inbound.ShoppingListService = (*Service)(nil)

// NewService creates a new shopping list service. telemetry may be nil.
func NewService(
	store outbound.RecordStore,
	tables outbound.Tables,
	telemetry outbound.Telemetry,
	config Config,
	logger *zap.Logger,
) *Service {
	if config.LookupConcurrency <= 0 {
		config.LookupConcurrency = DefaultLookupConcurrency
	}
	if telemetry == nil {
		telemetry = nopTelemetry{}
	}
	return &Service{
		store:     store,
		tables:    tables,
		telemetry: telemetry,
		config:    config,
		tracer:    otel.Tracer("github.com/alchemorsel/nutrition/internal/application/shopping"),
		logger:    logger.Named("shopping-list-service"),
	}
}

// GenerateShoppingList derives an aggregated purchase list from a meal plan
// and stores it with one item per ingredient and unit
func (s *Service) GenerateShoppingList(ctx context.Context, cmd inbound.GenerateShoppingListCommand) (*inbound.ShoppingListGeneratedDTO, error) {
	ctx, span := s.tracer.Start(ctx, "shopping.Generate",
		trace.WithAttributes(attribute.String("meal_plan.id", cmd.MealPlanID)),
	)
	defer span.End()

	if strings.TrimSpace(cmd.MealPlanID) == "" {
		return nil, s.fail(span, errors.NewValidationError("meal_plan_id is required"))
	}

	var shoppingDate time.Time
	if cmd.ShoppingDate != "" {
		d, err := mealplan.ParseDate(cmd.ShoppingDate)
		if err != nil {
			return nil, s.fail(span, errors.NewValidationError("shopping_date must be a date in YYYY-MM-DD format"))
		}
		shoppingDate = d
	}

	plan, err := s.loadPlan(ctx, cmd.MealPlanID)
	if err != nil {
		return nil, s.fail(span, err)
	}

	mealRows, err := s.store.ListAll(ctx, s.tables.PlannedMeals, outbound.LinkContains(records.MealPlan, plan.ID))
	if err != nil {
		return nil, s.fail(span, errors.Wrap(err, "failed to load planned meals"))
	}
	if len(mealRows) == 0 {
		return nil, s.fail(span, errors.NewAppError(errors.CodeNotFound, "No meals found in meal plan", "").
			WithMetadata("meal_plan_id", plan.ID))
	}

	meals := make([]mealplan.Meal, 0, len(mealRows))
	for _, row := range mealRows {
		meals = append(meals, records.RecordToMeal(row))
	}
	multipliers := shopping.ServingsByRecipe(meals)

	lines, err := s.scaledLines(ctx, multipliers)
	if err != nil {
		return nil, s.fail(span, err)
	}

	names := s.lookupNames(ctx, shopping.IngredientIDs(lines))
	items := shopping.Aggregate(lines, names)

	list := shopping.NewList(plan, shoppingDate)
	listRecord, err := s.store.Create(ctx, s.tables.ShoppingLists, records.ListToFields(list))
	if err != nil {
		return nil, s.fail(span, errors.Wrap(err, "failed to store shopping list"))
	}
	list.ID = listRecord.ID
	span.SetAttributes(attribute.String("shopping_list.id", list.ID))

	lineItems := shopping.ItemsFor(items)
	rows := make([]outbound.Fields, 0, len(lineItems))
	for _, item := range lineItems {
		rows = append(rows, records.ItemToFields(list.ID, item))
	}

	created, err := s.store.CreateBatch(ctx, s.tables.ShoppingListItems, rows)
	if err != nil {
		s.logger.Error("Shopping list items partially stored",
			zap.String("shopping_list_id", list.ID),
			zap.Int("stored", len(created)),
			zap.Int("expected", len(rows)),
			zap.Error(err),
		)
		return nil, s.fail(span, errors.Wrap(err, "failed to store shopping list items"))
	}

	s.telemetry.ShoppingListGenerated(len(created))
	span.SetAttributes(attribute.Int("shopping_list.items", len(created)))

	s.logger.Info("Shopping list generated",
		zap.String("shopping_list_id", list.ID),
		zap.String("meal_plan_id", plan.ID),
		zap.Int("items", len(created)),
		zap.Int("recipes", len(multipliers)),
		zap.Int("meals", len(meals)),
	)

	return &inbound.ShoppingListGeneratedDTO{
		ShoppingListID: list.ID,
		MealPlanID:     plan.ID,
		ItemsCount:     len(created),
		TotalRecipes:   len(multipliers),
		TotalMeals:     len(meals),
	}, nil
}

// GetShoppingList returns a stored list with its items sorted by label
func (s *Service) GetShoppingList(ctx context.Context, shoppingListID string) (*inbound.ShoppingListDTO, error) {
	ctx, span := s.tracer.Start(ctx, "shopping.Get",
		trace.WithAttributes(attribute.String("shopping_list.id", shoppingListID)),
	)
	defer span.End()

	list, err := s.loadList(ctx, shoppingListID)
	if err != nil {
		return nil, s.fail(span, err)
	}

	items, err := s.listItems(ctx, list.ID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	shopping.SortItems(items)

	dto := &inbound.ShoppingListDTO{
		ShoppingListID: list.ID,
		ListName:       list.Name,
		MealPlanID:     list.MealPlanID,
		Status:         list.Status,
		TotalCost:      list.TotalCost,
		ItemsCount:     len(items),
		Items:          make([]inbound.ShoppingListItemDTO, 0, len(items)),
	}
	if !list.ShoppingDate.IsZero() {
		dto.ShoppingDate = mealplan.FormatDate(list.ShoppingDate)
	}
	for _, it := range items {
		dto.Items = append(dto.Items, inbound.ShoppingListItemDTO{
			ID:           it.ID,
			ItemName:     it.Label,
			IngredientID: it.IngredientID,
			Quantity:     it.Quantity,
			Unit:         it.Unit,
			Purchased:    it.Purchased,
			Price:        it.Price,
		})
	}
	return dto, nil
}

// DeleteShoppingList removes every item of the list, then the list itself
func (s *Service) DeleteShoppingList(ctx context.Context, shoppingListID string) error {
	ctx, span := s.tracer.Start(ctx, "shopping.Delete",
		trace.WithAttributes(attribute.String("shopping_list.id", shoppingListID)),
	)
	defer span.End()

	list, err := s.loadList(ctx, shoppingListID)
	if err != nil {
		return s.fail(span, err)
	}

	items, err := s.listItems(ctx, list.ID)
	if err != nil {
		return s.fail(span, err)
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	if err := s.store.DeleteBatch(ctx, s.tables.ShoppingListItems, ids); err != nil {
		return s.fail(span, errors.Wrap(err, "failed to delete shopping list items"))
	}
	if err := s.store.Delete(ctx, s.tables.ShoppingLists, list.ID); err != nil {
		return s.fail(span, errors.Wrap(err, "failed to delete shopping list"))
	}

	s.telemetry.ShoppingListDeleted(len(ids))
	s.logger.Info("Shopping list deleted",
		zap.String("shopping_list_id", list.ID),
		zap.Int("items", len(ids)),
	)
	return nil
}

func (s *Service) loadPlan(ctx context.Context, id string) (*mealplan.Plan, error) {
	rec, err := s.store.Get(ctx, s.tables.MealPlans, id)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, errors.NewNotFoundError("meal plan").WithMetadata("meal_plan_id", id)
		}
		return nil, errors.Wrap(err, "failed to load meal plan")
	}

	plan, err := records.RecordToPlan(*rec)
	if err != nil {
		return nil, errors.NewInternalError("stored meal plan is malformed").WithCause(err)
	}
	return plan, nil
}

func (s *Service) loadList(ctx context.Context, id string) (*shopping.List, error) {
	rec, err := s.store.Get(ctx, s.tables.ShoppingLists, id)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, errors.NewNotFoundError("shopping list").WithMetadata("shopping_list_id", id)
		}
		return nil, errors.Wrap(err, "failed to load shopping list")
	}
	return records.RecordToList(*rec), nil
}

func (s *Service) listItems(ctx context.Context, listID string) ([]shopping.ListItem, error) {
	rows, err := s.store.ListAll(ctx, s.tables.ShoppingListItems, outbound.LinkContains(records.ItemList, listID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load shopping list items")
	}

	items := make([]shopping.ListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, records.RecordToItem(row))
	}
	return items, nil
}

// scaledLines fetches the ingredient rows of every planned recipe and scales
// them by planned servings
func (s *Service) scaledLines(ctx context.Context, multipliers map[string]float64) ([]shopping.LineItem, error) {
	recipeIDs := make([]string, 0, len(multipliers))
	for id := range multipliers {
		recipeIDs = append(recipeIDs, id)
	}
	sort.Strings(recipeIDs)

	rows, err := s.store.ListAll(ctx, s.tables.RecipeIngredients,
		outbound.LinkAny(records.RecipeIngredientRecipes, recipeIDs...))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load recipe ingredients")
	}

	ingredients := make([]shopping.RecipeIngredient, 0, len(rows))
	for _, row := range rows {
		ingredients = append(ingredients, records.RecordToRecipeIngredient(row))
	}
	return shopping.Scale(ingredients, multipliers), nil
}

// lookupNames resolves ingredient display names concurrently. A failed
// lookup falls back to shopping.UnknownIngredient and is never fatal.
func (s *Service) lookupNames(ctx context.Context, ids []string) map[string]string {
	resolved := make([]string, len(ids))

	var g errgroup.Group
	g.SetLimit(s.config.LookupConcurrency)

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			rec, err := s.store.Get(ctx, s.tables.Ingredients, id)
			if err != nil {
				s.logger.Warn("Ingredient name lookup failed",
					zap.String("ingredient_id", id),
					zap.Error(err),
				)
				resolved[i] = shopping.UnknownIngredient
				return nil
			}
			name := rec.Fields.String(records.IngredientName)
			if name == "" {
				name = shopping.UnknownIngredient
			}
			resolved[i] = name
			return nil
		})
	}
	_ = g.Wait()

	names := make(map[string]string, len(ids))
	for i, id := range ids {
		names[id] = resolved[i]
	}
	return names
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

type nopTelemetry struct{}

func (nopTelemetry) MealPlanCreated(int)       {}
func (nopTelemetry) ShoppingListGenerated(int) {}
func (nopTelemetry) ShoppingListDeleted(int)   {}
