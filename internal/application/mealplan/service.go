// Package mealplan provides the application layer for weekly meal plans
// This implements the use cases defined in the inbound ports
package mealplan

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/application/records"
	"github.com/alchemorsel/nutrition/internal/domain/mealplan"
	"github.com/alchemorsel/nutrition/internal/domain/recipe"
	"github.com/alchemorsel/nutrition/internal/ports/inbound"
	"github.com/alchemorsel/nutrition/internal/ports/outbound"
	"github.com/alchemorsel/nutrition/pkg/errors"
)

// Service implements the meal plan use cases
type Service struct {
	store     outbound.RecordStore
	tables    outbound.Tables
	telemetry outbound.Telemetry
	tracer    trace.Tracer
	logger    *zap.Logger
}

var _ inbound.MealPlanService = (*Service)(nil)

// NewService creates a new meal plan service. telemetry may be nil.
func NewService(
	store outbound.RecordStore,
	tables outbound.Tables,
	telemetry outbound.Telemetry,
	logger *zap.Logger,
) *Service {
	if telemetry == nil {
		telemetry = nopTelemetry{}
	}
	return &Service{
		store:     store,
		tables:    tables,
		telemetry: telemetry,
		tracer:    otel.Tracer("github.com/alchemorsel/nutrition/internal/application/mealplan"),
		logger:    logger.Named("meal-plan-service"),
	}
}

// CreateMealPlan generates a 7-day plan from the recipe catalogue and stores
// it with its planned meals
func (s *Service) CreateMealPlan(ctx context.Context, cmd inbound.CreateMealPlanCommand) (*inbound.MealPlanCreatedDTO, error) {
	ctx, span := s.tracer.Start(ctx, "mealplan.Create",
		trace.WithAttributes(attribute.String("meal_plan.week_start", cmd.WeekStart)),
	)
	defer span.End()

	weekStart, err := mealplan.ParseDate(cmd.WeekStart)
	if err != nil {
		return nil, s.fail(span, errors.NewValidationError(err.Error()))
	}
	plan, err := mealplan.NewPlan(cmd.UserID, weekStart, cmd.PlanName, cmd.Notes)
	if err != nil {
		return nil, s.fail(span, errors.NewValidationError(err.Error()))
	}

	s.logger.Info("Creating meal plan",
		zap.String("user_id", plan.UserID),
		zap.String("week_start", mealplan.FormatDate(plan.WeekStart)),
	)

	recipes, err := s.loadRecipes(ctx)
	if err != nil {
		return nil, s.fail(span, err)
	}

	plan.Schedule(recipes)

	planRecord, err := s.store.Create(ctx, s.tables.MealPlans, records.PlanToFields(plan))
	if err != nil {
		return nil, s.fail(span, errors.Wrap(err, "failed to store meal plan"))
	}
	plan.ID = planRecord.ID
	span.SetAttributes(attribute.String("meal_plan.id", plan.ID))

	rows := make([]outbound.Fields, 0, len(plan.Meals))
	for _, meal := range plan.Meals {
		rows = append(rows, records.MealToFields(plan.ID, meal))
	}

	created, err := s.store.CreateBatch(ctx, s.tables.PlannedMeals, rows)
	if err != nil {
		s.logger.Error("Planned meals partially stored",
			zap.String("meal_plan_id", plan.ID),
			zap.Int("stored", len(created)),
			zap.Int("expected", len(rows)),
			zap.Error(err),
		)
		return nil, s.fail(span, errors.Wrap(err, "failed to store planned meals"))
	}

	s.telemetry.MealPlanCreated(len(created))
	span.SetAttributes(attribute.Int("meal_plan.meals", len(created)))

	stats := plan.Stats()

	s.logger.Info("Meal plan created",
		zap.String("meal_plan_id", plan.ID),
		zap.Int("total_meals", len(created)),
		zap.Float64("avg_calories", stats.AvgCalories),
	)

	return &inbound.MealPlanCreatedDTO{
		MealPlanID:  plan.ID,
		PlanName:    plan.Name,
		WeekStart:   mealplan.FormatDate(plan.WeekStart),
		WeekEnd:     mealplan.FormatDate(plan.WeekEnd),
		TotalMeals:  len(created),
		AvgCalories: stats.AvgCalories,
		AvgProtein:  stats.AvgProtein,
	}, nil
}

// GetMealPlan returns a stored plan with its meals in serving order
func (s *Service) GetMealPlan(ctx context.Context, mealPlanID string) (*inbound.MealPlanDetailDTO, error) {
	ctx, span := s.tracer.Start(ctx, "mealplan.Get",
		trace.WithAttributes(attribute.String("meal_plan.id", mealPlanID)),
	)
	defer span.End()

	rec, err := s.store.Get(ctx, s.tables.MealPlans, mealPlanID)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, s.fail(span, errors.NewNotFoundError("meal plan").WithMetadata("meal_plan_id", mealPlanID))
		}
		return nil, s.fail(span, errors.Wrap(err, "failed to load meal plan"))
	}

	plan, err := records.RecordToPlan(*rec)
	if err != nil {
		return nil, s.fail(span, errors.NewInternalError("stored meal plan is malformed").WithCause(err))
	}

	mealRows, err := s.store.ListAll(ctx, s.tables.PlannedMeals, outbound.LinkContains(records.MealPlan, plan.ID))
	if err != nil {
		return nil, s.fail(span, errors.Wrap(err, "failed to load planned meals"))
	}

	meals := make([]mealplan.Meal, 0, len(mealRows))
	for _, row := range mealRows {
		meals = append(meals, records.RecordToMeal(row))
	}
	mealplan.SortMeals(meals)

	planned := make([]inbound.PlannedMealDTO, 0, len(meals))
	for _, m := range meals {
		planned = append(planned, inbound.PlannedMealDTO{
			ID:       m.ID,
			MealName: m.Name,
			RecipeID: m.RecipeID,
			Date:     formatOptionalDate(m),
			MealType: string(m.Type),
			Servings: m.Servings,
		})
	}

	return &inbound.MealPlanDetailDTO{
		MealPlan: inbound.MealPlanDTO{
			ID:        plan.ID,
			PlanName:  plan.Name,
			UserID:    plan.UserID,
			WeekStart: mealplan.FormatDate(plan.WeekStart),
			WeekEnd:   mealplan.FormatDate(plan.WeekEnd),
			Status:    plan.Status,
			Notes:     plan.Notes,
		},
		PlannedMeals: planned,
		TotalMeals:   len(planned),
	}, nil
}

// loadRecipes reads the catalogue, skipping rows that cannot be planned
func (s *Service) loadRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	rows, err := s.store.ListAll(ctx, s.tables.Recipes, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load recipes")
	}

	recipes := make([]recipe.Recipe, 0, len(rows))
	for _, row := range rows {
		if r, ok := records.RecordToRecipe(row); ok {
			recipes = append(recipes, r)
		}
	}

	if skipped := len(rows) - len(recipes); skipped > 0 {
		s.logger.Debug("Skipped incomplete recipes", zap.Int("skipped", skipped))
	}
	return recipes, nil
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func formatOptionalDate(m mealplan.Meal) string {
	if m.Date.IsZero() {
		return ""
	}
	return mealplan.FormatDate(m.Date)
}

type nopTelemetry struct{}

func (nopTelemetry) MealPlanCreated(int)       {}
func (nopTelemetry) ShoppingListGenerated(int) {}
func (nopTelemetry) ShoppingListDeleted(int)   {}
