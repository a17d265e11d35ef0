// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/infrastructure/http/respond"
	"github.com/alchemorsel/nutrition/internal/ports/inbound"
	"github.com/alchemorsel/nutrition/pkg/errors"
)

// NutritionHandlers serves the meal plan and shopping list endpoints
type NutritionHandlers struct {
	mealPlans     inbound.MealPlanService
	shoppingLists inbound.ShoppingListService
	validate      *validator.Validate
	logger        *zap.Logger
}

// NewNutritionHandlers creates a new nutrition handlers instance
func NewNutritionHandlers(
	mealPlans inbound.MealPlanService,
	shoppingLists inbound.ShoppingListService,
	logger *zap.Logger,
) *NutritionHandlers {
	return &NutritionHandlers{
		mealPlans:     mealPlans,
		shoppingLists: shoppingLists,
		validate:      newValidator(),
		logger:        logger.Named("nutrition-api"),
	}
}

// CreateMealPlanRequest is the body of POST /meal-plan/create
type CreateMealPlanRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	WeekStart string `json:"week_start" validate:"required,datetime=2006-01-02"`
	PlanName  string `json:"plan_name,omitempty" validate:"max=200"`
	Notes     string `json:"notes,omitempty"`
}

// GenerateShoppingListRequest is the body of POST /shopping-list/generate
type GenerateShoppingListRequest struct {
	MealPlanID   string `json:"meal_plan_id" validate:"required"`
	ShoppingDate string `json:"shopping_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// MealPlanCreatedResponse is the 201 body of a generated plan
type MealPlanCreatedResponse struct {
	inbound.MealPlanCreatedDTO
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ShoppingListGeneratedResponse is the 201 body of a generated list
type ShoppingListGeneratedResponse struct {
	inbound.ShoppingListGeneratedDTO
	Message string `json:"message"`
}

// Routes mounts the nutrition endpoints on r
func (h *NutritionHandlers) Routes(r chi.Router) {
	r.Post("/meal-plan/create", h.CreateMealPlan)
	r.Get("/meal-plan/{id}", h.GetMealPlan)
	r.Post("/shopping-list/generate", h.GenerateShoppingList)
	r.Get("/shopping-list/{id}", h.GetShoppingList)
	r.Delete("/shopping-list/{id}", h.DeleteShoppingList)
}

// CreateMealPlan handles POST /api/nutrition/meal-plan/create
func (h *NutritionHandlers) CreateMealPlan(w http.ResponseWriter, r *http.Request) {
	var req CreateMealPlanRequest
	if err := h.decode(r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	result, err := h.mealPlans.CreateMealPlan(r.Context(), inbound.CreateMealPlanCommand{
		UserID:    req.UserID,
		WeekStart: req.WeekStart,
		PlanName:  req.PlanName,
		Notes:     req.Notes,
	})
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	respond.JSON(w, h.logger, http.StatusCreated, MealPlanCreatedResponse{
		MealPlanCreatedDTO: *result,
		Status:             "success",
		Message:            fmt.Sprintf("Meal plan created with %d meals", result.TotalMeals),
	})
}

// GetMealPlan handles GET /api/nutrition/meal-plan/{id}
func (h *NutritionHandlers) GetMealPlan(w http.ResponseWriter, r *http.Request) {
	result, err := h.mealPlans.GetMealPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, h.logger, http.StatusOK, result)
}

// GenerateShoppingList handles POST /api/nutrition/shopping-list/generate
func (h *NutritionHandlers) GenerateShoppingList(w http.ResponseWriter, r *http.Request) {
	var req GenerateShoppingListRequest
	if err := h.decode(r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	result, err := h.shoppingLists.GenerateShoppingList(r.Context(), inbound.GenerateShoppingListCommand{
		MealPlanID:   req.MealPlanID,
		ShoppingDate: req.ShoppingDate,
	})
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}

	respond.JSON(w, h.logger, http.StatusCreated, ShoppingListGeneratedResponse{
		ShoppingListGeneratedDTO: *result,
		Message:                  "Shopping list generated successfully",
	})
}

// GetShoppingList handles GET /api/nutrition/shopping-list/{id}
func (h *NutritionHandlers) GetShoppingList(w http.ResponseWriter, r *http.Request) {
	result, err := h.shoppingLists.GetShoppingList(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, h.logger, http.StatusOK, result)
}

// DeleteShoppingList handles DELETE /api/nutrition/shopping-list/{id}
func (h *NutritionHandlers) DeleteShoppingList(w http.ResponseWriter, r *http.Request) {
	if err := h.shoppingLists.DeleteShoppingList(r.Context(), chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON body into dst and validates it
func (h *NutritionHandlers) decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			return errors.NewBadRequestError("Request body too large")
		}
		return errors.NewBadRequestError("Malformed JSON body").WithCause(err)
	}

	if err := h.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if !stderrors.As(err, &fieldErrs) {
			return errors.NewValidationError(err.Error())
		}
		details := make([]errors.ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, errors.ValidationError{
				Field:   fe.Field(),
				Value:   fe.Value(),
				Tag:     fe.Tag(),
				Message: validationMessage(fe),
			})
		}
		return errors.NewValidationErrors(details)
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json field names rather than Go ones
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed the %s check", fe.Field(), fe.Tag())
	}
}
