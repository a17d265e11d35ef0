// Package mealplan builds weekly meal plans from a recipe pool
package mealplan

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used on the wire and in the store
const DateLayout = "2006-01-02"

// DaysInWeek is the length of every plan
const DaysInWeek = 7

const (
	StatusActive = "Active"
	DefaultNotes = "Auto-generated meal plan optimized for camper living"
	nameLayout   = "02 Jan"
)

var (
	ErrUserRequired    = errors.New("user_id is required")
	ErrInvalidWeekDate = errors.New("week_start must be a date in YYYY-MM-DD format")
)

// MealType tags a planned meal
type MealType string

const (
	Breakfast MealType = "Breakfast"
	Lunch     MealType = "Lunch"
	Dinner    MealType = "Dinner"
	Snack     MealType = "Snack"
)

// Plan is a 7-day meal plan owned by a user
type Plan struct {
	ID        string
	Name      string
	UserID    string
	WeekStart time.Time
	WeekEnd   time.Time
	Status    string
	Notes     string
	Meals     []Meal
}

// Meal is one scheduled slot of a plan
type Meal struct {
	ID       string
	Name     string
	RecipeID string
	Date     time.Time
	Type     MealType
	Servings float64

	// Nutrition of the scheduled recipe, per serving
	Calories float64
	Protein  float64
}

// Stats summarises a plan's daily intake
type Stats struct {
	AvgCalories float64
	AvgProtein  float64
}

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidWeekDate, s)
	}
	return d, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// NewPlan creates an empty plan for the week starting at weekStart.
// Empty name and notes are replaced with defaults.
func NewPlan(userID string, weekStart time.Time, name, notes string) (*Plan, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserRequired
	}

	start := truncateToDate(weekStart)
	end := start.AddDate(0, 0, DaysInWeek-1)

	if strings.TrimSpace(name) == "" {
		name = DefaultName(start, end)
	}
	if strings.TrimSpace(notes) == "" {
		notes = DefaultNotes
	}

	return &Plan{
		Name:      name,
		UserID:    userID,
		WeekStart: start,
		WeekEnd:   end,
		Status:    StatusActive,
		Notes:     notes,
	}, nil
}

// DefaultName renders "Week 01 Jan - 07 Jan"
func DefaultName(start, end time.Time) string {
	return fmt.Sprintf("Week %s - %s", start.Format(nameLayout), end.Format(nameLayout))
}

// Stats returns the average daily calories and protein over the week,
// weighted by servings and rounded to one decimal
func (p *Plan) Stats() Stats {
	var calories, protein float64
	for _, m := range p.Meals {
		calories += m.Calories * m.Servings
		protein += m.Protein * m.Servings
	}
	return Stats{
		AvgCalories: round1(calories / DaysInWeek),
		AvgProtein:  round1(protein / DaysInWeek),
	}
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// round1 rounds half to even on the float's exact binary value, so 12.25
// becomes 12.2 and 0.35 (stored as 0.34999...) becomes 0.3
func round1(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	return r
}
