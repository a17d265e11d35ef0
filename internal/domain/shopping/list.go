package shopping

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alchemorsel/nutrition/internal/domain/mealplan"
)

const (
	StatusPending   = "Pending"
	defaultPlanName = "Meal Plan"
)

// List is a shopping list generated from a meal plan
type List struct {
	ID           string
	Name         string
	MealPlanID   string
	ShoppingDate time.Time
	Status       string
	TotalCost    float64
	Items        []ListItem
}

// ListItem is a stored line of a shopping list
type ListItem struct {
	ID           string
	Label        string
	IngredientID string
	Quantity     float64
	Unit         string
	Purchased    bool
	Price        float64
}

// NewList prepares a pending list for plan. A zero shoppingDate falls back
// to the plan's week start.
func NewList(plan *mealplan.Plan, shoppingDate time.Time) *List {
	if shoppingDate.IsZero() {
		shoppingDate = plan.WeekStart
	}
	return &List{
		Name:         ListName(plan.Name, plan.WeekStart),
		MealPlanID:   plan.ID,
		ShoppingDate: shoppingDate,
		Status:       StatusPending,
	}
}

// ListName renders "Shopping List - {plan} ({week start})"
func ListName(planName string, weekStart time.Time) string {
	if strings.TrimSpace(planName) == "" {
		planName = defaultPlanName
	}
	return fmt.Sprintf("Shopping List - %s (%s)", planName, mealplan.FormatDate(weekStart))
}

// Label renders an item as "Name (qtyunit)", e.g. "Flour (200г)"
func Label(item Item) string {
	return fmt.Sprintf("%s (%s%s)", item.IngredientName, FormatQuantity(item.Quantity), item.Unit)
}

// FormatQuantity prints q in its shortest exact form: 200, 12.5
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// ItemsFor turns aggregated items into unpurchased list lines
func ItemsFor(items []Item) []ListItem {
	out := make([]ListItem, 0, len(items))
	for _, it := range items {
		out = append(out, ListItem{
			Label:        Label(it),
			IngredientID: it.IngredientID,
			Quantity:     it.Quantity,
			Unit:         it.Unit,
		})
	}
	return out
}

// SortItems orders list lines by label, then id
func SortItems(items []ListItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Label != items[j].Label {
			return items[i].Label < items[j].Label
		}
		return items[i].ID < items[j].ID
	})
}
