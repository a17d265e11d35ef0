package mealplan

import (
	"sort"
	"strings"

	"github.com/alchemorsel/nutrition/internal/domain/recipe"
)

// Nutrient profiles for each bucket. Buckets overlap: a recipe may qualify for several.
var (
	BreakfastProfile = recipe.Profile{Calories: recipe.Range{Min: 500, Max: 800}, MinProtein: 35}
	LunchProfile     = recipe.Profile{Calories: recipe.Range{Min: 650, Max: 800}, MinProtein: 45}
	DinnerProfile    = recipe.Profile{Calories: recipe.Range{Min: 500, Max: 800}, MinProtein: 45}
	SnackProfile     = recipe.Profile{Calories: recipe.Range{Min: 150, Max: 400}, MinProtein: 15}
)

// DefaultServings is the portion count of every generated meal
const DefaultServings = 1.0

// Slot is one of the five daily meal positions
type Slot struct {
	Type    MealType
	Label   string
	Profile recipe.Profile

	// pick maps a day offset to a rotation index within the bucket
	pick func(day int) int
}

func sameDay(day int) int     { return day }
func firstSnack(day int) int  { return 2 * day }
func secondSnack(day int) int { return 2*day + 1 }

// Slots lists the daily positions in serving order
var Slots = []Slot{
	{Type: Breakfast, Label: "Завтрак", Profile: BreakfastProfile, pick: sameDay},
	{Type: Lunch, Label: "Обед", Profile: LunchProfile, pick: sameDay},
	{Type: Dinner, Label: "Ужин", Profile: DinnerProfile, pick: sameDay},
	{Type: Snack, Label: "Перекус 1", Profile: SnackProfile, pick: firstSnack},
	{Type: Snack, Label: "Перекус 2", Profile: SnackProfile, pick: secondSnack},
}

// Schedule fills the plan's week from the recipe pool.
//
// Each slot draws from its bucket round-robin, so consecutive days differ as
// long as the bucket holds two or more recipes. A slot whose bucket is empty
// is left out on every day.
func (p *Plan) Schedule(recipes []recipe.Recipe) {
	buckets := make([][]recipe.Recipe, len(Slots))
	for i, slot := range Slots {
		buckets[i] = slot.Profile.Select(recipes)
	}

	meals := make([]Meal, 0, DaysInWeek*len(Slots))
	for day := 0; day < DaysInWeek; day++ {
		date := p.WeekStart.AddDate(0, 0, day)
		for i, slot := range Slots {
			bucket := buckets[i]
			if len(bucket) == 0 {
				continue
			}
			r := bucket[slot.pick(day)%len(bucket)]
			meals = append(meals, Meal{
				Name:     slot.Label + ": " + r.Name,
				RecipeID: r.ID,
				Date:     date,
				Type:     slot.Type,
				Servings: DefaultServings,
				Calories: r.Calories,
				Protein:  r.Protein,
			})
		}
	}

	p.Meals = meals
}

// SortMeals orders meals by date, then by their position within the day
func SortMeals(meals []Meal) {
	sort.SliceStable(meals, func(i, j int) bool {
		if !meals[i].Date.Equal(meals[j].Date) {
			return meals[i].Date.Before(meals[j].Date)
		}
		return slotRank(meals[i]) < slotRank(meals[j])
	})
}

func slotRank(m Meal) int {
	for i, slot := range Slots {
		if slot.Type == m.Type && (slot.Type != Snack || strings.HasPrefix(m.Name, slot.Label)) {
			return i
		}
	}
	return len(Slots)
}
