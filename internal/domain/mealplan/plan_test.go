package mealplan

import (
	"testing"
	"time"

	"github.com/alchemorsel/nutrition/internal/domain/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// PlanTestSuite covers plan construction and weekly scheduling
type PlanTestSuite struct {
	suite.Suite
	weekStart time.Time
	pool      []recipe.Recipe
}

func (s *PlanTestSuite) SetupTest() {
	s.weekStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	s.pool = []recipe.Recipe{
		{ID: "b1", Name: "Oats", Calories: 550, Protein: 38},
		{ID: "b2", Name: "Omelette", Calories: 600, Protein: 40},
		{ID: "m1", Name: "Chicken bowl", Calories: 700, Protein: 50},
		{ID: "m2", Name: "Beef stew", Calories: 750, Protein: 55},
		{ID: "s1", Name: "Yogurt", Calories: 200, Protein: 20},
		{ID: "s2", Name: "Protein bar", Calories: 300, Protein: 25},
		{ID: "x1", Name: "Cake", Calories: 1200, Protein: 5},
	}
}

func (s *PlanTestSuite) newPlan() *Plan {
	plan, err := NewPlan("recUser1", s.weekStart, "", "")
	s.Require().NoError(err)
	return plan
}

func (s *PlanTestSuite) TestNewPlan() {
	s.Run("DefaultsAreApplied", func() {
		plan := s.newPlan()

		assert.Equal(s.T(), "Week 01 Jan - 07 Jan", plan.Name)
		assert.Equal(s.T(), DefaultNotes, plan.Notes)
		assert.Equal(s.T(), StatusActive, plan.Status)
		assert.Equal(s.T(), "2024-01-07", FormatDate(plan.WeekEnd))
	})

	s.Run("ExplicitNameAndNotesAreKept", func() {
		plan, err := NewPlan("recUser1", s.weekStart, "Cutting week", "no dairy")

		require.NoError(s.T(), err)
		assert.Equal(s.T(), "Cutting week", plan.Name)
		assert.Equal(s.T(), "no dairy", plan.Notes)
	})

	s.Run("MissingUserIsRejected", func() {
		plan, err := NewPlan("  ", s.weekStart, "", "")

		assert.Nil(s.T(), plan)
		assert.ErrorIs(s.T(), err, ErrUserRequired)
	})

	s.Run("WeekSpansMonthBoundary", func() {
		start := time.Date(2024, time.February, 26, 0, 0, 0, 0, time.UTC)
		plan, err := NewPlan("recUser1", start, "", "")

		require.NoError(s.T(), err)
		assert.Equal(s.T(), "2024-03-03", FormatDate(plan.WeekEnd))
		assert.Equal(s.T(), "Week 26 Feb - 03 Mar", plan.Name)
	})
}

func (s *PlanTestSuite) TestSchedule_FullBucketsFillEverySlot() {
	plan := s.newPlan()

	plan.Schedule(s.pool)

	assert.Len(s.T(), plan.Meals, 35)
	for _, meal := range plan.Meals {
		assert.True(s.T(), withinWeek(plan, meal.Date), "meal dated %s outside the week", FormatDate(meal.Date))
		assert.Equal(s.T(), DefaultServings, meal.Servings)
		assert.NotEqual(s.T(), "x1", meal.RecipeID)
	}
}

func (s *PlanTestSuite) TestSchedule_RoundRobinRotation() {
	plan := s.newPlan()

	plan.Schedule(s.pool)

	byDay := map[string][]Meal{}
	for _, meal := range plan.Meals {
		key := FormatDate(meal.Date)
		byDay[key] = append(byDay[key], meal)
	}

	// breakfast bucket is [b1 b2 m1 m2]; snacks are [s1 s2]
	day0 := byDay["2024-01-01"]
	require.Len(s.T(), day0, 5)
	assert.Equal(s.T(), "b1", day0[0].RecipeID)
	assert.Equal(s.T(), "Завтрак: Oats", day0[0].Name)
	assert.Equal(s.T(), Breakfast, day0[0].Type)
	assert.Equal(s.T(), "m1", day0[1].RecipeID)
	assert.Equal(s.T(), Lunch, day0[1].Type)
	assert.Equal(s.T(), "m1", day0[2].RecipeID)
	assert.Equal(s.T(), Dinner, day0[2].Type)
	assert.Equal(s.T(), "s1", day0[3].RecipeID)
	assert.Equal(s.T(), "Перекус 1: Yogurt", day0[3].Name)
	assert.Equal(s.T(), "s2", day0[4].RecipeID)
	assert.Equal(s.T(), "Перекус 2: Protein bar", day0[4].Name)

	day1 := byDay["2024-01-02"]
	require.Len(s.T(), day1, 5)
	assert.Equal(s.T(), "b2", day1[0].RecipeID)
	assert.Equal(s.T(), "m2", day1[1].RecipeID)
	assert.NotEqual(s.T(), day0[0].RecipeID, day1[0].RecipeID)
}

func (s *PlanTestSuite) TestSchedule_EmptyBucketOmitsSlot() {
	plan := s.newPlan()
	snacksOnly := []recipe.Recipe{
		{ID: "s1", Name: "Yogurt", Calories: 200, Protein: 20},
	}

	plan.Schedule(snacksOnly)

	assert.Len(s.T(), plan.Meals, 14)
	for _, meal := range plan.Meals {
		assert.Equal(s.T(), Snack, meal.Type)
		assert.Equal(s.T(), "s1", meal.RecipeID)
	}

	plan.Schedule(nil)
	assert.Empty(s.T(), plan.Meals)
}

func (s *PlanTestSuite) TestStats_AveragesDailyIntake() {
	plan := s.newPlan()
	plan.Meals = []Meal{
		{Calories: 700, Protein: 50, Servings: 1},
		{Calories: 300, Protein: 25, Servings: 2},
	}

	stats := plan.Stats()

	assert.Equal(s.T(), 185.7, stats.AvgCalories)
	assert.Equal(s.T(), 14.3, stats.AvgProtein)

	plan.Meals = nil
	assert.Equal(s.T(), Stats{}, plan.Stats())
}

func (s *PlanTestSuite) TestStats_HalvesRoundToEven() {
	plan := s.newPlan()
	plan.Meals = []Meal{{Calories: 85.75, Protein: 1.05, Servings: 1}}

	stats := plan.Stats()

	assert.Equal(s.T(), 12.2, stats.AvgCalories)
	assert.Equal(s.T(), 0.1, stats.AvgProtein)
}

func (s *PlanTestSuite) TestSortMeals() {
	d0 := s.weekStart
	d1 := s.weekStart.AddDate(0, 0, 1)
	meals := []Meal{
		{Name: "Перекус 2: b", Type: Snack, Date: d0},
		{Name: "Обед: x", Type: Lunch, Date: d1},
		{Name: "Перекус 1: a", Type: Snack, Date: d0},
		{Name: "Завтрак: y", Type: Breakfast, Date: d0},
	}

	SortMeals(meals)

	assert.Equal(s.T(), "Завтрак: y", meals[0].Name)
	assert.Equal(s.T(), "Перекус 1: a", meals[1].Name)
	assert.Equal(s.T(), "Перекус 2: b", meals[2].Name)
	assert.Equal(s.T(), "Обед: x", meals[3].Name)
}

func withinWeek(p *Plan, date time.Time) bool {
	d := truncateToDate(date)
	return !d.Before(p.WeekStart) && !d.After(p.WeekEnd)
}

func TestPlanTestSuite(t *testing.T) {
	suite.Run(t, new(PlanTestSuite))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, d.Location())
	assert.Equal(t, "2024-01-01", FormatDate(d))

	for _, bad := range []string{"", "01/01/2024", "2024-13-01", "2024-02-30", "tomorrow"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidWeekDate, bad)
	}
}

func TestWeekEndProperty(t *testing.T) {
	start := time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC)
	pool := []recipe.Recipe{
		{ID: "a", Name: "A", Calories: 700, Protein: 50},
		{ID: "b", Name: "B", Calories: 300, Protein: 20},
	}

	for i := 0; i < 120; i++ {
		d := start.AddDate(0, 0, i)
		plan, err := NewPlan("recUser", d, "", "")
		require.NoError(t, err)

		plan.Schedule(pool)

		assert.Equal(t, d.AddDate(0, 0, 6), plan.WeekEnd)
		for _, meal := range plan.Meals {
			assert.False(t, meal.Date.Before(d))
			assert.False(t, meal.Date.After(plan.WeekEnd))
		}
	}
}
