// Package recipe holds the read-only recipe catalogue the planners draw from
package recipe

// Recipe is a dish with its per-serving nutrition.
// Recipes are source data; this service never writes them.
type Recipe struct {
	ID       string
	Name     string
	Calories float64
	Protein  float64 // grams
	Fat      float64 // grams
	Carbs    float64 // grams
	PrepTime int     // minutes
	Quick    bool
	Tags     []string
}

// Range is an inclusive numeric interval
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the range, bounds included
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Profile is a nutrient threshold a recipe must satisfy
type Profile struct {
	Calories   Range
	MinProtein float64
}

// Admits reports whether the recipe satisfies the profile
func (p Profile) Admits(r Recipe) bool {
	return p.Calories.Contains(r.Calories) && r.Protein >= p.MinProtein
}

// Select returns the recipes admitted by the profile, preserving order
func (p Profile) Select(recipes []Recipe) []Recipe {
	var out []Recipe
	for _, r := range recipes {
		if p.Admits(r) {
			out = append(out, r)
		}
	}
	return out
}
