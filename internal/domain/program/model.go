package program

import (
	"errors"
	"slices"
	"strings"
)

// Category constants used by the landing page filter.
const (
	CategoryAll        = "All"
	CategoryIndividual = "Individual"
	CategoryGroup      = "Group"
	CategoryKickboxing = "Kickboxing"
)

// Categories lists the filter buttons in display order.
var Categories = []string{CategoryAll, CategoryIndividual, CategoryGroup, CategoryKickboxing}

// Domain errors
var (
	ErrEmptyID         = errors.New("program id cannot be empty")
	ErrEmptyTitle      = errors.New("program title cannot be empty")
	ErrInvalidCategory = errors.New("program category must be Individual, Group or Kickboxing")
	ErrUnknownCategory = errors.New("unknown program category")
	ErrProgramNotFound = errors.New("program not found")
)

// Program is a training offer shown on the landing page.
type Program struct {
	ID          string
	Title       string
	Category    string
	Description string
	Detail      string
	Features    []string
}

// Validate checks if the Program has valid data.
// PRE: Program struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Program) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	if p.Category == CategoryAll || !slices.Contains(Categories, p.Category) {
		return ErrInvalidCategory
	}
	return nil
}

var defaults = []Program{
	{
		ID:          "individual-class",
		Title:       "Individual Class",
		Category:    CategoryIndividual,
		Description: "Personalized boxing training tailored to your goals.",
		Detail:      "Our Individual Class program offers one-on-one training sessions with experienced coaches. Focus on personalized techniques, strength conditioning, and strategic planning to achieve your specific fitness and boxing goals.",
		Features:    []string{"Personalized Training", "Technique Refinement", "Strength Conditioning", "Strategic Planning"},
	},
	{
		ID:          "kids-group",
		Title:       "Kids Group",
		Category:    CategoryGroup,
		Description: "Fun and engaging boxing classes designed for children.",
		Detail:      "Our Kids Group program is tailored to introduce children to the fundamentals of boxing in a safe and supportive environment. Focus on discipline, coordination, and confidence-building.",
		Features:    []string{"Age-Appropriate Training", "Discipline and Focus", "Coordination Exercises", "Confidence Building"},
	},
	{
		ID:          "adult-group",
		Title:       "Adult Group",
		Category:    CategoryGroup,
		Description: "Group boxing sessions for adults of all fitness levels.",
		Detail:      "The Adult Group program offers a balanced mix of boxing techniques and cardio workouts suitable for all fitness levels. Enhance your fitness, learn new skills, and meet like-minded individuals.",
		Features:    []string{"Inclusive Training", "Cardio and Strength", "Community Building", "Flexible Scheduling"},
	},
	{
		ID:          "kickboxing",
		Title:       "Kickboxing",
		Category:    CategoryKickboxing,
		Description: "High-intensity kickboxing classes for a full-body workout.",
		Detail:      "Our Kickboxing program combines traditional boxing techniques with powerful kicks to provide a comprehensive full-body workout. Improve your strength, agility, and endurance while learning self-defense skills.",
		Features:    []string{"Full-Body Workout", "Strength and Agility", "Self-Defense Techniques", "High-Intensity Training"},
	},
}

// All returns the gym's programs in display order.
func All() []Program {
	out := make([]Program, len(defaults))
	copy(out, defaults)
	return out
}

// Filter returns the programs in category. "" and All return every program.
func Filter(category string) ([]Program, error) {
	if category == "" || category == CategoryAll {
		return All(), nil
	}
	if !slices.Contains(Categories, category) {
		return nil, ErrUnknownCategory
	}
	var out []Program
	for _, p := range defaults {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

// Get returns the program with the given ID.
func Get(id string) (Program, error) {
	for _, p := range defaults {
		if p.ID == id {
			return p, nil
		}
	}
	return Program{}, ErrProgramNotFound
}
