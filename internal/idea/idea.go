package idea

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTimeCommitment is returned when a profile names an unknown time bucket.
var ErrInvalidTimeCommitment = errors.New("invalid time commitment")

// TimeCommitment is the weekly time a user can invest.
type TimeCommitment string

const (
	TimeUpTo5  TimeCommitment = "1-5 hours"
	TimeUpTo10 TimeCommitment = "5-10 hours"
	TimeUpTo20 TimeCommitment = "10-20 hours"
	TimeOver20 TimeCommitment = "20+ hours"
	TimeNotSet TimeCommitment = ""
)

// TimeCommitments lists the selectable buckets in display order.
var TimeCommitments = []TimeCommitment{TimeUpTo5, TimeUpTo10, TimeUpTo20, TimeOver20}

// Valid reports whether t is one of the known buckets.
func (t TimeCommitment) Valid() bool {
	for _, b := range TimeCommitments {
		if t == b {
			return true
		}
	}
	return false
}

// UserProfile is what the user tells us about themselves during onboarding.
type UserProfile struct {
	Skills         string         `json:"skills"`
	Budget         string         `json:"budget"`
	TimeCommitment TimeCommitment `json:"timeCommitment"`
	Interests      string         `json:"interests"`
}

// Validate checks the shape of a profile that is still being edited.
// Empty fields are allowed; an unknown time bucket is not.
func (p UserProfile) Validate() error {
	if p.TimeCommitment != TimeNotSet && !p.TimeCommitment.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTimeCommitment, p.TimeCommitment)
	}
	return nil
}

// Complete reports whether the profile has everything idea generation needs.
func (p UserProfile) Complete() bool {
	return strings.TrimSpace(p.Skills) != "" &&
		strings.TrimSpace(p.Budget) != "" &&
		p.TimeCommitment.Valid()
}

// Difficulty is the effort level of an idea.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Difficulties lists the allowed difficulty values.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// IncomeIdea is a single proposed passive-income business concept.
type IncomeIdea struct {
	ID                      string     `json:"id"`
	Title                   string     `json:"title"`
	Description             string     `json:"description"`
	Difficulty              Difficulty `json:"difficulty"`
	EstimatedMonthlyRevenue string     `json:"estimatedMonthlyRevenue"`
	SetupCost               string     `json:"setupCost"`
	TimeToRevenue           string     `json:"timeToRevenue"`
	Tags                    []string   `json:"tags"`
}

// Answers maps a refinement question to the user's answer.
type Answers map[string]string

// Find returns the idea with the given id.
func Find(ideas []IncomeIdea, id string) (IncomeIdea, bool) {
	for _, i := range ideas {
		if i.ID == id {
			return i, true
		}
	}
	return IncomeIdea{}, false
}

// ToggleFavorite adds the idea to favorites when absent and removes it when
// present. It returns the new list and whether the idea was added.
// The input slice is never modified.
func ToggleFavorite(favorites []IncomeIdea, i IncomeIdea) ([]IncomeIdea, bool) {
	out := make([]IncomeIdea, 0, len(favorites)+1)
	removed := false
	for _, f := range favorites {
		if f.ID == i.ID {
			removed = true
			continue
		}
		out = append(out, f)
	}
	if removed {
		return out, false
	}
	return append(out, i), true
}

// IsFavorite reports whether an idea with the given id is saved.
func IsFavorite(favorites []IncomeIdea, id string) bool {
	_, ok := Find(favorites, id)
	return ok
}

// ShareText is the blob handed to a platform share sheet or the clipboard.
func ShareText(i IncomeIdea) string {
	return fmt.Sprintf("Check out this business idea: %s\n\n%s\n\nGenerated by PassiveGenius.", i.Title, i.Description)
}
