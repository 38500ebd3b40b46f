package session

import (
	"errors"

	"passive-genius/internal/idea"
)

// State is the screen the user is on.
type State string

const (
	StateOnboarding State = "onboarding"
	StateGenerating State = "generating"
	StateMainApp    State = "main_app"
	StateRefining   State = "refining"
	StatePlanning   State = "planning"
	StateDetail     State = "detail"
)

// Tab is the active section of the main app.
type Tab string

const (
	TabDiscover  Tab = "discover"
	TabSaved     Tab = "saved"
	TabCommunity Tab = "community"
	TabProfile   Tab = "profile"
)

// Valid reports whether t is a known tab.
func (t Tab) Valid() bool {
	switch t {
	case TabDiscover, TabSaved, TabCommunity, TabProfile:
		return true
	}
	return false
}

// Loading messages shown while an AI call is in flight.
const (
	LoadingIdeas     = "Generating Income Ideas..."
	LoadingQuestions = "Analyzing idea details..."
	LoadingPlan      = "Building your custom strategy..."
)

// Notification texts.
const (
	MsgIdeasFailed       = "Failed to generate ideas. Please try again."
	MsgPlanFailed        = "Could not generate plan details."
	MsgFavoriteAdded     = "Saved to favorites"
	MsgFavoriteRemoved   = "Removed from favorites"
	MsgFeedbackSent      = "Feedback sent! Thank you."
	MsgPlanRated         = "Thanks for your feedback!"
	MsgFeatureComingSoon = "Feature coming soon!"
	MsgCopied            = "Copied to clipboard"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrIncompleteProfile = errors.New("profile is incomplete")
	ErrUnknownIdea       = errors.New("unknown idea")
	ErrUnknownQuestion   = errors.New("unknown question")
	ErrUnknownTask       = errors.New("unknown task")
	ErrUnknownTab        = errors.New("unknown tab")
	// ErrSuperseded means the AI result arrived after the user moved on and
	// was discarded.
	ErrSuperseded = errors.New("result superseded by a newer action")
	// ErrBusy means another AI call is already running for this user.
	ErrBusy = errors.New("another request is in progress")
)

// View is an immutable snapshot of a user's application state.
type View struct {
	UserID          string                 `json:"userId"`
	State           State                  `json:"state"`
	Tab             Tab                    `json:"tab"`
	Profile         idea.UserProfile       `json:"profile"`
	ProfileComplete bool                   `json:"profileComplete"`
	Ideas           []idea.IncomeIdea      `json:"ideas"`
	Favorites       []idea.IncomeIdea      `json:"favorites"`
	SelectedIdea    *idea.IncomeIdea       `json:"selectedIdea,omitempty"`
	Questions       []string               `json:"questions,omitempty"`
	Answers         idea.Answers           `json:"answers,omitempty"`
	Plan            *idea.DetailedPlan     `json:"plan,omitempty"`
	Summary         *idea.FinancialSummary `json:"summary,omitempty"`
	Progress        idea.Progress          `json:"progress,omitempty"`
	ProgressPercent int                    `json:"progressPercent"`
	Loading         bool                   `json:"loading"`
	LoadingMessage  string                 `json:"loadingMessage,omitempty"`
	Notification    *Notification          `json:"notification,omitempty"`
}

// IsFavorite reports whether the idea is in the snapshot's favorites.
func (v View) IsFavorite(id string) bool {
	return idea.IsFavorite(v.Favorites, id)
}
