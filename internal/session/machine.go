package session

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"passive-genius/internal/idea"
	"passive-genius/internal/metrics"
	"passive-genius/internal/storage"
)

// Advisor produces ideas, refinement questions and plans.
type Advisor interface {
	GenerateIdeas(ctx context.Context, profile idea.UserProfile) ([]idea.IncomeIdea, error)
	GenerateQuestions(ctx context.Context, i idea.IncomeIdea) ([]string, error)
	GeneratePlan(ctx context.Context, i idea.IncomeIdea, profile idea.UserProfile, answers idea.Answers) (*idea.DetailedPlan, error)
}

// Machine is the application state of one user. All mutations go through
// its transition methods. AI calls run without the lock held; their results
// are applied only if no context-changing transition happened meanwhile.
type Machine struct {
	mu        sync.Mutex
	userID    string
	advisor   Advisor
	stores    *storage.Stores
	notifyTTL time.Duration

	state     State
	tab       Tab
	profile   idea.UserProfile
	ideas     []idea.IncomeIdea
	favorites []idea.IncomeIdea
	selected  *idea.IncomeIdea
	questions []string
	answers   idea.Answers
	plan      *idea.DetailedPlan
	progress  idea.Progress

	loading        bool
	loadingMessage string
	// generation advances on every transition that changes what an in-flight
	// AI result would apply to.
	generation uint64

	notification *Notification
	notifyTimer  *time.Timer
	notifySeq    uint64
}

// NewMachine creates a machine in the onboarding state, hydrated from the
// profile and favorites stores.
func NewMachine(ctx context.Context, userID string, advisor Advisor, stores *storage.Stores, notifyTTL time.Duration) *Machine {
	return &Machine{
		userID:    userID,
		advisor:   advisor,
		stores:    stores,
		notifyTTL: notifyTTL,
		state:     StateOnboarding,
		tab:       TabDiscover,
		profile:   stores.Profile.Load(ctx, userID),
		ideas:     []idea.IncomeIdea{},
		favorites: stores.Favorites.Load(ctx, userID),
		answers:   idea.Answers{},
		progress:  idea.Progress{},
	}
}

// UserID returns the owner of the machine.
func (m *Machine) UserID() string {
	return m.userID
}

func (m *Machine) setState(s State) {
	if m.state != s {
		metrics.ObserveTransition(string(m.state), string(s))
	}
	m.state = s
}

// beginLoading marks an AI call as started and returns its token.
func (m *Machine) beginLoading(message string) uint64 {
	m.generation++
	m.loading = true
	m.loadingMessage = message
	return m.generation
}

func (m *Machine) endLoading() {
	m.loading = false
	m.loadingMessage = ""
}

func (m *Machine) current(token uint64) bool {
	return m.generation == token
}

func (m *Machine) clearSelection() {
	m.selected = nil
	m.questions = nil
	m.answers = idea.Answers{}
	m.plan = nil
	m.progress = idea.Progress{}
}

// SubmitOnboarding generates ideas for the current profile. It is allowed
// from onboarding and from the profile tab ("Update & Regenerate").
// On success the machine lands on the discover tab, possibly with no
// ideas; on failure it returns to onboarding with a notification.
func (m *Machine) SubmitOnboarding(ctx context.Context) error {
	m.mu.Lock()
	if m.loading {
		m.mu.Unlock()
		return ErrBusy
	}
	if m.state != StateOnboarding && !(m.state == StateMainApp && m.tab == TabProfile) {
		m.mu.Unlock()
		return fmt.Errorf("%w: cannot submit onboarding from %s", ErrInvalidTransition, m.state)
	}
	if !m.profile.Complete() {
		m.mu.Unlock()
		return ErrIncompleteProfile
	}
	token := m.beginLoading(LoadingIdeas)
	m.setState(StateGenerating)
	profile := m.profile
	m.mu.Unlock()

	ideas, err := m.advisor.GenerateIdeas(ctx, profile)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.current(token) {
		return ErrSuperseded
	}
	m.endLoading()
	if err != nil {
		log.Printf("Failed to generate ideas for %s: %v", m.userID, err)
		m.setState(StateOnboarding)
		m.notifyLocked(MsgIdeasFailed, KindInfo)
		return nil
	}
	if ideas == nil {
		ideas = []idea.IncomeIdea{}
	}
	m.ideas = ideas
	m.tab = TabDiscover
	m.setState(StateMainApp)
	return nil
}

// SelectIdea starts refinement for an idea from the current list or
// favorites. Without questions it skips straight to plan generation.
func (m *Machine) SelectIdea(ctx context.Context, id string) error {
	m.mu.Lock()
	if m.loading {
		m.mu.Unlock()
		return ErrBusy
	}
	if m.state != StateMainApp {
		m.mu.Unlock()
		return fmt.Errorf("%w: cannot select an idea from %s", ErrInvalidTransition, m.state)
	}
	i, ok := idea.Find(m.ideas, id)
	if !ok {
		i, ok = idea.Find(m.favorites, id)
	}
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownIdea, id)
	}
	m.clearSelection()
	m.selected = &i
	token := m.beginLoading(LoadingQuestions)
	m.mu.Unlock()

	questions, err := m.advisor.GenerateQuestions(ctx, i)

	m.mu.Lock()
	if !m.current(token) {
		m.mu.Unlock()
		return ErrSuperseded
	}
	if err == nil && len(questions) > 0 {
		m.endLoading()
		m.questions = append([]string(nil), questions...)
		m.setState(StateRefining)
		m.mu.Unlock()
		return nil
	}
	if err != nil {
		log.Printf("Failed to generate questions for %s, skipping refinement: %v", m.userID, err)
	}
	return m.generatePlanLocked(ctx)
}

// SetAnswer records the answer to one of the asked questions.
func (m *Machine) SetAnswer(question, answer string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateRefining {
		return fmt.Errorf("%w: no refinement in progress", ErrInvalidTransition)
	}
	for _, q := range m.questions {
		if q == question {
			m.answers[q] = answer
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownQuestion, question)
}

// SetAnswers records several answers at once. Every question is checked
// before any answer is stored.
func (m *Machine) SetAnswers(answers map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateRefining {
		return fmt.Errorf("%w: no refinement in progress", ErrInvalidTransition)
	}
	questions := make([]string, 0, len(answers))
	for q := range answers {
		questions = append(questions, q)
	}
	sort.Strings(questions)
	for _, q := range questions {
		if !slices.Contains(m.questions, q) {
			return fmt.Errorf("%w: %q", ErrUnknownQuestion, q)
		}
	}
	for q, a := range answers {
		m.answers[q] = a
	}
	return nil
}

// SubmitRefinement generates the plan with the collected answers.
func (m *Machine) SubmitRefinement(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateRefining || m.selected == nil {
		m.mu.Unlock()
		return fmt.Errorf("%w: no refinement in progress", ErrInvalidTransition)
	}
	return m.generatePlanLocked(ctx)
}

// generatePlanLocked must be called with m.mu held. It moves to planning,
// releases the lock during the AI call and unlocks before returning.
func (m *Machine) generatePlanLocked(ctx context.Context) error {
	token := m.beginLoading(LoadingPlan)
	m.setState(StatePlanning)
	selected := *m.selected
	profile := m.profile
	answers := make(idea.Answers, len(m.answers))
	for q, a := range m.answers {
		answers[q] = a
	}
	m.mu.Unlock()

	plan, err := m.advisor.GeneratePlan(ctx, selected, profile, answers)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.current(token) {
		return ErrSuperseded
	}
	m.endLoading()
	if err != nil || plan == nil {
		log.Printf("Failed to generate plan for %s: %v", m.userID, err)
		m.clearSelection()
		m.setState(StateMainApp)
		m.notifyLocked(MsgPlanFailed, KindInfo)
		return nil
	}
	plan.IdeaID = selected.ID
	m.plan = plan
	m.progress = m.stores.Progress.Load(ctx, m.userID, selected.ID)
	m.setState(StateDetail)
	return nil
}

// Back leaves refinement, planning or the plan detail for the main app, or
// abandons idea generation for onboarding. Any in-flight result is
// discarded when it arrives.
func (m *Machine) Back() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateRefining, StatePlanning, StateDetail:
		m.generation++
		m.endLoading()
		m.clearSelection()
		m.setState(StateMainApp)
	case StateGenerating:
		m.generation++
		m.endLoading()
		m.setState(StateOnboarding)
	case StateMainApp:
		// Cancels question generation for a selected idea.
		if !m.loading {
			return fmt.Errorf("%w: nothing to go back from", ErrInvalidTransition)
		}
		m.generation++
		m.endLoading()
		m.clearSelection()
	default:
		return fmt.Errorf("%w: cannot go back from %s", ErrInvalidTransition, m.state)
	}
	return nil
}

// SelectTab switches the main app section.
func (m *Machine) SelectTab(tab Tab) error {
	if !tab.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateMainApp {
		return fmt.Errorf("%w: tabs are only available in the main app", ErrInvalidTransition)
	}
	m.tab = tab
	return nil
}

// OpenOnboarding returns from the main app to the onboarding form.
func (m *Machine) OpenOnboarding() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loading {
		return ErrBusy
	}
	if m.state != StateMainApp {
		return fmt.Errorf("%w: cannot open onboarding from %s", ErrInvalidTransition, m.state)
	}
	m.setState(StateOnboarding)
	return nil
}

// ViewSaved jumps from onboarding to the saved ideas tab.
func (m *Machine) ViewSaved() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateOnboarding {
		return fmt.Errorf("%w: cannot view saved ideas from %s", ErrInvalidTransition, m.state)
	}
	m.tab = TabSaved
	m.setState(StateMainApp)
	return nil
}

// UpdateProfile replaces the profile and writes it through to the store.
// It is allowed in every state; an in-flight call keeps the profile it
// started with.
func (m *Machine) UpdateProfile(ctx context.Context, p idea.UserProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.Skills = strings.TrimSpace(p.Skills)
	p.Budget = strings.TrimSpace(p.Budget)
	p.Interests = strings.TrimSpace(p.Interests)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = p
	m.stores.Profile.Save(ctx, m.userID, p)
	return nil
}

// ToggleFavorite saves or removes a known idea and reports whether it is
// now a favorite.
func (m *Machine) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := idea.Find(m.ideas, id)
	if !ok {
		i, ok = idea.Find(m.favorites, id)
	}
	if !ok && m.selected != nil && m.selected.ID == id {
		i, ok = *m.selected, true
	}
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownIdea, id)
	}

	favs, added := idea.ToggleFavorite(m.favorites, i)
	m.favorites = favs
	m.stores.Favorites.Save(ctx, m.userID, favs)
	if added {
		m.notifyLocked(MsgFavoriteAdded, KindSuccess)
	} else {
		m.notifyLocked(MsgFavoriteRemoved, KindInfo)
	}
	return added, nil
}

// ToggleTask flips a checklist task of the displayed plan and writes the
// progress through to the store. It returns the new completion percentage.
func (m *Machine) ToggleTask(ctx context.Context, phase, task int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateDetail || m.plan == nil {
		return 0, fmt.Errorf("%w: no plan is displayed", ErrInvalidTransition)
	}
	if !m.plan.HasTask(phase, task) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTask, idea.TaskKey(phase, task))
	}
	m.progress = m.progress.Toggle(phase, task)
	m.stores.Progress.Save(ctx, m.userID, m.plan.IdeaID, m.progress)
	return m.progress.Percent(m.plan), nil
}

// SelectedIdea returns the idea being refined or displayed.
func (m *Machine) SelectedIdea() (idea.IncomeIdea, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected == nil {
		return idea.IncomeIdea{}, false
	}
	return cloneIdea(*m.selected), true
}

// Plan returns the displayed plan and the title of its idea.
func (m *Machine) Plan() (*idea.DetailedPlan, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateDetail || m.plan == nil {
		return nil, "", false
	}
	title := ""
	if m.selected != nil {
		title = m.selected.Title
	}
	return clonePlan(m.plan), title, true
}

// Snapshot returns a copy of the state for presentation.
func (m *Machine) Snapshot() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := View{
		UserID:          m.userID,
		State:           m.state,
		Tab:             m.tab,
		Profile:         m.profile,
		ProfileComplete: m.profile.Complete(),
		Ideas:           cloneIdeas(m.ideas),
		Favorites:       cloneIdeas(m.favorites),
		Questions:       append([]string(nil), m.questions...),
		Loading:         m.loading,
		LoadingMessage:  m.loadingMessage,
	}
	if m.selected != nil {
		s := cloneIdea(*m.selected)
		v.SelectedIdea = &s
	}
	if len(m.answers) > 0 {
		v.Answers = make(idea.Answers, len(m.answers))
		for q, a := range m.answers {
			v.Answers[q] = a
		}
	}
	if m.plan != nil {
		v.Plan = clonePlan(m.plan)
		summary := m.plan.Summary()
		v.Summary = &summary
		v.Progress = make(idea.Progress, len(m.progress))
		for k, done := range m.progress {
			v.Progress[k] = done
		}
		v.ProgressPercent = m.progress.Percent(m.plan)
	}
	if m.notification != nil {
		n := *m.notification
		v.Notification = &n
	}
	return v
}

func cloneIdea(i idea.IncomeIdea) idea.IncomeIdea {
	i.Tags = append([]string(nil), i.Tags...)
	return i
}

func cloneIdeas(list []idea.IncomeIdea) []idea.IncomeIdea {
	out := make([]idea.IncomeIdea, len(list))
	for n, i := range list {
		out[n] = cloneIdea(i)
	}
	return out
}

func clonePlan(p *idea.DetailedPlan) *idea.DetailedPlan {
	c := *p
	c.Steps = make([]idea.PlanStep, len(p.Steps))
	for n, s := range p.Steps {
		c.Steps[n] = idea.PlanStep{Phase: s.Phase, Tasks: append([]string(nil), s.Tasks...)}
	}
	c.Projections = append([]idea.FinancialProjection(nil), p.Projections...)
	return &c
}
