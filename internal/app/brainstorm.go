package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"passive-genius/internal/export"
	"passive-genius/internal/idea"
	"passive-genius/internal/session"
)

// ErrQuit ends an interactive session early.
var ErrQuit = errors.New("quit")

// Brainstorm runs the interactive terminal flow: profile, ideas,
// refinement, plan and export.
type Brainstorm struct {
	machine *session.Machine
	in      *bufio.Scanner
	out     io.Writer
	outDir  string
}

func NewBrainstorm(m *session.Machine, in io.Reader, out io.Writer, outDir string) *Brainstorm {
	return &Brainstorm{machine: m, in: bufio.NewScanner(in), out: out, outDir: outDir}
}

// Run drives the machine until the user quits or input ends.
func (b *Brainstorm) Run(ctx context.Context) error {
	for {
		v := b.machine.Snapshot()
		if v.Notification != nil {
			fmt.Fprintf(b.out, "\n[%s] %s\n", v.Notification.Kind, v.Notification.Message)
			b.machine.DismissNotification()
		}

		var err error
		switch v.State {
		case session.StateOnboarding:
			err = b.onboarding(ctx, v)
		case session.StateMainApp:
			err = b.chooseIdea(ctx, v)
		case session.StateRefining:
			err = b.refine(ctx, v)
		case session.StateDetail:
			err = b.detail(ctx, v)
		default:
			return fmt.Errorf("unexpected state %s", v.State)
		}
		if errors.Is(err, ErrQuit) || errors.Is(err, io.EOF) {
			fmt.Fprintln(b.out, "Bye!")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (b *Brainstorm) prompt(label string) (string, error) {
	fmt.Fprintf(b.out, "%s: ", label)
	if !b.in.Scan() {
		if err := b.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	text := strings.TrimSpace(b.in.Text())
	if text == "q" || text == "quit" {
		return "", ErrQuit
	}
	return text, nil
}

// ask prompts for a value, keeping current when the answer is empty.
func (b *Brainstorm) ask(label, current string) (string, error) {
	if current != "" {
		label = fmt.Sprintf("%s [%s]", label, current)
	}
	text, err := b.prompt(label)
	if err != nil || text == "" {
		return current, err
	}
	return text, nil
}

func (b *Brainstorm) onboarding(ctx context.Context, v session.View) error {
	fmt.Fprintln(b.out, "\n=== TELL US ABOUT YOU ===")
	p := v.Profile
	var err error
	if p.Skills, err = b.ask("Skills", p.Skills); err != nil {
		return err
	}
	if p.Budget, err = b.ask("Budget", p.Budget); err != nil {
		return err
	}
	for {
		for i, t := range idea.TimeCommitments {
			fmt.Fprintf(b.out, "  %d) %s\n", i+1, t)
		}
		choice, err := b.ask("Weekly time", string(p.TimeCommitment))
		if err != nil {
			return err
		}
		if n, convErr := strconv.Atoi(choice); convErr == nil && n >= 1 && n <= len(idea.TimeCommitments) {
			p.TimeCommitment = idea.TimeCommitments[n-1]
			break
		}
		if idea.TimeCommitment(choice).Valid() {
			p.TimeCommitment = idea.TimeCommitment(choice)
			break
		}
		fmt.Fprintln(b.out, "Please pick one of the options.")
	}
	if p.Interests, err = b.ask("Interests (optional)", p.Interests); err != nil {
		return err
	}
	if err := b.machine.UpdateProfile(ctx, p); err != nil {
		return err
	}
	if !p.Complete() {
		fmt.Fprintln(b.out, "Skills and budget are required.")
		return nil
	}

	fmt.Fprintln(b.out, session.LoadingIdeas)
	return b.machine.SubmitOnboarding(ctx)
}

func (b *Brainstorm) chooseIdea(ctx context.Context, v session.View) error {
	list := v.Ideas
	if v.Tab == session.TabSaved {
		list = v.Favorites
	}

	fmt.Fprintln(b.out, "\n=== INCOME IDEAS ===")
	if len(list) == 0 {
		fmt.Fprintln(b.out, "No ideas to show.")
	}
	for n, i := range list {
		star := " "
		if v.IsFavorite(i.ID) {
			star = "*"
		}
		fmt.Fprintf(b.out, "%s%2d. %s (%s)\n    %s\n    Revenue: %s | Setup: %s | Time to revenue: %s\n",
			star, n+1, i.Title, i.Difficulty, i.Description, i.EstimatedMonthlyRevenue, i.SetupCost, i.TimeToRevenue)
	}
	fmt.Fprintln(b.out, "\nCommands: <n> open, s <n> save/unsave, share <n>, saved, all, profile, q quit")

	cmd, err := b.prompt(">")
	if err != nil {
		return err
	}
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return nil
	}

	pick := func(arg string) (idea.IncomeIdea, bool) {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(list) {
			fmt.Fprintln(b.out, "No such idea.")
			return idea.IncomeIdea{}, false
		}
		return list[n-1], true
	}

	switch fields[0] {
	case "saved":
		return b.machine.SelectTab(session.TabSaved)
	case "all":
		return b.machine.SelectTab(session.TabDiscover)
	case "profile":
		return b.machine.OpenOnboarding()
	case "s":
		if len(fields) < 2 {
			return nil
		}
		if i, ok := pick(fields[1]); ok {
			_, err := b.machine.ToggleFavorite(ctx, i.ID)
			return err
		}
	case "share":
		if len(fields) < 2 {
			return nil
		}
		if i, ok := pick(fields[1]); ok {
			fmt.Fprintf(b.out, "\n%s\n", idea.ShareText(i))
		}
	default:
		if i, ok := pick(fields[0]); ok {
			fmt.Fprintln(b.out, session.LoadingQuestions)
			return b.machine.SelectIdea(ctx, i.ID)
		}
	}
	return nil
}

func (b *Brainstorm) refine(ctx context.Context, v session.View) error {
	fmt.Fprintf(b.out, "\n=== REFINING: %s ===\n(blank answers are fine, 'back' returns to the list)\n", v.SelectedIdea.Title)
	for _, q := range v.Questions {
		answer, err := b.ask(q, v.Answers[q])
		if err != nil {
			return err
		}
		if answer == "back" {
			return b.machine.Back()
		}
		if err := b.machine.SetAnswer(q, answer); err != nil {
			return err
		}
	}
	fmt.Fprintln(b.out, session.LoadingPlan)
	return b.machine.SubmitRefinement(ctx)
}

func (b *Brainstorm) detail(ctx context.Context, v session.View) error {
	printPlan(b.out, v)
	fmt.Fprintln(b.out, "\nCommands: t <phase> <task> toggle, pdf, xlsx, share, save, back, q quit")

	cmd, err := b.prompt(">")
	if err != nil {
		return err
	}
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "t":
		if len(fields) < 3 {
			return nil
		}
		phase, err1 := strconv.Atoi(fields[1])
		task, err2 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil {
			fmt.Fprintln(b.out, "Usage: t <phase> <task>")
			return nil
		}
		pct, err := b.machine.ToggleTask(ctx, phase-1, task-1)
		if errors.Is(err, session.ErrUnknownTask) {
			fmt.Fprintln(b.out, "No such task.")
			return nil
		}
		if err == nil {
			fmt.Fprintf(b.out, "Progress: %d%%\n", pct)
		}
		return err
	case "pdf":
		return b.writeExport("pdf", export.PDF)
	case "xlsx":
		return b.writeExport("xlsx", export.XLSX)
	case "share":
		fmt.Fprintf(b.out, "\n%s\n", idea.ShareText(*v.SelectedIdea))
	case "save":
		_, err := b.machine.ToggleFavorite(ctx, v.SelectedIdea.ID)
		return err
	case "back":
		return b.machine.Back()
	}
	return nil
}

func (b *Brainstorm) writeExport(ext string, render func(io.Writer, *idea.DetailedPlan, string) error) error {
	plan, title, ok := b.machine.Plan()
	if !ok {
		return nil
	}
	if err := os.MkdirAll(b.outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(b.outDir, export.FileName(title, ext))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := render(f, plan, title); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(b.out, "Saved %s\n", path)
	return nil
}

func printPlan(w io.Writer, v session.View) {
	if v.Plan == nil {
		return
	}
	title := v.Plan.IdeaID
	if v.SelectedIdea != nil {
		title = v.SelectedIdea.Title
	}
	fmt.Fprintf(w, "\n=== STRATEGY: %s ===\n\n%s\n\nMarketing: %s\n\n", title, v.Plan.Overview, v.Plan.MarketingStrategy)
	for p, step := range v.Plan.Steps {
		fmt.Fprintf(w, "%d. %s\n", p+1, step.Phase)
		for t, task := range step.Tasks {
			mark := "[ ]"
			if v.Progress.Done(p, t) {
				mark = "[x]"
			}
			fmt.Fprintf(w, "   %s %d.%d %s\n", mark, p+1, t+1, task)
		}
	}
	fmt.Fprintln(w, "\nMonth        Revenue   Expenses     Profit")
	for _, pr := range v.Plan.Projections {
		fmt.Fprintf(w, "%-10s %9.0f %10.0f %10.0f\n", pr.Month, pr.Revenue, pr.Expenses, pr.Profit)
	}
	if v.Summary != nil {
		fmt.Fprintf(w, "\nTotal profit: %.0f | Avg margin: %d%% | First profitable month: %s\n",
			v.Summary.TotalProfit, v.Summary.AvgMargin, v.Summary.FirstProfitMonth)
	}
	fmt.Fprintf(w, "Progress: %d%%\n", v.ProgressPercent)
}
