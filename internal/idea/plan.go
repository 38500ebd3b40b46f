package idea

import (
	"fmt"
	"math"
)

// PlanStep is one execution phase of a plan.
type PlanStep struct {
	Phase string   `json:"phase"`
	Tasks []string `json:"tasks"`
}

// FinancialProjection is one month of the forecast.
// Profit is taken as reported; it is not checked against Revenue - Expenses.
type FinancialProjection struct {
	Month    string  `json:"month"`
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
	Profit   float64 `json:"profit"`
}

// DetailedPlan is the launch plan generated for one idea, profile and answer set.
type DetailedPlan struct {
	IdeaID            string                `json:"ideaId"`
	Overview          string                `json:"overview"`
	MarketingStrategy string                `json:"marketingStrategy"`
	Steps             []PlanStep            `json:"steps"`
	Projections       []FinancialProjection `json:"projections"`
}

// TaskCount is the number of checklist tasks across all phases.
func (p *DetailedPlan) TaskCount() int {
	n := 0
	for _, s := range p.Steps {
		n += len(s.Tasks)
	}
	return n
}

// HasTask reports whether the phase/task indices address a task of the plan.
func (p *DetailedPlan) HasTask(phase, task int) bool {
	if phase < 0 || phase >= len(p.Steps) {
		return false
	}
	return task >= 0 && task < len(p.Steps[phase].Tasks)
}

// FinancialSummary aggregates the projections for the plan header.
type FinancialSummary struct {
	TotalProfit      float64 `json:"totalProfit"`
	TotalRevenue     float64 `json:"totalRevenue"`
	AvgMargin        int     `json:"avgMargin"`
	FirstProfitMonth string  `json:"firstProfitMonth"`
}

// Summary computes totals, the average margin and the first profitable month.
func (p *DetailedPlan) Summary() FinancialSummary {
	s := FinancialSummary{FirstProfitMonth: "N/A"}
	found := false
	for _, pr := range p.Projections {
		s.TotalProfit += pr.Profit
		s.TotalRevenue += pr.Revenue
		if !found && pr.Profit > 0 {
			s.FirstProfitMonth = pr.Month
			found = true
		}
	}
	if s.TotalRevenue > 0 {
		s.AvgMargin = int(math.Round(s.TotalProfit / s.TotalRevenue * 100))
	}
	return s
}

// Progress records completed tasks of one plan, keyed by "<phase>-<task>".
type Progress map[string]bool

// TaskKey builds the progress key of a task.
func TaskKey(phase, task int) string {
	return fmt.Sprintf("%d-%d", phase, task)
}

// Done reports whether the task is marked complete.
func (p Progress) Done(phase, task int) bool {
	return p[TaskKey(phase, task)]
}

// Toggle flips the completion state of a task and returns a new map.
func (p Progress) Toggle(phase, task int) Progress {
	out := make(Progress, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	key := TaskKey(phase, task)
	out[key] = !p[key]
	return out
}

// Percent is the rounded share of completed plan tasks. A plan without
// tasks is 0% complete.
func (p Progress) Percent(plan *DetailedPlan) int {
	if plan == nil {
		return 0
	}
	total, done := 0, 0
	for pi, step := range plan.Steps {
		for ti := range step.Tasks {
			total++
			if p.Done(pi, ti) {
				done++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}
