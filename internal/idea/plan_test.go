package idea

import "testing"

func samplePlan() *DetailedPlan {
	return &DetailedPlan{
		IdeaID: "idea-1",
		Steps: []PlanStep{
			{Phase: "Setup", Tasks: []string{"Pick niche", "Create store"}},
			{Phase: "Launch", Tasks: []string{"Post on Reddit"}},
			{Phase: "Scale", Tasks: []string{"Run ads"}},
		},
		Projections: []FinancialProjection{
			{Month: "Month 1", Revenue: 0, Expenses: 100, Profit: -100},
			{Month: "Month 2", Revenue: 200, Expenses: 100, Profit: 100},
			{Month: "Month 3", Revenue: 800, Expenses: 200, Profit: 600},
		},
	}
}

func TestProgressPercent(t *testing.T) {
	plan := samplePlan()

	t.Run("Empty", func(t *testing.T) {
		if got := (Progress{}).Percent(plan); got != 0 {
			t.Errorf("Expected 0, got %d", got)
		}
	})

	t.Run("ZeroTasks", func(t *testing.T) {
		p := Progress{"0-0": true}
		if got := p.Percent(&DetailedPlan{}); got != 0 {
			t.Errorf("Expected 0 for a plan without tasks, got %d", got)
		}
		if got := p.Percent(nil); got != 0 {
			t.Errorf("Expected 0 for nil plan, got %d", got)
		}
	})

	t.Run("Rounded", func(t *testing.T) {
		p := Progress{}.Toggle(0, 0)
		if got := p.Percent(plan); got != 25 {
			t.Errorf("Expected 25, got %d", got)
		}
		p = p.Toggle(1, 0).Toggle(2, 0)
		if got := p.Percent(plan); got != 75 {
			t.Errorf("Expected 75, got %d", got)
		}
	})

	t.Run("IgnoresKeysOutsidePlan", func(t *testing.T) {
		p := Progress{"9-9": true, "0-1": true}
		if got := p.Percent(plan); got != 25 {
			t.Errorf("Expected 25, got %d", got)
		}
	})
}

func TestProgressToggle(t *testing.T) {
	orig := Progress{}
	on := orig.Toggle(1, 0)
	if !on.Done(1, 0) {
		t.Error("Expected task to be done")
	}
	if orig.Done(1, 0) {
		t.Error("Toggle modified the receiver")
	}
	off := on.Toggle(1, 0)
	if off.Done(1, 0) {
		t.Error("Expected task to be undone")
	}
}

func TestPlanSummary(t *testing.T) {
	s := samplePlan().Summary()
	if s.TotalProfit != 600 {
		t.Errorf("Expected total profit 600, got %v", s.TotalProfit)
	}
	if s.TotalRevenue != 1000 {
		t.Errorf("Expected total revenue 1000, got %v", s.TotalRevenue)
	}
	if s.AvgMargin != 60 {
		t.Errorf("Expected margin 60, got %d", s.AvgMargin)
	}
	if s.FirstProfitMonth != "Month 2" {
		t.Errorf("Expected first profit in Month 2, got %s", s.FirstProfitMonth)
	}

	empty := (&DetailedPlan{}).Summary()
	if empty.AvgMargin != 0 || empty.FirstProfitMonth != "N/A" {
		t.Errorf("Unexpected summary for empty plan: %+v", empty)
	}
}

func TestHasTask(t *testing.T) {
	plan := samplePlan()
	if !plan.HasTask(0, 1) {
		t.Error("Expected task 0-1 to exist")
	}
	for _, c := range [][2]int{{-1, 0}, {3, 0}, {1, 1}, {0, -1}} {
		if plan.HasTask(c[0], c[1]) {
			t.Errorf("Expected task %v to be out of range", c)
		}
	}
	if plan.TaskCount() != 4 {
		t.Errorf("Expected 4 tasks, got %d", plan.TaskCount())
	}
}
