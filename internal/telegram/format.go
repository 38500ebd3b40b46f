package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"passive-genius/internal/idea"
	"passive-genius/internal/metrics"
	"passive-genius/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram rejects messages longer than this.
const maxMessageLen = 4096

// Callback actions. Payloads are "action|arg|arg" and must fit in 64 bytes.
const (
	cbTime   = "time"
	cbGen    = "gen"
	cbSelect = "sel"
	cbFav    = "fav"
	cbPlan   = "plan"
	cbTask   = "task"
	cbPDF    = "pdf"
	cbXLSX   = "xlsx"
	cbShare  = "share"
	cbRate   = "rate"
	cbBack   = "back"
	cbNoop   = "noop"
)

func callback(action string, args ...string) string {
	return strings.Join(append([]string{action}, args...), "|")
}

func parseCallback(data string) (string, []string) {
	parts := strings.Split(data, "|")
	return parts[0], parts[1:]
}

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// profile fields in the order the bot asks for them.
const (
	fieldSkills    = "skills"
	fieldBudget    = "budget"
	fieldTime      = "time"
	fieldInterests = "interests"
	fieldDone      = ""
)

func nextProfileField(p idea.UserProfile) string {
	switch {
	case strings.TrimSpace(p.Skills) == "":
		return fieldSkills
	case strings.TrimSpace(p.Budget) == "":
		return fieldBudget
	case !p.TimeCommitment.Valid():
		return fieldTime
	case strings.TrimSpace(p.Interests) == "":
		return fieldInterests
	default:
		return fieldDone
	}
}

// applyProfileText stores free text into the field being asked for.
// Once the profile is complete the text replaces the interests.
func applyProfileText(p idea.UserProfile, text string) (idea.UserProfile, bool) {
	switch nextProfileField(p) {
	case fieldSkills:
		p.Skills = text
	case fieldBudget:
		p.Budget = text
	case fieldTime:
		return p, false
	default:
		p.Interests = text
	}
	return p, true
}

func generateKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🚀 Generate ideas", callback(cbGen)),
	))
}

func formatOnboarding(v session.View) (string, *tgbotapi.InlineKeyboardMarkup) {
	switch nextProfileField(v.Profile) {
	case fieldSkills:
		return "👋 *Welcome to PassiveGenius!*\n\nWhat are your skills? (e.g. design, coding, writing)", nil
	case fieldBudget:
		return "💵 What's your starting budget?", nil
	case fieldTime:
		rows := [][]tgbotapi.InlineKeyboardButton{}
		for i, t := range idea.TimeCommitments {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(string(t), callback(cbTime, strconv.Itoa(i))),
			))
		}
		kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
		return "⏱ How much time can you invest per week?", &kb
	case fieldInterests:
		kb := generateKeyboard()
		return "🎯 Any interests? Reply with a few words, or generate ideas now.", &kb
	default:
		kb := generateKeyboard()
		return formatProfile(v.Profile), &kb
	}
}

func formatProfile(p idea.UserProfile) string {
	var sb strings.Builder
	sb.WriteString("👤 *Your Profile*\n\n")
	sb.WriteString(fmt.Sprintf("• Skills: %s\n", esc(p.Skills)))
	sb.WriteString(fmt.Sprintf("• Budget: %s\n", esc(p.Budget)))
	sb.WriteString(fmt.Sprintf("• Time: %s\n", esc(string(p.TimeCommitment))))
	if p.Interests != "" {
		sb.WriteString(fmt.Sprintf("• Interests: %s\n", esc(p.Interests)))
	}
	sb.WriteString("\nSend /reset to start over.")
	return sb.String()
}

func formatIdeas(v session.View) (string, *tgbotapi.InlineKeyboardMarkup) {
	list, header, empty := v.Ideas, "💡 *Your Income Ideas*", "No ideas yet. Send /start to build your profile."
	if v.Tab == session.TabSaved {
		list, header, empty = v.Favorites, "⭐ *Saved Ideas*", "No saved ideas yet."
	}
	if len(list) == 0 {
		return header + "\n\n" + empty, nil
	}

	var sb strings.Builder
	sb.WriteString(header + "\n\n")
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for n, i := range list {
		sb.WriteString(fmt.Sprintf("*%d. %s* (%s)\n%s\n", n+1, esc(i.Title), i.Difficulty, esc(i.Description)))
		sb.WriteString(fmt.Sprintf("💰 %s · Setup %s · %s\n\n", esc(i.EstimatedMonthlyRevenue), esc(i.SetupCost), esc(i.TimeToRevenue)))

		star := "☆"
		if v.IsFavorite(i.ID) {
			star = "⭐"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d. %s", n+1, truncate(i.Title, 30)), callback(cbSelect, i.ID)),
			tgbotapi.NewInlineKeyboardButtonData(star, callback(cbFav, i.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🔗", callback(cbShare, i.ID)),
		))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return sb.String(), &kb
}

// nextQuestion returns the first question without an answer.
func nextQuestion(v session.View) (string, bool) {
	for _, q := range v.Questions {
		if strings.TrimSpace(v.Answers[q]) == "" {
			return q, true
		}
	}
	return "", false
}

func formatRefinement(v session.View) (string, *tgbotapi.InlineKeyboardMarkup) {
	title := ""
	if v.SelectedIdea != nil {
		title = v.SelectedIdea.Title
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📋 Generate plan", callback(cbPlan)),
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", callback(cbBack)),
	))
	q, ok := nextQuestion(v)
	if !ok {
		return fmt.Sprintf("✅ All set for *%s*. Ready to build your plan?", esc(title)), &kb
	}
	answered := len(v.Questions) - countUnanswered(v)
	return fmt.Sprintf("🔍 *Refining %s* (%d/%d)\n\n%s\n\n_Reply with your answer, or generate the plan now._",
		esc(title), answered+1, len(v.Questions), esc(q)), &kb
}

func countUnanswered(v session.View) int {
	n := 0
	for _, q := range v.Questions {
		if strings.TrimSpace(v.Answers[q]) == "" {
			n++
		}
	}
	return n
}

func formatPlan(v session.View) string {
	if v.Plan == nil {
		return ""
	}
	title := v.Plan.IdeaID
	if v.SelectedIdea != nil {
		title = v.SelectedIdea.Title
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🚀 *%s*\n\n", esc(title)))
	sb.WriteString("*Executive Overview*\n" + esc(v.Plan.Overview) + "\n\n")
	sb.WriteString("*Marketing Strategy*\n" + esc(v.Plan.MarketingStrategy) + "\n\n")

	sb.WriteString("*Execution Roadmap*\n")
	for p, step := range v.Plan.Steps {
		sb.WriteString(fmt.Sprintf("*%d. %s*\n", p+1, esc(step.Phase)))
		for t, task := range step.Tasks {
			mark := "⬜"
			if v.Progress.Done(p, t) {
				mark = "✅"
			}
			sb.WriteString(fmt.Sprintf("%s %s\n", mark, esc(task)))
		}
	}

	sb.WriteString("\n*Financial Projections*\n")
	for _, pr := range v.Plan.Projections {
		sb.WriteString(fmt.Sprintf("• %s: $%.0f revenue, $%.0f expenses, $%.0f profit\n", esc(pr.Month), pr.Revenue, pr.Expenses, pr.Profit))
	}
	if v.Summary != nil {
		sb.WriteString(fmt.Sprintf("\n💰 Total profit: $%.0f\n📊 Avg margin: %d%%\n🎯 First profitable month: %s\n",
			v.Summary.TotalProfit, v.Summary.AvgMargin, esc(v.Summary.FirstProfitMonth)))
	}
	return sb.String()
}

func planKeyboard(v session.View) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("📈 Progress: %d%%", v.ProgressPercent), callback(cbNoop)),
		),
	}
	if v.Plan != nil {
		for p, step := range v.Plan.Steps {
			for t, task := range step.Tasks {
				mark := "⬜"
				if v.Progress.Done(p, t) {
					mark = "✅"
				}
				rows = append(rows, tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData(mark+" "+truncate(task, 40), callback(cbTask, strconv.Itoa(p), strconv.Itoa(t))),
				))
			}
		}
	}
	ideaID := ""
	if v.SelectedIdea != nil {
		ideaID = v.SelectedIdea.ID
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📄 PDF", callback(cbPDF)),
			tgbotapi.NewInlineKeyboardButtonData("📊 XLSX", callback(cbXLSX)),
			tgbotapi.NewInlineKeyboardButtonData("🔗 Share", callback(cbShare, ideaID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👍", callback(cbRate, "up")),
			tgbotapi.NewInlineKeyboardButtonData("👎", callback(cbRate, "down")),
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", callback(cbBack)),
		),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func formatMetricsReport(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs, %d fallbacks)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution, d.Fallbacks))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• Uptime: %s\n", health.Uptime))
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))
	return sb.String()
}

// splitMessage breaks text into chunks under the Telegram limit, preferring
// line boundaries.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	var cur strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if cur.Len() > 0 {
				chunks = append(chunks, cur.String())
				cur.Reset()
			}
			cut := runeCut(line, limit)
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if cur.Len()+len(line) > limit {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// runeCut returns the largest index <= limit that does not split a
// multi-byte character.
func runeCut(s string, limit int) int {
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		_, size := utf8.DecodeRuneInString(s)
		return size
	}
	return cut
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
