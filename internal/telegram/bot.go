package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"passive-genius/internal/config"
	"passive-genius/internal/export"
	"passive-genius/internal/feedback"
	"passive-genius/internal/idea"
	"passive-genius/internal/metrics"
	"passive-genius/internal/session"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = "Commands:\n/start - continue where you left off\n/ideas - your ideas\n/saved - saved ideas\n/profile - your profile\n/back - go back\n/reset - start over\n/feedback <text> - tell us what you think"

// Bot drives a user's session from Telegram updates.
type Bot struct {
	api          *tgbotapi.BotAPI
	sessions     *session.Manager
	feedback     *feedback.Store
	metricsStore *metrics.Store
	cfg          *config.Config
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, sessions *session.Manager, fb *feedback.Store, metricsStore *metrics.Store) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	webhookURL := cfg.TelegramWebhookURL
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", webhookURL, err)
	}
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", webhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:          bot,
		sessions:     sessions,
		feedback:     fb,
		metricsStore: metricsStore,
		cfg:          cfg,
	}, nil
}

// RegisterHandlers mounts the webhook endpoint.
func (b *Bot) RegisterHandlers(r chi.Router) {
	r.Post("/webhook", b.handleWebhook)
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.CallbackQuery != nil {
		if !b.allowed(update.CallbackQuery.From) {
			return
		}
		go b.handleCallbackQuery(update.CallbackQuery)
		return
	}

	if update.Message == nil || !b.allowed(update.Message.From) {
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) allowed(from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if from.ID == id {
			return true
		}
	}
	log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", from.ID, from.UserName)
	return false
}

func userKey(id int64) string {
	return "tg:" + strconv.FormatInt(id, 10)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx := context.Background()
	chatID := msg.Chat.ID
	m := b.sessions.Get(ctx, userKey(msg.From.ID))

	switch msg.Command() {
	case "metrics":
		b.handleMetricsRequest(ctx, msg)
	case "start":
		b.sendView(chatID, m.Snapshot())
	case "ideas", "saved":
		b.showList(chatID, m, msg.Command())
	case "profile":
		b.sendText(chatID, formatProfile(m.Snapshot().Profile), nil)
	case "back":
		if err := m.Back(); err != nil {
			b.sendText(chatID, "Nothing to go back from.", nil)
			return
		}
		b.sendView(chatID, m.Snapshot())
	case "reset":
		m.Back()
		m.OpenOnboarding()
		if err := m.UpdateProfile(ctx, idea.UserProfile{}); err != nil {
			log.Printf("Failed to reset profile: %v", err)
		}
		b.sendView(chatID, m.Snapshot())
	case "feedback":
		_, err := b.feedback.Submit(ctx, feedback.Feedback{UserID: m.UserID(), Text: msg.CommandArguments()})
		if err != nil {
			b.sendText(chatID, "Usage: /feedback <your message>", nil)
			return
		}
		b.sendText(chatID, "🙏 "+session.MsgFeedbackSent, nil)
	case "":
		b.handleText(ctx, chatID, m, strings.TrimSpace(msg.Text))
	default:
		b.sendText(chatID, helpText, nil)
	}
}

func (b *Bot) showList(chatID int64, m *session.Machine, which string) {
	tab := session.TabDiscover
	if which == "saved" {
		tab = session.TabSaved
	}
	err := m.SelectTab(tab)
	if errors.Is(err, session.ErrInvalidTransition) && tab == session.TabSaved {
		err = m.ViewSaved()
	}
	if err != nil {
		b.sendText(chatID, "Finish your profile first. Send /start.", nil)
		return
	}
	text, kb := formatIdeas(m.Snapshot())
	b.sendText(chatID, text, kb)
}

// handleText treats free text as the answer to whatever the user is
// currently being asked.
func (b *Bot) handleText(ctx context.Context, chatID int64, m *session.Machine, text string) {
	if text == "" {
		return
	}
	v := m.Snapshot()
	switch v.State {
	case session.StateOnboarding:
		p, ok := applyProfileText(v.Profile, text)
		if ok {
			if err := m.UpdateProfile(ctx, p); err != nil {
				b.sendText(chatID, "❌ "+esc(err.Error()), nil)
				return
			}
		}
		b.sendView(chatID, m.Snapshot())
	case session.StateRefining:
		q, ok := nextQuestion(v)
		if !ok {
			b.sendView(chatID, v)
			return
		}
		if err := m.SetAnswer(q, text); err != nil {
			log.Printf("Failed to store answer: %v", err)
		}
		b.sendView(chatID, m.Snapshot())
	default:
		b.sendText(chatID, helpText, nil)
	}
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	ctx := context.Background()
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	m := b.sessions.Get(ctx, userKey(query.From.ID))
	action, args := parseCallback(query.Data)

	answer := ""
	defer func() {
		b.api.Request(tgbotapi.NewCallback(query.ID, answer))
	}()

	switch action {
	case cbTime:
		idx, err := argInt(args, 0)
		if err != nil || idx < 0 || idx >= len(idea.TimeCommitments) {
			return
		}
		p := m.Snapshot().Profile
		p.TimeCommitment = idea.TimeCommitments[idx]
		if err := m.UpdateProfile(ctx, p); err != nil {
			answer = err.Error()
			return
		}
		b.sendView(chatID, m.Snapshot())
	case cbGen:
		if err := m.OpenOnboarding(); err != nil && !errors.Is(err, session.ErrInvalidTransition) {
			answer = err.Error()
			return
		}
		b.runAI(chatID, m, session.LoadingIdeas, m.SubmitOnboarding)
	case cbSelect:
		if len(args) == 0 {
			return
		}
		b.runAI(chatID, m, session.LoadingQuestions, func(ctx context.Context) error {
			return m.SelectIdea(ctx, args[0])
		})
	case cbPlan:
		b.runAI(chatID, m, session.LoadingPlan, m.SubmitRefinement)
	case cbFav:
		if len(args) == 0 {
			return
		}
		added, err := m.ToggleFavorite(ctx, args[0])
		if err != nil {
			answer = err.Error()
			return
		}
		answer = session.MsgFavoriteRemoved
		if added {
			answer = session.MsgFavoriteAdded
		}
		if v := m.Snapshot(); v.State == session.StateMainApp {
			if _, kb := formatIdeas(v); kb != nil {
				b.api.Send(tgbotapi.NewEditMessageReplyMarkup(chatID, query.Message.MessageID, *kb))
			}
		}
	case cbTask:
		phase, err1 := argInt(args, 0)
		task, err2 := argInt(args, 1)
		if err1 != nil || err2 != nil {
			return
		}
		pct, err := m.ToggleTask(ctx, phase, task)
		if err != nil {
			answer = err.Error()
			return
		}
		answer = fmt.Sprintf("Progress: %d%%", pct)
		b.api.Send(tgbotapi.NewEditMessageReplyMarkup(chatID, query.Message.MessageID, planKeyboard(m.Snapshot())))
	case cbPDF:
		answer = b.sendExport(chatID, m, "pdf", export.PDF)
	case cbXLSX:
		answer = b.sendExport(chatID, m, "xlsx", export.XLSX)
	case cbShare:
		v := m.Snapshot()
		var (
			target idea.IncomeIdea
			ok     bool
		)
		if len(args) > 0 && args[0] != "" {
			if target, ok = idea.Find(v.Ideas, args[0]); !ok {
				target, ok = idea.Find(v.Favorites, args[0])
			}
		} else {
			target, ok = m.SelectedIdea()
		}
		if !ok {
			answer = "Idea not found"
			return
		}
		b.sendPlain(chatID, idea.ShareText(target))
	case cbRate:
		rating := feedback.RatingDown
		if len(args) > 0 && args[0] == string(feedback.RatingUp) {
			rating = feedback.RatingUp
		}
		if _, err := b.feedback.RatePlan(ctx, m.UserID(), rating); err != nil {
			log.Printf("Failed to record plan rating: %v", err)
			return
		}
		answer = session.MsgPlanRated
	case cbBack:
		if err := m.Back(); err != nil {
			answer = "Nothing to go back from"
			return
		}
		b.sendView(chatID, m.Snapshot())
	}
}

// runAI shows a status message while fn runs, then the resulting view.
func (b *Bot) runAI(chatID int64, m *session.Machine, status string, fn func(ctx context.Context) error) {
	sent, err := b.api.Send(tgbotapi.NewMessage(chatID, "⏳ "+status))
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.AIRequestTimeout)
	defer cancel()
	err = fn(ctx)

	if sent.MessageID != 0 {
		b.api.Request(tgbotapi.NewDeleteMessage(chatID, sent.MessageID))
	}

	switch {
	case errors.Is(err, session.ErrSuperseded):
		return
	case errors.Is(err, session.ErrBusy):
		b.sendText(chatID, "⏳ Still working on your last request...", nil)
		return
	case err != nil:
		b.sendText(chatID, "❌ "+esc(err.Error()), nil)
		return
	}
	b.sendView(chatID, m.Snapshot())
}

func (b *Bot) sendView(chatID int64, v session.View) {
	if v.Notification != nil {
		b.sendText(chatID, "ℹ️ "+esc(v.Notification.Message), nil)
	}
	switch v.State {
	case session.StateOnboarding:
		text, kb := formatOnboarding(v)
		b.sendText(chatID, text, kb)
	case session.StateMainApp:
		text, kb := formatIdeas(v)
		b.sendText(chatID, text, kb)
	case session.StateRefining:
		text, kb := formatRefinement(v)
		b.sendText(chatID, text, kb)
	case session.StateDetail:
		kb := planKeyboard(v)
		b.sendText(chatID, formatPlan(v), &kb)
	default:
		b.sendText(chatID, "⏳ "+esc(v.LoadingMessage), nil)
	}
}

// sendText sends Markdown text, splitting long messages. The keyboard goes
// on the last part.
func (b *Bot) sendText(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	parts := splitMessage(text, maxMessageLen)
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if kb != nil && i == len(parts)-1 {
			msg.ReplyMarkup = *kb
		}
		if _, err := b.api.Send(msg); err != nil {
			log.Printf("Failed to send message: %v", err)
		}
	}
}

func (b *Bot) sendPlain(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

func (b *Bot) sendExport(chatID int64, m *session.Machine, ext string, render func(io.Writer, *idea.DetailedPlan, string) error) string {
	plan, title, ok := m.Plan()
	if !ok {
		return "No plan to export"
	}
	var buf bytes.Buffer
	if err := render(&buf, plan, title); err != nil {
		log.Printf("Failed to export plan: %v", err)
		return "Export failed"
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: export.FileName(title, ext), Bytes: buf.Bytes()})
	if _, err := b.api.Send(doc); err != nil {
		log.Printf("Failed to send document: %v", err)
		return "Export failed"
	}
	return ""
}

func (b *Bot) handleMetricsRequest(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.sendText(msg.Chat.ID, "⛔ *Access Denied*: Admin only.", nil)
		return
	}
	usage, err := b.metricsStore.GetDailyUsage(ctx, 7)
	if err != nil {
		log.Printf("Failed to fetch metrics: %v", err)
		b.sendText(msg.Chat.ID, "❌ Error fetching metrics.", nil)
		return
	}
	b.sendText(msg.Chat.ID, formatMetricsReport(usage, metrics.GetSysHealth(filepath.Dir(b.cfg.DatabasePath))), nil)
}

// SendAdminAlert messages the admin, if one is configured.
func (b *Bot) SendAdminAlert(text string) {
	if b.cfg.AdminTelegramID == 0 {
		return
	}
	b.sendText(b.cfg.AdminTelegramID, text, nil)
}

func argInt(args []string, i int) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing argument %d", i)
	}
	return strconv.Atoi(args[i])
}
