package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"passive-genius/internal/community"
	"passive-genius/internal/export"
	"passive-genius/internal/feedback"
	"passive-genius/internal/idea"
	"passive-genius/internal/metrics"
	"passive-genius/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// Handler implements the API handlers.
type Handler struct {
	sessions  *session.Manager
	hub       *community.Hub
	feedback  *feedback.Store
	tokens    *TokenIssuer
	aiTimeout time.Duration
	dataPath  string
}

// NewHandler wires the handlers. dataPath is the directory reported by the
// health endpoint.
func NewHandler(sessions *session.Manager, hub *community.Hub, fb *feedback.Store, tokens *TokenIssuer, aiTimeout time.Duration, dataPath string) *Handler {
	return &Handler{
		sessions:  sessions,
		hub:       hub,
		feedback:  fb,
		tokens:    tokens,
		aiTimeout: aiTimeout,
		dataPath:  dataPath,
	}
}

type sessionResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

type favoriteResponse struct {
	Favorite bool         `json:"favorite"`
	State    session.View `json:"state"`
}

type taskResponse struct {
	ProgressPercent int          `json:"progressPercent"`
	State           session.View `json:"state"`
}

type shareResponse struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type answersRequest struct {
	Answers map[string]string `json:"answers"`
}

type ratingRequest struct {
	Rating feedback.Rating `json:"rating"`
}

type feedbackRequest struct {
	Mood feedback.Mood `json:"mood"`
	Text string        `json:"text"`
}

type messageRequest struct {
	Text string `json:"text"`
}

// Health returns the process and data directory health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.GetSysHealth(h.dataPath))
}

// CreateSession handles POST /api/v1/sessions by minting a new user.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID := "api:" + uuid.NewString()
	token, err := h.tokens.Issue(userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Token: token, UserID: userID})
}

// machine resolves the caller's state machine.
func (h *Handler) machine(r *http.Request) (*session.Machine, error) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		return nil, err
	}
	return h.sessions.Get(r.Context(), userID), nil
}

// aiContext detaches an AI call from the request so a dropped connection
// does not abort it, and bounds it with the configured timeout.
func (h *Handler) aiContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), h.aiTimeout)
}

// withMachine runs fn and answers with the resulting state.
func (h *Handler) withMachine(w http.ResponseWriter, r *http.Request, fn func(m *session.Machine) error) {
	m, err := h.machine(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := fn(m); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m.Snapshot())
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// State handles GET /state.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	h.withMachine(w, r, func(*session.Machine) error { return nil })
}

// UpdateProfile handles PUT /profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var p idea.UserProfile
	if err := decodeBody(r, &p); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}
	h.withMachine(w, r, func(m *session.Machine) error {
		return m.UpdateProfile(r.Context(), p)
	})
}

// SubmitOnboarding handles POST /onboarding. An optional profile body is
// saved before ideas are generated.
func (h *Handler) SubmitOnboarding(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Failed to read body")
		return
	}
	var profile *idea.UserProfile
	if len(bytes.TrimSpace(body)) > 0 {
		profile = &idea.UserProfile{}
		if err := json.Unmarshal(body, profile); err != nil {
			WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
			return
		}
	}

	h.withMachine(w, r, func(m *session.Machine) error {
		if profile != nil {
			if err := m.UpdateProfile(r.Context(), *profile); err != nil {
				return err
			}
		}
		ctx, cancel := h.aiContext(r)
		defer cancel()
		return m.SubmitOnboarding(ctx)
	})
}

// OpenOnboarding handles POST /onboarding/open.
func (h *Handler) OpenOnboarding(w http.ResponseWriter, r *http.Request) {
	h.withMachine(w, r, (*session.Machine).OpenOnboarding)
}

// ViewSaved handles POST /saved/open.
func (h *Handler) ViewSaved(w http.ResponseWriter, r *http.Request) {
	h.withMachine(w, r, (*session.Machine).ViewSaved)
}

// SelectTab handles POST /tabs/{tab}.
func (h *Handler) SelectTab(w http.ResponseWriter, r *http.Request) {
	tab := session.Tab(chi.URLParam(r, "tab"))
	h.withMachine(w, r, func(m *session.Machine) error {
		return m.SelectTab(tab)
	})
}

// Back handles POST /back.
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	h.withMachine(w, r, (*session.Machine).Back)
}

// DismissNotification handles POST /notification/dismiss.
func (h *Handler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	h.withMachine(w, r, func(m *session.Machine) error {
		m.DismissNotification()
		return nil
	})
}

// SelectIdea handles POST /ideas/{id}/select.
func (h *Handler) SelectIdea(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.withMachine(w, r, func(m *session.Machine) error {
		ctx, cancel := h.aiContext(r)
		defer cancel()
		return m.SelectIdea(ctx, id)
	})
}

// ToggleFavorite handles POST /ideas/{id}/favorite.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	m, err := h.machine(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	fav, err := m.ToggleFavorite(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, favoriteResponse{Favorite: fav, State: m.Snapshot()})
}

// SetAnswers handles PUT /refinement/answers. An unknown question rejects
// the whole batch.
func (h *Handler) SetAnswers(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if err := decodeBody(r, &req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}
	h.withMachine(w, r, func(m *session.Machine) error {
		return m.SetAnswers(req.Answers)
	})
}

// SubmitRefinement handles POST /refinement/submit.
func (h *Handler) SubmitRefinement(w http.ResponseWriter, r *http.Request) {
	h.withMachine(w, r, func(m *session.Machine) error {
		ctx, cancel := h.aiContext(r)
		defer cancel()
		return m.SubmitRefinement(ctx)
	})
}

// ToggleTask handles POST /plan/tasks/{phase}/{task}.
func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	phase, err1 := strconv.Atoi(chi.URLParam(r, "phase"))
	task, err2 := strconv.Atoi(chi.URLParam(r, "task"))
	if err1 != nil || err2 != nil {
		WriteProblem(w, r, http.StatusBadRequest, "phase and task must be integers")
		return
	}
	m, err := h.machine(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pct, err := m.ToggleTask(r.Context(), phase, task)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, taskResponse{ProgressPercent: pct, State: m.Snapshot()})
}

// RatePlan handles POST /plan/rating.
func (h *Handler) RatePlan(w http.ResponseWriter, r *http.Request) {
	var req ratingRequest
	if err := decodeBody(r, &req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}
	h.withMachine(w, r, func(m *session.Machine) error {
		if _, _, ok := m.Plan(); !ok {
			return fmt.Errorf("%w: no plan is displayed", session.ErrInvalidTransition)
		}
		if _, err := h.feedback.RatePlan(r.Context(), m.UserID(), req.Rating); err != nil {
			return err
		}
		m.Notify(session.MsgPlanRated, session.KindSuccess)
		return nil
	})
}

// ExportPDF handles GET /plan/export.pdf.
func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	h.exportPlan(w, r, "pdf", "application/pdf", export.PDF)
}

// ExportXLSX handles GET /plan/export.xlsx.
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.exportPlan(w, r, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.XLSX)
}

type renderFunc func(io.Writer, *idea.DetailedPlan, string) error

func (h *Handler) exportPlan(w http.ResponseWriter, r *http.Request, ext, contentType string, render renderFunc) {
	m, err := h.machine(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	plan, title, ok := m.Plan()
	if !ok {
		writeError(w, r, fmt.Errorf("%w: no plan is displayed", session.ErrInvalidTransition))
		return
	}

	var buf bytes.Buffer
	if err := render(&buf, plan, title); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(title, ext)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// Share handles GET /share. The idea defaults to the selected one; the
// ideaId query parameter picks any listed or saved idea instead.
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	m, err := h.machine(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var (
		target idea.IncomeIdea
		ok     bool
	)
	if id := r.URL.Query().Get("ideaId"); id != "" {
		v := m.Snapshot()
		if target, ok = idea.Find(v.Ideas, id); !ok {
			target, ok = idea.Find(v.Favorites, id)
		}
		if !ok {
			writeError(w, r, fmt.Errorf("%w: %s", session.ErrUnknownIdea, id))
			return
		}
	} else if target, ok = m.SelectedIdea(); !ok {
		writeError(w, r, fmt.Errorf("%w: no idea selected", session.ErrInvalidTransition))
		return
	}

	m.Notify(session.MsgCopied, session.KindSuccess)
	writeJSON(w, http.StatusOK, shareResponse{Title: target.Title, Text: idea.ShareText(target)})
}

// ListChannels handles GET /community/channels.
func (h *Handler) ListChannels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.hub.Channels(r.URL.Query().Get("q")))
}

// CreateChannel handles POST /community/channels. Channel creation is not
// available; the user is told so.
func (h *Handler) CreateChannel(w http.ResponseWriter, r *http.Request) {
	h.withMachine(w, r, func(m *session.Machine) error {
		m.Notify(session.MsgFeatureComingSoon, session.KindInfo)
		return nil
	})
}

// GetChannel handles GET /community/channels/{id}.
func (h *Handler) GetChannel(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	ch, err := h.hub.Channel(chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

// PostMessage handles POST /community/channels/{id}/messages.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeBody(r, &req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	msg, err := h.hub.Post(chi.URLParam(r, "id"), userID, req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// SubmitFeedback handles POST /feedback.
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeBody(r, &req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}
	h.withMachine(w, r, func(m *session.Machine) error {
		_, err := h.feedback.Submit(r.Context(), feedback.Feedback{UserID: m.UserID(), Mood: req.Mood, Text: req.Text})
		if err != nil {
			return err
		}
		m.Notify(session.MsgFeedbackSent, session.KindSuccess)
		return nil
	})
}
