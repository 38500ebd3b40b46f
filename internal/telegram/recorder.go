package telegram

import (
	"context"
	"fmt"
	"sync"

	"passive-genius/internal/planner"
	"passive-genius/internal/shared"
)

// AlertRecorder forwards agent metadata to the metrics store and warns the
// admin when a prompt grows past the bloat threshold.
type AlertRecorder struct {
	next      planner.Recorder
	threshold int

	mu    sync.RWMutex
	alert func(text string)
}

func NewAlertRecorder(next planner.Recorder, threshold int) *AlertRecorder {
	return &AlertRecorder{next: next, threshold: threshold}
}

// SetAlerter installs the alert sink once the bot exists.
func (r *AlertRecorder) SetAlerter(alert func(text string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alert = alert
}

func (r *AlertRecorder) RecordMeta(ctx context.Context, meta shared.AgentMeta) error {
	if r.threshold > 0 && meta.Usage.PromptTokens > r.threshold {
		r.mu.RLock()
		alert := r.alert
		r.mu.RUnlock()
		if alert != nil {
			alert(fmt.Sprintf("⚠️ *Context Bloat Alert*\nAgent: %s\nModel: %s\nPrompt Tokens: %d",
				meta.AgentName, meta.Usage.Model, meta.Usage.PromptTokens))
		}
	}
	return r.next.RecordMeta(ctx, meta)
}
