package session

import "time"

// NotificationKind styles a transient notification.
type NotificationKind string

const (
	KindSuccess NotificationKind = "success"
	KindInfo    NotificationKind = "info"
)

// Notification is a transient message dismissed automatically after a TTL.
type Notification struct {
	ID      uint64           `json:"id"`
	Message string           `json:"message"`
	Kind    NotificationKind `json:"kind"`
}

// Notify shows a notification, replacing any current one.
func (m *Machine) Notify(message string, kind NotificationKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifyLocked(message, kind)
}

// DismissNotification clears the current notification, if any.
func (m *Machine) DismissNotification() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearNotificationLocked()
}

func (m *Machine) notifyLocked(message string, kind NotificationKind) {
	m.clearNotificationLocked()
	m.notifySeq++
	id := m.notifySeq
	m.notification = &Notification{ID: id, Message: message, Kind: kind}
	if m.notifyTTL <= 0 {
		return
	}
	m.notifyTimer = time.AfterFunc(m.notifyTTL, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.notification != nil && m.notification.ID == id {
			m.notification = nil
			m.notifyTimer = nil
		}
	})
}

func (m *Machine) clearNotificationLocked() {
	if m.notifyTimer != nil {
		m.notifyTimer.Stop()
		m.notifyTimer = nil
	}
	m.notification = nil
}
