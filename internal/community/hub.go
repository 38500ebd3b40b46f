// Package community serves the mock discussion channels.
package community

import (
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownChannel = errors.New("unknown channel")
	ErrEmptyMessage   = errors.New("message is empty")
)

const (
	selfName       = "You"
	justNow        = "Just now"
	subscriberBuf  = 16
	maxMessageSize = 2000
)

//go:embed channels.yaml
var defaultChannels []byte

// Message is a single chat line. AuthorID is empty for seeded messages.
type Message struct {
	ID        string `json:"id" yaml:"id"`
	ChannelID string `json:"channelId" yaml:"-"`
	AuthorID  string `json:"-" yaml:"-"`
	User      string `json:"user" yaml:"user"`
	Text      string `json:"text" yaml:"text"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	IsMe      bool   `json:"isMe" yaml:"-"`
}

// For returns the message as seen by viewer.
func (m Message) For(viewer string) Message {
	if m.AuthorID != "" && m.AuthorID == viewer {
		m.User = selfName
		m.IsMe = true
	} else {
		m.IsMe = false
	}
	return m
}

// Channel is a community channel with its history.
type Channel struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Members     int       `json:"members" yaml:"members"`
	Icon        string    `json:"icon" yaml:"icon"`
	Messages    []Message `json:"messages" yaml:"messages"`
}

// Hub holds the channels in memory and fans out new posts.
type Hub struct {
	mu       sync.RWMutex
	channels []*Channel
	subs     map[string]map[chan Message]struct{}
}

// NewHub builds a hub from the embedded channel list, or from the YAML
// file at path when it is set.
func NewHub(path string) (*Hub, error) {
	data := defaultChannels
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read channels file: %w", err)
		}
		data = b
	}
	return newHubFromYAML(data)
}

func newHubFromYAML(data []byte) (*Hub, error) {
	var channels []*Channel
	if err := yaml.Unmarshal(data, &channels); err != nil {
		return nil, fmt.Errorf("failed to parse channels: %w", err)
	}
	seen := make(map[string]bool, len(channels))
	for _, ch := range channels {
		if ch.ID == "" || seen[ch.ID] {
			return nil, fmt.Errorf("invalid or duplicate channel id %q", ch.ID)
		}
		seen[ch.ID] = true
		for i := range ch.Messages {
			ch.Messages[i].ChannelID = ch.ID
		}
	}
	return &Hub{channels: channels, subs: make(map[string]map[chan Message]struct{})}, nil
}

// Channels lists channels whose name or description contains query,
// ignoring case. Message history is omitted.
func (h *Hub) Channels(query string) []Channel {
	q := strings.ToLower(strings.TrimSpace(query))

	h.mu.RLock()
	defer h.mu.RUnlock()

	out := []Channel{}
	for _, ch := range h.channels {
		if q != "" &&
			!strings.Contains(strings.ToLower(ch.Name), q) &&
			!strings.Contains(strings.ToLower(ch.Description), q) {
			continue
		}
		c := *ch
		c.Messages = nil
		out = append(out, c)
	}
	return out
}

// Channel returns a channel with its history as seen by viewer.
func (h *Hub) Channel(id, viewer string) (Channel, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ch := h.find(id)
	if ch == nil {
		return Channel{}, ErrUnknownChannel
	}
	c := *ch
	c.Messages = make([]Message, len(ch.Messages))
	for i, m := range ch.Messages {
		c.Messages[i] = m.For(viewer)
	}
	return c, nil
}

// Post appends a message from userID and notifies subscribers.
// The returned message is already projected for the author.
func (h *Hub) Post(channelID, userID, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}
	if r := []rune(text); len(r) > maxMessageSize {
		text = string(r[:maxMessageSize])
	}

	h.mu.Lock()
	ch := h.find(channelID)
	if ch == nil {
		h.mu.Unlock()
		return Message{}, ErrUnknownChannel
	}
	msg := Message{
		ID:        ulid.Make().String(),
		ChannelID: channelID,
		AuthorID:  userID,
		User:      displayName(userID),
		Text:      text,
		Timestamp: justNow,
	}
	ch.Messages = append(ch.Messages, msg)
	for sub := range h.subs[channelID] {
		select {
		case sub <- msg:
		default:
			log.Printf("Warning: dropping message %s for slow subscriber on channel %s", msg.ID, channelID)
		}
	}
	h.mu.Unlock()

	return msg.For(userID), nil
}

// Subscribe registers for new messages on a channel. The returned cancel
// func must be called to release the subscription; it closes the channel.
func (h *Hub) Subscribe(channelID string) (<-chan Message, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.find(channelID) == nil {
		return nil, nil, ErrUnknownChannel
	}
	sub := make(chan Message, subscriberBuf)
	if h.subs[channelID] == nil {
		h.subs[channelID] = make(map[chan Message]struct{})
	}
	h.subs[channelID][sub] = struct{}{}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[channelID], sub)
			h.mu.Unlock()
			close(sub)
		})
	}
	return sub, cancel, nil
}

func (h *Hub) find(id string) *Channel {
	for _, ch := range h.channels {
		if ch.ID == id {
			return ch
		}
	}
	return nil
}

func displayName(userID string) string {
	id := userID
	if i := strings.LastIndex(id, ":"); i >= 0 {
		id = id[i+1:]
	}
	if len(id) > 6 {
		id = id[:6]
	}
	return "Member-" + id
}
