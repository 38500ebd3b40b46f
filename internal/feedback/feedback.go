// Package feedback stores user feedback and plan ratings.
package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrEmptyFeedback = errors.New("feedback needs a mood or a message")
	ErrInvalidMood   = errors.New("invalid mood")
)

type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodNeutral Mood = "neutral"
	MoodSad     Mood = "sad"
)

func (m Mood) Valid() bool {
	switch m {
	case MoodHappy, MoodNeutral, MoodSad:
		return true
	}
	return false
}

// Rating is a thumbs up or down on a generated plan.
type Rating string

const (
	RatingUp   Rating = "up"
	RatingDown Rating = "down"
)

// Feedback is one submission.
type Feedback struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	Mood      Mood      `json:"mood,omitempty"`
	Text      string    `json:"text,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists feedback to the sqlite feedback table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Submit validates and saves f, returning it with ID and CreatedAt set.
func (s *Store) Submit(ctx context.Context, f Feedback) (Feedback, error) {
	f.Text = strings.TrimSpace(f.Text)
	if f.Mood == "" && f.Text == "" {
		return Feedback{}, ErrEmptyFeedback
	}
	if f.Mood != "" && !f.Mood.Valid() {
		return Feedback{}, fmt.Errorf("%w: %q", ErrInvalidMood, f.Mood)
	}
	f.CreatedAt = s.now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (user_id, mood, text, created_at) VALUES (?, ?, ?, ?)`,
		f.UserID, string(f.Mood), f.Text, f.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return Feedback{}, fmt.Errorf("failed to insert feedback: %w", err)
	}
	if f.ID, err = res.LastInsertId(); err != nil {
		return Feedback{}, fmt.Errorf("failed to read feedback id: %w", err)
	}
	return f, nil
}

// RatePlan records a plan rating as feedback.
func (s *Store) RatePlan(ctx context.Context, userID string, r Rating) (Feedback, error) {
	var mood Mood
	switch r {
	case RatingUp:
		mood = MoodHappy
	case RatingDown:
		mood = MoodSad
	default:
		return Feedback{}, fmt.Errorf("%w: rating %q", ErrInvalidMood, r)
	}
	return s.Submit(ctx, Feedback{UserID: userID, Mood: mood, Text: "plan rating: " + string(r)})
}

// Recent returns the latest submissions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Feedback, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, mood, text, created_at FROM feedback ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var out []Feedback
	for rows.Next() {
		var (
			f       Feedback
			mood    string
			created string
		)
		if err := rows.Scan(&f.ID, &f.UserID, &mood, &f.Text, &created); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		f.Mood = Mood(mood)
		f.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, f)
	}
	return out, rows.Err()
}
