package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"passive-genius/internal/community"
	"passive-genius/internal/feedback"
	"passive-genius/internal/idea"
	"passive-genius/internal/session"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

const problemBaseURI = "https://passive-genius.app/errors/"

var problemTypes = map[int]struct {
	slug  string
	title string
}{
	http.StatusBadRequest:          {"bad-request", "Bad Request"},
	http.StatusUnauthorized:        {"unauthorized", "Unauthorized"},
	http.StatusNotFound:            {"not-found", "Not Found"},
	http.StatusConflict:            {"conflict", "Conflict"},
	http.StatusUnprocessableEntity: {"validation-error", "Validation Error"},
	http.StatusInternalServerError: {"internal-error", "Internal Server Error"},
	http.StatusServiceUnavailable:  {"service-unavailable", "Service Unavailable"},
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	pt, ok := problemTypes[status]
	if !ok {
		pt.slug = "unknown"
		pt.title = http.StatusText(status)
	}

	p := Problem{
		Type:     problemBaseURI + pt.slug,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Printf("Failed to encode problem response: %v", err)
	}
}

// statusForError maps domain sentinels to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, session.ErrBusy),
		errors.Is(err, session.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, session.ErrUnknownIdea),
		errors.Is(err, session.ErrUnknownTask),
		errors.Is(err, session.ErrUnknownTab),
		errors.Is(err, community.ErrUnknownChannel):
		return http.StatusNotFound
	case errors.Is(err, session.ErrIncompleteProfile),
		errors.Is(err, session.ErrUnknownQuestion),
		errors.Is(err, idea.ErrInvalidTimeCommitment),
		errors.Is(err, feedback.ErrEmptyFeedback),
		errors.Is(err, feedback.ErrInvalidMood),
		errors.Is(err, community.ErrEmptyMessage):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes the problem for err. Internal errors are logged and
// their detail is not exposed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("Failed to handle %s %s: %v", r.Method, r.URL.Path, err)
		detail = "Internal Server Error"
	}
	WriteProblem(w, r, status, detail)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
