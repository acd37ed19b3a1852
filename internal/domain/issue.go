package domain

import (
	"time"

	"github.com/google/uuid"
)

// Issue is one authored newsletter. Immutable once created; the delivery
// queue references it by ID until every recipient row has been drained.
type Issue struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	HTMLContent string    `json:"html_content"`
	TextContent string    `json:"text_content"`
	PublishedAt time.Time `json:"published_at"`
}

// NewIssue validates the authored content and assigns a fresh ID.
func NewIssue(title, html, text string) (*Issue, error) {
	if title == "" {
		return nil, ErrInvalidTitle
	}
	return &Issue{
		ID:          uuid.New(),
		Title:       title,
		HTMLContent: html,
		TextContent: text,
		PublishedAt: time.Now().UTC(),
	}, nil
}
