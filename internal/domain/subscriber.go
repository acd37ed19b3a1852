package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// SubscriberStatus tracks the double-opt-in lifecycle of a subscriber.
type SubscriberStatus string

const (
	StatusPendingConfirmation SubscriberStatus = "pending_confirmation"
	StatusConfirmed           SubscriberStatus = "confirmed"
)

// Subscriber is one signup, confirmed or not.
type Subscriber struct {
	ID           uuid.UUID        `json:"id"`
	Email        SubscriberEmail  `json:"email"`
	Name         SubscriberName   `json:"name"`
	Status       SubscriberStatus `json:"status"`
	SubscribedAt time.Time        `json:"subscribed_at"`
}

// SubscriberEmail is an email address that passed validation at parse time.
// Stored addresses are re-parsed by the delivery worker before every send,
// so a row written by an older, laxer version of the form cannot crash the
// pipeline.
type SubscriberEmail string

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ParseSubscriberEmail validates s and returns it as a SubscriberEmail.
func ParseSubscriberEmail(s string) (SubscriberEmail, error) {
	if !emailPattern.MatchString(s) {
		return "", ErrInvalidEmail
	}
	return SubscriberEmail(s), nil
}

func (e SubscriberEmail) String() string { return string(e) }

// SubscriberName is a display name that passed validation at parse time.
type SubscriberName string

const maxNameLength = 256

// ParseSubscriberName rejects empty or whitespace-only names, names longer
// than 256 characters, and names containing characters that could break out
// of an HTML or header context.
func ParseSubscriberName(s string) (SubscriberName, error) {
	if strings.TrimSpace(s) == "" {
		return "", ErrInvalidName
	}
	if utf8.RuneCountInString(s) > maxNameLength {
		return "", ErrInvalidName
	}
	if strings.ContainsAny(s, `/()"<>\{}`) {
		return "", ErrInvalidName
	}
	return SubscriberName(s), nil
}

func (n SubscriberName) String() string { return string(n) }

// NewSubscriber builds a pending subscriber from raw form input.
func NewSubscriber(email, name string) (*Subscriber, error) {
	e, err := ParseSubscriberEmail(email)
	if err != nil {
		return nil, err
	}
	n, err := ParseSubscriberName(name)
	if err != nil {
		return nil, err
	}
	return &Subscriber{
		ID:           uuid.New(),
		Email:        e,
		Name:         n,
		Status:       StatusPendingConfirmation,
		SubscribedAt: time.Now().UTC(),
	}, nil
}
