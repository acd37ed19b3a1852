// Package idempotency holds the value types shared by the publish handler
// and its persistence layer: the client-supplied retry key and the captured
// HTTP response that is replayed on duplicate submissions.
package idempotency

import "github.com/courierpost/newsletter-service/internal/domain"

const maxKeyLength = 50

// Key is a client-supplied opaque token scoping the retry-safety of a single
// logical publish action.
type Key string

// ParseKey rejects empty and oversized keys before any transaction begins.
func ParseKey(s string) (Key, error) {
	if s == "" || len(s) > maxKeyLength {
		return "", domain.ErrInvalidIdempotencyKey
	}
	return Key(s), nil
}

func (k Key) String() string { return string(k) }
