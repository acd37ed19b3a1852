package domain_test

import (
	"strings"
	"testing"

	"github.com/courierpost/newsletter-service/internal/domain"
)

func TestParseSubscriberEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid address", "ursula.le.guin@example.com", false},
		{"plus tag", "reader+news@example.org", false},
		{"empty", "", true},
		{"missing at symbol", "someone.example.com", true},
		{"missing subject", "@example.com", true},
		{"missing domain", "someone@", true},
		{"whitespace inside", "some one@example.com", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := domain.ParseSubscriberEmail(tc.input)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for %q", tc.input)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error for %q: %v", tc.input, err)
			}
		})
	}
}

func TestParseSubscriberName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain name", "Ursula K. Le Guin", false},
		{"256 runes is valid", strings.Repeat("ё", 256), false},
		{"257 runes is rejected", strings.Repeat("a", 257), true},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"forbidden characters", `robert"); drop table`, true},
		{"angle brackets", "<script>", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := domain.ParseSubscriberName(tc.input)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for %q", tc.input)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error for %q: %v", tc.input, err)
			}
		})
	}
}

func TestNewIssue_RequiresTitle(t *testing.T) {
	if _, err := domain.NewIssue("", "<p>hi</p>", "hi"); err != domain.ErrInvalidTitle {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}

	issue, err := domain.NewIssue("Edition #1", "<p>hi</p>", "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issue.ID.String() == "" {
		t.Fatal("expected a generated issue ID")
	}
}
