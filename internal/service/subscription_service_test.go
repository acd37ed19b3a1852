package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/courierpost/newsletter-service/internal/domain"
	"github.com/courierpost/newsletter-service/internal/mailer"
	"github.com/courierpost/newsletter-service/internal/repository"
	"github.com/courierpost/newsletter-service/internal/service"
)

const testBaseURL = "https://newsletter.example.com"

func newSubscriptionService() (*service.SubscriptionService, *repository.MockSubscriberRepository, *mailer.MockMailer) {
	repo := repository.NewMockSubscriberRepository()
	m := mailer.NewMockMailer()
	svc := service.NewSubscriptionService(repo, m, testBaseURL, zap.NewNop())
	return svc, repo, m
}

// extractToken pulls the subscription token out of a confirmation email body.
func extractToken(t *testing.T, body string) string {
	t.Helper()
	marker := testBaseURL + "/subscriptions/confirm?subscription_token="
	idx := strings.Index(body, marker)
	if idx < 0 {
		t.Fatalf("confirmation link not found in body: %q", body)
	}
	rest := body[idx+len(marker):]
	if cut := strings.IndexAny(rest, "\n\" "); cut >= 0 {
		rest = rest[:cut]
	}
	return rest
}

func TestSubscribe_StoresPendingAndEmailsLink(t *testing.T) {
	svc, repo, m := newSubscriptionService()
	ctx := context.Background()

	if err := svc.Subscribe(ctx, "ursula@example.com", "Ursula Le Guin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub, ok := repo.Get("ursula@example.com")
	if !ok {
		t.Fatal("subscriber was not stored")
	}
	if sub.Status != domain.StatusPendingConfirmation {
		t.Fatalf("expected pending status, got %q", sub.Status)
	}

	sent := m.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 confirmation email, got %d", len(sent))
	}
	if sent[0].Recipient != "ursula@example.com" {
		t.Fatalf("confirmation sent to %q", sent[0].Recipient)
	}

	token := extractToken(t, sent[0].TextBody)
	if len(token) != 25 {
		t.Fatalf("expected a 25-character token, got %q", token)
	}
	for _, r := range token {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			t.Fatalf("token contains a non-alphanumeric character: %q", token)
		}
	}
	// The HTML body carries the same link.
	if htmlToken := extractToken(t, sent[0].HTMLBody); htmlToken != token {
		t.Fatalf("HTML and text bodies carry different tokens: %q vs %q", htmlToken, token)
	}
}

func TestSubscribe_ThenConfirm(t *testing.T) {
	svc, repo, m := newSubscriptionService()
	ctx := context.Background()

	if err := svc.Subscribe(ctx, "ursula@example.com", "Ursula Le Guin"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	token := extractToken(t, m.Sent()[0].TextBody)

	if err := svc.Confirm(ctx, token); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	sub, _ := repo.Get("ursula@example.com")
	if sub.Status != domain.StatusConfirmed {
		t.Fatalf("expected confirmed status, got %q", sub.Status)
	}
}

func TestSubscribe_RejectsInvalidInput(t *testing.T) {
	svc, repo, m := newSubscriptionService()
	ctx := context.Background()

	tests := []struct {
		name    string
		email   string
		person  string
		wantErr error
	}{
		{"missing at sign", "ursulaexample.com", "Ursula", domain.ErrInvalidEmail},
		{"empty email", "", "Ursula", domain.ErrInvalidEmail},
		{"empty name", "ursula@example.com", "", domain.ErrInvalidName},
		{"forbidden characters", "ursula@example.com", `<script>`, domain.ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.Subscribe(ctx, tt.email, tt.person); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if _, ok := repo.Get("ursula@example.com"); ok {
		t.Fatal("rejected input must not be stored")
	}
	if len(m.Sent()) != 0 {
		t.Fatal("rejected input must not trigger email")
	}
}

func TestSubscribe_DuplicateEmail(t *testing.T) {
	svc, _, _ := newSubscriptionService()
	ctx := context.Background()

	if err := svc.Subscribe(ctx, "ursula@example.com", "Ursula"); err != nil {
		t.Fatalf("first subscribe: %v", err)
	}
	if err := svc.Subscribe(ctx, "ursula@example.com", "Ursula Again"); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSubscribe_MailerFailure(t *testing.T) {
	svc, _, m := newSubscriptionService()
	m.SendErr = errors.New("email API is down")

	if err := svc.Subscribe(context.Background(), "ursula@example.com", "Ursula"); err == nil {
		t.Fatal("expected error when the confirmation email cannot be sent")
	}
}

func TestConfirm_UnknownToken(t *testing.T) {
	svc, _, _ := newSubscriptionService()
	if err := svc.Confirm(context.Background(), "no-such-token"); !errors.Is(err, domain.ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}
}
