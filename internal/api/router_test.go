package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/courierpost/newsletter-service/internal/api"
	"github.com/courierpost/newsletter-service/internal/mailer"
	"github.com/courierpost/newsletter-service/internal/metrics"
	"github.com/courierpost/newsletter-service/internal/repository"
	"github.com/courierpost/newsletter-service/internal/service"
	"github.com/google/uuid"
)

type testApp struct {
	router      http.Handler
	publishes   *repository.MockPublishRepository
	subscribers *repository.MockSubscriberRepository
	mailer      *mailer.MockMailer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := zap.NewNop()

	publishes := repository.NewMockPublishRepository()
	subscribers := repository.NewMockSubscriberRepository()
	users := repository.NewMockUserRepository()
	m := mailer.NewMockMailer()

	hash, err := service.HashPassword("admin-password-123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := users.CreateUser(context.Background(), uuid.New(), "admin", hash); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	reg := prometheus.NewRegistry()
	router := api.NewRouter(
		service.NewSubscriptionService(subscribers, m, "https://newsletter.example.com", logger),
		service.NewPublishService(publishes, subscribers, m, logger),
		service.NewAuthService(users, logger),
		metrics.New(reg),
		reg,
		logger,
	)
	return &testApp{router: router, publishes: publishes, subscribers: subscribers, mailer: m}
}

func (a *testApp) publish(form url.Values, authenticated bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/admin/newsletters", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if authenticated {
		req.SetBasicAuth("admin", "admin-password-123")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

var publishForm = url.Values{
	"title":           {"Edition #1"},
	"html":            {"<p>News!</p>"},
	"text":            {"News!"},
	"idempotency_key": {"key-1"},
}

func TestPublishRoute_RequiresAuth(t *testing.T) {
	app := newTestApp(t)

	w := app.publish(publishForm, false)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if got := w.Header().Get("WWW-Authenticate"); !strings.HasPrefix(got, "Basic ") {
		t.Fatalf("expected a basic auth challenge, got %q", got)
	}
	if len(app.publishes.Issues()) != 0 {
		t.Fatal("unauthenticated request must not publish")
	}
}

func TestPublishRoute_WrongPassword(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/newsletters", strings.NewReader(publishForm.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("admin", "not-the-password")
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestPublishRoute_RedirectsAndReplaysVerbatim(t *testing.T) {
	app := newTestApp(t)
	app.publishes.ConfirmedEmails = []string{"a@example.com", "b@example.com"}

	first := app.publish(publishForm, true)
	if first.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d, body %q", first.Code, first.Body.String())
	}
	if got := first.Header().Get("Location"); got != "/admin/newsletters" {
		t.Fatalf("unexpected redirect target %q", got)
	}

	// A retry with the same key but a different body must not publish again
	// and must return the exact saved response.
	retryForm := url.Values{}
	for k, v := range publishForm {
		retryForm[k] = v
	}
	retryForm.Set("title", "A different title")
	second := app.publish(retryForm, true)

	if second.Code != first.Code {
		t.Fatalf("replayed status differs: %d vs %d", second.Code, first.Code)
	}
	if second.Header().Get("Location") != first.Header().Get("Location") {
		t.Fatal("replayed Location header differs")
	}
	if second.Body.String() != first.Body.String() {
		t.Fatal("replayed body differs")
	}

	if got := len(app.publishes.Issues()); got != 1 {
		t.Fatalf("expected one issue after retry, got %d", got)
	}
	if got := len(app.publishes.QueueEntries()); got != 2 {
		t.Fatalf("expected one queue snapshot after retry, got %d rows", got)
	}
	if len(app.mailer.Sent()) != 0 {
		t.Fatal("the publish request itself must not send email")
	}
}

func TestPublishRoute_MissingKeyIsBadRequest(t *testing.T) {
	app := newTestApp(t)

	form := url.Values{}
	for k, v := range publishForm {
		form[k] = v
	}
	form.Del("idempotency_key")

	w := app.publish(form, true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSubscriptionRoutes_EndToEnd(t *testing.T) {
	app := newTestApp(t)

	form := url.Values{"email": {"ursula@example.com"}, "name": {"Ursula"}}
	req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("subscribe: expected 200, got %d, body %q", w.Code, w.Body.String())
	}

	sent := app.mailer.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 confirmation email, got %d", len(sent))
	}
	marker := "subscription_token="
	idx := strings.Index(sent[0].TextBody, marker)
	if idx < 0 {
		t.Fatalf("no token in confirmation email: %q", sent[0].TextBody)
	}
	token := strings.FieldsFunc(sent[0].TextBody[idx+len(marker):], func(r rune) bool {
		return r == '\n' || r == '"' || r == ' '
	})[0]

	req = httptest.NewRequest(http.MethodGet, "/subscriptions/confirm?subscription_token="+token, nil)
	w = httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("confirm: expected 200, got %d, body %q", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/subscriptions/confirm?subscription_token=bogus", nil)
	w = httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bogus token: expected 401, got %d", w.Code)
	}
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	app := newTestApp(t)

	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	app.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "newsletter_issues_published_total") {
		t.Fatal("publish counter missing from scrape output")
	}
}
