package mailer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/courierpost/newsletter-service/internal/mailer"
)

func newClient(baseURL string) *mailer.Client {
	return mailer.NewClient(baseURL, "test-token", "newsletter@example.com", time.Second, 100)
}

func TestClient_Send(t *testing.T) {
	var got struct {
		Personalizations []struct {
			To []struct {
				Email string `json:"email"`
			} `json:"to"`
		} `json:"personalizations"`
		From struct {
			Email string `json:"email"`
		} `json:"from"`
		Subject string `json:"subject"`
		Content []struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"content"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/mail/send" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("unexpected Authorization header: %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := newClient(srv.URL)
	err := c.Send(context.Background(), "reader@example.org", "Edition #1", "<p>hi</p>", "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got.Personalizations) != 1 || got.Personalizations[0].To[0].Email != "reader@example.org" {
		t.Fatalf("recipient not in payload: %+v", got.Personalizations)
	}
	if got.From.Email != "newsletter@example.com" {
		t.Fatalf("unexpected sender: %q", got.From.Email)
	}
	if got.Subject != "Edition #1" {
		t.Fatalf("unexpected subject: %q", got.Subject)
	}
	if len(got.Content) != 2 || got.Content[0].Type != "text/plain" || got.Content[1].Type != "text/html" {
		t.Fatalf("unexpected content parts: %+v", got.Content)
	}
}

func TestClient_Send_NonSuccessStatusIsError(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		c := newClient(srv.URL)
		if err := c.Send(context.Background(), "reader@example.org", "s", "h", "t"); err == nil {
			t.Errorf("expected error for status %d", status)
		}
		srv.Close()
	}
}

func TestClient_Send_TimesOut(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := mailer.NewClient(srv.URL, "test-token", "newsletter@example.com", 50*time.Millisecond, 100)
	if err := c.Send(context.Background(), "reader@example.org", "s", "h", "t"); err == nil {
		t.Fatal("expected timeout error")
	}
}
