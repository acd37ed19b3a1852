package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/courierpost/newsletter-service/internal/domain"
)

// sendRequest is the JSON body posted to the email API's send endpoint.
type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []contentPart     `json:"content"`
}

type personalization struct {
	To []address `json:"to"`
}

type address struct {
	Email string `json:"email"`
}

type contentPart struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Client delivers email through a SendGrid-compatible HTTPS API.
// The base URL is injected from config so tests can point to a local mock.
type Client struct {
	baseURL    string
	authToken  string
	sender     domain.SubscriberEmail
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient builds a Client. sendsPerSecond caps outbound request rate so a
// fast-draining delivery queue cannot trip the provider's own rate limits.
func NewClient(baseURL, authToken string, sender domain.SubscriberEmail, timeout time.Duration, sendsPerSecond int) *Client {
	return &Client{
		baseURL:   baseURL,
		authToken: authToken,
		sender:    sender,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(sendsPerSecond), sendsPerSecond),
	}
}

// Send posts one templated message and treats any non-2xx response as failure.
func (c *Client) Send(ctx context.Context, recipient domain.SubscriberEmail, subject, htmlBody, textBody string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for send slot: %w", err)
	}

	body, err := json.Marshal(sendRequest{
		Personalizations: []personalization{{To: []address{{Email: recipient.String()}}}},
		From:             address{Email: c.sender.String()},
		Subject:          subject,
		Content: []contentPart{
			{Type: "text/plain", Value: textBody},
			{Type: "text/html", Value: htmlBody},
		},
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected email API status: %d", resp.StatusCode)
	}
	return nil
}

// compile-time check that Client implements Mailer
var _ Mailer = (*Client)(nil)
