package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/courierpost/newsletter-service/internal/domain"
	"github.com/courierpost/newsletter-service/internal/mailer"
	"github.com/courierpost/newsletter-service/internal/repository"
)

const (
	tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	tokenLength   = 25
)

// SubscriptionService implements the double-opt-in flow: a signup is stored
// as pending together with a confirmation token, and only the emailed
// confirmation link flips it to confirmed.
type SubscriptionService struct {
	repo    repository.SubscriberRepository
	mailer  mailer.Mailer
	baseURL string
	logger  *zap.Logger
}

func NewSubscriptionService(
	repo repository.SubscriberRepository,
	m mailer.Mailer,
	baseURL string,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{repo: repo, mailer: m, baseURL: baseURL, logger: logger}
}

// Subscribe validates the form input, stores the pending subscriber plus its
// token in one transaction, and emails the confirmation link.
func (s *SubscriptionService) Subscribe(ctx context.Context, email, name string) error {
	sub, err := domain.NewSubscriber(email, name)
	if err != nil {
		return err
	}

	token, err := generateSubscriptionToken()
	if err != nil {
		return fmt.Errorf("generate subscription token: %w", err)
	}

	if err := s.repo.CreateSubscriber(ctx, sub, token); err != nil {
		return err
	}

	s.logger.Info("new subscriber stored, sending confirmation email",
		zap.String("subscriber_id", sub.ID.String()),
	)
	if err := s.sendConfirmationEmail(ctx, sub, token); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}
	return nil
}

// Confirm completes the opt-in for the subscriber owning the token.
func (s *SubscriptionService) Confirm(ctx context.Context, token string) error {
	return s.repo.ConfirmByToken(ctx, token)
}

func (s *SubscriptionService) sendConfirmationEmail(ctx context.Context, sub *domain.Subscriber, token string) error {
	link := fmt.Sprintf("%s/subscriptions/confirm?subscription_token=%s", s.baseURL, token)
	text := fmt.Sprintf("Welcome to our newsletter!\nVisit %s to confirm your subscription.", link)
	html := fmt.Sprintf(`Welcome to our newsletter!<br />Click <a href="%s">here</a> to confirm your subscription.`, link)
	return s.mailer.Send(ctx, sub.Email, "Welcome!", html, text)
}

func generateSubscriptionToken() (string, error) {
	token := make([]byte, tokenLength)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := range token {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		token[i] = tokenAlphabet[n.Int64()]
	}
	return string(token), nil
}
