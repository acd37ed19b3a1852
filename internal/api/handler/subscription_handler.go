package handler

import (
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/courierpost/newsletter-service/internal/api/middleware"
	"github.com/courierpost/newsletter-service/internal/service"
)

// SubscriptionHandler handles the public signup and confirmation endpoints.
type SubscriptionHandler struct {
	svc    *service.SubscriptionService
	logger *zap.Logger
}

func NewSubscriptionHandler(svc *service.SubscriptionService, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc, logger: logger}
}

// Subscribe handles POST /subscriptions (form fields: name, email).
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	err := h.svc.Subscribe(r.Context(), r.PostFormValue("email"), r.PostFormValue("name"))
	if err != nil {
		h.logger.Warn("subscribe failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "pending confirmation"})
}

// Confirm handles GET /subscriptions/confirm?subscription_token=...
func (h *SubscriptionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("subscription_token")
	if token == "" {
		respondError(w, http.StatusBadRequest, "subscription_token is required")
		return
	}

	if err := h.svc.Confirm(r.Context(), token); err != nil {
		h.logger.Warn("confirmation failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
}
