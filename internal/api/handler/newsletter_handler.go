package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/courierpost/newsletter-service/internal/api/middleware"
	"github.com/courierpost/newsletter-service/internal/service"
)

// NewsletterHandler handles both publish variants: the idempotent
// queue-backed one under /admin and the legacy synchronous one.
type NewsletterHandler struct {
	svc    *service.PublishService
	logger *zap.Logger

	// Metric hooks, optional.
	OnPublished func()
	OnReplayed  func()
}

func NewNewsletterHandler(svc *service.PublishService, logger *zap.Logger) *NewsletterHandler {
	return &NewsletterHandler{
		svc:         svc,
		logger:      logger,
		OnPublished: func() {},
		OnReplayed:  func() {},
	}
}

// Publish handles POST /admin/newsletters
// (form fields: title, html, text, idempotency_key).
//
// The response written here is the captured one: on a replay it is the very
// bytes saved by the first attempt, status and headers included.
func (h *NewsletterHandler) Publish(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	userID, ok := apimw.UserID(r.Context())
	if !ok {
		// The auth middleware must run before this handler.
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	resp, replay, err := h.svc.Publish(r.Context(), userID, service.PublishRequest{
		Title:          r.PostFormValue("title"),
		HTML:           r.PostFormValue("html"),
		Text:           r.PostFormValue("text"),
		IdempotencyKey: r.PostFormValue("idempotency_key"),
	})
	if err != nil {
		h.logger.Error("publish failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	if replay {
		h.OnReplayed()
	} else {
		h.OnPublished()
	}
	resp.Write(w)
}

type legacyPublishRequest struct {
	Title   string `json:"title"`
	Content struct {
		HTML string `json:"html"`
		Text string `json:"text"`
	} `json:"content"`
}

// PublishLegacy handles POST /newsletters (JSON body). It sends to every
// confirmed subscriber before responding; any single send failure fails the
// whole request. Retained for API compatibility; the /admin variant is the
// one with delivery guarantees.
func (h *NewsletterHandler) PublishLegacy(w http.ResponseWriter, r *http.Request) {
	var req legacyPublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.svc.PublishLegacy(r.Context(), req.Title, req.Content.HTML, req.Content.Text); err != nil {
		h.logger.Error("legacy publish failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "published"})
}
