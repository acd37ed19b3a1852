package handler

import (
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/courierpost/newsletter-service/internal/api/middleware"
	"github.com/courierpost/newsletter-service/internal/service"
)

// PasswordHandler handles the admin password-change endpoint.
type PasswordHandler struct {
	svc    *service.AuthService
	logger *zap.Logger
}

func NewPasswordHandler(svc *service.AuthService, logger *zap.Logger) *PasswordHandler {
	return &PasswordHandler{svc: svc, logger: logger}
}

// ChangePassword handles POST /admin/password
// (form fields: current_password, new_password, new_password_check).
func (h *PasswordHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	username, ok := apimw.Username(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	err := h.svc.ChangePassword(r.Context(),
		username,
		r.PostFormValue("current_password"),
		r.PostFormValue("new_password"),
		r.PostFormValue("new_password_check"),
	)
	if err != nil {
		h.logger.Warn("password change failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.String("username", username),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}
