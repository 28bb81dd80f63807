package notification

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pbastos/bankroll/pkg/middleware"
	"github.com/pbastos/bankroll/pkg/response"
)

// Handler handles HTTP requests for notification operations
type Handler struct {
	service *Service
}

// NewHandler creates a new notification handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for notification endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListMine)
	r.Patch("/{id}/read", h.MarkRead)

	return r
}

// ListMine handles GET /notifications
// @Summary      List notifications of the current player
// @Tags         notifications
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]Notification}
// @Router       /notifications [get]
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	playerID, ok := middleware.GetPlayerID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	notifications, err := h.service.ListByPlayer(r.Context(), playerID)
	if err != nil {
		response.InternalError(w, "Failed to list notifications")
		return
	}

	response.JSON(w, http.StatusOK, notifications)
}

// MarkRead handles PATCH /notifications/{id}/read
// @Summary      Mark a notification as read
// @Tags         notifications
// @Produce      json
// @Param        id path string true "Notification ID"
// @Success      200 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /notifications/{id}/read [patch]
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to mark notification read")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}
