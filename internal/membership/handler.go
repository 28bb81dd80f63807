package membership

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pbastos/bankroll/internal/room"
	"github.com/pbastos/bankroll/internal/user"
	"github.com/pbastos/bankroll/pkg/middleware"
	"github.com/pbastos/bankroll/pkg/response"
)

// Handler handles HTTP requests for membership operations
type Handler struct {
	service *Service
}

// NewHandler creates a new membership handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for membership endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Join)
	r.Get("/", h.ListMine)
	r.Delete("/{id}", h.Remove)
	r.Post("/bankruptcy", h.DeclareBankruptcy)

	return r
}

// Join handles POST /memberships
// @Summary      Join a room
// @Description  Enrolls the authenticated player into a room, given its password
// @Tags         memberships
// @Accept       json
// @Produce      json
// @Param        request body JoinRoomRequest true "Join request"
// @Success      201 {object} response.APIResponse{data=MembershipResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /memberships [post]
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	playerID, ok := middleware.GetPlayerID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	m, err := h.service.Join(r.Context(), playerID, &req)
	if err != nil {
		switch {
		case errors.Is(err, room.ErrRoomNotFound), errors.Is(err, user.ErrUserNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrInvalidPassword):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrAlreadyMember):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Failed to join room")
		}
		return
	}

	response.JSON(w, http.StatusCreated, m.ToResponse())
}

// ListMine handles GET /memberships
// @Summary      List memberships of the current player
// @Tags         memberships
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]MembershipResponse}
// @Router       /memberships [get]
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	playerID, ok := middleware.GetPlayerID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	members, err := h.service.ListByPlayer(r.Context(), playerID)
	if err != nil {
		response.InternalError(w, "Failed to list memberships")
		return
	}

	out := make([]*MembershipResponse, len(members))
	for i, m := range members {
		out[i] = m.ToResponse()
	}

	response.JSON(w, http.StatusOK, out)
}

// ListByRoom handles GET /rooms/{roomID}/members
// @Summary      List members of a room
// @Tags         memberships
// @Produce      json
// @Param        roomID path string true "Room ID"
// @Success      200 {object} response.APIResponse{data=[]MembershipResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /rooms/{roomID}/members [get]
func (h *Handler) ListByRoom(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListByRoom(r.Context(), chi.URLParam(r, "roomID"))
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to list members")
		return
	}

	out := make([]*MembershipResponse, len(members))
	for i, m := range members {
		out[i] = m.ToResponse()
	}

	response.JSON(w, http.StatusOK, out)
}

// Remove handles DELETE /memberships/{id}
// @Summary      Remove a player from a room
// @Tags         memberships
// @Produce      json
// @Param        id path string true "Membership ID"
// @Success      200 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /memberships/{id} [delete]
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to remove membership")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Membership removed successfully"})
}

// DeclareBankruptcy handles POST /memberships/bankruptcy
// @Summary      Declare bankruptcy
// @Description  Marks the authenticated player as finished in the room, regardless of balance. Irreversible.
// @Tags         memberships
// @Accept       json
// @Produce      json
// @Param        request body DeclareBankruptcyRequest true "Bankruptcy request"
// @Success      200 {object} response.APIResponse{data=MembershipResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /memberships/bankruptcy [post]
func (h *Handler) DeclareBankruptcy(w http.ResponseWriter, r *http.Request) {
	playerID, ok := middleware.GetPlayerID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req DeclareBankruptcyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	m, err := h.service.DeclareBankruptcy(r.Context(), playerID, req.RoomID)
	if err != nil {
		switch {
		case errors.Is(err, ErrMembershipNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrAlreadyFinished):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to declare bankruptcy")
		}
		return
	}

	response.JSON(w, http.StatusOK, m.ToResponse())
}
