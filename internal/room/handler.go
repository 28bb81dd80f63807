package room

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pbastos/bankroll/pkg/middleware"
	"github.com/pbastos/bankroll/pkg/response"
)

// Handler handles HTTP requests for room operations
type Handler struct {
	service *Service
}

// NewHandler creates a new room handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for room endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}

// Create handles POST /rooms
// @Summary      Create a new room
// @Description  Creates a room; the creator is enrolled as its first member
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        request body CreateRoomRequest true "Room creation request"
// @Success      201 {object} response.APIResponse{data=RoomResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /rooms [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	playerID, ok := middleware.GetPlayerID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	room, err := h.service.Create(r.Context(), playerID, &req)
	if err != nil {
		if errors.Is(err, ErrNameMissing) || errors.Is(err, ErrPasswordMissing) {
			response.BadRequest(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to create room")
		return
	}

	response.JSON(w, http.StatusCreated, room.ToResponse())
}

// GetByID handles GET /rooms/{id}
// @Summary      Get room by ID
// @Tags         rooms
// @Produce      json
// @Param        id path string true "Room ID"
// @Success      200 {object} response.APIResponse{data=RoomResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /rooms/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	room, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get room")
		return
	}

	response.JSON(w, http.StatusOK, room.ToResponse())
}

// List handles GET /rooms
// @Summary      List all rooms
// @Tags         rooms
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]RoomResponse}
// @Router       /rooms [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.service.List(r.Context())
	if err != nil {
		response.InternalError(w, "Failed to list rooms")
		return
	}

	out := make([]*RoomResponse, len(rooms))
	for i, room := range rooms {
		out[i] = room.ToResponse()
	}

	response.JSON(w, http.StatusOK, out)
}

// Update handles PATCH /rooms/{id}
// @Summary      Update a room
// @Description  Updates a room's name, description or lifecycle status
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        id path string true "Room ID"
// @Param        request body UpdateRoomRequest true "Room update request"
// @Success      200 {object} response.APIResponse{data=RoomResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /rooms/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	room, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrRoomNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrInvalidStatus):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to update room")
		}
		return
	}

	response.JSON(w, http.StatusOK, room.ToResponse())
}

// Delete handles DELETE /rooms/{id}
// @Summary      Delete a room
// @Tags         rooms
// @Produce      json
// @Param        id path string true "Room ID"
// @Success      200 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /rooms/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to delete room")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Room deleted successfully"})
}
