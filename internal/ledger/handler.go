package ledger

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

// Handler handles HTTP requests for ledger operations
type Handler struct {
	service *Service
}

// NewHandler creates a new ledger handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for transaction endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Post("/start-game", h.StartGame)
	r.Post("/transfer", h.Transfer)
	r.Post("/bank/receive", h.ReceiveFromBank)
	r.Post("/bank/send", h.TransferToBank)
	r.Get("/my", h.ListMine)
	r.Get("/balance/{roomID}", h.GetBalance)
	r.Get("/room/{roomID}", h.ListByRoom)
	r.Get("/room/{roomID}/players-balance", h.AllPlayersBalance)
	r.Get("/{id}", h.GetByID)
	r.Patch("/{id}/cancel", h.Cancel)

	return r
}

// writeError maps ledger errors onto the shared failure taxonomy:
// absence is 404, validation 400, state conflicts 409.
func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, room.ErrRoomNotFound),
		errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, ErrTransactionNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrSelfTransfer),
		errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrAlreadyCancelled),
		errors.Is(err, ErrNotMember),
		errors.Is(err, ErrNoMembers):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrPlayerFinished),
		errors.Is(err, ErrRoomNotStarted),
		errors.Is(err, ErrRoomNotStartable):
		response.Conflict(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}

// Create handles POST /transactions
// @Summary      Create a transaction
// @Description  Appends a signed ledger entry for the current player and settles it immediately
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        request body CreateTransactionRequest true "Transaction request"
// @Success      201 {object} response.APIResponse{data=Transaction}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /transactions [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	playerID, ok := middleware.GetPlayerID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	t, err := h.service.Create(r.Context(), playerID, &req)
	if err != nil {
		writeError(w, err, "Failed to create transaction")
		return
	}

	response.JSON(w, http.StatusCreated, t)
}

// StartGame handles POST /transactions/start-game
// @Summary      Start a game
// @Description  Credits every member of the room with the initial balance in one atomic batch
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        request body StartGameRequest true "Start game request"
// @Success      201 {object} response.APIResponse{data=[]Transaction}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /transactions/start-game [post]
func (h *Handler) StartGame(w http.ResponseWriter, r *http.Request) {
	var req StartGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	transactions, err := h.service.StartGame(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to start game")
		return
	}

	response.JSON(w, http.StatusCreated, transactions)
}

// Transfer handles POST /transactions/transfer
// @Summary      Transfer money to another player
// @Description  Creates the debit/credit pair atomically; fails without writes when the balance is short
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        request body TransferRequest true "Transfer request"
// @Success      201 {object} response.APIResponse{data=TransferPair}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /transactions/transfer [post]
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	playerID, ok := middleware.GetPlayerID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	pair, err := h.service.Transfer(r.Context(), playerID, &req)
	if err != nil {
		writeError(w, err, "Failed to transfer money")
		return
	}

	response.JSON(w, http.StatusCreated, pair)
}

// ReceiveFromBank handles POST /transactions/bank/receive
// @Summary      Receive money from the bank
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        request body BankRequest true "Bank request"
// @Success      201 {object} response.APIResponse{data=Transaction}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /transactions/bank/receive [post]
func (h *Handler) ReceiveFromBank(w http.ResponseWriter, r *http.Request) {
	playerID, ok := middleware.GetPlayerID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req BankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	t, err := h.service.ReceiveFromBank(r.Context(), playerID, &req)
	if err != nil {
		writeError(w, err, "Failed to receive from bank")
		return
	}

	response.JSON(w, http.StatusCreated, t)
}

// TransferToBank handles POST /transactions/bank/send
// @Summary      Send money to the bank
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        request body BankRequest true "Bank request"
// @Success      201 {object} response.APIResponse{data=Transaction}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /transactions/bank/send [post]
func (h *Handler) TransferToBank(w http.ResponseWriter, r *http.Request) {
	playerID, ok := middleware.GetPlayerID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req BankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	t, err := h.service.TransferToBank(r.Context(), playerID, &req)
	if err != nil {
		writeError(w, err, "Failed to transfer to bank")
		return
	}

	response.JSON(w, http.StatusCreated, t)
}

// Cancel handles PATCH /transactions/{id}/cancel
// @Summary      Cancel a transaction
// @Description  Marks the transaction CANCELLED, removing it from balance computation
// @Tags         transactions
// @Produce      json
// @Param        id path string true "Transaction ID"
// @Success      200 {object} response.APIResponse{data=Transaction}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /transactions/{id}/cancel [patch]
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to cancel transaction")
		return
	}

	response.JSON(w, http.StatusOK, t)
}

// GetBalance handles GET /transactions/balance/{roomID}
// @Summary      Get my balance in a room
// @Description  Returns the derived balance plus the player's statement, newest first
// @Tags         transactions
// @Produce      json
// @Param        roomID path string true "Room ID"
// @Success      200 {object} response.APIResponse{data=BalanceResponse}
// @Router       /transactions/balance/{roomID} [get]
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	playerID, ok := middleware.GetPlayerID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	balance, err := h.service.GetBalance(r.Context(), playerID, chi.URLParam(r, "roomID"))
	if err != nil {
		writeError(w, err, "Failed to get balance")
		return
	}

	response.JSON(w, http.StatusOK, balance)
}

// AllPlayersBalance handles GET /transactions/room/{roomID}/players-balance
// @Summary      Get the balance of every player in a room
// @Tags         transactions
// @Produce      json
// @Param        roomID path string true "Room ID"
// @Success      200 {object} response.APIResponse{data=[]PlayerBalance}
// @Failure      404 {object} response.APIResponse
// @Router       /transactions/room/{roomID}/players-balance [get]
func (h *Handler) AllPlayersBalance(w http.ResponseWriter, r *http.Request) {
	balances, err := h.service.AllPlayersBalance(r.Context(), chi.URLParam(r, "roomID"))
	if err != nil {
		writeError(w, err, "Failed to get players balance")
		return
	}

	response.JSON(w, http.StatusOK, balances)
}

// ListByRoom handles GET /transactions/room/{roomID}
// @Summary      List a room's transactions
// @Tags         transactions
// @Produce      json
// @Param        roomID path string true "Room ID"
// @Success      200 {object} response.APIResponse{data=[]Transaction}
// @Router       /transactions/room/{roomID} [get]
func (h *Handler) ListByRoom(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.service.ListByRoom(r.Context(), chi.URLParam(r, "roomID"))
	if err != nil {
		response.InternalError(w, "Failed to list transactions")
		return
	}

	response.JSON(w, http.StatusOK, transactions)
}

// ListMine handles GET /transactions/my
// @Summary      List my transactions across all rooms
// @Tags         transactions
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]Transaction}
// @Router       /transactions/my [get]
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	playerID, ok := middleware.GetPlayerID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	transactions, err := h.service.ListByPlayer(r.Context(), playerID)
	if err != nil {
		response.InternalError(w, "Failed to list transactions")
		return
	}

	response.JSON(w, http.StatusOK, transactions)
}

// GetByID handles GET /transactions/{id}
// @Summary      Get a transaction by ID
// @Tags         transactions
// @Produce      json
// @Param        id path string true "Transaction ID"
// @Success      200 {object} response.APIResponse{data=Transaction}
// @Failure      404 {object} response.APIResponse
// @Router       /transactions/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to get transaction")
		return
	}

	response.JSON(w, http.StatusOK, t)
}
