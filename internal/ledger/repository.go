package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pbastos/bankroll/internal/database"
)

// Repository is the append-only ledger store. Rows are immutable after
// insert except for status and the soft-delete marker. Write paths take a
// database.DBTX so they can run inside an atomic unit.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new ledger repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const transactionColumns = `id, room_id, player_id, amount, description, status, created_at, updated_at`

// Append inserts a new ledger entry and returns the stored row
func (r *Repository) Append(ctx context.Context, q database.DBTX, roomID, playerID string, amount decimal.Decimal, description *string, status Status) (*Transaction, error) {
	query := `
		INSERT INTO transactions (id, room_id, player_id, amount, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING ` + transactionColumns

	t := &Transaction{}
	err := q.QueryRowContext(ctx, query,
		uuid.New().String(), roomID, playerID, amount, description, status, time.Now(),
	).Scan(
		&t.ID,
		&t.RoomID,
		&t.PlayerID,
		&t.Amount,
		&t.Description,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append transaction: %w", err)
	}

	return t, nil
}

// GetByID retrieves a transaction by its ID
func (r *Repository) GetByID(ctx context.Context, id string) (*Transaction, error) {
	query := `
		SELECT t.id, t.room_id, t.player_id, t.amount, t.description, t.status, t.created_at, t.updated_at, u.nickname
		FROM transactions t
		JOIN users u ON t.player_id = u.id
		WHERE t.id = $1 AND t.deleted_at IS NULL
	`

	t := &Transaction{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.RoomID,
		&t.PlayerID,
		&t.Amount,
		&t.Description,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.Nickname,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return t, nil
}

// UpdateStatus transitions a transaction to the given status.
// Returns nil when the transaction does not exist.
func (r *Repository) UpdateStatus(ctx context.Context, q database.DBTX, id string, status Status) (*Transaction, error) {
	query := `
		UPDATE transactions
		SET status = $2, updated_at = $3
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + transactionColumns

	t := &Transaction{}
	err := q.QueryRowContext(ctx, query, id, status, time.Now()).Scan(
		&t.ID,
		&t.RoomID,
		&t.PlayerID,
		&t.Amount,
		&t.Description,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update transaction status: %w", err)
	}

	return t, nil
}

// SumPaid derives the balance for a (room, player) pair: the sum of every
// PAID, non-deleted entry. Returns zero when no entries exist. This is the
// single authority on balances; no cached counter exists anywhere.
func (r *Repository) SumPaid(ctx context.Context, q database.DBTX, roomID, playerID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE room_id = $1 AND player_id = $2 AND status = $3 AND deleted_at IS NULL
	`

	var balance decimal.Decimal
	err := q.QueryRowContext(ctx, query, roomID, playerID, StatusPaid).Scan(&balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions: %w", err)
	}

	return balance, nil
}

// ListByRoom retrieves a room's transactions, newest first
func (r *Repository) ListByRoom(ctx context.Context, roomID string) ([]*Transaction, error) {
	query := `
		SELECT t.id, t.room_id, t.player_id, t.amount, t.description, t.status, t.created_at, t.updated_at, u.nickname
		FROM transactions t
		JOIN users u ON t.player_id = u.id
		WHERE t.room_id = $1 AND t.deleted_at IS NULL
		ORDER BY t.created_at DESC
	`

	return r.list(ctx, query, roomID)
}

// ListByPlayer retrieves a player's transactions across all rooms, newest first
func (r *Repository) ListByPlayer(ctx context.Context, playerID string) ([]*Transaction, error) {
	query := `
		SELECT t.id, t.room_id, t.player_id, t.amount, t.description, t.status, t.created_at, t.updated_at, u.nickname
		FROM transactions t
		JOIN users u ON t.player_id = u.id
		WHERE t.player_id = $1 AND t.deleted_at IS NULL
		ORDER BY t.created_at DESC
	`

	return r.list(ctx, query, playerID)
}

// ListByRoomAndPlayer retrieves the statement for a (room, player) pair,
// newest first
func (r *Repository) ListByRoomAndPlayer(ctx context.Context, roomID, playerID string) ([]*Transaction, error) {
	query := `
		SELECT t.id, t.room_id, t.player_id, t.amount, t.description, t.status, t.created_at, t.updated_at, u.nickname
		FROM transactions t
		JOIN users u ON t.player_id = u.id
		WHERE t.room_id = $1 AND t.player_id = $2 AND t.deleted_at IS NULL
		ORDER BY t.created_at DESC
	`

	return r.list(ctx, query, roomID, playerID)
}

// SoftDeleteByRoom marks every transaction of a room as deleted inside an
// existing atomic unit. Used by the retention sweeper only.
func (r *Repository) SoftDeleteByRoom(ctx context.Context, q database.DBTX, roomID string) (int64, error) {
	query := `UPDATE transactions SET deleted_at = $2 WHERE room_id = $1 AND deleted_at IS NULL`

	result, err := q.ExecContext(ctx, query, roomID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete transactions: %w", err)
	}

	return result.RowsAffected()
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]*Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*Transaction
	for rows.Next() {
		t := &Transaction{}
		if err := rows.Scan(
			&t.ID,
			&t.RoomID,
			&t.PlayerID,
			&t.Amount,
			&t.Description,
			&t.Status,
			&t.CreatedAt,
			&t.UpdatedAt,
			&t.Nickname,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}

	return transactions, rows.Err()
}
