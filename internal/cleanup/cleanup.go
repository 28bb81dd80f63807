// Package cleanup retires old finished rooms. A daily cron soft-deletes the
// transactions, memberships, and room row of every room that reached
// FINISHED and has not been touched within the retention window.
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pbastos/bankroll/internal/database"
	"github.com/pbastos/bankroll/internal/ledger"
	"github.com/pbastos/bankroll/internal/membership"
	"github.com/pbastos/bankroll/internal/room"
)

// Sweeper soft-deletes rooms past their retention window
type Sweeper struct {
	db        *sql.DB
	rooms     *room.Repository
	entries   *ledger.Repository
	members   *membership.Repository
	retention time.Duration
}

// NewSweeper creates a new retention sweeper
func NewSweeper(db *sql.DB, rooms *room.Repository, entries *ledger.Repository, members *membership.Repository, retentionDays int) *Sweeper {
	return &Sweeper{
		db:        db,
		rooms:     rooms,
		entries:   entries,
		members:   members,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// Start schedules the sweep on the given cron expression and returns the
// scheduler so the caller can stop it on shutdown.
func (s *Sweeper) Start(schedule string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		s.Run(context.Background())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule cleanup: %w", err)
	}

	c.Start()
	return c, nil
}

// Run performs one sweep. Unlike the ledger core this component logs and
// continues on failure: a room that cannot be cleaned today is retried on
// the next run.
func (s *Sweeper) Run(ctx context.Context) {
	cutoff := time.Now().Add(-s.retention)

	rooms, err := s.rooms.ListFinishedBefore(ctx, cutoff)
	if err != nil {
		slog.Error("cleanup: failed to list finished rooms", "error", err)
		return
	}
	if len(rooms) == 0 {
		slog.Debug("cleanup: nothing to do")
		return
	}

	slog.Info("cleanup: starting sweep", "rooms", len(rooms), "cutoff", cutoff)

	for _, rm := range rooms {
		var transactions, members int64

		err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			var err error
			if transactions, err = s.entries.SoftDeleteByRoom(ctx, tx, rm.ID); err != nil {
				return err
			}
			if members, err = s.members.SoftDeleteByRoom(ctx, tx, rm.ID); err != nil {
				return err
			}
			return s.rooms.SoftDelete(ctx, tx, rm.ID)
		})
		if err != nil {
			slog.Error("cleanup: failed to retire room", "room_id", rm.ID, "error", err)
			continue
		}

		slog.Info("cleanup: room retired",
			"room_id", rm.ID,
			"name", rm.Name,
			"transactions", transactions,
			"memberships", members,
		)
	}
}
