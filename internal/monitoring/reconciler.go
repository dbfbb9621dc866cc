package monitoring

import (
	"database/sql"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Reconciler runs the periodic maintenance tasks: repairing the symmetric
// friendship relation from accepted requests, and purging expired unused
// password-reset tokens. Repair exists because the two sides of a
// friendship are separate rows; if a crash or retry ever leaves one side
// missing, the accepted request is the durable record to rebuild from.
type Reconciler struct {
	db           *sql.DB
	repairSched  cron.Schedule
	purgeSched   cron.Schedule
	nextRepairAt time.Time
	nextPurgeAt  time.Time
	ticker       *time.Ticker
	done         chan bool
}

// NewReconciler creates a reconciler from standard cron expressions.
func NewReconciler(db *sql.DB, repairExpr, purgeExpr string) (*Reconciler, error) {
	repairSched, err := cron.ParseStandard(repairExpr)
	if err != nil {
		return nil, err
	}
	purgeSched, err := cron.ParseStandard(purgeExpr)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Reconciler{
		db:           db,
		repairSched:  repairSched,
		purgeSched:   purgeSched,
		nextRepairAt: repairSched.Next(now),
		nextPurgeAt:  purgeSched.Next(now),
		done:         make(chan bool),
	}, nil
}

// Run starts the reconciler's ticking loop.
func (r *Reconciler) Run() {
	log.Info().Msg("Starting background reconciler...")
	r.ticker = time.NewTicker(1 * time.Minute)
	defer r.ticker.Stop()

	// Run the repair once immediately on start to recover from any crash
	// that happened while the process was down.
	if err := r.RepairFriendships(); err != nil {
		log.Error().Err(err).Msg("Reconciler: initial friendship repair failed")
	}

	for {
		select {
		case <-r.done:
			log.Info().Msg("Stopping background reconciler.")
			return
		case <-r.ticker.C:
			r.runDueTasks()
		}
	}
}

// Stop halts the reconciler.
func (r *Reconciler) Stop() {
	r.done <- true
}

func (r *Reconciler) runDueTasks() {
	now := time.Now()

	if now.After(r.nextRepairAt) {
		if err := r.RepairFriendships(); err != nil {
			log.Error().Err(err).Msg("Reconciler: friendship repair failed")
		}
		r.nextRepairAt = r.repairSched.Next(now)
	}

	if now.After(r.nextPurgeAt) {
		if err := r.PurgeExpiredResetTokens(); err != nil {
			log.Error().Err(err).Msg("Reconciler: reset-token purge failed")
		}
		r.nextPurgeAt = r.purgeSched.Next(now)
	}
}

// RepairFriendships restores the symmetry invariant. It mirrors any
// one-sided friendship row, re-derives rows from accepted requests, and
// finally removes rows that survive between a blocker and a blockee.
func (r *Reconciler) RepairFriendships() error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT OR IGNORE INTO friendships (user_id, friend_id)
		SELECT f.friend_id, f.user_id FROM friendships f
		WHERE NOT EXISTS (
			SELECT 1 FROM friendships g
			WHERE g.user_id = f.friend_id AND g.friend_id = f.user_id
		)
	`)
	if err != nil {
		return err
	}
	mirrored, _ := res.RowsAffected()

	res, err = tx.Exec(`
		INSERT OR IGNORE INTO friendships (user_id, friend_id)
		SELECT r.sender_id, r.recipient_id FROM friend_requests r WHERE r.status = 'accepted'
		UNION
		SELECT r.recipient_id, r.sender_id FROM friend_requests r WHERE r.status = 'accepted'
	`)
	if err != nil {
		return err
	}
	derived, _ := res.RowsAffected()

	res, err = tx.Exec(`
		DELETE FROM friendships
		WHERE EXISTS (
			SELECT 1 FROM blocks b
			WHERE (b.blocker_id = friendships.user_id AND b.blocked_id = friendships.friend_id)
			   OR (b.blocker_id = friendships.friend_id AND b.blocked_id = friendships.user_id)
		)
	`)
	if err != nil {
		return err
	}
	removed, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return err
	}

	if mirrored+derived+removed > 0 {
		log.Warn().
			Int64("mirrored", mirrored).
			Int64("derived", derived).
			Int64("removed_blocked", removed).
			Msg("Reconciler: repaired friendship rows")
	}
	return nil
}

// PurgeExpiredResetTokens clears reset tokens whose expiry has passed
// without being used.
func (r *Reconciler) PurgeExpiredResetTokens() error {
	res, err := r.db.Exec(
		"UPDATE users SET reset_token_hash = NULL, reset_token_expires = NULL WHERE reset_token_hash IS NOT NULL AND reset_token_expires <= ?",
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	if purged, _ := res.RowsAffected(); purged > 0 {
		log.Info().Int64("purged", purged).Msg("Reconciler: cleared expired reset tokens")
	}
	return nil
}
