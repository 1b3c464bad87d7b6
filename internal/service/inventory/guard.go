package inventory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Patrick7854/kgl-groceries-system/internal/domain/models"
	"github.com/Patrick7854/kgl-groceries-system/internal/repository/mongodb"
)

// Guard enforces the one hard invariant of the system: committed sales never
// exceed the available tonnage of a lot, no matter how many requests race.
// It holds no state; serialization happens inside the store's atomic
// conditional update, so any number of Guard instances (and any number of
// processes) are safe against the same database.
type Guard struct {
	repo   mongodb.Repository
	logger *zap.Logger
}

// NewGuard wires a guard over the ledger store.
func NewGuard(repo mongodb.Repository, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{repo: repo, logger: logger}
}

// Reserve draws quantity kilograms from the most recently created lot for
// (produce, branch). The decrement is a single compare-and-decrement at the
// store, so concurrent callers serialize there: when two requests together
// exceed the remaining stock, exactly one fails with InsufficientStockError
// carrying the tonnage observed when its reservation was evaluated.
//
// One attempt per call. A lost race is reported, never retried here; retry
// policy belongs to the caller.
func (g *Guard) Reserve(ctx context.Context, produce models.ProduceKind, branch models.Branch, quantity int64) (models.ProduceLot, error) {
	if quantity < 1 {
		v := &models.ValidationError{}
		v.Add("quantity", "must be at least 1kg")
		return models.ProduceLot{}, v
	}

	lot, err := g.repo.LatestLot(ctx, produce, branch)
	if err != nil {
		return models.ProduceLot{}, err
	}

	if lot.Tonnage < 0 {
		// Unreachable if every writer goes through ReserveTonnage. Surface it
		// loudly rather than papering over corrupt stock figures.
		g.logger.Error("lot has negative tonnage",
			zap.String("lot_id", lot.ID.Hex()),
			zap.Int64("tonnage", lot.Tonnage))
		return models.ProduceLot{}, fmt.Errorf("lot %s: %w", lot.ID.Hex(), models.ErrInvariantViolation)
	}

	reserved, err := g.repo.ReserveTonnage(ctx, lot.ID, quantity)
	if err != nil {
		return models.ProduceLot{}, err
	}
	if !reserved {
		g.logger.Info("reservation rejected",
			zap.String("produce", string(produce)),
			zap.String("branch", string(branch)),
			zap.Int64("requested", quantity),
			zap.Int64("available", lot.Tonnage))
		return models.ProduceLot{}, &models.InsufficientStockError{Available: lot.Tonnage}
	}

	lot.Tonnage -= quantity
	g.logger.Debug("tonnage reserved",
		zap.String("lot_id", lot.ID.Hex()),
		zap.Int64("quantity", quantity),
		zap.Int64("remaining", lot.Tonnage))
	return lot, nil
}

// Release returns a previously reserved quantity to its lot. It exists solely
// so the transaction coordinator can compensate when the transaction record
// cannot be persisted after a successful reservation.
func (g *Guard) Release(ctx context.Context, lot models.ProduceLot, quantity int64) error {
	if err := g.repo.ReleaseTonnage(ctx, lot.ID, quantity); err != nil {
		// Stock is now decremented with no matching transaction. This is the
		// one state the system promises never to keep, so shout.
		g.logger.Error("failed to release reservation, stock figures need manual adjustment",
			zap.String("lot_id", lot.ID.Hex()),
			zap.Int64("quantity", quantity),
			zap.Error(err))
		return fmt.Errorf("release reservation on lot %s: %w", lot.ID.Hex(), err)
	}
	return nil
}
