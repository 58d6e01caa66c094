package tracking

import (
	"context"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"droscher.com/DramGargoyle/pkg/model"
)

// SweepResult reports one orphan-reconciliation run. StillOrphaned must be
// zero on healthy data; anything else is an integrity defect to alert on.
type SweepResult struct {
	Before        int64
	Repaired      int64
	StillOrphaned int64
}

// SweepOrphans repairs pours that have sat without a session reference for
// longer than the staleness window, assigning each one through the same
// grouping policy pour recording uses. The sweep is idempotent: on
// already-consistent data it finds nothing and changes nothing. Failures on
// individual pours are logged and skipped; the sweep keeps going, since rows
// are independent.
func (t *Tracker) SweepOrphans(ctx context.Context) (*SweepResult, error) {
	cutoff := time.Now().UTC().Add(-t.orphanWindow)

	before, err := t.store.CountOrphanedPours(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	orphans, err := t.store.GetOrphanedPours(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	var (
		errs     error
		repaired int64
	)

	for _, orphan := range orphans {
		if repairErr := t.repairOrphan(ctx, orphan); repairErr != nil {
			t.logger.Error("failed to repair orphaned pour",
				zap.Uint("pour_id", orphan.ID),
				zap.Error(repairErr))
			multierr.AppendInto(&errs, repairErr)

			continue
		}

		repaired++
	}

	after, err := t.store.CountOrphanedPours(ctx, cutoff)
	if err != nil {
		return nil, multierr.Append(errs, err)
	}

	result := &SweepResult{Before: before, Repaired: repaired, StillOrphaned: after}

	if after > 0 {
		t.logger.Error("pours still orphaned after repair sweep",
			zap.Int64("count", after),
			zap.Error(ErrIntegrity))
	} else {
		t.logger.Info("orphan sweep complete",
			zap.Int64("before", before),
			zap.Int64("repaired", repaired))
	}

	return result, errs
}

func (t *Tracker) repairOrphan(ctx context.Context, orphan *model.Pour) error {
	return t.store.InTransaction(ctx, func(tx Store) error {
		owner := &model.User{}
		owner.ID = orphan.OwnerID

		sessionID, err := t.resolveSession(ctx, tx, owner, nil, orphan.PouredAt)
		if err != nil {
			return err
		}

		if err = tx.AssignPourSession(ctx, orphan.ID, sessionID); err != nil {
			return err
		}

		return t.recalculateSession(ctx, tx, sessionID)
	})
}
