package tracking

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"droscher.com/DramGargoyle/pkg/model"
)

// DeletePourResult reports the state the reconciliation chain left behind.
type DeletePourResult struct {
	Bottle      *model.Bottle
	BottleStats *model.BottleStats
	Session     *model.PourSession
}

// DeletePour reverses a pour end to end: removes the canonical row, restores
// the equivalent fill-level percentage, reopens the bottle if the deletion
// un-finished it, and recomputes bottle and session aggregates. The whole
// chain runs in one transaction; a failure at any step rolls back every
// earlier one.
//
// The restore is written as a manual correction rather than a pour-kind
// entry: the forward pour no longer exists, so the history should show an
// explicit correction with a note naming the deleted amount.
func (t *Tracker) DeletePour(ctx context.Context, requester *model.User, pourID uint) (*DeletePourResult, error) {
	result := &DeletePourResult{}

	err := t.store.InTransaction(ctx, func(tx Store) error {
		pour, err := tx.GetPourByID(ctx, pourID)
		if err != nil {
			return notFoundOr(err)
		}

		if pour.OwnerID != requester.ID {
			return fmt.Errorf("%w: pour %d belongs to another user", ErrForbidden, pourID)
		}

		amount := pour.Amount
		sessionID := pour.SessionID
		bottleID := pour.BottleID

		bottle, err := tx.GetBottleForUpdate(ctx, bottleID)
		if err != nil {
			return notFoundOr(err)
		}

		// The pour is read before the bottle lock is taken, so a racing
		// request may have deleted the row in between. The store reports
		// that as a missing record; the restore below must not run then.
		if err = tx.DeletePour(ctx, pourID); err != nil {
			return notFoundOr(err)
		}

		restored := bottle.FillLevel + t.ouncesToPercent(amount)
		reason := model.ReasonCorrection
		note := fmt.Sprintf("restored after deleting pour of %.2f oz", amount)

		if err = adjustFillLevel(ctx, tx, bottle, restored, model.AdjustmentManual, &reason, note); err != nil {
			return err
		}

		if bottle.Status == model.StatusFinished && bottle.FillLevel > 0 {
			reopenBottle(bottle)
		}

		result.Bottle, err = tx.UpdateBottle(ctx, bottle)
		if err != nil {
			return err
		}

		result.BottleStats, err = tx.GetBottleStats(ctx, bottleID)
		if err != nil {
			return err
		}

		if sessionID != nil {
			if err = t.recalculateSession(ctx, tx, *sessionID); err != nil {
				return err
			}

			// Sessions emptied by the deletion are retained for history.
			result.Session, err = tx.GetSessionByID(ctx, *sessionID)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	t.logger.Info("deleted pour",
		zap.Uint("pour_id", pourID),
		zap.Uint("bottle_id", result.Bottle.ID),
		zap.Float64("fill_level", result.Bottle.FillLevel))

	return result, nil
}
