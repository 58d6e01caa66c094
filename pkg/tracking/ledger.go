package tracking

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"droscher.com/DramGargoyle/pkg/model"
)

// adjustFillLevel is the single write path for a bottle's fill level. It
// clamps the new level to [0,100], appends one history row recording
// previous -> new, and for manual adjustments stamps the manual-override
// marker. Domain checks (ownership, bottle status) belong to the callers.
func adjustFillLevel(ctx context.Context, tx Store, bottle *model.Bottle, newLevel float64, kind model.AdjustmentKind, reason *model.AdjustmentReason, note string) error {
	newLevel = clampLevel(newLevel)

	err := tx.AppendFillLevelAdjustment(ctx, model.FillLevelAdjustment{
		BottleID:      bottle.ID,
		PreviousLevel: bottle.FillLevel,
		NewLevel:      newLevel,
		Kind:          kind,
		Note:          note,
	})
	if err != nil {
		return err
	}

	bottle.FillLevel = newLevel

	if kind == model.AdjustmentManual {
		now := time.Now().UTC()
		bottle.LastManualLevel = &newLevel
		bottle.LastManualAt = &now
		bottle.LastManualReason = reason
	}

	return nil
}

// AdjustFillLevel applies an explicit user correction: evaporation, a shared
// bottle, or a plain fix. The override takes precedence over any later
// recompute until the user asks for one.
func (t *Tracker) AdjustFillLevel(ctx context.Context, requester *model.User, bottleID uint, newLevel float64, reason model.AdjustmentReason, notes string) (*model.Bottle, error) {
	if newLevel < 0 || newLevel > 100 {
		return nil, fmt.Errorf("%w: fill level must be between 0 and 100, got %.2f", ErrInvalidInput, newLevel)
	}

	if !validReason(reason) {
		return nil, fmt.Errorf("%w: unknown adjustment reason %q", ErrInvalidInput, reason)
	}

	var updated *model.Bottle

	err := t.store.InTransaction(ctx, func(tx Store) error {
		bottle, err := t.lockOwnedBottle(ctx, tx, bottleID, requester)
		if err != nil {
			return err
		}

		if bottle.Status != model.StatusOpened {
			return fmt.Errorf("%w: fill level can only be adjusted on an opened bottle, status is %s", ErrInvalidState, bottle.Status)
		}

		note := string(reason)
		if len(notes) > 0 {
			note = fmt.Sprintf("%s: %s", reason, notes)
		}

		if err = adjustFillLevel(ctx, tx, bottle, newLevel, model.AdjustmentManual, &reason, note); err != nil {
			return err
		}

		if bottle.FillLevel <= 0 {
			finishBottle(bottle)
		}

		updated, err = tx.UpdateBottle(ctx, bottle)

		return err
	})
	if err != nil {
		return nil, err
	}

	t.logger.Info("manual fill-level adjustment",
		zap.Uint("bottle_id", bottleID),
		zap.Float64("level", updated.FillLevel),
		zap.String("reason", string(reason)))

	return updated, nil
}

// RecalculateFillLevel rebuilds the fill level from scratch: 100 minus every
// pour replayed in chronological order. It discards the manual-override
// marker and collapses the history into a single recalculation entry. Only
// an explicit user action reaches here; nothing triggers it automatically,
// so a manual correction is never silently clobbered.
func (t *Tracker) RecalculateFillLevel(ctx context.Context, requester *model.User, bottleID uint) (previous float64, current float64, bottle *model.Bottle, err error) {
	err = t.store.InTransaction(ctx, func(tx Store) error {
		locked, txErr := t.lockOwnedBottle(ctx, tx, bottleID, requester)
		if txErr != nil {
			return txErr
		}

		if locked.Status == model.StatusUnopened {
			return fmt.Errorf("%w: an unopened bottle has no fill level to recalculate", ErrInvalidState)
		}

		pours, txErr := tx.GetPoursForBottle(ctx, bottleID)
		if txErr != nil {
			return txErr
		}

		level := 100.0
		for _, pour := range pours {
			level = clampLevel(level - t.ouncesToPercent(pour.Amount))
		}

		previous = locked.FillLevel

		if txErr = tx.ClearFillLevelHistory(ctx, bottleID); txErr != nil {
			return txErr
		}

		note := fmt.Sprintf("recalculated from %d pours", len(pours))
		if txErr = adjustFillLevel(ctx, tx, locked, level, model.AdjustmentRecalculation, nil, note); txErr != nil {
			return txErr
		}

		locked.LastManualLevel = nil
		locked.LastManualAt = nil
		locked.LastManualReason = nil

		if locked.FillLevel <= 0 {
			finishBottle(locked)
		} else if locked.Status == model.StatusFinished {
			reopenBottle(locked)
		}

		bottle, txErr = tx.UpdateBottle(ctx, locked)
		current = level

		return txErr
	})
	if err != nil {
		return 0, 0, nil, err
	}

	t.logger.Info("recalculated fill level",
		zap.Uint("bottle_id", bottleID),
		zap.Float64("previous", previous),
		zap.Float64("current", current))

	return previous, current, bottle, nil
}

// GetFillLevelHistory returns the audit trail, oldest entry first.
func (t *Tracker) GetFillLevelHistory(ctx context.Context, requester *model.User, bottleID uint) ([]*model.FillLevelAdjustment, error) {
	bottle, err := t.store.GetBottleByID(ctx, bottleID)
	if err != nil {
		return nil, notFoundOr(err)
	}

	if bottle.OwnerID != requester.ID {
		return nil, fmt.Errorf("%w: bottle %d", ErrNotFound, bottleID)
	}

	return t.store.GetFillLevelHistory(ctx, bottleID)
}

func (t *Tracker) lockOwnedBottle(ctx context.Context, tx Store, bottleID uint, requester *model.User) (*model.Bottle, error) {
	bottle, err := tx.GetBottleForUpdate(ctx, bottleID)
	if err != nil {
		return nil, notFoundOr(err)
	}

	// A foreign bottle reads as absent rather than forbidden, so callers
	// cannot probe for other users' bottle ids.
	if bottle.OwnerID != requester.ID {
		return nil, fmt.Errorf("%w: bottle %d", ErrNotFound, bottleID)
	}

	return bottle, nil
}

func finishBottle(bottle *model.Bottle) {
	now := time.Now().UTC()
	bottle.Status = model.StatusFinished
	bottle.FinishedAt = &now
}

func reopenBottle(bottle *model.Bottle) {
	bottle.Status = model.StatusOpened
	bottle.FinishedAt = nil
}

func validReason(reason model.AdjustmentReason) bool {
	switch reason {
	case model.ReasonEvaporation, model.ReasonShared, model.ReasonCorrection, model.ReasonOther:
		return true
	}

	return false
}
