package tracking

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"droscher.com/DramGargoyle/pkg/model"
)

type RecordPourInput struct {
	BottleID  uint
	Amount    float64
	Rating    *float64
	Cost      *float64
	Note      string
	SessionID *uint
	PouredAt  *time.Time
}

// RecordPour validates and commits one pour: creates the canonical Pour row,
// subtracts the poured volume from the bottle's fill level, flips the bottle
// to finished when the level hits zero, and recalculates the owning session's
// totals. Pouring requires an opened bottle; unopened bottles must go through
// OpenBottle first.
func (t *Tracker) RecordPour(ctx context.Context, requester *model.User, input RecordPourInput) (*model.Pour, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: pour amount must be positive, got %.2f", ErrInvalidInput, input.Amount)
	}

	if input.Rating != nil && (*input.Rating < 0 || *input.Rating > 10) {
		return nil, fmt.Errorf("%w: rating must be between 0 and 10, got %.1f", ErrInvalidInput, *input.Rating)
	}

	if input.Cost != nil && *input.Cost < 0 {
		return nil, fmt.Errorf("%w: cost must not be negative", ErrInvalidInput)
	}

	pouredAt := time.Now().UTC()
	if input.PouredAt != nil {
		pouredAt = input.PouredAt.UTC()
	}

	var created *model.Pour

	err := t.store.InTransaction(ctx, func(tx Store) error {
		bottle, err := t.lockOwnedBottle(ctx, tx, input.BottleID, requester)
		if err != nil {
			return err
		}

		switch bottle.Status {
		case model.StatusUnopened:
			return fmt.Errorf("%w: bottle must be opened before pouring", ErrInvalidState)
		case model.StatusFinished:
			return fmt.Errorf("%w: bottle is already finished", ErrInvalidState)
		case model.StatusOpened:
		}

		sessionID, err := t.resolveSession(ctx, tx, requester, input.SessionID, pouredAt)
		if err != nil {
			return err
		}

		created, err = tx.CreatePour(ctx, model.Pour{
			OwnerID:   requester.ID,
			BottleID:  bottle.ID,
			SessionID: &sessionID,
			Amount:    input.Amount,
			Rating:    input.Rating,
			Cost:      input.Cost,
			Note:      input.Note,
			PouredAt:  pouredAt,
		})
		if err != nil {
			return err
		}

		newLevel := bottle.FillLevel - t.ouncesToPercent(input.Amount)
		note := fmt.Sprintf("pour of %.2f oz", input.Amount)

		if err = adjustFillLevel(ctx, tx, bottle, newLevel, model.AdjustmentPour, nil, note); err != nil {
			return err
		}

		if bottle.FillLevel <= 0 {
			finishBottle(bottle)
		}

		updated, err := tx.UpdateBottle(ctx, bottle)
		if err != nil {
			return err
		}

		if err = t.recalculateSession(ctx, tx, sessionID); err != nil {
			return err
		}

		created.Bottle = *updated

		return nil
	})
	if err != nil {
		return nil, err
	}

	t.logger.Info("recorded pour",
		zap.Uint("pour_id", created.ID),
		zap.Uint("bottle_id", created.BottleID),
		zap.Float64("amount", created.Amount),
		zap.Float64("fill_level", created.Bottle.FillLevel))

	return created, nil
}

// OpenBottle is the only unopened -> opened transition. Pour recording never
// opens a bottle implicitly.
func (t *Tracker) OpenBottle(ctx context.Context, requester *model.User, bottleID uint) (*model.Bottle, error) {
	var opened *model.Bottle

	err := t.store.InTransaction(ctx, func(tx Store) error {
		bottle, err := t.lockOwnedBottle(ctx, tx, bottleID, requester)
		if err != nil {
			return err
		}

		if bottle.Status != model.StatusUnopened {
			return fmt.Errorf("%w: bottle is already %s", ErrInvalidState, bottle.Status)
		}

		now := time.Now().UTC()
		bottle.Status = model.StatusOpened
		bottle.OpenedAt = &now
		bottle.FillLevel = 100

		opened, err = tx.UpdateBottle(ctx, bottle)

		return err
	})
	if err != nil {
		return nil, err
	}

	t.logger.Info("opened bottle", zap.Uint("bottle_id", bottleID))

	return opened, nil
}

// GetBottlePours serves the "recent pours" view straight from the canonical
// pour table; there is no denormalized copy on the bottle to fall out of sync.
func (t *Tracker) GetBottlePours(ctx context.Context, requester *model.User, bottleID uint) ([]*model.Pour, error) {
	bottle, err := t.store.GetBottleByID(ctx, bottleID)
	if err != nil {
		return nil, notFoundOr(err)
	}

	if bottle.OwnerID != requester.ID {
		return nil, fmt.Errorf("%w: bottle %d", ErrNotFound, bottleID)
	}

	return t.store.GetPoursForBottle(ctx, bottleID)
}
