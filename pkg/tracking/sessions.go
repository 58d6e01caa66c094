package tracking

import (
	"context"
	"fmt"
	"time"

	"go.openly.dev/pointy"

	"droscher.com/DramGargoyle/pkg/model"
)

// resolveSession attaches a pour to exactly one session. An explicit session
// id wins if the caller owns it; otherwise the pour joins the caller's
// session for that calendar day (UTC), created on first use. The policy is
// deterministic and total: every pour ends up with a session.
func (t *Tracker) resolveSession(ctx context.Context, tx Store, requester *model.User, explicitID *uint, pouredAt time.Time) (uint, error) {
	if explicitID != nil {
		session, err := tx.GetSessionByID(ctx, *explicitID)
		if err != nil {
			return 0, notFoundOr(err)
		}

		if session.OwnerID != requester.ID {
			return 0, fmt.Errorf("%w: session %d", ErrNotFound, *explicitID)
		}

		return session.ID, nil
	}

	day := truncateToDay(pouredAt)

	session, err := tx.GetSessionForDate(ctx, requester.ID, day)
	if err != nil {
		return 0, err
	}

	if session != nil {
		return session.ID, nil
	}

	created, err := tx.CreateSession(ctx, model.PourSession{
		OwnerID: requester.ID,
		Date:    day,
		Name:    day.Format("January 2, 2006"),
	})
	if err != nil {
		return 0, err
	}

	return created.ID, nil
}

// recalculateSession rewrites every derived session field from an aggregate
// over the current child pours. It runs after each attach and each detach and
// never increments in place, so repeated runs with no intervening writes are
// a no-op.
func (t *Tracker) recalculateSession(ctx context.Context, tx Store, sessionID uint) error {
	session, err := tx.GetSessionByID(ctx, sessionID)
	if err != nil {
		return notFoundOr(err)
	}

	totals, err := tx.GetSessionTotals(ctx, sessionID)
	if err != nil {
		return err
	}

	session.TotalPours = totals.PourCount
	session.TotalAmount = totals.TotalAmount

	session.AverageRating = nil
	if totals.RatedCount > 0 {
		session.AverageRating = pointy.Float64(roundToTenth(totals.RatingSum / float64(totals.RatedCount)))
	}

	session.TotalCost = nil
	if totals.CostedCount > 0 {
		session.TotalCost = pointy.Float64(totals.CostSum)
	}

	_, err = tx.UpdateSession(ctx, session)

	return err
}

// RecalculateSession is the operator-facing wrapper around the recompute.
func (t *Tracker) RecalculateSession(ctx context.Context, requester *model.User, sessionID uint) (*model.PourSession, error) {
	var session *model.PourSession

	err := t.store.InTransaction(ctx, func(tx Store) error {
		existing, txErr := tx.GetSessionByID(ctx, sessionID)
		if txErr != nil {
			return notFoundOr(txErr)
		}

		if existing.OwnerID != requester.ID {
			return fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
		}

		if txErr = t.recalculateSession(ctx, tx, sessionID); txErr != nil {
			return txErr
		}

		session, txErr = tx.GetSessionByID(ctx, sessionID)

		return txErr
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

func (t *Tracker) GetSession(ctx context.Context, requester *model.User, sessionID uint) (*model.PourSession, []*model.Pour, error) {
	session, err := t.store.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, nil, notFoundOr(err)
	}

	if session.OwnerID != requester.ID {
		return nil, nil, fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
	}

	pours, err := t.store.GetPoursForSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	return session, pours, nil
}
