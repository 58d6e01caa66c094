package tracking

import (
	"context"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// RatingResult reports one community-rating batch run.
type RatingResult struct {
	WhiskeysUpdated int64
	WhiskeysCleared int64
	Elapsed         time.Duration
}

// RecalculateCommunityRatings recomputes every whiskey's community rating
// from the full corpus of rated pours. It is a pure recompute: a second run
// over unchanged data writes identical values. Whiskeys that lost their last
// rated pour have the rating fields cleared to null, never zeroed. Per-row
// write failures are logged and skipped so one bad row cannot sink the batch;
// a failed row keeps its previously stored value until the next run. Clearing
// is reserved for whiskeys with no rated pours left.
func (t *Tracker) RecalculateCommunityRatings(ctx context.Context) (*RatingResult, error) {
	start := time.Now()

	rows, err := t.store.GetCommunityRatingRows(ctx)
	if err != nil {
		return nil, err
	}

	var (
		errs    error
		updated int64
	)

	keepIDs := make([]uint, 0, len(rows))

	for _, row := range rows {
		// Failed writes stay in keepIDs: a whiskey with rated pours is
		// never cleared, even when its update did not land this run.
		keepIDs = append(keepIDs, row.WhiskeyID)

		if writeErr := t.store.UpdateCommunityRating(ctx, row); writeErr != nil {
			t.logger.Error("failed to update community rating",
				zap.Uint("whiskey_id", row.WhiskeyID),
				zap.Error(writeErr))
			multierr.AppendInto(&errs, writeErr)

			continue
		}

		updated++
	}

	cleared, err := t.store.ClearCommunityRatings(ctx, keepIDs)
	if multierr.AppendInto(&errs, err) {
		t.logger.Error("failed to clear stale community ratings", zap.Error(err))
	}

	result := &RatingResult{
		WhiskeysUpdated: updated,
		WhiskeysCleared: cleared,
		Elapsed:         time.Since(start),
	}

	t.logger.Info("community rating aggregation complete",
		zap.Int64("updated", result.WhiskeysUpdated),
		zap.Int64("cleared", result.WhiskeysCleared),
		zap.Duration("elapsed", result.Elapsed))

	return result, errs
}
