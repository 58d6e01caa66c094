package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"droscher.com/DramGargoyle/pkg/model"
)

func (r *Repository) CreatePour(ctx context.Context, pour model.Pour) (*model.Pour, error) {
	if result := r.DB.WithContext(ctx).Create(&pour); result.Error != nil {
		return nil, result.Error
	}

	return &pour, nil
}

func (r *Repository) GetPourByID(ctx context.Context, pourID uint) (*model.Pour, error) {
	var pour model.Pour

	result := r.DB.WithContext(ctx).First(&pour, pourID)
	if result.Error != nil {
		return nil, result.Error
	}

	return &pour, nil
}

// DeletePour reports gorm.ErrRecordNotFound when the row was already gone.
// Callers that read the pour before deleting rely on this to detect a
// concurrent deletion of the same row.
func (r *Repository) DeletePour(ctx context.Context, pourID uint) error {
	result := r.DB.WithContext(ctx).Delete(&model.Pour{}, pourID)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// GetPoursForBottle returns a bottle's pours oldest first, the order a
// fill-level recalculation replays them in.
func (r *Repository) GetPoursForBottle(ctx context.Context, bottleID uint) ([]*model.Pour, error) {
	var pours []*model.Pour

	result := r.DB.WithContext(ctx).
		Where("bottle_id = ?", bottleID).
		Order("poured_at asc, id asc").
		Find(&pours)
	if result.Error != nil {
		return nil, result.Error
	}

	return pours, nil
}

func (r *Repository) GetBottleStats(ctx context.Context, bottleID uint) (*model.BottleStats, error) {
	var stats model.BottleStats

	result := r.DB.WithContext(ctx).Table("pours").
		Select("count(id) as pour_count, "+
			"coalesce(sum(amount), 0) as total_poured, "+
			"coalesce(avg(rating), 0) as average_rating").
		Where("bottle_id = ?", bottleID).
		Where("deleted_at is null").
		Scan(&stats)
	if result.Error != nil {
		return nil, result.Error
	}

	stats.BottleID = bottleID

	return &stats, nil
}

func (r *Repository) CreateSession(ctx context.Context, session model.PourSession) (*model.PourSession, error) {
	if result := r.DB.WithContext(ctx).Create(&session); result.Error != nil {
		return nil, result.Error
	}

	return &session, nil
}

func (r *Repository) GetSessionByID(ctx context.Context, sessionID uint) (*model.PourSession, error) {
	var session model.PourSession

	result := r.DB.WithContext(ctx).Preload("Tags").First(&session, sessionID)
	if result.Error != nil {
		return nil, result.Error
	}

	return &session, nil
}

func (r *Repository) GetSessionsForUser(ctx context.Context, user model.User) ([]*model.PourSession, error) {
	var sessions []*model.PourSession

	result := r.DB.WithContext(ctx).
		Where("owner_id = ?", user.ID).
		Preload("Tags").
		Order("date desc").
		Find(&sessions)
	if result.Error != nil {
		return nil, result.Error
	}

	return sessions, nil
}

// GetSessionForDate finds the owner's session for a calendar day. Used by the
// find-or-create grouping policy, so gorm.ErrRecordNotFound maps to nil, nil.
func (r *Repository) GetSessionForDate(ctx context.Context, ownerID uint, date time.Time) (*model.PourSession, error) {
	var session model.PourSession

	result := r.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Where("date = ?", date).
		Order("id asc").
		First(&session)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, result.Error
	}

	return &session, nil
}

func (r *Repository) UpdateSession(ctx context.Context, session *model.PourSession) (*model.PourSession, error) {
	if result := r.DB.WithContext(ctx).Save(session); result.Error != nil {
		return nil, result.Error
	}

	return session, nil
}

func (r *Repository) GetPoursForSession(ctx context.Context, sessionID uint) ([]*model.Pour, error) {
	var pours []*model.Pour

	result := r.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("poured_at asc, id asc").
		Find(&pours)
	if result.Error != nil {
		return nil, result.Error
	}

	return pours, nil
}

// GetSessionTotals recomputes a session's derived fields from its child pours
// in one aggregate query. The rated and costed subsets carry their own counts
// so the caller can tell "no rated pours" apart from "average of zero".
func (r *Repository) GetSessionTotals(ctx context.Context, sessionID uint) (*model.SessionTotals, error) {
	var totals model.SessionTotals

	result := r.DB.WithContext(ctx).Table("pours").
		Select("count(id) as pour_count, "+
			"coalesce(sum(amount), 0) as total_amount, "+
			"coalesce(sum(rating), 0) as rating_sum, "+
			"count(rating) as rated_count, "+
			"coalesce(sum(cost), 0) as cost_sum, "+
			"count(cost) as costed_count").
		Where("session_id = ?", sessionID).
		Where("deleted_at is null").
		Scan(&totals)
	if result.Error != nil {
		return nil, result.Error
	}

	return &totals, nil
}

// GetOrphanedPours returns pours that still lack a session reference and are
// older than the staleness cutoff.
func (r *Repository) GetOrphanedPours(ctx context.Context, olderThan time.Time) ([]*model.Pour, error) {
	var pours []*model.Pour

	result := r.DB.WithContext(ctx).
		Where("session_id is null").
		Where("created_at < ?", olderThan).
		Order("id asc").
		Find(&pours)
	if result.Error != nil {
		return nil, result.Error
	}

	return pours, nil
}

func (r *Repository) CountOrphanedPours(ctx context.Context, olderThan time.Time) (int64, error) {
	var count int64

	result := r.DB.WithContext(ctx).Model(&model.Pour{}).
		Where("session_id is null").
		Where("created_at < ?", olderThan).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}

func (r *Repository) AssignPourSession(ctx context.Context, pourID uint, sessionID uint) error {
	result := r.DB.WithContext(ctx).Model(&model.Pour{}).
		Where("id = ?", pourID).
		Update("session_id", sessionID)

	return result.Error
}
