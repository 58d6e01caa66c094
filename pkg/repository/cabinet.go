package repository

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"droscher.com/DramGargoyle/pkg/model"
)

func (r *Repository) AddCabinet(ctx context.Context, name string, description string, shelves []string, owner model.User) (*model.Cabinet, error) {
	cabinet := model.Cabinet{
		Name:        name,
		Description: description,
		OwnerID:     owner.ID,
		Shelves:     make([]model.ShelfInCabinet, 0, len(shelves)),
	}

	for _, shelf := range shelves {
		cabinet.Shelves = append(cabinet.Shelves, model.ShelfInCabinet{Name: shelf})
	}

	if result := r.DB.WithContext(ctx).Create(&cabinet); result.Error != nil {
		return nil, result.Error
	}

	return &cabinet, nil
}

func (r *Repository) GetCabinetsForUser(ctx context.Context, user model.User) ([]*model.Cabinet, error) {
	var cabinets []*model.Cabinet

	result := r.DB.WithContext(ctx).Where("owner_id = ?", user.ID).
		Joins("Owner").
		Preload("Shelves").
		Find(&cabinets)
	if result.Error != nil {
		r.Logger.Error("error getting cabinets for user", zap.Uint("user_id", user.ID), zap.Error(result.Error))

		return nil, result.Error
	}

	return cabinets, nil
}

func (r *Repository) GetCabinetByID(ctx context.Context, cabinetID uint) (*model.Cabinet, error) {
	var cabinet model.Cabinet

	result := r.DB.WithContext(ctx).
		Joins("Owner").
		Preload("Shelves").
		First(&cabinet, cabinetID)
	if result.Error != nil {
		return nil, result.Error
	}

	return &cabinet, nil
}

func (r *Repository) AddBottle(ctx context.Context, bottle model.Bottle) (*model.Bottle, error) {
	if result := r.DB.WithContext(ctx).Create(&bottle); result.Error != nil {
		return nil, result.Error
	}

	return &bottle, nil
}

func (r *Repository) GetBottleByID(ctx context.Context, bottleID uint) (*model.Bottle, error) {
	var bottle model.Bottle

	result := r.DB.WithContext(ctx).
		Joins("Whiskey").
		Joins("Shelf").
		First(&bottle, bottleID)
	if result.Error != nil {
		return nil, result.Error
	}

	return &bottle, nil
}

// GetBottleForUpdate locks the bottle row for the duration of the enclosing
// transaction. Every read-modify-write of the fill level goes through this so
// two rapid requests from the same user cannot interleave.
func (r *Repository) GetBottleForUpdate(ctx context.Context, bottleID uint) (*model.Bottle, error) {
	var bottle model.Bottle

	result := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&bottle, bottleID)
	if result.Error != nil {
		return nil, result.Error
	}

	return &bottle, nil
}

func (r *Repository) UpdateBottle(ctx context.Context, bottle *model.Bottle) (*model.Bottle, error) {
	if result := r.DB.WithContext(ctx).Save(bottle); result.Error != nil {
		return nil, result.Error
	}

	return bottle, nil
}

func (r *Repository) GetCabinetBottles(ctx context.Context, cabinetID uint) ([]*model.Bottle, error) {
	var bottles []*model.Bottle

	result := r.DB.WithContext(ctx).
		Joins("Whiskey").
		Joins("Shelf").
		Joins("Cabinet").
		Preload("Whiskey.Distillery").
		Preload("Whiskey.Style").
		Where("bottles.cabinet_id = ?", cabinetID).
		Find(&bottles)
	if result.Error != nil {
		return nil, result.Error
	}

	return bottles, nil
}

func (r *Repository) GetCabinetStats(ctx context.Context, cabinetID uint) (*model.CabinetStats, error) {
	var stats model.CabinetStats

	result := r.DB.WithContext(ctx).Table("bottles as bo").
		Select("count(bo.id) as bottle_count, "+
			"count(distinct bo.whiskey_id) as unique_count, "+
			"count(distinct w.distillery_id) as distillery_count, "+
			"sum(case when bo.status = 'unopened' then 1 else 0 end) as unopened_count, "+
			"sum(case when bo.status = 'opened' then 1 else 0 end) as opened_count, "+
			"sum(case when bo.status = 'finished' then 1 else 0 end) as finished_count, "+
			"avg(w.proof) as average_proof, "+
			"avg(w.community_rating) as average_rating, "+
			"sum(bo.fill_level) / 100 as remaining_volume").
		Joins("INNER JOIN whiskeys w on w.id = bo.whiskey_id").
		Where("cabinet_id = ?", cabinetID).
		Where("bo.deleted_at is null").
		Scan(&stats)

	if result.Error != nil {
		return nil, result.Error
	}

	stats.CabinetID = cabinetID

	return &stats, nil
}

// AppendFillLevelAdjustment writes one history row. History is append-only;
// nothing in the codebase updates or deletes individual rows outside a full
// recalculation.
func (r *Repository) AppendFillLevelAdjustment(ctx context.Context, adjustment model.FillLevelAdjustment) error {
	result := r.DB.WithContext(ctx).Create(&adjustment)

	return result.Error
}

func (r *Repository) GetFillLevelHistory(ctx context.Context, bottleID uint) ([]*model.FillLevelAdjustment, error) {
	var history []*model.FillLevelAdjustment

	result := r.DB.WithContext(ctx).
		Where("bottle_id = ?", bottleID).
		Order("created_at asc, id asc").
		Find(&history)
	if result.Error != nil {
		return nil, result.Error
	}

	return history, nil
}

// ClearFillLevelHistory removes a bottle's history rows ahead of the single
// summary entry a recalculation writes.
func (r *Repository) ClearFillLevelHistory(ctx context.Context, bottleID uint) error {
	result := r.DB.WithContext(ctx).
		Where("bottle_id = ?", bottleID).
		Delete(&model.FillLevelAdjustment{})

	return result.Error
}
