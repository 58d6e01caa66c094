package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"droscher.com/DramGargoyle/pkg/model"
)

var ErrDistilleryNotFound = errors.New("distillery not found")

func (r *Repository) AddWhiskey(ctx context.Context, whiskey model.Whiskey) (*model.Whiskey, error) {
	result := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}, {Name: "distillery_id"}},
		UpdateAll: true,
	}).Create(&whiskey)

	if result.Error != nil {
		return nil, result.Error
	}

	return &whiskey, nil
}

func (r *Repository) GetWhiskeyByID(ctx context.Context, whiskeyID uint) (*model.Whiskey, error) {
	var whiskey model.Whiskey

	result := r.DB.WithContext(ctx).
		Joins("Distillery").
		Joins("Style").
		First(&whiskey, whiskeyID)
	if result.Error != nil {
		return nil, result.Error
	}

	return &whiskey, nil
}

func (r *Repository) FindDistilleryByExternalSource(ctx context.Context, externalID uint64, externalSource string) (*model.Distillery, error) {
	distillery := &model.Distillery{}
	result := r.DB.WithContext(ctx).Model(&distillery).
		Where(`external_id = ? AND external_source = ?`, externalID, externalSource).
		First(&distillery)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrDistilleryNotFound
		}

		return nil, result.Error
	}

	return distillery, nil
}

func (r *Repository) AddWhiskeyStyle(ctx context.Context, style string) (*model.WhiskeyStyle, error) {
	whiskeyStyle := model.WhiskeyStyle{Name: style}
	if result := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&whiskeyStyle); result.Error != nil {
		return nil, result.Error
	}

	if whiskeyStyle.ID == 0 {
		if result := r.DB.WithContext(ctx).Where("name = ?", style).First(&whiskeyStyle); result.Error != nil {
			return nil, result.Error
		}
	}

	return &whiskeyStyle, nil
}

func (r *Repository) GetTagsByNames(ctx context.Context, names []string) (map[string]model.Tag, error) {
	var tags []*model.Tag

	if result := r.DB.WithContext(ctx).Where("tag in (?)", names).Find(&tags); result.Error != nil {
		return nil, result.Error
	}

	tagsByName := make(map[string]model.Tag, len(tags))

	for index := range tags {
		tag := tags[index]
		tagsByName[tag.Tag] = *tag
	}

	return tagsByName, nil
}

// GetCommunityRatingRows recomputes each whiskey's community rating from the
// full corpus of rated pours, joined through the owning bottle. Rounding to
// one decimal happens in SQL so the bulk write is a straight copy.
func (r *Repository) GetCommunityRatingRows(ctx context.Context) ([]model.CommunityRatingRow, error) {
	var rows []model.CommunityRatingRow

	result := r.DB.WithContext(ctx).Table("pours p").
		Select("b.whiskey_id as whiskey_id, "+
			"count(p.rating) as rating_count, "+
			"round(avg(p.rating)::numeric, 1) as mean_rating").
		Joins("INNER JOIN bottles b on b.id = p.bottle_id").
		Where("p.rating is not null").
		Where("p.deleted_at is null").
		Group("b.whiskey_id").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

func (r *Repository) UpdateCommunityRating(ctx context.Context, row model.CommunityRatingRow) error {
	result := r.DB.WithContext(ctx).Model(&model.Whiskey{}).
		Where("id = ?", row.WhiskeyID).
		Updates(map[string]interface{}{
			"community_rating":       row.MeanRating,
			"community_rating_count": row.RatingCount,
		})

	return result.Error
}

// ClearCommunityRatings unsets the rating fields of every whiskey not in
// keepIDs. A whiskey with no rated pours must read as "no data", not zero.
func (r *Repository) ClearCommunityRatings(ctx context.Context, keepIDs []uint) (int64, error) {
	query := r.DB.WithContext(ctx).Model(&model.Whiskey{}).
		Where("community_rating is not null")

	if len(keepIDs) > 0 {
		query = query.Where("id not in (?)", keepIDs)
	}

	result := query.Updates(map[string]interface{}{
		"community_rating":       nil,
		"community_rating_count": nil,
	})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
