package tracking_test

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"droscher.com/DramGargoyle/pkg/model"
	"droscher.com/DramGargoyle/pkg/tracking"
)

// memStore is an in-memory tracking.Store. It keeps the same observable
// behavior as the GORM repository (copy-on-read, gorm.ErrRecordNotFound for
// missing rows, ordering of list results) so the tracker can be exercised
// without a database.
type memStore struct {
	bottles  map[uint]*model.Bottle
	pours    map[uint]*model.Pour
	sessions map[uint]*model.PourSession
	history  map[uint][]*model.FillLevelAdjustment
	whiskeys map[uint]*model.Whiskey

	ratingErrs     map[uint]error
	pourDeleteErrs map[uint]error

	nextBottleID     uint
	nextPourID       uint
	nextSessionID    uint
	nextAdjustmentID uint
}

func newMemStore() *memStore {
	return &memStore{
		bottles:        make(map[uint]*model.Bottle),
		pours:          make(map[uint]*model.Pour),
		sessions:       make(map[uint]*model.PourSession),
		history:        make(map[uint][]*model.FillLevelAdjustment),
		whiskeys:       make(map[uint]*model.Whiskey),
		ratingErrs:     make(map[uint]error),
		pourDeleteErrs: make(map[uint]error),
	}
}

func (s *memStore) InTransaction(_ context.Context, fn func(tx tracking.Store) error) error {
	return fn(s)
}

func (s *memStore) addBottle(bottle model.Bottle) *model.Bottle {
	s.nextBottleID++
	bottle.ID = s.nextBottleID
	s.bottles[bottle.ID] = &bottle

	copied := bottle

	return &copied
}

// addPour inserts a row verbatim, CreatedAt included, for seeding orphans.
func (s *memStore) addPour(pour model.Pour) *model.Pour {
	s.nextPourID++
	pour.ID = s.nextPourID
	s.pours[pour.ID] = &pour

	copied := pour

	return &copied
}

func (s *memStore) addWhiskey(whiskey model.Whiskey) *model.Whiskey {
	s.whiskeys[whiskey.ID] = &whiskey

	return &whiskey
}

func (s *memStore) GetBottleByID(_ context.Context, bottleID uint) (*model.Bottle, error) {
	bottle, ok := s.bottles[bottleID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	copied := *bottle

	return &copied, nil
}

func (s *memStore) GetBottleForUpdate(ctx context.Context, bottleID uint) (*model.Bottle, error) {
	return s.GetBottleByID(ctx, bottleID)
}

func (s *memStore) UpdateBottle(_ context.Context, bottle *model.Bottle) (*model.Bottle, error) {
	copied := *bottle
	s.bottles[copied.ID] = &copied

	returned := copied

	return &returned, nil
}

func (s *memStore) AppendFillLevelAdjustment(_ context.Context, adjustment model.FillLevelAdjustment) error {
	s.nextAdjustmentID++
	adjustment.ID = s.nextAdjustmentID
	adjustment.CreatedAt = time.Now().UTC()
	s.history[adjustment.BottleID] = append(s.history[adjustment.BottleID], &adjustment)

	return nil
}

func (s *memStore) GetFillLevelHistory(_ context.Context, bottleID uint) ([]*model.FillLevelAdjustment, error) {
	entries := make([]*model.FillLevelAdjustment, 0, len(s.history[bottleID]))
	for _, entry := range s.history[bottleID] {
		copied := *entry
		entries = append(entries, &copied)
	}

	return entries, nil
}

func (s *memStore) ClearFillLevelHistory(_ context.Context, bottleID uint) error {
	delete(s.history, bottleID)

	return nil
}

func (s *memStore) CreatePour(_ context.Context, pour model.Pour) (*model.Pour, error) {
	s.nextPourID++
	pour.ID = s.nextPourID
	pour.CreatedAt = time.Now().UTC()
	s.pours[pour.ID] = &pour

	copied := pour

	return &copied, nil
}

func (s *memStore) GetPourByID(_ context.Context, pourID uint) (*model.Pour, error) {
	pour, ok := s.pours[pourID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	copied := *pour

	return &copied, nil
}

func (s *memStore) DeletePour(_ context.Context, pourID uint) error {
	if err, ok := s.pourDeleteErrs[pourID]; ok {
		return err
	}

	if _, ok := s.pours[pourID]; !ok {
		return gorm.ErrRecordNotFound
	}

	delete(s.pours, pourID)

	return nil
}

func (s *memStore) GetPoursForBottle(_ context.Context, bottleID uint) ([]*model.Pour, error) {
	return s.sortedPours(func(pour *model.Pour) bool { return pour.BottleID == bottleID }), nil
}

func (s *memStore) GetBottleStats(_ context.Context, bottleID uint) (*model.BottleStats, error) {
	stats := &model.BottleStats{BottleID: bottleID}

	var ratingSum float64

	var rated uint64

	for _, pour := range s.pours {
		if pour.BottleID != bottleID {
			continue
		}

		stats.PourCount++
		stats.TotalPoured += pour.Amount

		if pour.Rating != nil {
			ratingSum += *pour.Rating
			rated++
		}
	}

	if rated > 0 {
		stats.AverageRating = ratingSum / float64(rated)
	}

	return stats, nil
}

func (s *memStore) CreateSession(_ context.Context, session model.PourSession) (*model.PourSession, error) {
	s.nextSessionID++
	session.ID = s.nextSessionID
	s.sessions[session.ID] = &session

	copied := session

	return &copied, nil
}

func (s *memStore) GetSessionByID(_ context.Context, sessionID uint) (*model.PourSession, error) {
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	copied := *session

	return &copied, nil
}

func (s *memStore) GetSessionForDate(_ context.Context, ownerID uint, date time.Time) (*model.PourSession, error) {
	for _, session := range s.sessions {
		if session.OwnerID == ownerID && session.Date.Equal(date) {
			copied := *session

			return &copied, nil
		}
	}

	return nil, nil //nolint:nilnil // absence is not an error here
}

func (s *memStore) UpdateSession(_ context.Context, session *model.PourSession) (*model.PourSession, error) {
	copied := *session
	s.sessions[copied.ID] = &copied

	returned := copied

	return &returned, nil
}

func (s *memStore) GetSessionTotals(_ context.Context, sessionID uint) (*model.SessionTotals, error) {
	totals := &model.SessionTotals{}

	for _, pour := range s.pours {
		if pour.SessionID == nil || *pour.SessionID != sessionID {
			continue
		}

		totals.PourCount++
		totals.TotalAmount += pour.Amount

		if pour.Rating != nil {
			totals.RatingSum += *pour.Rating
			totals.RatedCount++
		}

		if pour.Cost != nil {
			totals.CostSum += *pour.Cost
			totals.CostedCount++
		}
	}

	return totals, nil
}

func (s *memStore) GetPoursForSession(_ context.Context, sessionID uint) ([]*model.Pour, error) {
	return s.sortedPours(func(pour *model.Pour) bool {
		return pour.SessionID != nil && *pour.SessionID == sessionID
	}), nil
}

func (s *memStore) GetOrphanedPours(_ context.Context, olderThan time.Time) ([]*model.Pour, error) {
	return s.sortedPours(func(pour *model.Pour) bool {
		return pour.SessionID == nil && pour.CreatedAt.Before(olderThan)
	}), nil
}

func (s *memStore) CountOrphanedPours(ctx context.Context, olderThan time.Time) (int64, error) {
	orphans, _ := s.GetOrphanedPours(ctx, olderThan)

	return int64(len(orphans)), nil
}

func (s *memStore) AssignPourSession(_ context.Context, pourID uint, sessionID uint) error {
	pour, ok := s.pours[pourID]
	if !ok {
		return gorm.ErrRecordNotFound
	}

	pour.SessionID = &sessionID

	return nil
}

func (s *memStore) GetCommunityRatingRows(_ context.Context) ([]model.CommunityRatingRow, error) {
	sums := make(map[uint]*model.CommunityRatingRow)

	for _, pour := range s.pours {
		if pour.Rating == nil {
			continue
		}

		bottle, ok := s.bottles[pour.BottleID]
		if !ok {
			continue
		}

		row, ok := sums[bottle.WhiskeyID]
		if !ok {
			row = &model.CommunityRatingRow{WhiskeyID: bottle.WhiskeyID}
			sums[bottle.WhiskeyID] = row
		}

		row.RatingCount++
		row.MeanRating += *pour.Rating
	}

	rows := make([]model.CommunityRatingRow, 0, len(sums))

	for _, row := range sums {
		mean := row.MeanRating / float64(row.RatingCount)
		rows = append(rows, model.CommunityRatingRow{
			WhiskeyID:   row.WhiskeyID,
			RatingCount: row.RatingCount,
			MeanRating:  float64(int(mean*10+0.5)) / 10,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].WhiskeyID < rows[j].WhiskeyID })

	return rows, nil
}

func (s *memStore) UpdateCommunityRating(_ context.Context, row model.CommunityRatingRow) error {
	if err, ok := s.ratingErrs[row.WhiskeyID]; ok {
		return err
	}

	whiskey, ok := s.whiskeys[row.WhiskeyID]
	if !ok {
		return gorm.ErrRecordNotFound
	}

	rating := row.MeanRating
	count := row.RatingCount
	whiskey.CommunityRating = &rating
	whiskey.CommunityRatingCount = &count

	return nil
}

func (s *memStore) ClearCommunityRatings(_ context.Context, keepIDs []uint) (int64, error) {
	keep := make(map[uint]bool, len(keepIDs))
	for _, id := range keepIDs {
		keep[id] = true
	}

	var cleared int64

	for id, whiskey := range s.whiskeys {
		if keep[id] || whiskey.CommunityRating == nil {
			continue
		}

		whiskey.CommunityRating = nil
		whiskey.CommunityRatingCount = nil
		cleared++
	}

	return cleared, nil
}

func (s *memStore) sortedPours(match func(*model.Pour) bool) []*model.Pour {
	var pours []*model.Pour

	for _, pour := range s.pours {
		if match(pour) {
			copied := *pour
			pours = append(pours, &copied)
		}
	}

	sort.Slice(pours, func(i, j int) bool {
		if pours[i].PouredAt.Equal(pours[j].PouredAt) {
			return pours[i].ID < pours[j].ID
		}

		return pours[i].PouredAt.Before(pours[j].PouredAt)
	})

	return pours
}
