package model

import (
	"time"

	"gorm.io/gorm"
)

// Pour is the canonical consumption event. Rows are immutable once written;
// the only mutations are deletion and the session backfill performed by the
// orphan sweep.
type Pour struct {
	gorm.Model
	OwnerID   uint `gorm:"index"`
	BottleID  uint `gorm:"index"`
	SessionID *uint
	Amount    float64
	Rating    *float64
	Cost      *float64
	Note      string
	PouredAt  time.Time

	Owner   User         `gorm:"foreignKey:OwnerID"`
	Bottle  Bottle       `gorm:"foreignKey:BottleID"`
	Session *PourSession `gorm:"foreignKey:SessionID"`
}

// PourSession groups pours into one occasion. The Total* and AverageRating
// fields are derived: they must always equal a recompute over the child pours
// and are only ever written by a full recalculation, never incremented.
type PourSession struct {
	gorm.Model
	OwnerID    uint      `gorm:"index"`
	Date       time.Time `gorm:"index"`
	Name       string
	Location   string
	Companions string
	Tags       []Tag `gorm:"many2many:pour_session_tags;"`

	TotalPours    int64
	TotalAmount   float64
	AverageRating *float64
	TotalCost     *float64

	Owner User `gorm:"foreignKey:OwnerID"`
}

// SessionTotals is the scan target for the session aggregate query.
type SessionTotals struct {
	PourCount   int64
	TotalAmount float64
	RatingSum   float64
	RatedCount  int64
	CostSum     float64
	CostedCount int64
}

// CommunityRatingRow is one whiskey's recomputed rating from the batch
// aggregation query.
type CommunityRatingRow struct {
	WhiskeyID   uint
	RatingCount uint64
	MeanRating  float64
}
