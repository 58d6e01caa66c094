package model

import (
	"time"

	"gorm.io/gorm"
)

type BottleStatus string

const (
	StatusUnopened BottleStatus = "unopened"
	StatusOpened   BottleStatus = "opened"
	StatusFinished BottleStatus = "finished"
)

type AdjustmentKind string

const (
	AdjustmentManual        AdjustmentKind = "manual"
	AdjustmentPour          AdjustmentKind = "pour"
	AdjustmentRecalculation AdjustmentKind = "recalculation"
)

type AdjustmentReason string

const (
	ReasonEvaporation AdjustmentReason = "evaporation"
	ReasonShared      AdjustmentReason = "shared"
	ReasonCorrection  AdjustmentReason = "correction"
	ReasonOther       AdjustmentReason = "other"
)

type Cabinet struct {
	gorm.Model
	Name        string `gorm:"uniqueIndex:idx_cabinet_name_owner"`
	Description string
	OwnerID     uint `gorm:"uniqueIndex:idx_cabinet_name_owner"`
	Shelves     []ShelfInCabinet

	Owner User `gorm:"foreignKey:OwnerID"`
}

type ShelfInCabinet struct {
	gorm.Model
	Name      string
	CabinetID uint
}

type Bottle struct {
	gorm.Model
	OwnerID       uint
	WhiskeyID     uint
	CabinetID     uint
	ShelfID       *uint
	Status        BottleStatus `gorm:"default:unopened"`
	FillLevel     float64      `gorm:"default:100"`
	OpenedAt      *time.Time
	FinishedAt    *time.Time
	PurchasePrice *float64
	DateAdded     *time.Time

	// Most recent explicit manual fill-level correction. All three are nil
	// until the first manual adjustment; a recalculation clears them.
	LastManualLevel  *float64
	LastManualAt     *time.Time
	LastManualReason *AdjustmentReason

	Owner   User            `gorm:"foreignKey:OwnerID"`
	Whiskey Whiskey         `gorm:"foreignKey:WhiskeyID"`
	Cabinet Cabinet         `gorm:"foreignKey:CabinetID"`
	Shelf   *ShelfInCabinet `gorm:"foreignKey:ShelfID"`
}

// FillLevelAdjustment rows are append-only. The history of a bottle answers
// "why is this bottle at 42%" by replaying previous_level -> new_level in
// creation order.
type FillLevelAdjustment struct {
	gorm.Model
	BottleID      uint `gorm:"index"`
	PreviousLevel float64
	NewLevel      float64
	Kind          AdjustmentKind
	Note          string
}

type BottleStats struct {
	BottleID      uint
	PourCount     uint64
	TotalPoured   float64
	AverageRating float64
}

type CabinetStats struct {
	CabinetID       uint
	BottleCount     uint64
	UniqueCount     uint64
	DistilleryCount uint64
	UnopenedCount   uint64
	OpenedCount     uint64
	FinishedCount   uint64
	AverageProof    float64
	AverageRating   float64
	RemainingVolume float64
}
