package server

import (
	"time"

	"droscher.com/DramGargoyle/pkg/model"
	"droscher.com/DramGargoyle/pkg/tracking"
)

type UserJSON struct {
	ID                 string  `json:"id"`
	Username           string  `json:"username"`
	Email              string  `json:"email"`
	WhiskybaseUserName *string `json:"whiskybaseUsername,omitempty"`
}

type CabinetJSON struct {
	ID          uint        `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Owner       *UserJSON   `json:"owner,omitempty"`
	Shelves     []ShelfJSON `json:"shelves,omitempty"`
}

type ShelfJSON struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type WhiskeyJSON struct {
	ID                   uint     `json:"id"`
	Name                 string   `json:"name"`
	Description          string   `json:"description,omitempty"`
	ImageURL             string   `json:"imageUrl,omitempty"`
	Distillery           string   `json:"distillery,omitempty"`
	Style                string   `json:"style,omitempty"`
	Proof                *float64 `json:"proof,omitempty"`
	Age                  *uint64  `json:"age,omitempty"`
	CommunityRating      *float64 `json:"communityRating,omitempty"`
	CommunityRatingCount *uint64  `json:"communityRatingCount,omitempty"`
}

type BottleJSON struct {
	ID               uint                    `json:"id"`
	WhiskeyID        uint                    `json:"whiskeyId"`
	CabinetID        uint                    `json:"cabinetId"`
	ShelfID          *uint                   `json:"shelfId,omitempty"`
	Status           model.BottleStatus      `json:"status"`
	FillLevel        float64                 `json:"fillLevel"`
	OpenedAt         *time.Time              `json:"openedAt,omitempty"`
	FinishedAt       *time.Time              `json:"finishedAt,omitempty"`
	PurchasePrice    *float64                `json:"purchasePrice,omitempty"`
	LastManualLevel  *float64                `json:"lastManualLevel,omitempty"`
	LastManualAt     *time.Time              `json:"lastManualAt,omitempty"`
	LastManualReason *model.AdjustmentReason `json:"lastManualReason,omitempty"`
	Whiskey          *WhiskeyJSON            `json:"whiskey,omitempty"`
}

type PourJSON struct {
	ID        uint        `json:"id"`
	BottleID  uint        `json:"bottleId"`
	SessionID *uint       `json:"sessionId,omitempty"`
	Amount    float64     `json:"amount"`
	Rating    *float64    `json:"rating,omitempty"`
	Cost      *float64    `json:"cost,omitempty"`
	Note      string      `json:"note,omitempty"`
	PouredAt  time.Time   `json:"pouredAt"`
	Bottle    *BottleJSON `json:"bottle,omitempty"`
}

type SessionJSON struct {
	ID            uint       `json:"id"`
	Date          time.Time  `json:"date"`
	Name          string     `json:"name,omitempty"`
	Location      string     `json:"location,omitempty"`
	Companions    string     `json:"companions,omitempty"`
	TotalPours    int64      `json:"totalPours"`
	TotalAmount   float64    `json:"totalAmount"`
	AverageRating *float64   `json:"averageRating,omitempty"`
	TotalCost     *float64   `json:"totalCost,omitempty"`
	Pours         []PourJSON `json:"pours,omitempty"`
}

type AdjustmentJSON struct {
	PreviousLevel float64              `json:"previousLevel"`
	NewLevel      float64              `json:"newLevel"`
	Kind          model.AdjustmentKind `json:"kind"`
	Note          string               `json:"note,omitempty"`
	Timestamp     time.Time            `json:"timestamp"`
}

type CabinetStatsJSON struct {
	CabinetID       uint    `json:"cabinetId"`
	BottleCount     uint64  `json:"bottleCount"`
	UniqueCount     uint64  `json:"uniqueCount"`
	DistilleryCount uint64  `json:"distilleryCount"`
	UnopenedCount   uint64  `json:"unopenedCount"`
	OpenedCount     uint64  `json:"openedCount"`
	FinishedCount   uint64  `json:"finishedCount"`
	AverageProof    float64 `json:"averageProof"`
	AverageRating   float64 `json:"averageRating"`
	RemainingVolume float64 `json:"remainingVolume"`
}

type SweepResultJSON struct {
	Before        int64 `json:"before"`
	Repaired      int64 `json:"repaired"`
	StillOrphaned int64 `json:"stillOrphaned"`
}

type RatingResultJSON struct {
	WhiskeysUpdated int64  `json:"whiskeysUpdated"`
	WhiskeysCleared int64  `json:"whiskeysCleared"`
	Elapsed         string `json:"elapsed"`
}

func UserFromModel(user *model.User) UserJSON {
	return UserJSON{
		ID:                 user.UUID.String(),
		Username:           user.Username,
		Email:              user.Email,
		WhiskybaseUserName: user.WhiskybaseUserName,
	}
}

func CabinetFromModel(cabinet *model.Cabinet) CabinetJSON {
	result := CabinetJSON{
		ID:          cabinet.ID,
		Name:        cabinet.Name,
		Description: cabinet.Description,
		Shelves:     make([]ShelfJSON, 0, len(cabinet.Shelves)),
	}

	if cabinet.Owner.ID != 0 {
		owner := UserFromModel(&cabinet.Owner)
		result.Owner = &owner
	}

	for _, shelf := range cabinet.Shelves {
		result.Shelves = append(result.Shelves, ShelfJSON{ID: shelf.ID, Name: shelf.Name})
	}

	return result
}

func CabinetsFromModel(cabinets []*model.Cabinet) []CabinetJSON {
	result := make([]CabinetJSON, 0, len(cabinets))

	for _, cabinet := range cabinets {
		result = append(result, CabinetFromModel(cabinet))
	}

	return result
}

func WhiskeyFromModel(whiskey *model.Whiskey) WhiskeyJSON {
	return WhiskeyJSON{
		ID:                   whiskey.ID,
		Name:                 whiskey.Name,
		Description:          whiskey.Description,
		ImageURL:             whiskey.ImageURL,
		Distillery:           whiskey.Distillery.Name,
		Style:                whiskey.Style.Name,
		Proof:                whiskey.Proof,
		Age:                  whiskey.Age,
		CommunityRating:      whiskey.CommunityRating,
		CommunityRatingCount: whiskey.CommunityRatingCount,
	}
}

func BottleFromModel(bottle *model.Bottle) BottleJSON {
	result := BottleJSON{
		ID:               bottle.ID,
		WhiskeyID:        bottle.WhiskeyID,
		CabinetID:        bottle.CabinetID,
		ShelfID:          bottle.ShelfID,
		Status:           bottle.Status,
		FillLevel:        bottle.FillLevel,
		OpenedAt:         bottle.OpenedAt,
		FinishedAt:       bottle.FinishedAt,
		PurchasePrice:    bottle.PurchasePrice,
		LastManualLevel:  bottle.LastManualLevel,
		LastManualAt:     bottle.LastManualAt,
		LastManualReason: bottle.LastManualReason,
	}

	if bottle.Whiskey.ID != 0 {
		whiskey := WhiskeyFromModel(&bottle.Whiskey)
		result.Whiskey = &whiskey
	}

	return result
}

func BottlesFromModel(bottles []*model.Bottle) []BottleJSON {
	result := make([]BottleJSON, 0, len(bottles))

	for _, bottle := range bottles {
		result = append(result, BottleFromModel(bottle))
	}

	return result
}

func PourFromModel(pour *model.Pour) PourJSON {
	result := PourJSON{
		ID:        pour.ID,
		BottleID:  pour.BottleID,
		SessionID: pour.SessionID,
		Amount:    pour.Amount,
		Rating:    pour.Rating,
		Cost:      pour.Cost,
		Note:      pour.Note,
		PouredAt:  pour.PouredAt,
	}

	if pour.Bottle.ID != 0 {
		bottle := BottleFromModel(&pour.Bottle)
		result.Bottle = &bottle
	}

	return result
}

func PoursFromModel(pours []*model.Pour) []PourJSON {
	result := make([]PourJSON, 0, len(pours))

	for _, pour := range pours {
		result = append(result, PourFromModel(pour))
	}

	return result
}

func SessionFromModel(session *model.PourSession, pours []*model.Pour) SessionJSON {
	result := SessionJSON{
		ID:            session.ID,
		Date:          session.Date,
		Name:          session.Name,
		Location:      session.Location,
		Companions:    session.Companions,
		TotalPours:    session.TotalPours,
		TotalAmount:   session.TotalAmount,
		AverageRating: session.AverageRating,
		TotalCost:     session.TotalCost,
	}

	if pours != nil {
		result.Pours = PoursFromModel(pours)
	}

	return result
}

func AdjustmentsFromModel(history []*model.FillLevelAdjustment) []AdjustmentJSON {
	result := make([]AdjustmentJSON, 0, len(history))

	for _, entry := range history {
		result = append(result, AdjustmentJSON{
			PreviousLevel: entry.PreviousLevel,
			NewLevel:      entry.NewLevel,
			Kind:          entry.Kind,
			Note:          entry.Note,
			Timestamp:     entry.CreatedAt,
		})
	}

	return result
}

func CabinetStatsFromModel(stats *model.CabinetStats) CabinetStatsJSON {
	return CabinetStatsJSON(*stats)
}

func SweepResultFromModel(result *tracking.SweepResult) SweepResultJSON {
	return SweepResultJSON{
		Before:        result.Before,
		Repaired:      result.Repaired,
		StillOrphaned: result.StillOrphaned,
	}
}

func RatingResultFromModel(result *tracking.RatingResult) RatingResultJSON {
	return RatingResultJSON{
		WhiskeysUpdated: result.WhiskeysUpdated,
		WhiskeysCleared: result.WhiskeysCleared,
		Elapsed:         result.Elapsed.String(),
	}
}
