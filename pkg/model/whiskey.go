package model

import (
	"gorm.io/gorm"
)

type WhiskeyStyle struct {
	gorm.Model
	Name string `gorm:"uniqueIndex"`
}

type Whiskey struct {
	gorm.Model
	Name           string `gorm:"uniqueIndex:idx_whiskey_unique"`
	Description    string
	ImageURL       string
	DistilleryID   uint `gorm:"uniqueIndex:idx_whiskey_unique"`
	StyleID        uint
	Proof          *float64
	Age            *uint64
	ExternalID     *uint64
	ExternalSource *string
	ExternalRating *float64
	Tags           []Tag `gorm:"many2many:whiskey_tags;"`

	// CommunityRating and CommunityRatingCount are derived fields owned by the
	// rating aggregator batch. Nil means no rated pours exist, which is
	// distinct from a rating of zero.
	CommunityRating      *float64
	CommunityRatingCount *uint64

	Distillery Distillery   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Style      WhiskeyStyle `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}

type Distillery struct {
	gorm.Model
	Name           string `gorm:"uniqueIndex:idx_distillery_unique"`
	Description    string
	AddressID      int
	Address        Address
	ImageURL       string
	ExternalID     *uint64 `gorm:"uniqueIndex:idx_distillery_unique"`
	ExternalSource *string
	ExternalRating *float64
}

type Address struct {
	gorm.Model
	Country       string
	Locality      string
	Region        *string
	PostalCode    *string
	StreetAddress *string
}

type Tag struct {
	gorm.Model
	Tag string
}
