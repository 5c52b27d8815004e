package models

import "time"

// Property types common on the Tanzanian rental market.
const (
	PropertyTypeRoom       = "room"
	PropertyTypeHouse      = "house"
	PropertyTypeApartment  = "apartment"
	PropertyTypeShop       = "shop"
	PropertyTypeOffice     = "office"
	PropertyTypeWarehouse  = "warehouse"
	PropertyTypeLand       = "land"
	PropertyTypeCommercial = "commercial"
)

// Property is a rental listing owned by exactly one Owner.
//
// AvailableRooms and IsAvailable are derived: AvailableRooms always equals the
// count of this property's units that are not occupied. They are written only
// by the derived-state sync, inside the same transaction as the unit change.
type Property struct {
	ID             uint   `gorm:"primaryKey"`
	OwnerID        uint   `gorm:"index;not null"`
	Owner          *Owner `gorm:"foreignKey:OwnerID"`
	PropertyType   string `gorm:"size:20;not null"`
	Title          string `gorm:"size:200;not null"`
	Description    string `gorm:"size:2000"`
	Region         string `gorm:"size:100"`
	District       string `gorm:"size:100"`
	Street         string `gorm:"size:200"`
	MonthlyRent    int64  `gorm:"not null"` // TZS
	TotalRooms     int    `gorm:"not null;default:1"`
	AvailableRooms int    `gorm:"not null;default:1"`
	IsAvailable    bool   `gorm:"not null;default:true"`
	RulesTerms     string `gorm:"size:2000"`
	ListedDate     time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Rental unit types.
const (
	UnitTypeSingleRoom   = "single_room"
	UnitTypeDoubleRoom   = "double_room"
	UnitTypeBedsitter    = "bedsitter"
	UnitTypeOneBedroom   = "one_bedroom"
	UnitTypeTwoBedroom   = "two_bedroom"
	UnitTypeThreeBedroom = "three_bedroom"
	UnitTypeShop         = "shop_unit"
	UnitTypeOffice       = "office_unit"
	UnitTypeWarehouse    = "warehouse_unit"
)

// RentalUnit is a leasable sub-division of a Property.
//
// IsOccupied is derived: true iff at least one lease referencing this unit is
// active. It is recomputed from the full active-lease set after every lease
// transition, never toggled blindly.
type RentalUnit struct {
	ID           uint      `gorm:"primaryKey"`
	PropertyID   uint      `gorm:"index;not null;uniqueIndex:idx_property_unit_number"`
	Property     *Property `gorm:"foreignKey:PropertyID"`
	UnitType     string    `gorm:"size:20;not null"`
	UnitNumber   string    `gorm:"size:20;not null;uniqueIndex:idx_property_unit_number"`
	UnitRent     int64     `gorm:"not null"` // TZS
	AreaSqm      float64
	IsOccupied   bool
	UnitFeatures string `gorm:"size:1000"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
