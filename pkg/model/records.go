package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record kinds emitted by the sync service.
const (
	KindProperty = "property"
	KindUnit     = "unit"
)

// Address is a flattened PrimaryAddress.
type Address struct {
	Address    string `json:"address"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

// Owner is one entry of a property's owner list.
type Owner struct {
	OwnerName  string `json:"owner_name"`
	OwnerTaxID string `json:"owner_tax_id"`
}

// Image is one entry of a property's image list.
type Image struct {
	ImageName   string `json:"image_name"`
	DownloadURL string `json:"download_url"`
}

// Property is the shaped view of a Rent Manager property.
type Property struct {
	PropertyID   int64    `json:"property_id"`
	PropertyName string   `json:"property_name"`
	ShortName    string   `json:"short_name"`
	Email        string   `json:"email"`
	ManagerName  string   `json:"manager_name"`
	PropertyType string   `json:"property_type"`
	TaxID        string   `json:"tax_id"`
	Bank         string   `json:"bank"`
	Address      Address  `json:"address"`
	PhoneNumbers []string `json:"phone_numbers"`
	OwnerDetails []Owner  `json:"owner_details"`
	ImageDetails []Image  `json:"image_details"`
}

// Unit is the shaped view of a Rent Manager online-listing unit.
type Unit struct {
	UnitID        int64             `json:"unit_id"`
	UnitName      string            `json:"unit_name"`
	Bedrooms      int64             `json:"bedrooms"`
	Bathrooms     decimal.Decimal   `json:"bathrooms"`
	PropertyID    int64             `json:"property_id"`
	PropertyType  string            `json:"property_type"`
	SquareFootage int64             `json:"square_footage"`
	MaxOccupancy  int64             `json:"max_occupancy"`
	UnitTypeID    int64             `json:"unit_type_id"`
	UnitTypeName  string            `json:"unit_type_name"`
	Floor         string            `json:"floor"`
	Address       Address           `json:"address"`
	Amenities     []string          `json:"amenities"`
	MarketRent    []decimal.Decimal `json:"market_rent"`
}

// Record is the envelope handed to every sink.
type Record struct {
	RunID    string    `json:"run_id"`
	Kind     string    `json:"kind"`
	ID       int64     `json:"id"`
	SyncedAt time.Time `json:"synced_at"`
	Degraded bool      `json:"degraded"`
	Data     any       `json:"data"`
}

// SyncSummary describes one completed sync run.
type SyncSummary struct {
	RunID      string        `json:"run_id"`
	Kind       string        `json:"kind"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration_ns"`
	Seen       int           `json:"seen"`
	Synced     int           `json:"synced"`
	Skipped    int           `json:"skipped"`
	Degraded   int           `json:"degraded"`
	SinkErrors int           `json:"sink_errors"`
}
