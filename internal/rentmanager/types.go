package rentmanager

import (
	"context"

	"github.com/Checker-Finance/rentmanager-adapter/pkg/model"
)

// TokenHeader carries the session token on every call after authentication.
const TokenHeader = "X-RM12Api-ApiToken"

// Credentials authenticate against the Rent Manager API.
// BaseURL is optional; when set it overrides the configured base URL.
type Credentials struct {
	Username string
	Password string
	BaseURL  string
}

// Sink receives every shaped record.
type Sink interface {
	Name() string
	Emit(ctx context.Context, rec model.Record) error
}

//
// ────────────────────────────────────────────────
//   Query parameters per endpoint
// ────────────────────────────────────────────────
//

const (
	activePropertiesFilter = "IsActive,eq,true"

	propertySearchEmbeds = "PrimaryAddress,DefaultBank,PhoneNumbers"
	propertySearchFields = "PrimaryAddress,DefaultBank.Name,PhoneNumbers.PhoneNumber"

	propertyImagesEmbeds = "File"

	unitSearchEmbeds = "PrimaryAddress,Amenities,MarketRent,Floor,UnitType"
	unitSearchFields = "PrimaryAddress,Amenities.Name,MarketRent.Amount,SquareFootage,MaxOccupancy,Floor.Name,UnitType.UnitTypeID"
)
