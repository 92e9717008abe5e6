package rentmanager

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Checker-Finance/rentmanager-adapter/pkg/model"
)

// mapAddress flattens PrimaryAddress. An address without its Address line is
// treated as absent.
func mapAddress(details map[string]any) model.Address {
	primary := object(details, "PrimaryAddress")
	line := str(primary, "Address")
	if line == "" {
		return model.Address{}
	}
	return model.Address{
		Address:    strings.ReplaceAll(line, "\r\n", ", "),
		Street:     str(primary, "Street"),
		City:       str(primary, "City"),
		State:      str(primary, "State"),
		PostalCode: str(primary, "PostalCode"),
	}
}

func mapPropertyBase(raw map[string]any) model.Property {
	return model.Property{
		PropertyID:   integer(raw, "PropertyID"),
		PropertyName: str(raw, "Name"),
		ShortName:    str(raw, "ShortName"),
		Email:        str(raw, "Email"),
		ManagerName:  str(raw, "ManagerName"),
		PropertyType: str(raw, "PropertyType"),
		TaxID:        str(raw, "TaxID"),
		PhoneNumbers: []string{},
		OwnerDetails: []model.Owner{},
		ImageDetails: []model.Image{},
	}
}

func applyPropertyDetails(p *model.Property, details map[string]any) {
	p.Bank = str(object(details, "DefaultBank"), "Name")
	p.Address = mapAddress(details)
	for _, phone := range objects(details, "PhoneNumbers") {
		if n := str(phone, "PhoneNumber"); n != "" {
			p.PhoneNumbers = append(p.PhoneNumbers, n)
		}
	}
}

func mapOwners(list []map[string]any) []model.Owner {
	owners := make([]model.Owner, 0, len(list))
	for _, o := range list {
		owners = append(owners, model.Owner{
			OwnerName:  str(o, "DisplayName"),
			OwnerTaxID: str(o, "TaxID"),
		})
	}
	return owners
}

func mapImages(list []map[string]any) []model.Image {
	images := make([]model.Image, 0, len(list))
	for _, img := range list {
		file := object(img, "File")
		images = append(images, model.Image{
			ImageName:   str(file, "Name"),
			DownloadURL: str(file, "DownloadURL"),
		})
	}
	return images
}

func mapUnitBase(raw map[string]any) model.Unit {
	return model.Unit{
		UnitID:       integer(raw, "UnitID"),
		UnitName:     str(raw, "UnitName"),
		Bedrooms:     integer(raw, "Bedrooms"),
		Bathrooms:    dec(raw, "Bathrooms"),
		PropertyID:   integer(raw, "PropertyID"),
		PropertyType: str(raw, "PropertyType"),
		Amenities:    []string{},
		MarketRent:   []decimal.Decimal{},
	}
}

func applyUnitDetails(u *model.Unit, details map[string]any, unitTypes map[int64]string) {
	u.SquareFootage = integer(details, "SquareFootage")
	u.MaxOccupancy = integer(details, "MaxOccupancy")
	u.UnitTypeID = integer(object(details, "UnitType"), "UnitTypeID")
	u.UnitTypeName = unitTypes[u.UnitTypeID]
	u.Floor = str(object(details, "Floor"), "Name")
	u.Address = mapAddress(details)

	for _, amenity := range objects(details, "Amenities") {
		if name := str(amenity, "Name"); name != "" {
			u.Amenities = append(u.Amenities, name)
		}
	}
	for _, rent := range objects(details, "MarketRent") {
		if amount := dec(rent, "Amount"); !amount.IsZero() {
			u.MarketRent = append(u.MarketRent, amount)
		}
	}
}
