// Package canonical defines the carrier-agnostic shipment request and
// the builder that assembles it from shipment, package and address data.
// Gateways translate this one representation into their own wire format;
// nothing carrier-specific lives here.
package canonical

import (
	"time"

	"github.com/shopspring/decimal"
)

// Weight and dimension units of the canonical request. Stored package
// data is metric; the builder converts to these before normalizing.
const (
	WeightUnitLb = "LB"
	DimUnitIn    = "IN"
)

// Contact is the person attached to an address on the carrier side.
type Contact struct {
	Name    string
	Company string
	Phone   string
	Email   string
}

// RequestAddress is an address as it will be sent to a carrier. State is
// empty when the destination country's rules reject the field.
type RequestAddress struct {
	Street1     string
	Street2     string
	City        string
	State       string
	PostalCode  string
	CountryCode string
}

// RequestPackage is one box with normalized, unit-converted measurements.
type RequestPackage struct {
	Weight     decimal.Decimal
	Length     decimal.Decimal
	Width      decimal.Decimal
	Height     decimal.Decimal
	WeightUnit string
	DimUnit    string
}

// Commodity is one customs line item flattened out of a package.
type Commodity struct {
	Description   string
	Quantity      int
	UnitValue     decimal.Decimal
	Weight        decimal.Decimal
	OriginCountry string
	TariffCode    string
}

// ShipmentRequest is the ephemeral carrier-agnostic DTO handed to a
// gateway. It is built fresh for every submission attempt and never
// persisted.
type ShipmentRequest struct {
	Sender           Contact
	SenderAddress    RequestAddress
	Recipient        Contact
	RecipientAddress RequestAddress

	Packages    []RequestPackage
	Commodities []Commodity

	DeclaredValue decimal.Decimal
	Currency      string

	ServiceType string
	// Reference is our shipment ID, echoed back by carriers on labels
	// and in tracking feeds.
	Reference string
	ShipDate  time.Time
}
