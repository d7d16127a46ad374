package models

// Package is one physical box belonging to exactly one shipment at
// submission time. Measurements are stored in metric units (kg, cm);
// the request builder converts and normalizes them per carrier.
type Package struct {
	ID         string
	ShipmentID string

	WeightKg float64
	LengthCm float64
	WidthCm  float64
	HeightCm float64

	Items []Item
}

// Item is a line item inside a package. Items are flattened into the
// commodity list of the canonical request for customs declaration.
type Item struct {
	Description   string
	Quantity      int
	UnitValue     float64
	WeightKg      float64
	OriginCountry string
	// HarmonizationCode is the HS tariff code for customs.
	HarmonizationCode string
}
