package models

// CarrierService is the structured carrier selection record. It maps an
// internally sold service (e.g. "DHL Express Worldwide") to the exact
// service identifier the carrier's API expects.
type CarrierService struct {
	ID          string
	CarrierCode string // "dhl", "fedex", "ups", "myus"
	ServiceCode string // internal service code, e.g. "express_worldwide"

	// APIServiceID is the carrier-specific wire identifier for this
	// service (DHL product code, FedEx serviceType, UPS service code...).
	APIServiceID string

	DisplayName string
}
