package models

import "time"

// ShipmentStatus is the customer-facing lifecycle of a shipment.
// Checkout creates the shipment in StatusPaid; only the submission
// pipeline moves it away from that state.
type ShipmentStatus string

const (
	StatusPaid       ShipmentStatus = "paid"
	StatusLabelReady ShipmentStatus = "label_ready"
	StatusShipped    ShipmentStatus = "shipped"
	StatusDelivered  ShipmentStatus = "delivered"
	StatusCancelled  ShipmentStatus = "cancelled"
)

// CarrierStatus tracks the outcome of the carrier submission itself,
// independent of the customer-facing status above.
type CarrierStatus string

const (
	CarrierStatusNone      CarrierStatus = ""
	CarrierStatusSubmitted CarrierStatus = "submitted"
	CarrierStatusFailed    CarrierStatus = "failed"
)

// Shipment is the single source of truth for one paid shipment moving
// through the carrier submission pipeline.
//
// Carrier selection is either a structured CarrierServiceID (preferred)
// or the legacy numeric ShippingOptionID. Exactly one of them resolves
// per submission attempt; the resolver prefers the structured reference.
type Shipment struct {
	ID         string
	CustomerID string

	Status        ShipmentStatus
	CarrierStatus CarrierStatus

	// Carrier selection. CarrierServiceID points at a CarrierService
	// record; ShippingOptionID is the legacy numeric option kept for
	// shipments created before carrier services existed.
	CarrierServiceID string
	ShippingOptionID int64

	// Destination address chosen by the customer at checkout.
	RecipientAddressID string

	// Declared customs value for the whole shipment.
	DeclaredValue float64
	Currency      string

	// Populated by the pipeline on success.
	TrackingNumber string
	CarrierName    string
	ServiceType    string
	LabelURL       string
	InvoiceURL     string

	// Populated by the pipeline on failure. Nil when the last attempt
	// succeeded or no attempt has run yet.
	CarrierErrors *CarrierErrors

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasCarrierService reports whether the structured carrier selection is set.
func (s *Shipment) HasCarrierService() bool {
	return s.CarrierServiceID != ""
}
