package store

import (
	"context"
	"errors"

	"github.com/usama216/shipping-market-sub001/internal/models"
)

// ErrNotFound matches standard lookup-miss behavior across implementations.
var ErrNotFound = errors.New("shipment not found")

// SubmissionData is everything one submission attempt needs, loaded
// eagerly in a single store call so the attempt never goes back to the
// database mid-flight.
type SubmissionData struct {
	Shipment         *models.Shipment
	Packages         []models.Package
	Customer         *models.Customer
	RecipientAddress *models.Address
	WarehouseAddress *models.Address
	// CarrierService is nil when the shipment only has a legacy
	// shipping option.
	CarrierService *models.CarrierService
}

// ShipmentStore is the persistence contract of the submission pipeline.
// The orchestrator is the only writer of the carrier_* fields and of
// status transitions away from paid; these three write methods are the
// complete surface it needs.
type ShipmentStore interface {
	// GetSubmissionData loads the shipment with packages, addresses,
	// customer and carrier service in one eager read.
	GetSubmissionData(ctx context.Context, shipmentID string) (*SubmissionData, error)

	// GetShipment reloads just the shipment row.
	GetShipment(ctx context.Context, shipmentID string) (*models.Shipment, error)

	// MarkSubmitted records a successful carrier submission: tracking
	// and label data, carrier_status=submitted, status=label_ready,
	// and clears any carrier errors from earlier attempts.
	MarkSubmitted(ctx context.Context, shipmentID, trackingNumber, carrierName, serviceType, labelURL, invoiceURL string) error

	// MarkFailed records a failed attempt: carrier_status=failed with
	// the structured error record; status stays paid. It must never be
	// applied to a shipment that already has a tracking number.
	MarkFailed(ctx context.Context, shipmentID string, carrierErrors *models.CarrierErrors) error
}
