package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/usama216/shipping-market-sub001/internal/models"
)

// MemoryStore is an in-memory ShipmentStore for tests and local runs
// without PostgreSQL. Safe for concurrent use.
type MemoryStore struct {
	mu sync.RWMutex

	Shipments       map[string]*models.Shipment
	Packages        map[string][]models.Package // keyed by shipment ID
	Customers       map[string]*models.Customer
	Addresses       map[string]*models.Address
	CarrierServices map[string]*models.CarrierService
	Warehouse       *models.Address
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Shipments:       make(map[string]*models.Shipment),
		Packages:        make(map[string][]models.Package),
		Customers:       make(map[string]*models.Customer),
		Addresses:       make(map[string]*models.Address),
		CarrierServices: make(map[string]*models.CarrierService),
	}
}

func (m *MemoryStore) GetSubmissionData(ctx context.Context, shipmentID string) (*SubmissionData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sh, ok := m.Shipments[shipmentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, shipmentID)
	}
	cp := *sh
	data := &SubmissionData{
		Shipment:         &cp,
		Packages:         append([]models.Package(nil), m.Packages[shipmentID]...),
		WarehouseAddress: m.Warehouse,
	}
	if c, ok := m.Customers[sh.CustomerID]; ok {
		data.Customer = c
	}
	if a, ok := m.Addresses[sh.RecipientAddressID]; ok {
		data.RecipientAddress = a
	}
	if svc, ok := m.CarrierServices[sh.CarrierServiceID]; ok {
		data.CarrierService = svc
	}
	return data, nil
}

func (m *MemoryStore) GetShipment(ctx context.Context, shipmentID string) (*models.Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sh, ok := m.Shipments[shipmentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, shipmentID)
	}
	cp := *sh
	return &cp, nil
}

func (m *MemoryStore) MarkSubmitted(ctx context.Context, shipmentID, trackingNumber, carrierName, serviceType, labelURL, invoiceURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sh, ok := m.Shipments[shipmentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, shipmentID)
	}
	sh.TrackingNumber = trackingNumber
	sh.CarrierName = carrierName
	sh.ServiceType = serviceType
	sh.LabelURL = labelURL
	sh.InvoiceURL = invoiceURL
	sh.CarrierStatus = models.CarrierStatusSubmitted
	sh.Status = models.StatusLabelReady
	sh.CarrierErrors = nil
	sh.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) MarkFailed(ctx context.Context, shipmentID string, carrierErrors *models.CarrierErrors) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sh, ok := m.Shipments[shipmentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, shipmentID)
	}
	// Same guard as the SQL implementation: a shipment with a tracking
	// number can never be marked failed.
	if sh.TrackingNumber != "" {
		return fmt.Errorf("%w: %s already has a tracking number", ErrNotFound, shipmentID)
	}
	sh.CarrierStatus = models.CarrierStatusFailed
	sh.CarrierErrors = carrierErrors
	sh.UpdatedAt = time.Now().UTC()
	return nil
}
