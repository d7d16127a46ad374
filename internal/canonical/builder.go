package canonical

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/usama216/shipping-market-sub001/internal/addressrules"
	"github.com/usama216/shipping-market-sub001/internal/models"
	"github.com/usama216/shipping-market-sub001/internal/numeric"
)

// ErrValidation marks locally detectable request problems. These are
// never offered to a carrier; the orchestrator records them as a failed
// attempt without a network call.
var ErrValidation = errors.New("canonical request validation failed")

// Builder assembles a ShipmentRequest. It is pure: no I/O, no mutation
// of its inputs, deterministic for a fixed clock.
type Builder struct {
	// clock exists so tests can pin the ship date.
	clock func() time.Time
}

func NewBuilder() *Builder {
	return &Builder{clock: time.Now}
}

// NewBuilderWithClock pins the ship date for tests.
func NewBuilderWithClock(clock func() time.Time) *Builder {
	return &Builder{clock: clock}
}

// Build assembles the carrier-agnostic request for one submission
// attempt. Every weight, dimension and monetary value goes through the
// numeric normalizer after unit conversion; the recipient state is
// dropped when the destination country's address rules reject it.
func (b *Builder) Build(shipment *models.Shipment, packages []models.Package, sender, recipient *models.Address) (*ShipmentRequest, error) {
	if recipient == nil || recipient.Street1 == "" || recipient.CountryCode == "" {
		return nil, fmt.Errorf("%w: recipient address missing", ErrValidation)
	}
	if len(packages) == 0 {
		return nil, fmt.Errorf("%w: shipment %s has no packages", ErrValidation, shipment.ID)
	}
	if shipment.DeclaredValue <= 0 {
		return nil, fmt.Errorf("%w: declared value must be positive", ErrValidation)
	}
	if sender == nil {
		return nil, fmt.Errorf("%w: sender address missing", ErrValidation)
	}
	for _, pkg := range packages {
		if pkg.WeightKg <= 0 || pkg.LengthCm <= 0 || pkg.WidthCm <= 0 || pkg.HeightCm <= 0 {
			return nil, fmt.Errorf("%w: package %s has non-positive weight or dimensions", ErrValidation, pkg.ID)
		}
	}

	req := &ShipmentRequest{
		Sender: Contact{
			Name:    sender.Name,
			Company: sender.Company,
			Phone:   sender.Phone,
			Email:   sender.Email,
		},
		SenderAddress: toRequestAddress(sender),
		Recipient: Contact{
			Name:    recipient.Name,
			Company: recipient.Company,
			Phone:   recipient.Phone,
			Email:   recipient.Email,
		},
		RecipientAddress: toRequestAddress(recipient),
		DeclaredValue:    numeric.NormalizeFloat(shipment.DeclaredValue, numeric.Places),
		Currency:         shipment.Currency,
		// ServiceType is filled in by the orchestrator once the
		// resolver has picked the carrier service.
		Reference: shipment.ID,
		ShipDate:  b.clock().UTC(),
	}

	// The recipient is the only address subject to country field rules:
	// the sender is always our own warehouse.
	if !addressrules.AcceptsField(recipient.CountryCode, addressrules.FieldState) {
		req.RecipientAddress.State = ""
	}

	for _, pkg := range packages {
		req.Packages = append(req.Packages, RequestPackage{
			Weight:     numeric.Normalize(numeric.KgToLb(pkg.WeightKg), numeric.Places),
			Length:     numeric.Normalize(numeric.CmToIn(pkg.LengthCm), numeric.Places),
			Width:      numeric.Normalize(numeric.CmToIn(pkg.WidthCm), numeric.Places),
			Height:     numeric.Normalize(numeric.CmToIn(pkg.HeightCm), numeric.Places),
			WeightUnit: WeightUnitLb,
			DimUnit:    DimUnitIn,
		})
		for _, item := range pkg.Items {
			req.Commodities = append(req.Commodities, Commodity{
				Description:   item.Description,
				Quantity:      item.Quantity,
				UnitValue:     numeric.NormalizeFloat(item.UnitValue, numeric.Places),
				Weight:        numeric.Normalize(numeric.KgToLb(item.WeightKg), numeric.Places),
				OriginCountry: item.OriginCountry,
				TariffCode:    item.HarmonizationCode,
			})
		}
	}
	return req, nil
}

// TotalWeight sums the normalized package weights. Some carriers want a
// shipment-level weight next to the per-package ones.
func (r *ShipmentRequest) TotalWeight() decimal.Decimal {
	total := decimal.Zero
	for _, p := range r.Packages {
		total = total.Add(p.Weight)
	}
	return total
}

func toRequestAddress(a *models.Address) RequestAddress {
	return RequestAddress{
		Street1:     a.Street1,
		Street2:     a.Street2,
		City:        a.City,
		State:       a.State,
		PostalCode:  a.PostalCode,
		CountryCode: a.CountryCode,
	}
}
