package carrier

import (
	"fmt"

	"github.com/usama216/shipping-market-sub001/internal/models"
)

// legacyOption maps a pre-carrier-service numeric shipping option to a
// carrier and API service identifier. Frozen: new services get proper
// CarrierService records instead of rows here.
type legacyOption struct {
	carrierCode  string
	apiServiceID string
}

var legacyOptions = map[int64]legacyOption{
	1: {"dhl", "P"}, // DHL Express Worldwide
	2: {"dhl", "U"}, // DHL Express Worldwide (EU)
	3: {"fedex", "INTERNATIONAL_PRIORITY"},
	4: {"fedex", "INTERNATIONAL_ECONOMY"},
	5: {"ups", "65"}, // UPS Worldwide Saver
	6: {"myus", "budget"},
}

// Resolver selects the concrete gateway and service code for a
// shipment. Selection is an explicit tagged lookup by carrier code,
// never runtime type inspection.
type Resolver struct {
	gateways map[string]Gateway
}

// NewResolver registers gateways under their Name().
func NewResolver(gateways ...Gateway) *Resolver {
	m := make(map[string]Gateway, len(gateways))
	for _, g := range gateways {
		m[g.Name()] = g
	}
	return &Resolver{gateways: m}
}

// Resolve returns the gateway and carrier-API service code for the
// shipment. The structured CarrierService reference always wins over
// the legacy numeric option; replaying the same shipment state yields
// the same pair. svc is the eagerly loaded CarrierService record, nil
// when the shipment has none.
func (r *Resolver) Resolve(shipment *models.Shipment, svc *models.CarrierService) (Gateway, string, error) {
	if shipment.HasCarrierService() {
		if svc == nil {
			return nil, "", fmt.Errorf("%w: carrier service %s not loaded", ErrConfiguration, shipment.CarrierServiceID)
		}
		gw, ok := r.gateways[svc.CarrierCode]
		if !ok {
			return nil, "", fmt.Errorf("%w: no gateway for carrier %q", ErrConfiguration, svc.CarrierCode)
		}
		return gw, svc.APIServiceID, nil
	}

	if opt, ok := legacyOptions[shipment.ShippingOptionID]; ok {
		gw, reg := r.gateways[opt.carrierCode]
		if !reg {
			return nil, "", fmt.Errorf("%w: no gateway for carrier %q", ErrConfiguration, opt.carrierCode)
		}
		return gw, opt.apiServiceID, nil
	}

	return nil, "", fmt.Errorf("%w: shipment %s has no resolvable carrier selection", ErrConfiguration, shipment.ID)
}
