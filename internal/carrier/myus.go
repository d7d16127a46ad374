package carrier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/usama216/shipping-market-sub001/internal/canonical"
	"github.com/usama216/shipping-market-sub001/internal/models"
)

const myusDefaultBaseURL = "https://api.myus.com"

// MyUSGateway talks to the MyUS forwarding API, the simplest of the
// four: a static API key and one JSON envelope with an explicit success
// flag in every response.
type MyUSGateway struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewMyUSGateway(apiKey string) *MyUSGateway {
	return &MyUSGateway{apiKey: apiKey, baseURL: myusDefaultBaseURL, client: newHTTPClient()}
}

// NewMyUSGatewayWithBaseURL points the gateway at a test server.
func NewMyUSGatewayWithBaseURL(apiKey, baseURL string) *MyUSGateway {
	g := NewMyUSGateway(apiKey)
	g.baseURL = strings.TrimRight(baseURL, "/")
	return g
}

func (g *MyUSGateway) Name() string { return "myus" }

// Authenticate checks the API key against the account endpoint.
func (g *MyUSGateway) Authenticate(ctx context.Context) error {
	status, _, err := doJSON(ctx, g.client, http.MethodGet, g.baseURL+"/api/v3/account", nil, g.authHeader())
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return fmt.Errorf("%w: myus returned status %d", ErrAuth, status)
	}
	return nil
}

type myusEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
	Shipment struct {
		TrackingNumber string `json:"tracking_number"`
		LabelURL       string `json:"label_url"`
		InvoiceURL     string `json:"invoice_url"`
		Status         string `json:"status"`
		Events         []struct {
			Status      string `json:"status"`
			Description string `json:"description"`
			Location    string `json:"location"`
		} `json:"events"`
	} `json:"shipment"`
}

// CreateShipment maps the canonical request onto the MyUS envelope.
func (g *MyUSGateway) CreateShipment(ctx context.Context, req *canonical.ShipmentRequest) (*Response, error) {
	var packages []map[string]any
	for _, p := range req.Packages {
		packages = append(packages, map[string]any{
			"weight":      num(p.Weight),
			"length":      num(p.Length),
			"width":       num(p.Width),
			"height":      num(p.Height),
			"weight_unit": strings.ToLower(p.WeightUnit),
			"dim_unit":    strings.ToLower(p.DimUnit),
		})
	}
	var commodities []map[string]any
	for _, c := range req.Commodities {
		commodities = append(commodities, map[string]any{
			"description":    c.Description,
			"quantity":       c.Quantity,
			"unit_value":     num(c.UnitValue),
			"weight":         num(c.Weight),
			"origin_country": c.OriginCountry,
			"hs_code":        c.TariffCode,
		})
	}
	payload := map[string]any{
		"service":   req.ServiceType,
		"reference": req.Reference,
		"ship_date": req.ShipDate.Format("2006-01-02"),
		"recipient": map[string]any{
			"name":        req.Recipient.Name,
			"company":     req.Recipient.Company,
			"street1":     req.RecipientAddress.Street1,
			"street2":     req.RecipientAddress.Street2,
			"city":        req.RecipientAddress.City,
			"state":       req.RecipientAddress.State,
			"postal_code": req.RecipientAddress.PostalCode,
			"country":     req.RecipientAddress.CountryCode,
			"phone":       req.Recipient.Phone,
			"email":       req.Recipient.Email,
		},
		"packages":    packages,
		"commodities": commodities,
		"declared_value": map[string]any{
			"amount":   num(req.DeclaredValue),
			"currency": req.Currency,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal myus payload: %w", err)
	}
	status, data, err := doJSON(ctx, g.client, http.MethodPost, g.baseURL+"/api/v3/shipments", body, g.authHeader())
	if err != nil {
		return nil, err
	}

	var env myusEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed myus response (status %d): %w", status, err)
	}
	if !env.Success {
		resp := &Response{Success: false, RawPayload: string(data), ErrorMessage: env.Message}
		for _, e := range env.Errors {
			resp.Errors = append(resp.Errors, models.CarrierErrorDetail{Code: e.Field, Message: e.Message})
		}
		if resp.ErrorMessage == "" {
			resp.ErrorMessage = fmt.Sprintf("myus returned status %d", status)
		}
		return resp, nil
	}
	return &Response{
		Success:        true,
		TrackingNumber: env.Shipment.TrackingNumber,
		LabelURL:       env.Shipment.LabelURL,
		InvoiceURL:     env.Shipment.InvoiceURL,
		RawPayload:     string(data),
	}, nil
}

// Track fetches the shipment's event feed.
func (g *MyUSGateway) Track(ctx context.Context, trackingNumber string) (*TrackingResponse, error) {
	url := fmt.Sprintf("%s/api/v3/shipments/%s/tracking", g.baseURL, trackingNumber)
	status, data, err := doJSON(ctx, g.client, http.MethodGet, url, nil, g.authHeader())
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("myus tracking returned status %d", status)
	}
	var env myusEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed myus tracking response: %w", err)
	}
	resp := &TrackingResponse{TrackingNumber: trackingNumber, Status: env.Shipment.Status}
	for _, ev := range env.Shipment.Events {
		resp.Events = append(resp.Events, TrackingEvent{
			Status:      ev.Status,
			Description: ev.Description,
			Location:    ev.Location,
		})
	}
	return resp, nil
}

func (g *MyUSGateway) authHeader() http.Header {
	h := http.Header{}
	h.Set("X-Api-Key", g.apiKey)
	return h
}
