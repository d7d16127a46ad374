package carrier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/usama216/shipping-market-sub001/internal/canonical"
	"github.com/usama216/shipping-market-sub001/internal/models"
	"github.com/usama216/shipping-market-sub001/internal/numeric"
)

const upsDefaultBaseURL = "https://onlinetools.ups.com"

// UPSGateway talks to the UPS REST API. Like FedEx it runs on OAuth2
// client credentials; unlike FedEx, UPS wants every numeric value as a
// string, which suits the normalizer's exact text output well.
type UPSGateway struct {
	clientID      string
	secret        string
	accountNumber string
	baseURL       string
	client        *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewUPSGateway(clientID, secret, accountNumber string) *UPSGateway {
	return &UPSGateway{
		clientID:      clientID,
		secret:        secret,
		accountNumber: accountNumber,
		baseURL:       upsDefaultBaseURL,
		client:        newHTTPClient(),
	}
}

// NewUPSGatewayWithBaseURL points the gateway at a test server.
func NewUPSGatewayWithBaseURL(clientID, secret, accountNumber, baseURL string) *UPSGateway {
	g := NewUPSGateway(clientID, secret, accountNumber)
	g.baseURL = strings.TrimRight(baseURL, "/")
	return g
}

func (g *UPSGateway) Name() string { return "ups" }

// Authenticate obtains and caches the OAuth token.
func (g *UPSGateway) Authenticate(ctx context.Context) error {
	_, err := g.bearerToken(ctx)
	return err
}

func (g *UPSGateway) bearerToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.token != "" && time.Now().Before(g.tokenExpiry) {
		return g.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/security/v1/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build ups token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+basicAuth(g.clientID, g.secret))

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ups token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: ups token endpoint returned status %d", ErrAuth, resp.StatusCode)
	}
	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"` // UPS sends this as a string
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("malformed ups token response: %w", err)
	}
	ttl := 3600 * time.Second
	if d, err := time.ParseDuration(body.ExpiresIn + "s"); err == nil {
		ttl = d
	}
	g.token = body.AccessToken
	g.tokenExpiry = time.Now().Add(ttl - time.Minute)
	return g.token, nil
}

type upsCodeValue struct {
	Code string `json:"Code"`
}

type upsAddress struct {
	AddressLine       []string `json:"AddressLine"`
	City              string   `json:"City"`
	StateProvinceCode string   `json:"StateProvinceCode,omitempty"`
	PostalCode        string   `json:"PostalCode"`
	CountryCode       string   `json:"CountryCode"`
}

type upsParty struct {
	Name          string     `json:"Name"`
	AttentionName string     `json:"AttentionName,omitempty"`
	Phone         *upsPhone  `json:"Phone,omitempty"`
	ShipperNumber string     `json:"ShipperNumber,omitempty"`
	Address       upsAddress `json:"Address"`
}

type upsPhone struct {
	Number string `json:"Number"`
}

type upsPackage struct {
	Packaging  upsCodeValue  `json:"Packaging"`
	Dimensions upsDimensions `json:"Dimensions"`
	Weight     upsWeight     `json:"PackageWeight"`
}

type upsDimensions struct {
	UnitOfMeasurement upsCodeValue `json:"UnitOfMeasurement"`
	Length            string       `json:"Length"`
	Width             string       `json:"Width"`
	Height            string       `json:"Height"`
}

type upsWeight struct {
	UnitOfMeasurement upsCodeValue `json:"UnitOfMeasurement"`
	Weight            string       `json:"Weight"`
}

type upsErrorResponse struct {
	Response struct {
		Errors []struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"response"`
}

// CreateShipment maps the canonical request onto UPS's ship API.
func (g *UPSGateway) CreateShipment(ctx context.Context, req *canonical.ShipmentRequest) (*Response, error) {
	token, err := g.bearerToken(ctx)
	if err != nil {
		return nil, err
	}

	var packages []upsPackage
	for _, p := range req.Packages {
		packages = append(packages, upsPackage{
			Packaging: upsCodeValue{Code: "02"}, // customer supplied package
			Dimensions: upsDimensions{
				UnitOfMeasurement: upsCodeValue{Code: "IN"},
				Length:            numeric.Text(p.Length, numeric.Places),
				Width:             numeric.Text(p.Width, numeric.Places),
				Height:            numeric.Text(p.Height, numeric.Places),
			},
			Weight: upsWeight{
				UnitOfMeasurement: upsCodeValue{Code: "LBS"},
				Weight:            numeric.Text(p.Weight, numeric.Places),
			},
		})
	}

	shipper := upsPartyFrom(req.Sender, req.SenderAddress)
	shipper.ShipperNumber = g.accountNumber
	payload := map[string]any{
		"ShipmentRequest": map[string]any{
			"Shipment": map[string]any{
				"Description": "Forwarded merchandise",
				"Shipper":     shipper,
				"ShipTo":      upsPartyFrom(req.Recipient, req.RecipientAddress),
				"Service":     upsCodeValue{Code: req.ServiceType},
				"Package":     packages,
				"ReferenceNumber": map[string]any{
					"Value": req.Reference,
				},
				"InvoiceLineTotal": map[string]any{
					"CurrencyCode":  req.Currency,
					"MonetaryValue": numeric.Text(req.DeclaredValue, numeric.Places),
				},
			},
			"LabelSpecification": map[string]any{
				"LabelImageFormat": upsCodeValue{Code: "GIF"},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal ups payload: %w", err)
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	status, data, err := doJSON(ctx, g.client, http.MethodPost, g.baseURL+"/api/shipments/v1/ship", body, header)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK && status != http.StatusCreated {
		var uErr upsErrorResponse
		resp := &Response{Success: false, RawPayload: string(data)}
		if json.Unmarshal(data, &uErr) == nil && len(uErr.Response.Errors) > 0 {
			resp.ErrorMessage = uErr.Response.Errors[0].Message
			for _, e := range uErr.Response.Errors {
				resp.Errors = append(resp.Errors, models.CarrierErrorDetail{Code: e.Code, Message: e.Message})
			}
		} else {
			resp.ErrorMessage = fmt.Sprintf("ups returned status %d", status)
		}
		return resp, nil
	}

	var ok struct {
		ShipmentResponse struct {
			ShipmentResults struct {
				ShipmentIdentificationNumber string `json:"ShipmentIdentificationNumber"`
				PackageResults               []struct {
					TrackingNumber string `json:"TrackingNumber"`
					ShippingLabel  struct {
						LabelURL string `json:"LabelURL"`
					} `json:"ShippingLabel"`
				} `json:"PackageResults"`
			} `json:"ShipmentResults"`
		} `json:"ShipmentResponse"`
	}
	if err := json.Unmarshal(data, &ok); err != nil {
		return nil, fmt.Errorf("malformed ups response: %w", err)
	}
	results := ok.ShipmentResponse.ShipmentResults
	resp := &Response{
		Success:        true,
		TrackingNumber: results.ShipmentIdentificationNumber,
		RawPayload:     string(data),
	}
	if len(results.PackageResults) > 0 {
		if resp.TrackingNumber == "" {
			resp.TrackingNumber = results.PackageResults[0].TrackingNumber
		}
		resp.LabelURL = results.PackageResults[0].ShippingLabel.LabelURL
	}
	return resp, nil
}

// Track fetches tracking detail for one tracking number.
func (g *UPSGateway) Track(ctx context.Context, trackingNumber string) (*TrackingResponse, error) {
	token, err := g.bearerToken(ctx)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	url := fmt.Sprintf("%s/api/track/v1/details/%s", g.baseURL, trackingNumber)
	status, data, err := doJSON(ctx, g.client, http.MethodGet, url, nil, header)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("ups tracking returned status %d", status)
	}
	var out struct {
		TrackResponse struct {
			Shipment []struct {
				Package []struct {
					Activity []struct {
						Status struct {
							Description string `json:"description"`
							Type        string `json:"type"`
						} `json:"status"`
						Location struct {
							Address struct {
								City string `json:"city"`
							} `json:"address"`
						} `json:"location"`
					} `json:"activity"`
				} `json:"package"`
			} `json:"shipment"`
		} `json:"trackResponse"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("malformed ups tracking response: %w", err)
	}
	resp := &TrackingResponse{TrackingNumber: trackingNumber}
	if len(out.TrackResponse.Shipment) > 0 && len(out.TrackResponse.Shipment[0].Package) > 0 {
		for i, act := range out.TrackResponse.Shipment[0].Package[0].Activity {
			if i == 0 {
				resp.Status = act.Status.Description
			}
			resp.Events = append(resp.Events, TrackingEvent{
				Status:      act.Status.Type,
				Description: act.Status.Description,
				Location:    act.Location.Address.City,
			})
		}
	}
	return resp, nil
}

func upsPartyFrom(c canonical.Contact, a canonical.RequestAddress) upsParty {
	lines := []string{a.Street1}
	if a.Street2 != "" {
		lines = append(lines, a.Street2)
	}
	name := c.Company
	if name == "" {
		name = c.Name
	}
	p := upsParty{
		Name:          name,
		AttentionName: c.Name,
		Address: upsAddress{
			AddressLine:       lines,
			City:              a.City,
			StateProvinceCode: a.State,
			PostalCode:        a.PostalCode,
			CountryCode:       a.CountryCode,
		},
	}
	if c.Phone != "" {
		p.Phone = &upsPhone{Number: c.Phone}
	}
	return p
}
