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
)

const fedexDefaultBaseURL = "https://apis.fedex.com"

// FedExGateway talks to the FedEx REST API. Authentication is an OAuth2
// client-credentials token, cached until shortly before expiry.
type FedExGateway struct {
	clientID      string
	secret        string
	accountNumber string
	baseURL       string
	client        *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewFedExGateway(clientID, secret, accountNumber string) *FedExGateway {
	return &FedExGateway{
		clientID:      clientID,
		secret:        secret,
		accountNumber: accountNumber,
		baseURL:       fedexDefaultBaseURL,
		client:        newHTTPClient(),
	}
}

// NewFedExGatewayWithBaseURL points the gateway at a test server.
func NewFedExGatewayWithBaseURL(clientID, secret, accountNumber, baseURL string) *FedExGateway {
	g := NewFedExGateway(clientID, secret, accountNumber)
	g.baseURL = strings.TrimRight(baseURL, "/")
	return g
}

func (g *FedExGateway) Name() string { return "fedex" }

// Authenticate obtains (and caches) an OAuth token. Fetching the token
// IS the credential check for FedEx.
func (g *FedExGateway) Authenticate(ctx context.Context) error {
	_, err := g.bearerToken(ctx)
	return err
}

func (g *FedExGateway) bearerToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.token != "" && time.Now().Before(g.tokenExpiry) {
		return g.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", g.clientID)
	form.Set("client_secret", g.secret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build fedex token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fedex token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: fedex token endpoint returned status %d", ErrAuth, resp.StatusCode)
	}
	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("malformed fedex token response: %w", err)
	}
	g.token = body.AccessToken
	// Refresh a minute early so in-flight requests never race expiry.
	g.tokenExpiry = time.Now().Add(time.Duration(body.ExpiresIn)*time.Second - time.Minute)
	return g.token, nil
}

type fedexErrorResponse struct {
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// CreateShipment maps the canonical request onto FedEx's ship API.
func (g *FedExGateway) CreateShipment(ctx context.Context, req *canonical.ShipmentRequest) (*Response, error) {
	token, err := g.bearerToken(ctx)
	if err != nil {
		return nil, err
	}

	var packages []map[string]any
	for _, p := range req.Packages {
		packages = append(packages, map[string]any{
			"weight": map[string]any{"units": "LB", "value": num(p.Weight)},
			"dimensions": map[string]any{
				"length": num(p.Length),
				"width":  num(p.Width),
				"height": num(p.Height),
				"units":  "IN",
			},
		})
	}
	var commodities []map[string]any
	for _, c := range req.Commodities {
		commodities = append(commodities, map[string]any{
			"description":          c.Description,
			"quantity":             c.Quantity,
			"quantityUnits":        "PCS",
			"unitPrice":            map[string]any{"amount": num(c.UnitValue), "currency": req.Currency},
			"weight":               map[string]any{"units": "LB", "value": num(c.Weight)},
			"countryOfManufacture": c.OriginCountry,
			"harmonizedCode":       c.TariffCode,
		})
	}
	payload := map[string]any{
		"labelResponseOptions": "URL_ONLY",
		"accountNumber":        map[string]any{"value": g.accountNumber},
		"requestedShipment": map[string]any{
			"shipDatestamp":          req.ShipDate.Format("2006-01-02"),
			"serviceType":            req.ServiceType,
			"packagingType":          "YOUR_PACKAGING",
			"pickupType":             "USE_SCHEDULED_PICKUP",
			"shipper":                fedexParty(req.Sender, req.SenderAddress),
			"recipients":             []map[string]any{fedexParty(req.Recipient, req.RecipientAddress)},
			"shippingChargesPayment": map[string]any{"paymentType": "SENDER"},
			"customsClearanceDetail": map[string]any{
				"dutiesPayment": map[string]any{"paymentType": "SENDER"},
				"totalCustomsValue": map[string]any{
					"amount":   num(req.DeclaredValue),
					"currency": req.Currency,
				},
				"commodities": commodities,
			},
			"requestedPackageLineItems": packages,
			"customerReferences": []map[string]any{
				{"customerReferenceType": "CUSTOMER_REFERENCE", "value": req.Reference},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal fedex payload: %w", err)
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	status, data, err := doJSON(ctx, g.client, http.MethodPost, g.baseURL+"/ship/v1/shipments", body, header)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK && status != http.StatusCreated {
		var fErr fedexErrorResponse
		resp := &Response{Success: false, RawPayload: string(data)}
		if json.Unmarshal(data, &fErr) == nil && len(fErr.Errors) > 0 {
			resp.ErrorMessage = fErr.Errors[0].Message
			for _, e := range fErr.Errors {
				resp.Errors = append(resp.Errors, models.CarrierErrorDetail{Code: e.Code, Message: e.Message})
			}
		} else {
			resp.ErrorMessage = fmt.Sprintf("fedex returned status %d", status)
		}
		return resp, nil
	}

	var ok struct {
		Output struct {
			TransactionShipments []struct {
				MasterTrackingNumber string `json:"masterTrackingNumber"`
				PieceResponses       []struct {
					PackageDocuments []struct {
						URL         string `json:"url"`
						ContentType string `json:"contentType"`
					} `json:"packageDocuments"`
				} `json:"pieceResponses"`
			} `json:"transactionShipments"`
		} `json:"output"`
	}
	if err := json.Unmarshal(data, &ok); err != nil {
		return nil, fmt.Errorf("malformed fedex response: %w", err)
	}
	resp := &Response{Success: true, RawPayload: string(data)}
	if len(ok.Output.TransactionShipments) > 0 {
		ts := ok.Output.TransactionShipments[0]
		resp.TrackingNumber = ts.MasterTrackingNumber
		for _, piece := range ts.PieceResponses {
			for _, doc := range piece.PackageDocuments {
				if resp.LabelURL == "" && doc.ContentType == "LABEL" {
					resp.LabelURL = doc.URL
				}
			}
		}
	}
	if resp.TrackingNumber == "" {
		return nil, fmt.Errorf("malformed fedex response: no tracking number in accepted shipment")
	}
	return resp, nil
}

// Track fetches tracking detail for one tracking number.
func (g *FedExGateway) Track(ctx context.Context, trackingNumber string) (*TrackingResponse, error) {
	token, err := g.bearerToken(ctx)
	if err != nil {
		return nil, err
	}
	payload := map[string]any{
		"includeDetailedScans": true,
		"trackingInfo": []map[string]any{
			{"trackingNumberInfo": map[string]any{"trackingNumber": trackingNumber}},
		},
	}
	body, _ := json.Marshal(payload)
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	status, data, err := doJSON(ctx, g.client, http.MethodPost, g.baseURL+"/track/v1/trackingnumbers", body, header)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("fedex tracking returned status %d", status)
	}
	var out struct {
		Output struct {
			CompleteTrackResults []struct {
				TrackResults []struct {
					LatestStatusDetail struct {
						Description string `json:"description"`
					} `json:"latestStatusDetail"`
					ScanEvents []struct {
						Date             string `json:"date"`
						EventDescription string `json:"eventDescription"`
						ScanLocation     struct {
							City string `json:"city"`
						} `json:"scanLocation"`
					} `json:"scanEvents"`
				} `json:"trackResults"`
			} `json:"completeTrackResults"`
		} `json:"output"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("malformed fedex tracking response: %w", err)
	}
	resp := &TrackingResponse{TrackingNumber: trackingNumber}
	if len(out.Output.CompleteTrackResults) > 0 && len(out.Output.CompleteTrackResults[0].TrackResults) > 0 {
		tr := out.Output.CompleteTrackResults[0].TrackResults[0]
		resp.Status = tr.LatestStatusDetail.Description
		for _, ev := range tr.ScanEvents {
			resp.Events = append(resp.Events, TrackingEvent{
				Description: ev.EventDescription,
				Location:    ev.ScanLocation.City,
			})
		}
	}
	return resp, nil
}

func fedexParty(c canonical.Contact, a canonical.RequestAddress) map[string]any {
	streetLines := []string{a.Street1}
	if a.Street2 != "" {
		streetLines = append(streetLines, a.Street2)
	}
	return map[string]any{
		"contact": map[string]any{
			"personName":   c.Name,
			"companyName":  c.Company,
			"phoneNumber":  c.Phone,
			"emailAddress": c.Email,
		},
		"address": map[string]any{
			"streetLines":         streetLines,
			"city":                a.City,
			"stateOrProvinceCode": a.State,
			"postalCode":          a.PostalCode,
			"countryCode":         a.CountryCode,
		},
	}
}
