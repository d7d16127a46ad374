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

const dhlDefaultBaseURL = "https://express.api.dhl.com/mydhlapi"

// DHLGateway talks to the MyDHL Express REST API using HTTP basic auth.
type DHLGateway struct {
	apiUser string
	apiKey  string
	account string
	baseURL string
	client  *http.Client
}

func NewDHLGateway(apiUser, apiKey, account string) *DHLGateway {
	return &DHLGateway{
		apiUser: apiUser,
		apiKey:  apiKey,
		account: account,
		baseURL: dhlDefaultBaseURL,
		client:  newHTTPClient(),
	}
}

// NewDHLGatewayWithBaseURL points the gateway at a test server.
func NewDHLGatewayWithBaseURL(apiUser, apiKey, account, baseURL string) *DHLGateway {
	g := NewDHLGateway(apiUser, apiKey, account)
	g.baseURL = strings.TrimRight(baseURL, "/")
	return g
}

func (g *DHLGateway) Name() string { return "dhl" }

// Authenticate verifies the basic-auth credentials against the accounts
// endpoint without creating anything.
func (g *DHLGateway) Authenticate(ctx context.Context) error {
	status, _, err := doJSON(ctx, g.client, http.MethodGet, g.baseURL+"/accounts", nil, g.authHeader())
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return fmt.Errorf("%w: dhl returned status %d", ErrAuth, status)
	}
	return nil
}

// dhlShipmentPayload is the subset of the MyDHL create-shipment body we
// send. Numeric fields are json.Number built from normalized decimals so
// the wire value is exactly what the normalizer produced.
type dhlShipmentPayload struct {
	PlannedShippingDate string             `json:"plannedShippingDateAndTime"`
	ProductCode         string             `json:"productCode"`
	Accounts            []dhlAccount       `json:"accounts"`
	CustomerDetails     dhlCustomerDetails `json:"customerDetails"`
	Content             dhlContent         `json:"content"`
	CustomerReferences  []dhlReference     `json:"customerReferences"`
}

type dhlAccount struct {
	TypeCode string `json:"typeCode"`
	Number   string `json:"number"`
}

type dhlReference struct {
	Value string `json:"value"`
}

type dhlCustomerDetails struct {
	ShipperDetails  dhlParty `json:"shipperDetails"`
	ReceiverDetails dhlParty `json:"receiverDetails"`
}

type dhlParty struct {
	PostalAddress dhlAddress `json:"postalAddress"`
	Contact       dhlContact `json:"contactInformation"`
}

type dhlAddress struct {
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	CityName     string `json:"cityName"`
	// ProvinceCode is omitted entirely for countries whose rules
	// reject it; the builder already blanked it.
	ProvinceCode string `json:"provinceCode,omitempty"`
	PostalCode   string `json:"postalCode"`
	CountryCode  string `json:"countryCode"`
}

type dhlContact struct {
	FullName    string `json:"fullName"`
	CompanyName string `json:"companyName,omitempty"`
	Phone       string `json:"phone"`
	Email       string `json:"email,omitempty"`
}

type dhlContent struct {
	Packages              []dhlPackage         `json:"packages"`
	UnitOfMeasurement     string               `json:"unitOfMeasurement"`
	IsCustomsDeclarable   bool                 `json:"isCustomsDeclarable"`
	DeclaredValue         json.Number          `json:"declaredValue"`
	DeclaredValueCurrency string               `json:"declaredValueCurrency"`
	ExportDeclaration     dhlExportDeclaration `json:"exportDeclaration"`
	Description           string               `json:"description"`
}

type dhlPackage struct {
	Weight     json.Number   `json:"weight"`
	Dimensions dhlDimensions `json:"dimensions"`
}

type dhlDimensions struct {
	Length json.Number `json:"length"`
	Width  json.Number `json:"width"`
	Height json.Number `json:"height"`
}

type dhlExportDeclaration struct {
	LineItems []dhlLineItem `json:"lineItems"`
}

type dhlLineItem struct {
	Number              int         `json:"number"`
	Description         string      `json:"description"`
	Price               json.Number `json:"price"`
	Quantity            dhlQuantity `json:"quantity"`
	ManufacturerCountry string      `json:"manufacturerCountry"`
	CommodityCode       string      `json:"commodityCodes,omitempty"`
	Weight              dhlWeight   `json:"weight"`
}

type dhlQuantity struct {
	Value int    `json:"value"`
	Unit  string `json:"unitOfMeasurement"`
}

type dhlWeight struct {
	NetValue json.Number `json:"netValue"`
}

type dhlShipmentResponse struct {
	ShipmentTrackingNumber string `json:"shipmentTrackingNumber"`
	Documents              []struct {
		TypeCode string `json:"typeCode"`
		URL      string `json:"url"`
	} `json:"documents"`
}

type dhlErrorResponse struct {
	Detail            string   `json:"detail"`
	AdditionalDetails []string `json:"additionalDetails"`
}

// CreateShipment maps the canonical request onto the MyDHL wire format
// and normalizes the outcome. Rejections come back as Success=false;
// only transport faults return an error.
func (g *DHLGateway) CreateShipment(ctx context.Context, req *canonical.ShipmentRequest) (*Response, error) {
	payload := dhlShipmentPayload{
		PlannedShippingDate: req.ShipDate.Format("2006-01-02T15:04:05 GMT-00:00"),
		ProductCode:         req.ServiceType,
		Accounts:            []dhlAccount{{TypeCode: "shipper", Number: g.account}},
		CustomerDetails: dhlCustomerDetails{
			ShipperDetails:  toDHLParty(req.Sender, req.SenderAddress),
			ReceiverDetails: toDHLParty(req.Recipient, req.RecipientAddress),
		},
		Content: dhlContent{
			UnitOfMeasurement:     "imperial",
			IsCustomsDeclarable:   true,
			DeclaredValue:         num(req.DeclaredValue),
			DeclaredValueCurrency: req.Currency,
			Description:           "Forwarded merchandise",
		},
		CustomerReferences: []dhlReference{{Value: req.Reference}},
	}
	for _, p := range req.Packages {
		payload.Content.Packages = append(payload.Content.Packages, dhlPackage{
			Weight: num(p.Weight),
			Dimensions: dhlDimensions{
				Length: num(p.Length),
				Width:  num(p.Width),
				Height: num(p.Height),
			},
		})
	}
	for i, c := range req.Commodities {
		payload.Content.ExportDeclaration.LineItems = append(payload.Content.ExportDeclaration.LineItems, dhlLineItem{
			Number:              i + 1,
			Description:         c.Description,
			Price:               num(c.UnitValue),
			Quantity:            dhlQuantity{Value: c.Quantity, Unit: "PCS"},
			ManufacturerCountry: c.OriginCountry,
			CommodityCode:       c.TariffCode,
			Weight:              dhlWeight{NetValue: num(c.Weight)},
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal dhl payload: %w", err)
	}
	status, data, err := doJSON(ctx, g.client, http.MethodPost, g.baseURL+"/shipments", body, g.authHeader())
	if err != nil {
		return nil, err
	}

	if status != http.StatusCreated && status != http.StatusOK {
		// Business rejection: surface DHL's detail text and structured
		// hints, do not raise.
		var dhlErr dhlErrorResponse
		resp := &Response{Success: false, RawPayload: string(data)}
		if json.Unmarshal(data, &dhlErr) == nil && dhlErr.Detail != "" {
			resp.ErrorMessage = dhlErr.Detail
			for _, d := range dhlErr.AdditionalDetails {
				resp.Errors = append(resp.Errors, models.CarrierErrorDetail{Message: d})
			}
		} else {
			resp.ErrorMessage = fmt.Sprintf("dhl returned status %d", status)
		}
		return resp, nil
	}

	var ok dhlShipmentResponse
	if err := json.Unmarshal(data, &ok); err != nil {
		return nil, fmt.Errorf("malformed dhl response: %w", err)
	}
	resp := &Response{
		Success:        true,
		TrackingNumber: ok.ShipmentTrackingNumber,
		RawPayload:     string(data),
	}
	for _, doc := range ok.Documents {
		switch doc.TypeCode {
		case "label":
			resp.LabelURL = doc.URL
		case "invoice":
			resp.InvoiceURL = doc.URL
		}
	}
	return resp, nil
}

// Track fetches the shipment's scan history.
func (g *DHLGateway) Track(ctx context.Context, trackingNumber string) (*TrackingResponse, error) {
	url := fmt.Sprintf("%s/shipments/%s/tracking", g.baseURL, trackingNumber)
	status, data, err := doJSON(ctx, g.client, http.MethodGet, url, nil, g.authHeader())
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("dhl tracking returned status %d", status)
	}
	var body struct {
		Shipments []struct {
			Status string `json:"status"`
			Events []struct {
				Date        string `json:"date"`
				Description string `json:"description"`
				Location    string `json:"serviceArea"`
			} `json:"events"`
		} `json:"shipments"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("malformed dhl tracking response: %w", err)
	}
	out := &TrackingResponse{TrackingNumber: trackingNumber}
	if len(body.Shipments) > 0 {
		out.Status = body.Shipments[0].Status
		for _, ev := range body.Shipments[0].Events {
			out.Events = append(out.Events, TrackingEvent{
				Status:      body.Shipments[0].Status,
				Description: ev.Description,
				Location:    ev.Location,
			})
		}
	}
	return out, nil
}

func (g *DHLGateway) authHeader() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Basic "+basicAuth(g.apiUser, g.apiKey))
	return h
}

func toDHLParty(c canonical.Contact, a canonical.RequestAddress) dhlParty {
	return dhlParty{
		PostalAddress: dhlAddress{
			AddressLine1: a.Street1,
			AddressLine2: a.Street2,
			CityName:     a.City,
			ProvinceCode: a.State,
			PostalCode:   a.PostalCode,
			CountryCode:  a.CountryCode,
		},
		Contact: dhlContact{
			FullName:    c.Name,
			CompanyName: c.Company,
			Phone:       c.Phone,
			Email:       c.Email,
		},
	}
}
