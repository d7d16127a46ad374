// Package carrier abstracts the third-party shipping carrier APIs behind
// one gateway contract. Each variant (DHL, FedEx, UPS, MyUS) owns its
// wire protocol end to end; nothing carrier-specific escapes this
// package. The resolver picks the variant and service code for a
// shipment.
package carrier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/usama216/shipping-market-sub001/internal/canonical"
	"github.com/usama216/shipping-market-sub001/internal/models"
	"github.com/usama216/shipping-market-sub001/internal/numeric"
)

var (
	// ErrConfiguration means the shipment's carrier selection resolves
	// to nothing we know how to talk to.
	ErrConfiguration = errors.New("carrier configuration error")
	// ErrAuth means the carrier refused our credentials during an
	// explicit Authenticate call.
	ErrAuth = errors.New("carrier authentication failed")
)

// Gateway is the capability set every carrier variant implements.
//
// CreateShipment returns (response, nil) for both acceptance and
// ordinary business rejections; the Success flag tells them apart. A
// non-nil error is reserved for transport-level faults: timeouts,
// connection failures, responses we cannot parse.
type Gateway interface {
	Name() string
	Authenticate(ctx context.Context) error
	CreateShipment(ctx context.Context, req *canonical.ShipmentRequest) (*Response, error)
	Track(ctx context.Context, trackingNumber string) (*TrackingResponse, error)
}

// Response is the normalized outcome of a CreateShipment call.
type Response struct {
	Success        bool
	TrackingNumber string
	LabelURL       string
	InvoiceURL     string
	// RawPayload keeps the provider's response body verbatim for
	// operator debugging; it is never parsed outside the owning gateway.
	RawPayload   string
	ErrorMessage string
	Errors       []models.CarrierErrorDetail
}

// TrackingEvent is one scan in a carrier's tracking feed.
type TrackingEvent struct {
	Status      string
	Description string
	Location    string
	OccurredAt  time.Time
}

// TrackingResponse is the normalized result of a Track call.
type TrackingResponse struct {
	TrackingNumber string
	Status         string
	Events         []TrackingEvent
}

// doJSON issues an HTTP request with a JSON body and returns the status
// code and raw response body. Network failures come back as errors
// (transport faults); any HTTP status is the caller's to interpret.
func doJSON(ctx context.Context, client *http.Client, method, url string, body []byte, header http.Header) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("carrier request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read carrier response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// num renders a normalized decimal as an exact JSON number literal.
// Going through json.Number keeps the fixed-point text on the wire
// instead of a re-encoded float64.
func num(d decimal.Decimal) json.Number {
	return json.Number(numeric.Text(d, numeric.Places))
}

func basicAuth(user, pass string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
}

func newHTTPClient() *http.Client {
	// Timeout prevents hanging carrier calls; the submission attempt's
	// context usually cuts in first.
	return &http.Client{Timeout: 30 * time.Second}
}
