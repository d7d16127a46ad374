package carrier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/usama216/shipping-market-sub001/internal/canonical"
	"github.com/usama216/shipping-market-sub001/internal/models"
	"github.com/usama216/shipping-market-sub001/internal/numeric"
)

func testRequest() *canonical.ShipmentRequest {
	b := canonical.NewBuilderWithClock(func() time.Time {
		return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	})
	req, err := b.Build(
		&models.Shipment{ID: "shp_42", DeclaredValue: 99.99, Currency: "USD"},
		[]models.Package{{ID: "pkg_1", WeightKg: 2.0, LengthCm: 30, WidthCm: 20, HeightCm: 10,
			Items: []models.Item{{Description: "Sneakers", Quantity: 1, UnitValue: 99.99, WeightKg: 2.0, OriginCountry: "VN", HarmonizationCode: "6404.11"}}}},
		&models.Address{Name: "Warehouse", Street1: "500 Commerce Dr", City: "Sarasota", State: "FL", PostalCode: "34236", CountryCode: "US"},
		&models.Address{Name: "Sam Green", Street1: "1 High St", City: "London", PostalCode: "SW1A 1AA", CountryCode: "GB"},
	)
	if err != nil {
		panic(err)
	}
	req.ServiceType = "P"
	return req
}

func TestDHLCreateShipmentSuccess(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shipments" || r.Method != http.MethodPost {
			t.Errorf("unexpected call: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") == "" {
			t.Error("missing basic auth header")
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"shipmentTrackingNumber": "JD0123456789",
			"documents": []map[string]any{
				{"typeCode": "label", "url": "https://labels.test/jd.pdf"},
			},
		})
	}))
	defer srv.Close()

	g := NewDHLGatewayWithBaseURL("user", "key", "123456789", srv.URL)
	resp, err := g.CreateShipment(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("CreateShipment failed: %v", err)
	}
	if !resp.Success || resp.TrackingNumber != "JD0123456789" || resp.LabelURL != "https://labels.test/jd.pdf" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	// The payload must carry the exact normalized weight, not a float
	// artifact, and no province for GB.
	content := captured["content"].(map[string]any)
	pkg := content["packages"].([]any)[0].(map[string]any)
	if pkg["weight"] != 4.409 {
		t.Errorf("wire weight = %v, want 4.409", pkg["weight"])
	}
	receiver := captured["customerDetails"].(map[string]any)["receiverDetails"].(map[string]any)
	addr := receiver["postalAddress"].(map[string]any)
	if _, present := addr["provinceCode"]; present {
		t.Errorf("provinceCode sent for GB address: %v", addr)
	}
}

func TestDHLCreateShipmentBusinessRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"detail":            "Validation error: postal code does not match city",
			"additionalDetails": []string{"receiverDetails.postalAddress.postalCode invalid"},
		})
	}))
	defer srv.Close()

	g := NewDHLGatewayWithBaseURL("user", "key", "123456789", srv.URL)
	resp, err := g.CreateShipment(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("business rejection must not be an error, got: %v", err)
	}
	if resp.Success {
		t.Fatal("expected Success=false")
	}
	if resp.ErrorMessage != "Validation error: postal code does not match city" {
		t.Errorf("error message = %q", resp.ErrorMessage)
	}
	if len(resp.Errors) != 1 {
		t.Errorf("expected 1 structured detail, got %d", len(resp.Errors))
	}
}

func TestDHLCreateShipmentTransportFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	g := NewDHLGatewayWithBaseURL("user", "key", "123456789", srv.URL)
	resp, err := g.CreateShipment(context.Background(), testRequest())
	if err == nil {
		t.Fatalf("expected transport error, got response %+v", resp)
	}
}

func TestFedExTokenFlow(t *testing.T) {
	tokenCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			tokenCalls++
			json.NewEncoder(w).Encode(map[string]any{"access_token": "tok_1", "expires_in": 3600})
		case "/ship/v1/shipments":
			if r.Header.Get("Authorization") != "Bearer tok_1" {
				t.Errorf("bad bearer: %q", r.Header.Get("Authorization"))
			}
			json.NewEncoder(w).Encode(map[string]any{
				"output": map[string]any{
					"transactionShipments": []map[string]any{{"masterTrackingNumber": "794000000000"}},
				},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	g := NewFedExGatewayWithBaseURL("id", "secret", "acct", srv.URL)
	if err := g.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	resp, err := g.CreateShipment(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("CreateShipment failed: %v", err)
	}
	if !resp.Success || resp.TrackingNumber != "794000000000" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if tokenCalls != 1 {
		t.Errorf("token fetched %d times, want 1 (cached)", tokenCalls)
	}
}

func TestFedExAuthenticateRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	g := NewFedExGatewayWithBaseURL("id", "bad-secret", "acct", srv.URL)
	err := g.Authenticate(context.Background())
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}

func TestUPSCreateShipmentStringNumbers(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/security/v1/oauth/token":
			json.NewEncoder(w).Encode(map[string]any{"access_token": "tok_u", "expires_in": "3600"})
		case "/api/shipments/v1/ship":
			json.NewDecoder(r.Body).Decode(&captured)
			json.NewEncoder(w).Encode(map[string]any{
				"ShipmentResponse": map[string]any{
					"ShipmentResults": map[string]any{
						"ShipmentIdentificationNumber": "1Z999AA10123456784",
						"PackageResults": []map[string]any{
							{"TrackingNumber": "1Z999AA10123456784", "ShippingLabel": map[string]any{"LabelURL": "https://labels.test/ups.gif"}},
						},
					},
				},
			})
		}
	}))
	defer srv.Close()

	g := NewUPSGatewayWithBaseURL("id", "secret", "A1B2C3", srv.URL)
	resp, err := g.CreateShipment(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("CreateShipment failed: %v", err)
	}
	if !resp.Success || resp.TrackingNumber != "1Z999AA10123456784" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	shipment := captured["ShipmentRequest"].(map[string]any)["Shipment"].(map[string]any)
	pkg := shipment["Package"].([]any)[0].(map[string]any)
	weight := pkg["PackageWeight"].(map[string]any)["Weight"]
	if weight != "4.409" {
		t.Errorf("UPS wire weight = %v (%T), want string \"4.409\"", weight, weight)
	}
}

func TestMyUSCreateShipmentRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "k_test" {
			t.Errorf("bad api key %q", r.Header.Get("X-Api-Key"))
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "package weight exceeds service maximum",
			"errors":  []map[string]any{{"field": "packages.0.weight", "message": "max 150 lb"}},
		})
	}))
	defer srv.Close()

	g := NewMyUSGatewayWithBaseURL("k_test", srv.URL)
	resp, err := g.CreateShipment(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("rejection must not be an error: %v", err)
	}
	if resp.Success || resp.ErrorMessage != "package weight exceeds service maximum" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(resp.Errors) != 1 || resp.Errors[0].Code != "packages.0.weight" {
		t.Fatalf("structured errors not carried: %+v", resp.Errors)
	}
}

func TestMyUSTrack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/shipments/MY123/tracking" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"shipment": map[string]any{
				"tracking_number": "MY123",
				"status":          "in_transit",
				"events": []map[string]any{
					{"status": "in_transit", "description": "Departed facility", "location": "Sarasota, FL"},
				},
			},
		})
	}))
	defer srv.Close()

	g := NewMyUSGatewayWithBaseURL("k_test", srv.URL)
	tr, err := g.Track(context.Background(), "MY123")
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if tr.Status != "in_transit" || len(tr.Events) != 1 || tr.Events[0].Location != "Sarasota, FL" {
		t.Fatalf("unexpected tracking response: %+v", tr)
	}
}

// num must emit the normalizer's exact text as a JSON number.
func TestNumExactSerialization(t *testing.T) {
	w := numeric.Normalize(numeric.KgToLb(2.0), numeric.Places)
	data, err := json.Marshal(map[string]any{"weight": num(w)})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"weight":4.409}` {
		t.Fatalf("serialized %s, want {\"weight\":4.409}", data)
	}
}
