package submission

import (
	"context"
	"errors"
	"testing"

	"github.com/usama216/shipping-market-sub001/internal/canonical"
	"github.com/usama216/shipping-market-sub001/internal/carrier"
	"github.com/usama216/shipping-market-sub001/internal/classify"
	"github.com/usama216/shipping-market-sub001/internal/models"
	"github.com/usama216/shipping-market-sub001/internal/store"
)

// fakeGateway scripts one carrier's behavior for a test case.
type fakeGateway struct {
	name        string
	authErr     error
	resp        *carrier.Response
	createErr   error
	lastRequest *canonical.ShipmentRequest
	createCalls int
}

func (f *fakeGateway) Name() string { return f.name }

func (f *fakeGateway) Authenticate(ctx context.Context) error { return f.authErr }

func (f *fakeGateway) CreateShipment(ctx context.Context, req *canonical.ShipmentRequest) (*carrier.Response, error) {
	f.createCalls++
	f.lastRequest = req
	return f.resp, f.createErr
}

func (f *fakeGateway) Track(ctx context.Context, trackingNumber string) (*carrier.TrackingResponse, error) {
	return nil, errors.New("not implemented")
}

type fakeNotifier struct {
	calls int
	last  *models.Shipment
	err   error
}

func (f *fakeNotifier) LabelReady(ctx context.Context, sh *models.Shipment, cust *models.Customer) error {
	f.calls++
	f.last = sh
	return f.err
}

type fakePublisher struct {
	calls int
	err   error
}

func (f *fakePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	f.calls++
	return f.err
}

// seedStore builds a MemoryStore holding one well-formed paid shipment
// selected onto the given carrier service.
func seedStore(t *testing.T, carrierCode string) *store.MemoryStore {
	t.Helper()
	st := store.NewMemoryStore()
	st.Warehouse = &models.Address{
		ID: "wh-1", Name: "Warehouse", Street1: "1 Depot Way",
		City: "Portland", State: "OR", PostalCode: "97201", CountryCode: "US",
		Phone: "+1 503 555 0100", Email: "ops@example.com",
	}
	st.Addresses["addr-1"] = &models.Address{
		ID: "addr-1", Name: "Erika Mustermann", Street1: "Unter den Linden 5",
		City: "Berlin", PostalCode: "10117", CountryCode: "DE",
		Phone: "+49 30 1234567", Email: "erika@example.com",
	}
	st.Customers["cust-1"] = &models.Customer{ID: "cust-1", Name: "Erika Mustermann", Email: "erika@example.com"}
	st.CarrierServices["svc-1"] = &models.CarrierService{
		ID: "svc-1", CarrierCode: carrierCode, ServiceCode: "express",
		APIServiceID: "P", DisplayName: "Express Worldwide",
	}
	st.Shipments["ship-1"] = &models.Shipment{
		ID:                 "ship-1",
		CustomerID:         "cust-1",
		Status:             models.StatusPaid,
		CarrierServiceID:   "svc-1",
		RecipientAddressID: "addr-1",
		DeclaredValue:      120,
		Currency:           "USD",
	}
	st.Packages["ship-1"] = []models.Package{{
		ID: "pkg-1", ShipmentID: "ship-1",
		WeightKg: 2, LengthCm: 30, WidthCm: 20, HeightCm: 10,
		Items: []models.Item{{
			Description: "Ceramic mug", Quantity: 2, UnitValue: 60,
			WeightKg: 1, OriginCountry: "US", HarmonizationCode: "691200",
		}},
	}}
	return st
}

func newSubmitter(st store.ShipmentStore, gw carrier.Gateway) *Submitter {
	return NewSubmitter(st, carrier.NewResolver(gw), canonical.NewBuilder())
}

func TestSubmitSuccess(t *testing.T) {
	st := seedStore(t, "dhl")
	gw := &fakeGateway{name: "dhl", resp: &carrier.Response{
		Success:        true,
		TrackingNumber: "JD014600003828",
		LabelURL:       "https://labels.example.com/JD014600003828.pdf",
		InvoiceURL:     "https://labels.example.com/JD014600003828-invoice.pdf",
	}}
	notifier := &fakeNotifier{}
	events := &fakePublisher{}
	sub := newSubmitter(st, gw).WithNotifier(notifier).WithEvents(events)

	if err := sub.Submit(context.Background(), "ship-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	sh := st.Shipments["ship-1"]
	if sh.Status != models.StatusLabelReady {
		t.Errorf("status = %q, want %q", sh.Status, models.StatusLabelReady)
	}
	if sh.CarrierStatus != models.CarrierStatusSubmitted {
		t.Errorf("carrier status = %q, want submitted", sh.CarrierStatus)
	}
	if sh.TrackingNumber != "JD014600003828" {
		t.Errorf("tracking number = %q", sh.TrackingNumber)
	}
	if sh.CarrierName != "dhl" || sh.ServiceType != "P" {
		t.Errorf("carrier/service = %q/%q, want dhl/P", sh.CarrierName, sh.ServiceType)
	}
	if sh.CarrierErrors != nil {
		t.Errorf("success must not carry an error record, got %+v", sh.CarrierErrors)
	}
	if notifier.calls != 1 {
		t.Errorf("notifier called %d times, want 1", notifier.calls)
	}
	if events.calls != 1 {
		t.Errorf("publisher called %d times, want 1", events.calls)
	}
	// The resolved service code must reach the carrier on the request.
	if gw.lastRequest == nil || gw.lastRequest.ServiceType != "P" {
		t.Errorf("request service type not set from resolution")
	}
}

func TestSubmitAuthRejection(t *testing.T) {
	st := seedStore(t, "dhl")
	gw := &fakeGateway{name: "dhl", authErr: carrier.ErrAuth}
	sub := newSubmitter(st, gw)

	if err := sub.Submit(context.Background(), "ship-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	sh := st.Shipments["ship-1"]
	if sh.Status != models.StatusPaid {
		t.Errorf("status = %q, want paid", sh.Status)
	}
	if sh.CarrierStatus != models.CarrierStatusFailed {
		t.Errorf("carrier status = %q, want failed", sh.CarrierStatus)
	}
	if sh.CarrierErrors == nil {
		t.Fatal("expected an error record")
	}
	if sh.CarrierErrors.ErrorCategory != classify.CategoryAuth {
		t.Errorf("category = %q, want auth_error", sh.CarrierErrors.ErrorCategory)
	}
	if sh.CarrierErrors.CanRetry {
		t.Error("auth failures must not be marked retryable")
	}
	if gw.createCalls != 0 {
		t.Errorf("CreateShipment called %d times after failed auth", gw.createCalls)
	}
}

func TestSubmitTransportFault(t *testing.T) {
	st := seedStore(t, "fedex")
	gw := &fakeGateway{name: "fedex", createErr: errors.New("Post \"https://apis.fedex.com/ship/v1/shipments\": context deadline exceeded")}
	sub := newSubmitter(st, gw)

	if err := sub.Submit(context.Background(), "ship-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	sh := st.Shipments["ship-1"]
	if sh.Status != models.StatusPaid {
		t.Errorf("status = %q, want paid", sh.Status)
	}
	if sh.CarrierErrors == nil {
		t.Fatal("expected an error record")
	}
	if sh.CarrierErrors.ErrorCategory != classify.CategoryNetwork {
		t.Errorf("category = %q, want network_error", sh.CarrierErrors.ErrorCategory)
	}
	if !sh.CarrierErrors.CanRetry {
		t.Error("timeouts must be retryable")
	}
	if sh.TrackingNumber != "" {
		t.Errorf("failure must not set a tracking number, got %q", sh.TrackingNumber)
	}
}

func TestSubmitBusinessRejection(t *testing.T) {
	st := seedStore(t, "ups")
	gw := &fakeGateway{name: "ups", resp: &carrier.Response{
		Success:      false,
		ErrorMessage: "The postal code 10117 is invalid for the destination country",
		Errors:       []models.CarrierErrorDetail{{Code: "120802", Message: "Invalid postal code"}},
	}}
	sub := newSubmitter(st, gw)

	if err := sub.Submit(context.Background(), "ship-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	sh := st.Shipments["ship-1"]
	if sh.CarrierErrors == nil {
		t.Fatal("expected an error record")
	}
	if sh.CarrierErrors.ErrorCategory != classify.CategoryAddressValidation {
		t.Errorf("category = %q, want address_validation", sh.CarrierErrors.ErrorCategory)
	}
	if sh.CarrierErrors.CanRetry {
		t.Error("address rejections need a data fix, not a retry")
	}
	if len(sh.CarrierErrors.Details) != 1 || sh.CarrierErrors.Details[0].Code != "120802" {
		t.Errorf("structured details not carried over: %+v", sh.CarrierErrors.Details)
	}
}

func TestSubmitRejectionWithoutMessage(t *testing.T) {
	st := seedStore(t, "myus")
	gw := &fakeGateway{name: "myus", resp: &carrier.Response{Success: false}}
	sub := newSubmitter(st, gw)

	if err := sub.Submit(context.Background(), "ship-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	sh := st.Shipments["ship-1"]
	if sh.CarrierErrors == nil || sh.CarrierErrors.ErrorCategory != classify.CategoryAPIRejection {
		t.Fatalf("expected api_rejection record, got %+v", sh.CarrierErrors)
	}
}

func TestSubmitGatewayReturnsNothing(t *testing.T) {
	// A gateway that returns neither a response nor an error breaks the
	// gateway contract; the attempt must record that, not crash.
	st := seedStore(t, "dhl")
	gw := &fakeGateway{name: "dhl"}
	sub := newSubmitter(st, gw)

	if err := sub.Submit(context.Background(), "ship-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	sh := st.Shipments["ship-1"]
	if sh.Status != models.StatusPaid {
		t.Errorf("status = %q, want paid", sh.Status)
	}
	if sh.CarrierErrors == nil || sh.CarrierErrors.ErrorCategory != classify.CategorySystem {
		t.Fatalf("expected system_error record, got %+v", sh.CarrierErrors)
	}
}

func TestSubmitUnresolvableCarrier(t *testing.T) {
	st := seedStore(t, "dhl")
	// The shipment points at a service whose carrier has no registered
	// gateway: a configuration fault, handled locally.
	st.CarrierServices["svc-1"].CarrierCode = "tnt"
	gw := &fakeGateway{name: "dhl"}
	sub := newSubmitter(st, gw)

	if err := sub.Submit(context.Background(), "ship-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	sh := st.Shipments["ship-1"]
	if sh.CarrierErrors == nil {
		t.Fatal("expected an error record")
	}
	if sh.CarrierErrors.ErrorCategory != classify.CategorySystem {
		t.Errorf("category = %q, want system_error", sh.CarrierErrors.ErrorCategory)
	}
	if !sh.CarrierErrors.CanRetry {
		t.Error("configuration faults are retryable once fixed")
	}
	if gw.createCalls != 0 {
		t.Error("no carrier call may happen without a resolved gateway")
	}
}

func TestSubmitValidationFailure(t *testing.T) {
	st := seedStore(t, "dhl")
	st.Packages["ship-1"][0].WeightKg = 0
	gw := &fakeGateway{name: "dhl"}
	sub := newSubmitter(st, gw)

	if err := sub.Submit(context.Background(), "ship-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	sh := st.Shipments["ship-1"]
	if sh.CarrierErrors == nil || sh.CarrierErrors.ErrorCategory != classify.CategorySystem {
		t.Fatalf("expected system_error record, got %+v", sh.CarrierErrors)
	}
	if gw.createCalls != 0 {
		t.Error("invalid data must never reach the carrier")
	}
}

func TestSubmitSkipsNonPaidShipment(t *testing.T) {
	st := seedStore(t, "dhl")
	st.Shipments["ship-1"].Status = models.StatusCancelled
	gw := &fakeGateway{name: "dhl"}
	sub := newSubmitter(st, gw)

	if err := sub.Submit(context.Background(), "ship-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if gw.createCalls != 0 {
		t.Error("cancelled shipments must not be submitted")
	}
}

func TestSubmitSkipsAlreadySubmitted(t *testing.T) {
	st := seedStore(t, "dhl")
	st.Shipments["ship-1"].TrackingNumber = "JD000000000001"
	gw := &fakeGateway{name: "dhl", resp: &carrier.Response{Success: true, TrackingNumber: "JD9"}}
	sub := newSubmitter(st, gw)

	if err := sub.Submit(context.Background(), "ship-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if gw.createCalls != 0 {
		t.Error("a shipment with a tracking number must never be resubmitted")
	}
	if st.Shipments["ship-1"].TrackingNumber != "JD000000000001" {
		t.Error("existing tracking number must be untouched")
	}
}

func TestSubmitNotifierFailureDoesNotRevert(t *testing.T) {
	st := seedStore(t, "dhl")
	gw := &fakeGateway{name: "dhl", resp: &carrier.Response{Success: true, TrackingNumber: "JD5"}}
	notifier := &fakeNotifier{err: errors.New("smtp relay down")}
	sub := newSubmitter(st, gw).WithNotifier(notifier)

	if err := sub.Submit(context.Background(), "ship-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	sh := st.Shipments["ship-1"]
	if sh.Status != models.StatusLabelReady || sh.TrackingNumber != "JD5" {
		t.Errorf("notification failure reverted the submission: %+v", sh)
	}
}

func TestSubmitMissingShipment(t *testing.T) {
	st := store.NewMemoryStore()
	sub := newSubmitter(st, &fakeGateway{name: "dhl"})

	err := sub.Submit(context.Background(), "ghost")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestEnsureFailureRecorded(t *testing.T) {
	st := seedStore(t, "dhl")
	sub := newSubmitter(st, &fakeGateway{name: "dhl"})

	if err := sub.EnsureFailureRecorded(context.Background(), "ship-1", "worker lost before the attempt finished"); err != nil {
		t.Fatalf("EnsureFailureRecorded: %v", err)
	}
	sh := st.Shipments["ship-1"]
	if sh.CarrierErrors == nil || sh.CarrierErrors.ErrorCategory != classify.CategorySystem {
		t.Fatalf("expected system_error record, got %+v", sh.CarrierErrors)
	}
	if !sh.CarrierErrors.CanRetry {
		t.Error("interrupted attempts are retryable")
	}

	// A second call must not clobber an outcome that already exists.
	first := sh.CarrierErrors.ID
	if err := sub.EnsureFailureRecorded(context.Background(), "ship-1", "duplicate"); err != nil {
		t.Fatalf("EnsureFailureRecorded second call: %v", err)
	}
	if st.Shipments["ship-1"].CarrierErrors.ID != first {
		t.Error("existing failure record was overwritten")
	}
}

func TestEnsureFailureRecordedSkipsSuccess(t *testing.T) {
	st := seedStore(t, "dhl")
	st.Shipments["ship-1"].TrackingNumber = "JD7"
	sub := newSubmitter(st, &fakeGateway{name: "dhl"})

	if err := sub.EnsureFailureRecorded(context.Background(), "ship-1", "late cleanup"); err != nil {
		t.Fatalf("EnsureFailureRecorded: %v", err)
	}
	if st.Shipments["ship-1"].CarrierErrors != nil {
		t.Error("a submitted shipment must never gain a failure record")
	}
}
