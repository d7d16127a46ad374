// Package submission drives one carrier submission attempt end to end:
// load, resolve, build, submit, persist. It is the only writer of a
// shipment's carrier_* fields and of status transitions away from paid.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/usama216/shipping-market-sub001/internal/canonical"
	"github.com/usama216/shipping-market-sub001/internal/carrier"
	"github.com/usama216/shipping-market-sub001/internal/classify"
	"github.com/usama216/shipping-market-sub001/internal/models"
	"github.com/usama216/shipping-market-sub001/internal/store"
)

// Notifier delivers the tracking-ready notification. Failures are
// logged, never propagated: a lost email must not revert a successful
// submission.
type Notifier interface {
	LabelReady(ctx context.Context, shipment *models.Shipment, customer *models.Customer) error
}

// Publisher is the slice of the kafka producer the submitter needs.
type Publisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

// Submitter orchestrates submission attempts. Construct once, share
// freely; all per-attempt state lives on the stack.
type Submitter struct {
	store    store.ShipmentStore
	resolver *carrier.Resolver
	builder  *canonical.Builder
	notifier Notifier  // optional
	events   Publisher // optional
}

func NewSubmitter(st store.ShipmentStore, resolver *carrier.Resolver, builder *canonical.Builder) *Submitter {
	return &Submitter{store: st, resolver: resolver, builder: builder}
}

// WithNotifier attaches the best-effort notification side effect.
func (s *Submitter) WithNotifier(n Notifier) *Submitter {
	s.notifier = n
	return s
}

// WithEvents attaches the best-effort event publisher.
func (s *Submitter) WithEvents(p Publisher) *Submitter {
	s.events = p
	return s
}

// Submit runs one submission attempt for the shipment. It returns an
// error only for infrastructure faults the caller's retry policy should
// see (store unreachable, record missing); every carrier-level outcome,
// good or bad, is persisted and returns nil.
//
// The attempt is single-shot by design: carrier createShipment calls
// are not idempotent, so retrying here could create duplicate shipments
// and duplicate charges at the carrier. Resubmission is an explicit
// operator action.
func (s *Submitter) Submit(ctx context.Context, shipmentID string) error {
	// 1. Load everything the attempt needs in one eager read.
	data, err := s.store.GetSubmissionData(ctx, shipmentID)
	if err != nil {
		return fmt.Errorf("load shipment %s: %w", shipmentID, err)
	}
	shipment := data.Shipment

	if shipment.TrackingNumber != "" {
		// Already at the carrier; a second submission would duplicate
		// it. Nothing to do.
		log.Printf("[Submitter] shipment %s already has tracking number %s, skipping", shipmentID, shipment.TrackingNumber)
		return nil
	}
	if shipment.Status != models.StatusPaid {
		log.Printf("[Submitter] shipment %s is %s, not paid, skipping", shipmentID, shipment.Status)
		return nil
	}

	// 2. Resolve the carrier. A miss is a configuration problem, not a
	// carrier rejection: record it as system_error and stop.
	gateway, serviceCode, err := s.resolver.Resolve(shipment, data.CarrierService)
	if err != nil {
		if errors.Is(err, carrier.ErrConfiguration) {
			return s.recordFailure(ctx, shipmentID, classify.System(err.Error()))
		}
		return fmt.Errorf("resolve carrier for %s: %w", shipmentID, err)
	}

	// 3. Build the canonical request. Validation failures are local:
	// never offered to the carrier.
	req, err := s.builder.Build(shipment, data.Packages, data.WarehouseAddress, data.RecipientAddress)
	if err != nil {
		if errors.Is(err, canonical.ErrValidation) {
			return s.recordFailure(ctx, shipmentID, classify.System(err.Error()))
		}
		return fmt.Errorf("build request for %s: %w", shipmentID, err)
	}
	req.ServiceType = serviceCode

	// 4. Authenticate, then create. These are the only suspension
	// points of the attempt; a timeout here classifies like any other
	// transport fault.
	if err := gateway.Authenticate(ctx); err != nil {
		return s.recordFailure(ctx, shipmentID, classify.ClassifyErr(err))
	}

	resp, err := gateway.CreateShipment(ctx, req)
	if err != nil {
		// Transport fault: timeout, connection failure, malformed
		// response. Classified by message heuristics.
		return s.recordFailure(ctx, shipmentID, classify.ClassifyErr(err))
	}
	if resp == nil {
		// A gateway must return a response or an error. Record the
		// breach instead of letting it crash the attempt.
		return s.recordFailure(ctx, shipmentID, classify.System(fmt.Sprintf("carrier %s returned neither response nor error", gateway.Name())))
	}
	if !resp.Success {
		// Ordinary business rejection. Classify the carrier's text.
		ce := classify.Rejection()
		if resp.ErrorMessage != "" {
			ce = classify.Classify(resp.ErrorMessage)
		}
		return s.recordFailure(ctx, shipmentID, ce.WithDetails(resp.Errors))
	}

	// 5. Success: persist the terminal state.
	if err := s.store.MarkSubmitted(ctx, shipmentID, resp.TrackingNumber, gateway.Name(), serviceCode, resp.LabelURL, resp.InvoiceURL); err != nil {
		return fmt.Errorf("persist submission for %s: %w", shipmentID, err)
	}
	log.Printf("[Submitter] shipment %s submitted to %s, tracking %s", shipmentID, gateway.Name(), resp.TrackingNumber)

	// Side effects after the state is durable. Their failure never
	// reverts a successful submission.
	shipment.TrackingNumber = resp.TrackingNumber
	shipment.CarrierName = gateway.Name()
	shipment.ServiceType = serviceCode
	shipment.LabelURL = resp.LabelURL
	shipment.Status = models.StatusLabelReady
	shipment.CarrierStatus = models.CarrierStatusSubmitted
	if s.notifier != nil {
		if err := s.notifier.LabelReady(ctx, shipment, data.Customer); err != nil {
			log.Printf("[Submitter] notification for %s failed (ignored): %v", shipmentID, err)
		}
	}
	if s.events != nil {
		event := map[string]interface{}{
			"event_id": uuid.NewString(),
			"event":    "shipment.label_ready",
			"payload": map[string]interface{}{
				"shipment_id":     shipment.ID,
				"tracking_number": shipment.TrackingNumber,
				"carrier":         shipment.CarrierName,
			},
		}
		if err := s.events.Publish(ctx, shipment.ID, event); err != nil {
			log.Printf("[Submitter] event publish for %s failed (ignored): %v", shipmentID, err)
		}
	}
	return nil
}

// EnsureFailureRecorded writes a generic retryable system_error record
// unless the attempt already persisted a more specific outcome. The
// workflow layer calls this when the single allowed attempt dies
// without reaching a terminal write (worker crash, hard timeout).
func (s *Submitter) EnsureFailureRecorded(ctx context.Context, shipmentID, reason string) error {
	shipment, err := s.store.GetShipment(ctx, shipmentID)
	if err != nil {
		return err
	}
	if shipment.TrackingNumber != "" || shipment.CarrierErrors != nil {
		return nil
	}
	return s.recordFailure(ctx, shipmentID, classify.System(reason))
}

func (s *Submitter) recordFailure(ctx context.Context, shipmentID string, ce classify.ClassifiedError) error {
	record := &models.CarrierErrors{
		ID:            uuid.NewString(),
		ErrorCategory: ce.Category,
		Message:       ce.Message,
		RawMessage:    ce.RawMessage,
		Details:       ce.Details,
		CanRetry:      ce.CanRetry,
		OccurredAt:    ce.OccurredAt,
	}
	if err := s.store.MarkFailed(ctx, shipmentID, record); err != nil {
		return fmt.Errorf("persist failure for %s: %w", shipmentID, err)
	}
	log.Printf("[Submitter] shipment %s failed: category=%s can_retry=%v raw=%q",
		shipmentID, ce.Category, ce.CanRetry, ce.RawMessage)
	return nil
}
