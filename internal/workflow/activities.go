package workflow

import (
	"context"

	"github.com/usama216/shipping-market-sub001/internal/submission"
)

// SubmissionActivities hosts the activity implementations. The worker
// registers its methods; the workflow invokes them by name.
type SubmissionActivities struct {
	Submitter *submission.Submitter
}

// SubmitShipment runs the whole submission attempt. It returns an error
// only for infrastructure faults; carrier outcomes are persisted inside
// and surface as a completed activity.
func (a *SubmissionActivities) SubmitShipment(ctx context.Context, shipmentID string) error {
	return a.Submitter.Submit(ctx, shipmentID)
}

// RecordInterruptedSubmission writes the fallback failure record for an
// attempt that died mid-flight. Idempotent: it does nothing if the
// attempt already left an outcome.
func (a *SubmissionActivities) RecordInterruptedSubmission(ctx context.Context, shipmentID, reason string) error {
	return a.Submitter.EnsureFailureRecorded(ctx, shipmentID, reason)
}
