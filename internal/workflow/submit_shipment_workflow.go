// Package workflow wraps one submission attempt in a Temporal workflow
// so the attempt survives worker restarts and duplicate triggers.
package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// TaskQueue is the queue both the worker and the starters use.
const TaskQueue = "CARRIER_SUBMISSION_TASK_QUEUE"

// SubmissionWorkflowID derives the workflow ID for a shipment. One
// shipment maps to one workflow ID, so a duplicate trigger for a
// shipment whose submission is still running is rejected by Temporal
// instead of producing a second carrier call.
func SubmissionWorkflowID(shipmentID string) string {
	return "submit-shipment-" + shipmentID
}

// SubmitShipmentWorkflow runs exactly one submission attempt for the
// shipment and, if the attempt dies before writing an outcome, records
// a generic failure so the shipment never ends up with no verdict.
func SubmitShipmentWorkflow(ctx workflow.Context, shipmentID string) error {
	logger := workflow.GetLogger(ctx)

	// The carrier createShipment call is not idempotent: a retry after
	// an ambiguous failure could create a second shipment and a second
	// charge at the carrier. One attempt, no workflow-level retries.
	submitOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}

	err := workflow.ExecuteActivity(
		workflow.WithActivityOptions(ctx, submitOptions),
		"SubmitShipment", shipmentID,
	).Get(ctx, nil)
	if err == nil {
		return nil
	}
	logger.Error("submission attempt died without an outcome", "shipment_id", shipmentID, "error", err)

	// The recovery write is a plain database update, safe to retry
	// until it lands. It only writes if the attempt left no record.
	recordOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    10,
		},
	}

	return workflow.ExecuteActivity(
		workflow.WithActivityOptions(ctx, recordOptions),
		"RecordInterruptedSubmission", shipmentID, err.Error(),
	).Get(ctx, nil)
}
