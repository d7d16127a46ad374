// The checkout listener bridges the checkout flow to the submission
// pipeline: it consumes shipment.paid events from Kafka and starts one
// submission workflow per shipment.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/usama216/shipping-market-sub001/internal/config"
	"github.com/usama216/shipping-market-sub001/internal/workflow"
	pkgkafka "github.com/usama216/shipping-market-sub001/pkg/kafka"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cfg := config.Load()

	if cfg.KAFKA_BROKER == "" {
		log.Fatal("KAFKA_BROKER is required")
	}

	c, err := client.Dial(client.Options{HostPort: cfg.TEMPORAL_HOST_PORT})
	if err != nil {
		log.Fatalf("unable to create Temporal client: %v", err)
	}
	defer c.Close()
	log.Println("listener connected to Temporal at", cfg.TEMPORAL_HOST_PORT)

	consumer := pkgkafka.NewConsumer(
		[]string{cfg.KAFKA_BROKER},
		cfg.KAFKA_PAID_TOPIC,
		"carrier-submission-group",
	)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())

	go consumer.Start(ctx, func(ctx context.Context, key, value []byte) error {
		return handlePaidEvent(ctx, c, value)
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Printf("received %v, shutting down", sig)
	cancel()
}

// paidEvent is the shape checkout publishes on shipment.paid.
type paidEvent struct {
	Event   string `json:"event"`
	Payload struct {
		ShipmentID string `json:"shipment_id"`
	} `json:"payload"`
}

// handlePaidEvent starts the submission workflow for one paid shipment.
// The workflow ID is derived from the shipment ID, so the at-least-once
// delivery of Kafka cannot start two concurrent submissions: a second
// start for a running workflow is rejected, and a re-run after
// completion is cut short by the tracking-number guard in the attempt.
func handlePaidEvent(ctx context.Context, c client.Client, value []byte) error {
	var event paidEvent
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("dropping malformed event: %v", err)
		return nil
	}
	if event.Event != "shipment.paid" || event.Payload.ShipmentID == "" {
		return nil
	}
	shipmentID := event.Payload.ShipmentID

	options := client.StartWorkflowOptions{
		ID:        workflow.SubmissionWorkflowID(shipmentID),
		TaskQueue: workflow.TaskQueue,
	}
	run, err := c.ExecuteWorkflow(ctx, options, workflow.SubmitShipmentWorkflow, shipmentID)
	if err != nil {
		if temporal.IsWorkflowExecutionAlreadyStartedError(err) {
			log.Printf("submission for %s already running, skipping duplicate trigger", shipmentID)
			return nil
		}
		log.Printf("failed to start submission for %s: %v", shipmentID, err)
		return err
	}
	log.Printf("started submission workflow %s (run %s)", run.GetID(), run.GetRunID())
	return nil
}
