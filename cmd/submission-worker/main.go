// The submission worker hosts the Temporal workflow and activities that
// take paid shipments to the carriers. Run at least one of these next
// to the Temporal server; the checkout listener starts the workflows it
// executes.
package main

import (
	"log"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/usama216/shipping-market-sub001/internal/canonical"
	"github.com/usama216/shipping-market-sub001/internal/carrier"
	"github.com/usama216/shipping-market-sub001/internal/config"
	"github.com/usama216/shipping-market-sub001/internal/notify"
	"github.com/usama216/shipping-market-sub001/internal/store"
	"github.com/usama216/shipping-market-sub001/internal/submission"
	"github.com/usama216/shipping-market-sub001/internal/workflow"
	pkgkafka "github.com/usama216/shipping-market-sub001/pkg/kafka"
	pkgrabbit "github.com/usama216/shipping-market-sub001/pkg/rabbitmq"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cfg := config.Load()

	// Database.
	shipmentStore, err := store.NewPostgresStore(cfg.GetDBURL())
	if err != nil {
		log.Fatalf("worker failed to connect to database: %v", err)
	}
	defer shipmentStore.Close()

	// Carrier gateways. A carrier with no credentials is simply not
	// registered; shipments routed to it fail with a configuration
	// error instead of hitting the carrier with empty auth.
	var gateways []carrier.Gateway
	if cfg.DHL_API_USER != "" {
		gateways = append(gateways, carrier.NewDHLGateway(cfg.DHL_API_USER, cfg.DHL_API_KEY, cfg.DHL_ACCOUNT))
	}
	if cfg.FEDEX_CLIENT_ID != "" {
		gateways = append(gateways, carrier.NewFedExGateway(cfg.FEDEX_CLIENT_ID, cfg.FEDEX_SECRET, cfg.FEDEX_ACCOUNT))
	}
	if cfg.UPS_CLIENT_ID != "" {
		gateways = append(gateways, carrier.NewUPSGateway(cfg.UPS_CLIENT_ID, cfg.UPS_SECRET, cfg.UPS_ACCOUNT))
	}
	if cfg.MYUS_API_KEY != "" {
		gateways = append(gateways, carrier.NewMyUSGateway(cfg.MYUS_API_KEY))
	}
	if len(gateways) == 0 {
		log.Println("warning: no carrier credentials configured, every submission will fail")
	}

	submitter := submission.NewSubmitter(shipmentStore, carrier.NewResolver(gateways...), canonical.NewBuilder())

	// RabbitMQ for the tracking-ready email jobs. Optional: without it
	// submissions still run, customers just get no email.
	if cfg.RABBITMQ_HOST != "" {
		rabbitClient, err := pkgrabbit.NewClient(cfg.GetRabbitMQURL())
		if err != nil {
			log.Fatalf("worker failed to connect to RabbitMQ: %v", err)
		}
		defer rabbitClient.Close()
		notifier, err := notify.NewEmailNotifier(rabbitClient)
		if err != nil {
			log.Fatalf("failed to declare notification queue: %v", err)
		}
		submitter.WithNotifier(notifier)
		log.Println("worker connected to RabbitMQ")
	} else {
		log.Println("warning: RabbitMQ config missing, no notification emails")
	}

	// Kafka for downstream shipment.label_ready events. Also optional.
	if cfg.KAFKA_BROKER != "" {
		producer := pkgkafka.NewProducer(cfg.KAFKA_BROKER, cfg.KAFKA_EVENT_TOPIC)
		defer producer.Close()
		submitter.WithEvents(producer)
		log.Println("worker connected to Kafka")
	} else {
		log.Println("warning: Kafka config missing, worker will not publish events")
	}

	// Temporal.
	c, err := client.Dial(client.Options{HostPort: cfg.TEMPORAL_HOST_PORT})
	if err != nil {
		log.Fatalf("unable to create Temporal client: %v", err)
	}
	defer c.Close()
	log.Println("worker connected to Temporal at", cfg.TEMPORAL_HOST_PORT)

	activities := &workflow.SubmissionActivities{Submitter: submitter}

	w := worker.New(c, workflow.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflow.SubmitShipmentWorkflow)
	w.RegisterActivity(activities.SubmitShipment)
	w.RegisterActivity(activities.RecordInterruptedSubmission)

	log.Println("submission worker started")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("unable to start worker: %v", err)
	}
}
