// The notification worker drains the email job queue and sends the
// tracking-ready emails. Delivery is decoupled from the submission
// pipeline on purpose: a slow or failing mail provider never slows a
// carrier submission down.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/usama216/shipping-market-sub001/internal/config"
	"github.com/usama216/shipping-market-sub001/internal/notify"
	pkgrabbit "github.com/usama216/shipping-market-sub001/pkg/rabbitmq"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cfg := config.Load()

	log.Printf("connecting to RabbitMQ at %s", cfg.RABBITMQ_HOST)
	rabbitClient, err := pkgrabbit.NewClient(cfg.GetRabbitMQURL())
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	if err := rabbitClient.CreateQueue(notify.EmailQueue); err != nil {
		log.Fatalf("failed to declare email queue: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(1)
	go runEmailWorker(ctx, rabbitClient, &wg)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Printf("received %v, shutting down", sig)

	cancel()
	wg.Wait()
	if err := rabbitClient.Close(); err != nil {
		log.Printf("error closing RabbitMQ connection: %v", err)
	}
	log.Println("notification worker stopped")
}

func runEmailWorker(ctx context.Context, client *pkgrabbit.Client, wg *sync.WaitGroup) {
	defer wg.Done()

	msgs, err := client.Consume(notify.EmailQueue)
	if err != nil {
		log.Printf("email worker failed to start consuming: %v", err)
		return
	}
	log.Println("email worker waiting for jobs")

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				return
			}
			var job notify.EmailJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				log.Printf("dropping malformed email job: %v", err)
				d.Ack(false)
				continue
			}
			sendTrackingEmail(job)
			if err := d.Ack(false); err != nil {
				log.Printf("failed to ack email job: %v", err)
			}
		}
	}
}

// sendTrackingEmail hands the job to the mail provider. Wire the real
// provider (SendGrid, SES) here; the pipeline only guarantees the job
// reaches this point at least once.
func sendTrackingEmail(job notify.EmailJob) {
	log.Printf("sending %s to %s: shipment %s, tracking %s (%s)",
		job.Type, job.Payload.CustomerEmail, job.Payload.ShipmentID,
		job.Payload.TrackingNumber, job.Payload.Carrier)
}
