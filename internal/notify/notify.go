// Package notify turns a successful submission into an email job on the
// notification queue. Sending itself happens in the notification
// worker; the pipeline only enqueues.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/usama216/shipping-market-sub001/internal/models"
)

// EmailQueue is the work queue the notification worker consumes.
const EmailQueue = "email_jobs"

// QueuePublisher is the slice of the rabbitmq client the notifier uses.
type QueuePublisher interface {
	CreateQueue(queueName string) error
	Publish(ctx context.Context, queueName string, body []byte) error
}

// EmailJob is the payload placed on the email queue.
type EmailJob struct {
	Type    string       `json:"type"`
	Payload EmailPayload `json:"payload"`
}

type EmailPayload struct {
	ShipmentID     string `json:"shipment_id"`
	CustomerName   string `json:"customer_name"`
	CustomerEmail  string `json:"customer_email"`
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
	LabelURL       string `json:"label_url,omitempty"`
}

// EmailNotifier enqueues tracking-ready emails.
type EmailNotifier struct {
	queue QueuePublisher
}

// NewEmailNotifier declares the queue and returns the notifier.
func NewEmailNotifier(queue QueuePublisher) (*EmailNotifier, error) {
	if err := queue.CreateQueue(EmailQueue); err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", EmailQueue, err)
	}
	return &EmailNotifier{queue: queue}, nil
}

// LabelReady enqueues the tracking notification for a submitted
// shipment. The customer may be nil when the shipment has no linked
// account; there is nobody to mail, so this is a no-op.
func (n *EmailNotifier) LabelReady(ctx context.Context, shipment *models.Shipment, customer *models.Customer) error {
	if customer == nil || customer.Email == "" {
		return nil
	}
	job := EmailJob{
		Type: "tracking_ready_email",
		Payload: EmailPayload{
			ShipmentID:     shipment.ID,
			CustomerName:   customer.Name,
			CustomerEmail:  customer.Email,
			TrackingNumber: shipment.TrackingNumber,
			Carrier:        shipment.CarrierName,
			LabelURL:       shipment.LabelURL,
		},
	}
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return n.queue.Publish(ctx, EmailQueue, body)
}
