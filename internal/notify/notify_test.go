package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/usama216/shipping-market-sub001/internal/models"
)

type fakeQueue struct {
	declared []string
	messages map[string][][]byte
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{messages: make(map[string][][]byte)}
}

func (f *fakeQueue) CreateQueue(queueName string) error {
	f.declared = append(f.declared, queueName)
	return nil
}

func (f *fakeQueue) Publish(ctx context.Context, queueName string, body []byte) error {
	f.messages[queueName] = append(f.messages[queueName], body)
	return nil
}

func TestLabelReadyEnqueuesEmailJob(t *testing.T) {
	q := newFakeQueue()
	n, err := NewEmailNotifier(q)
	if err != nil {
		t.Fatalf("NewEmailNotifier: %v", err)
	}
	if len(q.declared) != 1 || q.declared[0] != EmailQueue {
		t.Fatalf("queue not declared: %v", q.declared)
	}

	shipment := &models.Shipment{
		ID:             "ship-1",
		TrackingNumber: "JD014600003828",
		CarrierName:    "dhl",
		LabelURL:       "https://labels.example.com/1.pdf",
	}
	customer := &models.Customer{ID: "cust-1", Name: "Erika", Email: "erika@example.com"}

	if err := n.LabelReady(context.Background(), shipment, customer); err != nil {
		t.Fatalf("LabelReady: %v", err)
	}

	msgs := q.messages[EmailQueue]
	if len(msgs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(msgs))
	}
	var job EmailJob
	if err := json.Unmarshal(msgs[0], &job); err != nil {
		t.Fatalf("job is not JSON: %v", err)
	}
	if job.Type != "tracking_ready_email" {
		t.Errorf("type = %q", job.Type)
	}
	if job.Payload.TrackingNumber != "JD014600003828" || job.Payload.CustomerEmail != "erika@example.com" {
		t.Errorf("payload = %+v", job.Payload)
	}
}

func TestLabelReadyWithoutRecipient(t *testing.T) {
	q := newFakeQueue()
	n, err := NewEmailNotifier(q)
	if err != nil {
		t.Fatalf("NewEmailNotifier: %v", err)
	}
	if err := n.LabelReady(context.Background(), &models.Shipment{ID: "s"}, nil); err != nil {
		t.Fatalf("nil customer: %v", err)
	}
	if err := n.LabelReady(context.Background(), &models.Shipment{ID: "s"}, &models.Customer{Name: "x"}); err != nil {
		t.Fatalf("empty email: %v", err)
	}
	if len(q.messages[EmailQueue]) != 0 {
		t.Error("no job may be enqueued without a recipient address")
	}
}
