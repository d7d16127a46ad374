package kafka

import (
	"context"
	"log"
	"time"

	skafka "github.com/segmentio/kafka-go"
)

// Handler processes one fetched message. Returning an error leaves the
// offset uncommitted, so the broker redelivers the message later.
type Handler func(ctx context.Context, key, value []byte) error

// Consumer is a committing group consumer around kafka.Reader.
type Consumer struct {
	reader *skafka.Reader
}

// NewConsumer joins the consumer group for one topic. The group ID lets
// multiple replicas split partitions instead of all handling every
// message.
func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{
		reader: skafka.NewReader(skafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 10e3,
			MaxBytes: 10e6,
		}),
	}
}

// Start fetches, handles and commits messages until ctx is cancelled.
// Offsets are committed only after the handler succeeds: a crash or a
// handler error means redelivery, never a lost trigger. Handlers must
// therefore tolerate seeing the same message twice.
func (c *Consumer) Start(ctx context.Context, handler Handler) {
	log.Printf("kafka consumer started, topic=%s group=%s", c.reader.Config().Topic, c.reader.Config().GroupID)
	for {
		if ctx.Err() != nil {
			return
		}

		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("kafka fetch error: %v", err)
			time.Sleep(time.Second)
			continue
		}

		processCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = handler(processCtx, m.Key, m.Value)
		cancel()
		if err != nil {
			log.Printf("kafka handler failed at offset %d: %v", m.Offset, err)
			continue
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			log.Printf("kafka commit failed: %v", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
