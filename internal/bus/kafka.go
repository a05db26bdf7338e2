package bus

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// Forwarder mirrors bus events onto a Kafka topic so out-of-process consumers
// (the sales dashboard) can follow cart and checkout activity. Best effort:
// a failed write is logged and dropped, never surfaced to the publisher.
type Forwarder struct {
	writer  *kafka.Writer
	logger  *log.Logger
	timeout time.Duration
}

type envelope struct {
	Kind    string `json:"kind"`
	Payload Event  `json:"payload"`
}

func NewForwarder(brokers []string, topic string, logger *log.Logger) *Forwarder {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &Forwarder{writer: w, logger: logger, timeout: 5 * time.Second}
}

// Handle is a bus.Handler; subscribe it on the bus.
func (f *Forwarder) Handle(e Event) {
	body, err := json.Marshal(envelope{Kind: e.Kind(), Payload: e})
	if err != nil {
		f.logger.Printf("kafka forwarder: marshal %s: %v", e.Kind(), err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	if err := f.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Kind()),
		Value: body,
	}); err != nil {
		f.logger.Printf("kafka forwarder: write %s: %v", e.Kind(), err)
	}
}

func (f *Forwarder) Close() error {
	return f.writer.Close()
}
