package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// KafkaPublisher writes events as JSON to a topic, keyed by market id so a market's
// events stay ordered within one partition. Delivery is asynchronous: Publish only
// waits for the producer to accept the message, and delivery failures are logged.
type KafkaPublisher struct {
	producer sarama.AsyncProducer
	topic    string
	logger   *zap.SugaredLogger
	drained  sync.WaitGroup
}

// NewKafkaPublisher dials brokers with an asynchronous, fully acknowledged producer.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.SugaredLogger) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = false
	cfg.Producer.Return.Errors = true
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, topic, logger), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer and starts draining its
// error channel.
func NewKafkaPublisherWithProducer(producer sarama.AsyncProducer, topic string, logger *zap.SugaredLogger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	p := &KafkaPublisher{producer: producer, topic: topic, logger: logger}
	p.drained.Add(1)
	go p.drainErrors()
	return p
}

func (p *KafkaPublisher) drainErrors() {
	defer p.drained.Done()
	for perr := range p.producer.Errors() {
		eventType := ""
		for _, h := range perr.Msg.Headers {
			if string(h.Key) == "event-type" {
				eventType = string(h.Value)
			}
		}
		p.logger.Warnw("deliver event failed", "type", eventType, "topic", perr.Msg.Topic, "error", perr.Err)
	}
}

// Publish hands the event to the producer. It returns ctx.Err() if the producer's
// input buffer stays full until ctx is done.
func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(evt.MarketID),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(evt.Type)},
		},
	}
	select {
	case p.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("enqueue %s: %w", evt.Type, ctx.Err())
	}
}

// Close flushes buffered messages and waits for the error drain to finish.
func (p *KafkaPublisher) Close() error {
	p.producer.AsyncClose()
	p.drained.Wait()
	return nil
}
