package kafka

import (
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

type MessageHandler func(key []byte, value []byte) error

// Consumer wraps the Kafka consumer used by fan-out services.
type Consumer struct {
	consumer *kafka.Consumer
}

func NewConsumer(bootstrapServers, groupID string) (*Consumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  bootstrapServers,
		"group.id":           groupID,
		"auto.offset.reset":  "latest",
		"enable.auto.commit": "true",
	})
	if err != nil {
		return nil, err
	}

	return &Consumer{consumer: c}, nil
}

// Subscribe subscribes to the topics, retrying while the broker is still
// creating them at startup.
func (c *Consumer) Subscribe(topics []string) error {
	maxRetries := 15
	retryDelay := 2 * time.Second

	var err error
	for i := 0; i < maxRetries; i++ {
		err = c.consumer.SubscribeTopics(topics, nil)
		if err == nil {
			log.Printf("✅ Subscribed to topics: %v", topics)
			return nil
		}

		if i < maxRetries-1 {
			log.Printf("⚠️ Failed to subscribe to topics: %v, retrying in %v... (attempt %d/%d)",
				err, retryDelay, i+1, maxRetries)
			time.Sleep(retryDelay)
			retryDelay = time.Duration(float64(retryDelay) * 1.5)
		}
	}

	return err
}

// ConsumeMessages polls until SIGINT/SIGTERM or a fatal broker error,
// handing every message to the handler. Handler errors are logged and
// consumption continues.
func (c *Consumer) ConsumeMessages(handler MessageHandler) {
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)

	run := true
	for run {
		select {
		case sig := <-sigchan:
			log.Printf("Caught signal %v: terminating", sig)
			run = false
		default:
			ev := c.consumer.Poll(100)
			if ev == nil {
				continue
			}

			switch e := ev.(type) {
			case *kafka.Message:
				if err := handler(e.Key, e.Value); err != nil {
					log.Printf("❌ Error processing message: %v", err)
				}
			case kafka.Error:
				// Topic errors can resolve once the producer side has
				// created the topic, so only all-brokers-down is fatal.
				if e.Code() == kafka.ErrAllBrokersDown {
					log.Printf("❌ Fatal Kafka error: %v", e)
					run = false
				} else {
					log.Printf("⚠️ Kafka error: %v", e)
				}
			}
		}
	}
}

// UnmarshalMessage unmarshals a Kafka message value into the provided struct.
func UnmarshalMessage(value []byte, v interface{}) error {
	return json.Unmarshal(value, v)
}

func (c *Consumer) Close() {
	c.consumer.Close()
}
