// Package kafka provides kafka readiness-probing, topic creation and the
// publisher of per-file batch results
package kafka

import (
	"context"
	"errors"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/zlog"
)

// InitKafkaTopics - creates topics in kafka, already existing topics count as created
func InitKafkaTopics(ctx context.Context, brokerAddr string, delay time.Duration, topics ...string) error {
	client := &kafkago.Client{
		Addr:    kafkago.TCP(brokerAddr),
		Timeout: 10 * time.Second,
	}

	req := kafkago.CreateTopicsRequest{
		Topics: make([]kafkago.TopicConfig, 0, len(topics)),
	}

	for _, t := range topics {
		req.Topics = append(req.Topics, kafkago.TopicConfig{
			Topic:             t,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
	}

	for {
		resp, err := client.CreateTopics(ctx, &req)
		if err != nil {
			zlog.Logger.Warn().Err(err).Dur("retry_in", delay).Msg("Failed to run topics creation request")
			if wErr := wait(ctx, delay); wErr != nil {
				return wErr
			}
			continue
		}

		var topicErr error
		for k, v := range resp.Errors {
			if v != nil && !errors.Is(v, kafkago.TopicAlreadyExists) {
				zlog.Logger.Error().Err(v).Str("topic", k).Msg("Topic creation error")
				topicErr = errors.Join(topicErr, v)
			}
		}
		if topicErr != nil {
			return topicErr
		}

		zlog.Logger.Info().Strs("topics", topics).Msg("All topics created successfully!")
		return nil
	}
}

// WaitKafkaReady - blocks until the broker accepts TCP connections or ctx ends
func WaitKafkaReady(ctx context.Context, brokerAddr string, delay time.Duration) error {
	for {
		conn, err := kafkago.DialContext(ctx, "tcp", brokerAddr)
		if err == nil {
			if errConn := conn.Close(); errConn != nil {
				zlog.Logger.Warn().Err(errConn).Msg("Failed to close connection after testing Kafka readyness")
			}
			zlog.Logger.Info().Str("broker", brokerAddr).Msg("Kafka is ready!")
			return nil
		}

		zlog.Logger.Warn().Err(err).Dur("retry_in", delay).Msg("Kafka not ready")
		if wErr := wait(ctx, delay); wErr != nil {
			return wErr
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
