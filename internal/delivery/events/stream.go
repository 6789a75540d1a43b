package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mkravec/product-catalog/internal/pkg/logger"
)

const (
	// StreamName is the JetStream stream for product mutation events
	StreamName = "PRODUCTS"

	// StreamSubjects defines the subjects this stream listens to
	StreamSubjects = "products.events"

	// MaxAge is how long mutation events are retained before discard
	MaxAge = 24 * time.Hour
)

// StreamConfig holds the JetStream stream configuration
type StreamConfig struct {
	js     nats.JetStreamContext
	logger *logger.Logger
}

// NewStreamConfig creates a new stream configuration helper
func NewStreamConfig(js nats.JetStreamContext, log *logger.Logger) *StreamConfig {
	return &StreamConfig{
		js:     js,
		logger: log,
	}
}

// EnsureStream creates the JetStream stream for product mutation events
// if it does not exist yet. Publishes to StreamSubjects fail with
// "no stream matches subject" until a stream is bound to it, so this runs
// before the first publish.
// Stream configuration:
// - Retention: Limits (consumers attach and detach freely)
// - Storage: File (survives restarts)
// - Replicas: 1 (single node)
// - MaxAge: 24 hours (stale mutation events are not useful)
func (s *StreamConfig) EnsureStream() error {
	stream, err := s.js.StreamInfo(StreamName)

	if errors.Is(err, nats.ErrStreamNotFound) {
		// Create new stream
		s.logger.WithFields(map[string]any{
			"stream":   StreamName,
			"subjects": StreamSubjects,
		}).Info("Creating JetStream stream")

		_, err = s.js.AddStream(&nats.StreamConfig{
			Name:        StreamName,
			Subjects:    []string{StreamSubjects},
			Retention:   nats.LimitsPolicy,
			Storage:     nats.FileStorage, // Persisted to disk
			Replicas:    1,
			MaxAge:      MaxAge,
			Discard:     nats.DiscardOld, // Discard old messages when limits reached
			Description: "Product mutation events stream",
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}

		s.logger.Info("JetStream stream created successfully")
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get stream info: %w", err)
	}

	// Stream exists
	s.logger.WithFields(map[string]any{
		"stream":   stream.Config.Name,
		"messages": stream.State.Msgs,
		"bytes":    stream.State.Bytes,
	}).Info("JetStream stream already exists")

	return nil
}
