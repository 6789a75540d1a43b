package events

import (
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravec/product-catalog/internal/pkg/logger"
)

// fakeJetStream records stream provisioning calls. Embedding the interface
// keeps the fake small; only the methods EnsureStream touches are overridden.
type fakeJetStream struct {
	nats.JetStreamContext
	streams map[string]*nats.StreamConfig
}

func newFakeJetStream() *fakeJetStream {
	return &fakeJetStream{streams: make(map[string]*nats.StreamConfig)}
}

func (f *fakeJetStream) StreamInfo(name string, _ ...nats.JSOpt) (*nats.StreamInfo, error) {
	cfg, ok := f.streams[name]
	if !ok {
		return nil, nats.ErrStreamNotFound
	}
	return &nats.StreamInfo{Config: *cfg}, nil
}

func (f *fakeJetStream) AddStream(cfg *nats.StreamConfig, _ ...nats.JSOpt) (*nats.StreamInfo, error) {
	f.streams[cfg.Name] = cfg
	return &nats.StreamInfo{Config: *cfg}, nil
}

func TestEnsureStream_CreatesStreamBoundToEventsSubject(t *testing.T) {
	js := newFakeJetStream()
	sc := NewStreamConfig(js, logger.New("test"))

	err := sc.EnsureStream()
	require.NoError(t, err)

	cfg, ok := js.streams[StreamName]
	require.True(t, ok, "stream should be provisioned")
	assert.Equal(t, []string{StreamSubjects}, cfg.Subjects)
	assert.Equal(t, nats.FileStorage, cfg.Storage)
	assert.Equal(t, MaxAge, cfg.MaxAge)
}

func TestEnsureStream_IdempotentWhenStreamExists(t *testing.T) {
	js := newFakeJetStream()
	sc := NewStreamConfig(js, logger.New("test"))

	require.NoError(t, sc.EnsureStream())
	existing := js.streams[StreamName]

	require.NoError(t, sc.EnsureStream())
	assert.Same(t, existing, js.streams[StreamName])
}
