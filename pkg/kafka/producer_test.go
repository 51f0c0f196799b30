package kafka

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	require.Error(t, err)
}

func TestNewProducerAppliesOptions(t *testing.T) {
	p, err := NewProducer(
		WithBrokers([]string{"localhost:9092"}),
		WithCompression("zstd"),
		WithRequiredAcks(1),
		WithHashByKey(true),
		WithTimeouts(time.Second, 2*time.Second),
	)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, kafkago.Zstd, p.writer.Compression)
	assert.Equal(t, kafkago.RequireOne, p.writer.RequiredAcks)
	assert.IsType(t, &kafkago.Hash{}, p.writer.Balancer)
	assert.Equal(t, time.Second, p.writer.WriteTimeout)
	assert.Nil(t, p.metrics)
}

func TestEncode(t *testing.T) {
	at := time.Unix(1700000000, 0)
	msgs, n, err := encode("quotes", []Message{
		{Key: []byte("VALE"), Value: map[string]float64{"current": 12.5}},
		{Key: []byte("raw"), Value: "abc"},
		{Value: []byte("xy")},
	}, at)

	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, `{"current":12.5}`, string(msgs[0].Value))
	assert.Equal(t, "quotes", msgs[0].Topic)
	assert.Equal(t, at, msgs[1].Time)
	assert.Equal(t, int64(16+3+2), n)
}

func TestEncodeRejectsUnmarshalable(t *testing.T) {
	_, _, err := encode("quotes", []Message{{Value: make(chan int)}}, time.Now())
	require.Error(t, err)
}

func TestProducerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newProducerMetrics(reg)

	m.observe("quotes", "gzip", 100, 4, time.Millisecond, nil)
	m.observe("quotes", "gzip", 10, 1, time.Millisecond, errors.New("down"))

	assert.Equal(t, 4.0, testutil.ToFloat64(m.msgs.WithLabelValues("quotes", "gzip", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errs.WithLabelValues("quotes")))
	assert.Equal(t, 110.0, testutil.ToFloat64(m.bytes.WithLabelValues("quotes", "gzip")))

	var nilMetrics *producerMetrics
	nilMetrics.observe("quotes", "gzip", 1, 1, time.Millisecond, nil)
}
