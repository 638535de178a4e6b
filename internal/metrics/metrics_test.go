package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRelayMetrics(reg)

	m.ObserveInbound("text")
	m.ObserveInbound("text")
	m.ObserveIntent("greeting")
	m.ObserveReply(ReplyFallback)
	m.ObserveOutbound("text", nil)
	m.ObserveOutbound("text", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.inboundTotal.WithLabelValues("text")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.intentTotal.WithLabelValues("greeting")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.replyTotal.WithLabelValues(ReplyFallback)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outboundTotal.WithLabelValues("text", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outboundTotal.WithLabelValues("text", "failed")))
}

func TestRelayMetricsHistograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRelayMetrics(reg)

	m.ObserveWebhookLatency("200", 20*time.Millisecond)
	m.ObservePipelineLatency(time.Second)

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRelayMetricsNilSafe(t *testing.T) {
	var m *RelayMetrics
	m.ObserveInbound("text")
	m.ObserveIntent("other")
	m.ObserveReply(ReplyAI)
	m.ObserveOutbound("template", nil)
	m.ObserveWebhookLatency("200", time.Millisecond)
	m.ObservePipelineLatency(time.Millisecond)
}
