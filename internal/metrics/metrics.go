package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ReplyAI       = "ai"
	ReplyFallback = "fallback"
	ReplyHandoff  = "handoff"
)

// RelayMetrics exposes counters/histograms for the relay pipeline.
type RelayMetrics struct {
	inboundTotal    *prometheus.CounterVec
	intentTotal     *prometheus.CounterVec
	replyTotal      *prometheus.CounterVec
	outboundTotal   *prometheus.CounterVec
	webhookLatency  *prometheus.HistogramVec
	pipelineLatency prometheus.Histogram
}

func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	m := &RelayMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waviate",
			Subsystem: "relay",
			Name:      "inbound_messages_total",
			Help:      "Total normalized inbound WhatsApp messages",
		}, []string{"type"}),
		intentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waviate",
			Subsystem: "relay",
			Name:      "intents_total",
			Help:      "Classified intents of inbound messages",
		}, []string{"intent"}),
		replyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waviate",
			Subsystem: "relay",
			Name:      "replies_total",
			Help:      "Replies produced, by source",
		}, []string{"source"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waviate",
			Subsystem: "relay",
			Name:      "outbound_total",
			Help:      "Total outbound WhatsApp sends",
		}, []string{"kind", "status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "waviate",
			Subsystem: "relay",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of webhook request handling",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		pipelineLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "waviate",
			Subsystem: "relay",
			Name:      "pipeline_latency_seconds",
			Help:      "Latency of processing one inbound message end to end",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.intentTotal, m.replyTotal, m.outboundTotal, m.webhookLatency, m.pipelineLatency)
	return m
}

func (m *RelayMetrics) ObserveInbound(messageType string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(messageType).Inc()
}

func (m *RelayMetrics) ObserveIntent(intent string) {
	if m == nil {
		return
	}
	m.intentTotal.WithLabelValues(intent).Inc()
}

func (m *RelayMetrics) ObserveReply(source string) {
	if m == nil {
		return
	}
	m.replyTotal.WithLabelValues(source).Inc()
}

// ObserveOutbound counts one send; kind is text or template.
func (m *RelayMetrics) ObserveOutbound(kind string, err error) {
	if m == nil {
		return
	}
	status := "sent"
	if err != nil {
		status = "failed"
	}
	m.outboundTotal.WithLabelValues(kind, status).Inc()
}

func (m *RelayMetrics) ObserveWebhookLatency(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(status).Observe(d.Seconds())
}

func (m *RelayMetrics) ObservePipelineLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.pipelineLatency.Observe(d.Seconds())
}
