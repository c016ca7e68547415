package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the conversation flow.
type ChatMetrics struct {
	commandsTotal  *prometheus.CounterVec
	llmCallsTotal  *prometheus.CounterVec
	commandLatency *prometheus.HistogramVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "command",
			Name:      "executed_total",
			Help:      "Total backend operations executed on behalf of the model",
		}, []string{"operation", "outcome"}),
		llmCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "conversation",
			Name:      "llm_calls_total",
			Help:      "Total model completion calls",
		}, []string{"outcome"}),
		commandLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "command",
			Name:      "latency_seconds",
			Help:      "Latency of backend operation execution",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.commandsTotal, m.llmCallsTotal, m.commandLatency)
	return m
}

func (m *ChatMetrics) ObserveCommand(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(operation, outcome).Inc()
	m.commandLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *ChatMetrics) ObserveLLMCall(outcome string) {
	if m == nil {
		return
	}
	m.llmCallsTotal.WithLabelValues(outcome).Inc()
}
