package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveCommand(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChatMetrics(reg)

	m.ObserveCommand("book_appointment", "success", 0.02)
	m.ObserveCommand("book_appointment", "success", 0.03)
	m.ObserveCommand("cancel_appointment", "no_match", 0.01)

	assert.InDelta(t, 2.0, testutil.ToFloat64(m.commandsTotal.WithLabelValues("book_appointment", "success")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.commandsTotal.WithLabelValues("cancel_appointment", "no_match")), 1e-9)
}

func TestObserveLLMCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChatMetrics(reg)

	m.ObserveLLMCall("success")
	m.ObserveLLMCall("error")
	m.ObserveLLMCall("error")

	assert.InDelta(t, 2.0, testutil.ToFloat64(m.llmCallsTotal.WithLabelValues("error")), 1e-9)
}

func TestNilReceiverSafe(t *testing.T) {
	var m *ChatMetrics
	m.ObserveCommand("get_doctors", "success", 0)
	m.ObserveLLMCall("success")
}
