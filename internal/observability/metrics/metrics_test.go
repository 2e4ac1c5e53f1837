package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRouterMetrics_Observations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRouterMetrics(reg)

	m.ObserveInbound("processed")
	m.ObserveInbound("processed")
	m.ObserveInbound("dropped")
	m.ObserveReply("sent")
	m.ObserveHandlerRun("appointment", "ok")
	m.ObserveToolCall("create_appointment", "ok")
	m.ObserveToolCall("create_appointment", "error")
	m.ObservePipelineLatency("appointment", 0.42)

	if got := testutil.ToFloat64(m.inboundTotal.WithLabelValues("processed")); got != 2 {
		t.Fatalf("expected 2 processed inbound, got %v", got)
	}
	if got := testutil.ToFloat64(m.inboundTotal.WithLabelValues("dropped")); got != 1 {
		t.Fatalf("expected 1 dropped inbound, got %v", got)
	}
	if got := testutil.ToFloat64(m.repliesTotal.WithLabelValues("sent")); got != 1 {
		t.Fatalf("expected 1 sent reply, got %v", got)
	}
	if got := testutil.ToFloat64(m.handlerRuns.WithLabelValues("appointment", "ok")); got != 1 {
		t.Fatalf("expected 1 handler run, got %v", got)
	}
	if got := testutil.ToFloat64(m.toolCalls.WithLabelValues("create_appointment", "error")); got != 1 {
		t.Fatalf("expected 1 failed tool call, got %v", got)
	}
}

func TestRouterMetrics_NilSafe(t *testing.T) {
	var m *RouterMetrics
	m.ObserveInbound("processed")
	m.ObserveReply("sent")
	m.ObserveHandlerRun("doctor", "ok")
	m.ObserveToolCall("get_doctor", "ok")
	m.ObservePipelineLatency("doctor", 0.1)
}
