package metrics

import "github.com/prometheus/client_golang/prometheus"

// RouterMetrics exposes counters/histograms for the inbound message pipeline.
type RouterMetrics struct {
	inboundTotal    *prometheus.CounterVec
	repliesTotal    *prometheus.CounterVec
	handlerRuns     *prometheus.CounterVec
	toolCalls       *prometheus.CounterVec
	pipelineLatency *prometheus.HistogramVec
}

func NewRouterMetrics(reg prometheus.Registerer) *RouterMetrics {
	m := &RouterMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "router",
			Name:      "inbound_total",
			Help:      "Inbound provider messages by outcome",
		}, []string{"status"}),
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "router",
			Name:      "replies_total",
			Help:      "Outbound replies by delivery status",
		}, []string{"status"}),
		handlerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "router",
			Name:      "handler_runs_total",
			Help:      "Handler executions by role",
		}, []string{"handler", "status"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "agent",
			Name:      "tool_calls_total",
			Help:      "Agent tool invocations by tool and outcome",
		}, []string{"tool", "status"}),
		pipelineLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dental",
			Subsystem: "router",
			Name:      "pipeline_latency_seconds",
			Help:      "End-to-end latency per inbound message",
			Buckets:   prometheus.DefBuckets,
		}, []string{"handler"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.repliesTotal, m.handlerRuns, m.toolCalls, m.pipelineLatency)
	return m
}

func (m *RouterMetrics) ObserveInbound(status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(status).Inc()
}

func (m *RouterMetrics) ObserveReply(status string) {
	if m == nil {
		return
	}
	m.repliesTotal.WithLabelValues(status).Inc()
}

func (m *RouterMetrics) ObserveHandlerRun(handler, status string) {
	if m == nil {
		return
	}
	m.handlerRuns.WithLabelValues(handler, status).Inc()
}

func (m *RouterMetrics) ObserveToolCall(tool, status string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, status).Inc()
}

func (m *RouterMetrics) ObservePipelineLatency(handler string, seconds float64) {
	if m == nil {
		return
	}
	m.pipelineLatency.WithLabelValues(handler).Observe(seconds)
}
