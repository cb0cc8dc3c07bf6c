package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func gatherFamily(t *testing.T, c *Collector, name string) *dto.MetricFamily {
	t.Helper()
	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	return nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, label := range m.GetLabel() {
		if label.GetName() == name {
			return label.GetValue()
		}
	}
	return ""
}

func TestCollectorRecordsRequests(t *testing.T) {
	c := NewCollector(&Config{Enabled: true}, nil)
	c.RecordRequest("fireworks", "frontier-chat", "completed", 1200*time.Millisecond)
	c.RecordRequest("fireworks", "frontier-chat", "completed", 800*time.Millisecond)
	c.RecordRequest("together", "frontier-chat", "failed", 50*time.Millisecond)

	family := gatherFamily(t, c, "meridian_gateway_requests_total")
	if family == nil {
		t.Fatal("requests_total not registered")
	}
	for _, metric := range family.GetMetric() {
		switch labelValue(metric, "provider") {
		case "fireworks":
			if got := metric.GetCounter().GetValue(); got != 2 {
				t.Errorf("fireworks requests = %v, want 2", got)
			}
		case "together":
			if got := metric.GetCounter().GetValue(); got != 1 {
				t.Errorf("together requests = %v, want 1", got)
			}
		}
	}

	duration := gatherFamily(t, c, "meridian_gateway_request_duration_seconds")
	if duration == nil {
		t.Fatal("request_duration_seconds not registered")
	}
}

func TestCollectorRecordsAttemptsAndLatency(t *testing.T) {
	c := NewCollector(&Config{Enabled: true}, nil)
	c.RecordAttempt("fireworks", "transient")
	c.RecordAttempt("fireworks", "")
	c.RecordProviderLatency("fireworks", "frontier-chat", 2*time.Second)

	attempts := gatherFamily(t, c, "meridian_gateway_provider_attempts_total")
	if attempts == nil {
		t.Fatal("provider_attempts_total not registered")
	}
	if got := len(attempts.GetMetric()); got != 2 {
		t.Errorf("got %d attempt series, want 2 (success + transient)", got)
	}

	latency := gatherFamily(t, c, "meridian_gateway_provider_latency_seconds")
	if latency == nil {
		t.Fatal("provider_latency_seconds not registered")
	}
	if got := latency.GetMetric()[0].GetHistogram().GetSampleCount(); got != 1 {
		t.Errorf("latency samples = %d, want 1", got)
	}
}

func TestCollectorCircuitStateEncoding(t *testing.T) {
	c := NewCollector(&Config{Enabled: true}, nil)

	tests := []struct {
		state string
		want  float64
	}{
		{"CLOSED", 1},
		{"HALF_OPEN", 0.5},
		{"OPEN", 0},
	}
	for _, tt := range tests {
		c.SetCircuitState("fireworks", "frontier-chat", tt.state)
		family := gatherFamily(t, c, "meridian_gateway_provider_circuit_state")
		if family == nil {
			t.Fatal("provider_circuit_state not registered")
		}
		if got := family.GetMetric()[0].GetGauge().GetValue(); got != tt.want {
			t.Errorf("state %s = %v, want %v", tt.state, got, tt.want)
		}
	}

	// Unknown states are dropped rather than mis-encoded.
	c.SetCircuitState("fireworks", "frontier-chat", "EXPLODED")
	family := gatherFamily(t, c, "meridian_gateway_provider_circuit_state")
	if got := family.GetMetric()[0].GetGauge().GetValue(); got != 0 {
		t.Errorf("unknown state changed the gauge to %v", got)
	}
}

func TestCollectorRecordsTokensAndCost(t *testing.T) {
	c := NewCollector(&Config{Enabled: true}, nil)
	c.RecordTokens("fireworks", "frontier-chat", 400, 120)
	c.RecordCost("fireworks", "frontier-chat", "catalog", 0.0022)

	tokens := gatherFamily(t, c, "meridian_gateway_tokens_total")
	if tokens == nil {
		t.Fatal("tokens_total not registered")
	}
	var input, output float64
	for _, metric := range tokens.GetMetric() {
		switch labelValue(metric, "direction") {
		case "input":
			input = metric.GetCounter().GetValue()
		case "output":
			output = metric.GetCounter().GetValue()
		}
	}
	if input != 400 || output != 120 {
		t.Errorf("tokens = %v/%v, want 400/120", input, output)
	}

	cost := gatherFamily(t, c, "meridian_gateway_cost_usd_total")
	if cost == nil {
		t.Fatal("cost_usd_total not registered")
	}
	if got := cost.GetMetric()[0].GetCounter().GetValue(); got != 0.0022 {
		t.Errorf("cost = %v, want 0.0022", got)
	}
	if source := labelValue(cost.GetMetric()[0], "source"); source != "catalog" {
		t.Errorf("source label = %q", source)
	}
}

func TestCollectorDisabled(t *testing.T) {
	c := NewCollector(&Config{Enabled: false}, nil)
	c.RecordRequest("fireworks", "frontier-chat", "completed", time.Second)
	c.RecordAttempt("fireworks", "")
	c.RecordTokens("fireworks", "frontier-chat", 1, 1)
	c.RecordCost("fireworks", "frontier-chat", "catalog", 1)

	family := gatherFamily(t, c, "meridian_gateway_requests_total")
	if family != nil && len(family.GetMetric()) != 0 {
		t.Errorf("disabled collector recorded %d series", len(family.GetMetric()))
	}
}

func TestCollectorCustomNamespace(t *testing.T) {
	c := NewCollector(&Config{Enabled: true, Namespace: "acme", Subsystem: "llm"}, nil)
	c.RecordAttempt("fireworks", "")

	if family := gatherFamily(t, c, "acme_llm_provider_attempts_total"); family == nil {
		t.Error("namespaced metric not registered")
	}
}

func TestHandlerServesExposition(t *testing.T) {
	c := NewCollector(&Config{Enabled: true}, nil)
	c.RecordRequest("fireworks", "frontier-chat", "completed", time.Second)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "meridian_gateway_requests_total") {
		t.Error("exposition output missing requests_total")
	}
}
