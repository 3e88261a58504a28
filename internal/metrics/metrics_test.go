package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()

	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}

	if m.registry == nil {
		t.Error("Registry is nil")
	}

	if m.RequestsTotal == nil {
		t.Error("RequestsTotal is nil")
	}
	if m.ValidationsTotal == nil {
		t.Error("ValidationsTotal is nil")
	}
	if m.ExecutionsTotal == nil {
		t.Error("ExecutionsTotal is nil")
	}
	if m.ExecutionDuration == nil {
		t.Error("ExecutionDuration is nil")
	}
	if m.StepsTotal == nil {
		t.Error("StepsTotal is nil")
	}
	if m.ScheduledRunsTotal == nil {
		t.Error("ScheduledRunsTotal is nil")
	}
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()

	// Record some sample metrics so they appear in output
	m.RequestsTotal.WithLabelValues("/execute", "POST").Inc()
	m.RecordValidation(true)
	m.RecordExecution(true, 0.2)
	m.StepsTotal.WithLabelValues("completed").Inc()
	m.ScheduledRunsTotal.WithLabelValues("success").Inc()

	handler := m.Handler()
	if handler == nil {
		t.Fatal("Handler returned nil")
	}

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	body := w.Body.String()

	expectedMetrics := []string{
		"http_requests_total",
		"plan_validations_total",
		"plan_executions_total",
		"plan_execution_duration_seconds",
		"plan_steps_total",
		"scheduled_runs_total",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(body, metric) {
			t.Errorf("Metrics output missing: %s", metric)
		}
	}
}

func TestRecordValidation(t *testing.T) {
	m := NewMetrics()

	m.RecordValidation(true)
	m.RecordValidation(true)
	m.RecordValidation(false)

	metricFamilies, err := m.registry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	counts := make(map[string]float64)
	for _, mf := range metricFamilies {
		if *mf.Name != "plan_validations_total" {
			continue
		}
		for _, metric := range mf.Metric {
			for _, label := range metric.Label {
				if *label.Name == "outcome" {
					counts[*label.Value] = *metric.Counter.Value
				}
			}
		}
	}

	if counts["valid"] != 2 {
		t.Errorf("Expected 2 valid validations, got %f", counts["valid"])
	}
	if counts["invalid"] != 1 {
		t.Errorf("Expected 1 invalid validation, got %f", counts["invalid"])
	}
}

func TestRecordExecution(t *testing.T) {
	m := NewMetrics()

	m.RecordExecution(true, 0.1)
	m.RecordExecution(false, 0.5)

	metricFamilies, err := m.registry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	counts := make(map[string]float64)
	var observed uint64
	for _, mf := range metricFamilies {
		switch *mf.Name {
		case "plan_executions_total":
			for _, metric := range mf.Metric {
				for _, label := range metric.Label {
					if *label.Name == "status" {
						counts[*label.Value] = *metric.Counter.Value
					}
				}
			}
		case "plan_execution_duration_seconds":
			for _, metric := range mf.Metric {
				observed = *metric.Histogram.SampleCount
			}
		}
	}

	if counts["success"] != 1 {
		t.Errorf("Expected 1 successful execution, got %f", counts["success"])
	}
	if counts["failure"] != 1 {
		t.Errorf("Expected 1 failed execution, got %f", counts["failure"])
	}
	if observed != 2 {
		t.Errorf("Expected 2 duration observations, got %d", observed)
	}
}

func TestMetricsIsolation(t *testing.T) {
	// Each instance carries its own registry.
	m1 := NewMetrics()
	m2 := NewMetrics()

	m1.RecordValidation(true)
	m1.RecordValidation(true)
	m2.RecordValidation(true)

	value := func(m *Metrics) float64 {
		metricFamilies, _ := m.registry.Gather()
		for _, mf := range metricFamilies {
			if *mf.Name == "plan_validations_total" {
				if len(mf.Metric) > 0 {
					return *mf.Metric[0].Counter.Value
				}
			}
		}
		return 0
	}

	if got := value(m1); got != 2 {
		t.Errorf("m1: Expected value 2, got %f", got)
	}
	if got := value(m2); got != 1 {
		t.Errorf("m2: Expected value 1, got %f", got)
	}
}
