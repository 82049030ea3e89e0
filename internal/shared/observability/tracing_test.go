package observability

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestInitTracingWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), "  ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("expected no-op shutdown, got %v", err)
	}

	_, span := Tracer.Start(context.Background(), "noop")
	span.End()
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestIssueCounterBySeverity(t *testing.T) {
	before := counterValue(t, IssuesTotal.WithLabelValues("CRITICAL"))
	IssuesTotal.WithLabelValues("CRITICAL").Add(2)
	if got := counterValue(t, IssuesTotal.WithLabelValues("CRITICAL")) - before; got != 2 {
		t.Fatalf("expected counter delta 2, got %f", got)
	}
}
