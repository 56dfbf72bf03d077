package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAttemptObserverCounts(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.AttemptStarted(true)
	m.AttemptStarted(false)
	m.AttemptStarted(true)
	m.AttemptGraded(true)
	m.AttemptsExpired(3)

	if got := testutil.ToFloat64(m.attemptsStarted.WithLabelValues("true")); got != 2 {
		t.Fatalf("expected 2 created starts, got %v", got)
	}
	if got := testutil.ToFloat64(m.attemptsGraded.WithLabelValues("true")); got != 1 {
		t.Fatalf("expected 1 passed grade, got %v", got)
	}
	if got := testutil.ToFloat64(m.attemptsExpired); got != 3 {
		t.Fatalf("expected 3 expired, got %v", got)
	}
}
