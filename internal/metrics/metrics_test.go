package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(SalesRegistered.WithLabelValues(OutcomeOK))
	SalesRegistered.WithLabelValues(OutcomeOK).Inc()
	after := testutil.ToFloat64(SalesRegistered.WithLabelValues(OutcomeOK))
	if after-before != 1 {
		t.Fatalf("expected counter to increase by 1, got %v", after-before)
	}
}

func TestObserveSince(t *testing.T) {
	ObserveSince("test_op", time.Now().Add(-10*time.Millisecond))
	if count := testutil.CollectAndCount(OperationDuration); count == 0 {
		t.Fatalf("expected histogram series to be collected")
	}
}
