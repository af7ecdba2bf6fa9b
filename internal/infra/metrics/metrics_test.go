package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordDelivery(t *testing.T) {
	before := testutil.ToFloat64(notificationDeliveries.WithLabelValues("email", "failed"))
	RecordDelivery("email", errors.New("smtp down"))
	RecordDelivery("email", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(notificationDeliveries.WithLabelValues("email", "failed")))
}

func TestObserveAnalysisCountsFailures(t *testing.T) {
	before := testutil.ToFloat64(analysisFailures)
	ObserveAnalysis(time.Second, nil)
	ObserveAnalysis(time.Second, errors.New("timeout"))
	assert.Equal(t, before+1, testutil.ToFloat64(analysisFailures))
}
