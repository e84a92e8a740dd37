package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(reservationCreated.WithLabelValues("ok"))
	IncReservationCreated("ok")
	assert.Equal(t, before+1, testutil.ToFloat64(reservationCreated.WithLabelValues("ok")))

	beforeCritical := testutil.ToFloat64(recommendations.WithLabelValues("critical"))
	IncRecommendation(true)
	assert.Equal(t, beforeCritical+1, testutil.ToFloat64(recommendations.WithLabelValues("critical")))

	beforeFail := testutil.ToFloat64(historyAppendFailures)
	IncHistoryAppendFailure()
	assert.Equal(t, beforeFail+1, testutil.ToFloat64(historyAppendFailures))
}
