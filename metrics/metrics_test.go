package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/nilsimda/court-scorecard/models"
)

func TestMetrics_ObserveSubmit(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveSubmit(nil)
	m.ObserveSubmit([]models.Field{models.PlayerName, models.OpponentScore})
	m.ObserveSubmit([]models.Field{models.PlayerName})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("accepted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues("rejected")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.validationFailures.WithLabelValues("playerName")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validationFailures.WithLabelValues("opponentScore")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.validationFailures.WithLabelValues("playerScore")))
}

func TestMetrics_ObserveExport(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveExport(true, 10*time.Millisecond)
	m.ObserveExport(false, time.Millisecond)
	m.ObserveExport(false, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.exports.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.exports.WithLabelValues("failure")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSubmit([]models.Field{models.PlayerName})
		m.ObserveExport(true, time.Second)
		m.SetActiveSessions(3)
	})
}
