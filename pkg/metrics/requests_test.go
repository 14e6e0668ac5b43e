package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/fasilahammed/snapmob-client/pkg/metrics"
)

func TestObserveRequestCountsByStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewRequestMetrics(reg)

	m.ObserveRequest("GET", "/products", 200, 30*time.Millisecond)
	m.ObserveRequest("GET", "/products", 200, 10*time.Millisecond)
	m.ObserveRequest("POST", "/cart", 404, 5*time.Millisecond)

	families, err := reg.Gather()
	assert.NoError(t, err)

	byName := map[string]float64{}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			labels := ""
			for _, pair := range metric.GetLabel() {
				labels += pair.GetName() + "=" + pair.GetValue() + ";"
			}
			if metric.GetCounter() != nil {
				byName[family.GetName()+"{"+labels+"}"] = metric.GetCounter().GetValue()
			}
		}
	}

	assert.Equal(t, 2.0, byName["api_requests_total{method=GET;route=/products;status=200;}"])
	assert.Equal(t, 1.0, byName["api_requests_total{method=POST;route=/cart;status=404;}"])
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *metrics.RequestMetrics
	m.ObserveRequest("GET", "/products", 200, time.Millisecond)
	m.IncFailure("GET", "/products")
}

func TestNilRegistererDisablesRecording(t *testing.T) {
	m := metrics.NewRequestMetrics(nil)
	m.ObserveRequest("", "", 500, time.Second)
	m.IncFailure("", "")
	assert.NotNil(t, m)
}
