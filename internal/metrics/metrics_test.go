package metrics

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountersAreConcurrencySafe(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.IncrementCounter(StagesAdvanced)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), m.GetCounters()[StagesAdvanced])
}

func TestTimers(t *testing.T) {
	m := NewMetrics()
	m.RecordTimer(PlatformCall, 30)
	m.RecordTimer(PlatformCall, 10)
	m.RecordTimer(PlatformCall, 20)

	got := m.GetTimers()[PlatformCall]
	assert.Equal(t, TimerMetric{Count: 3, TotalTimeMs: 60, AverageTimeMs: 20, MinTimeMs: 10, MaxTimeMs: 30}, got)
}

func TestErrorRates(t *testing.T) {
	m := NewMetrics()
	m.RecordSuccess(TrackingCommand)
	m.RecordResult(TrackingCommand, nil)
	m.RecordResult(TrackingCommand, errors.New("invalid"))
	m.RecordError(TrackingCommand)

	got := m.GetErrorRates()[TrackingCommand]
	assert.Equal(t, int64(4), got.Total)
	assert.Equal(t, int64(2), got.Errors)
	assert.InDelta(t, 50.0, got.ErrorRate, 0.001)
}

func TestHealth(t *testing.T) {
	m := NewMetrics()
	assert.True(t, m.Healthy())

	m.SetHealth(ComponentPlatform, true)
	m.SetHealth(ComponentPublisher, false)
	assert.False(t, m.Healthy())
	assert.Equal(t, map[string]bool{ComponentPlatform: true, ComponentPublisher: false}, m.GetHealthChecks())

	m.SetHealth(ComponentPublisher, true)
	assert.True(t, m.Healthy())
}

func TestSnapshot(t *testing.T) {
	m := NewMetrics()
	m.SetGauge(PendingUnits, 7)
	m.SetGauge(PendingUnits, 4)

	snap := m.GetAllMetrics()
	assert.Equal(t, int64(4), snap.Gauges[PendingUnits])
	assert.NotNil(t, snap.Counters)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, int64(0))
}
