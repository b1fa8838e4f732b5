package core

import "time"

const AVG_COUNT uint8 = 30

// LoadMetrics keeps a rolling average over the last AVG_COUNT asset loads.
type LoadMetrics struct {
	avgCounter uint8
	samples    [AVG_COUNT]float64
	filled     uint8
	msAvg      float64
	loaded     uint64
	failed     uint64
}

func NewLoadMetrics() *LoadMetrics {
	return &LoadMetrics{}
}

func (m *LoadMetrics) RecordLoad(elapsed time.Duration) {
	ms := float64(elapsed) / float64(time.Millisecond)
	m.samples[m.avgCounter] = ms
	m.avgCounter++
	m.avgCounter %= AVG_COUNT
	if m.filled < AVG_COUNT {
		m.filled++
	}

	var sum float64
	for i := uint8(0); i < m.filled; i++ {
		sum += m.samples[i]
	}
	m.msAvg = sum / float64(m.filled)
	m.loaded++
}

func (m *LoadMetrics) RecordFailure() {
	m.failed++
}

// AverageLoadMS is the mean load time in milliseconds of the recent loads.
func (m *LoadMetrics) AverageLoadMS() float64 {
	return m.msAvg
}

func (m *LoadMetrics) Counts() (uint64, uint64) {
	return m.loaded, m.failed
}
