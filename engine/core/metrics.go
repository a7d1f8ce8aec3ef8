package core

import (
	"sync"
	"time"

	"github.com/spaghettifunk/tessera/engine/containers"
)

const AVG_COUNT = 30

type MetricsState struct {
	mu sync.Mutex

	frameTimes  *containers.RingQueue[time.Duration]
	msAvg       float64
	frames      int32
	accumulated time.Duration
	fps         float64
}

var onceMetrics sync.Once
var metricsState *MetricsState = nil

func MetricsInitialize() error {
	onceMetrics.Do(func() {
		metricsState = newMetricsState()
	})
	return nil
}

func newMetricsState() *MetricsState {
	return &MetricsState{
		frameTimes: containers.NewRingQueue[time.Duration](AVG_COUNT),
	}
}

// MetricsUpdate records the duration of one rendered frame.
func MetricsUpdate(frameElapsed time.Duration) {
	metricsState.update(frameElapsed)
}

func (m *MetricsState) update(frameElapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.frameTimes.Push(frameElapsed)
	if m.frameTimes.IsFull() {
		var total time.Duration
		m.frameTimes.Each(func(d time.Duration) { total += d })
		m.msAvg = float64(total.Microseconds()) / 1000.0 / float64(m.frameTimes.Len())
	}

	// Frames per second over a sliding one second window.
	m.accumulated += frameElapsed
	m.frames++
	if m.accumulated >= time.Second {
		m.fps = float64(m.frames)
		m.accumulated -= time.Second
		m.frames = 0
	}
}

func (m *MetricsState) frame() (float64, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fps, m.msAvg
}

func MetricsFPS() float64 {
	fps, _ := metricsState.frame()
	return fps
}

func MetricsFrameTime() float64 {
	_, ms := metricsState.frame()
	return ms
}

func MetricsFrame() (float64, float64) {
	return metricsState.frame()
}
