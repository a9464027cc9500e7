package input

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// latencySamples is the size of the latency ring.
const latencySamples = 1000

type counter int

const (
	cntKeys counter = iota
	cntCommands
	cntMappings
	cntErrors
	cntTimeouts
	cntHooks
	numCounters
)

// Metrics counts the work of an engine and samples per-key latency.
// Recording is lock-free except for the latency ring.
type Metrics struct {
	counts  [numCounters]atomic.Uint64
	peak    atomic.Int64
	enabled atomic.Bool

	mu    sync.Mutex
	ring  []time.Duration
	next  int
	since time.Time
}

// NewMetrics returns enabled metrics.
func NewMetrics() *Metrics {
	m := &Metrics{ring: make([]time.Duration, 0, latencySamples), since: time.Now()}
	m.enabled.Store(true)
	return m
}

// SetEnabled turns recording on or off.
func (m *Metrics) SetEnabled(enabled bool) { m.enabled.Store(enabled) }

// IsEnabled reports whether recording is on.
func (m *Metrics) IsEnabled() bool { return m.enabled.Load() }

func (m *Metrics) inc(c counter) {
	if m.enabled.Load() {
		m.counts[c].Add(1)
	}
}

// RecordKeyEvent records one typed key and the time it took.
func (m *Metrics) RecordKeyEvent(latency time.Duration) {
	if !m.enabled.Load() {
		return
	}
	m.counts[cntKeys].Add(1)
	for ns := latency.Nanoseconds(); ; {
		cur := m.peak.Load()
		if ns <= cur || m.peak.CompareAndSwap(cur, ns) {
			break
		}
	}

	m.mu.Lock()
	if len(m.ring) < latencySamples {
		m.ring = append(m.ring, latency)
	} else {
		m.ring[m.next] = latency
	}
	m.next = (m.next + 1) % latencySamples
	m.mu.Unlock()
}

func (m *Metrics) RecordCommand()         { m.inc(cntCommands) }
func (m *Metrics) RecordMapping()         { m.inc(cntMappings) }
func (m *Metrics) RecordError()           { m.inc(cntErrors) }
func (m *Metrics) RecordSequenceTimeout() { m.inc(cntTimeouts) }
func (m *Metrics) RecordHookConsumption() { m.inc(cntHooks) }

// KeyEventsTotal returns the number of typed keys.
func (m *Metrics) KeyEventsTotal() uint64 { return m.counts[cntKeys].Load() }

// CommandsTotal returns the number of dispatched commands.
func (m *Metrics) CommandsTotal() uint64 { return m.counts[cntCommands].Load() }

// MetricsSnapshot is a copy of the metrics at one instant. Latency
// figures other than the peak cover the last samples only.
type MetricsSnapshot struct {
	KeyEventsTotal   uint64
	CommandsTotal    uint64
	MappingsTotal    uint64
	ErrorsTotal      uint64
	SequenceTimeouts uint64
	HookConsumptions uint64

	AvgKeyLatency  time.Duration
	MaxKeyLatency  time.Duration
	P99KeyLatency  time.Duration
	PeakKeyLatency time.Duration

	EventsPerSecond float64
	Uptime          time.Duration
}

// Snapshot copies the metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	samples := slices.Clone(m.ring)
	uptime := time.Since(m.since)
	m.mu.Unlock()

	s := MetricsSnapshot{
		KeyEventsTotal:   m.counts[cntKeys].Load(),
		CommandsTotal:    m.counts[cntCommands].Load(),
		MappingsTotal:    m.counts[cntMappings].Load(),
		ErrorsTotal:      m.counts[cntErrors].Load(),
		SequenceTimeouts: m.counts[cntTimeouts].Load(),
		HookConsumptions: m.counts[cntHooks].Load(),
		PeakKeyLatency:   time.Duration(m.peak.Load()),
		Uptime:           uptime,
	}
	if uptime > 0 {
		s.EventsPerSecond = float64(s.KeyEventsTotal) / uptime.Seconds()
	}
	if len(samples) > 0 {
		slices.Sort(samples)
		var sum time.Duration
		for _, d := range samples {
			sum += d
		}
		s.AvgKeyLatency = sum / time.Duration(len(samples))
		s.MaxKeyLatency = samples[len(samples)-1]
		s.P99KeyLatency = samples[min(len(samples)*99/100, len(samples)-1)]
	}
	return s
}

// Reset zeroes every counter and drops the samples.
func (m *Metrics) Reset() {
	for i := range m.counts {
		m.counts[i].Store(0)
	}
	m.peak.Store(0)

	m.mu.Lock()
	m.ring = m.ring[:0]
	m.next = 0
	m.since = time.Now()
	m.mu.Unlock()
}

// HealthStatus compares the peak key latency with a threshold.
type HealthStatus struct {
	Healthy          bool
	PeakLatency      time.Duration
	LatencyThreshold time.Duration
	Message          string
}

// HealthCheck reports whether no key took longer than threshold.
func (m *Metrics) HealthCheck(threshold time.Duration) HealthStatus {
	peak := time.Duration(m.peak.Load())
	if peak > threshold {
		return HealthStatus{PeakLatency: peak, LatencyThreshold: threshold, Message: "latency threshold exceeded"}
	}
	return HealthStatus{Healthy: true, PeakLatency: peak, LatencyThreshold: threshold, Message: "healthy"}
}
