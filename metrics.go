package silentauth

import (
	"sync/atomic"
	"time"
)

// MetricID indexes one engine counter. IDs are stable across a process
// lifetime but not across releases; export by name, not by ordinal.
type MetricID uint16

const (
	// MetricLoginSuccess counts credential logins that issued a pair.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected credential logins.
	MetricLoginFailure
	// MetricRegisterSuccess counts created accounts.
	MetricRegisterSuccess
	// MetricRegisterDuplicate counts registrations rejected for a taken email.
	MetricRegisterDuplicate
	// MetricRegisterFailure counts registrations rejected for any other reason.
	MetricRegisterFailure
	// MetricMint counts issued token pairs across every entry point.
	MetricMint
	// MetricValidateSuccess counts access tokens that verified.
	MetricValidateSuccess
	// MetricValidateFailure counts access tokens that were rejected.
	MetricValidateFailure
	// MetricRotateSuccess counts refresh rotations that issued a pair.
	MetricRotateSuccess
	// MetricRotateFailure counts rejected rotations, replays included.
	MetricRotateFailure
	// MetricReplayDetected counts rotations rejected on a blacklist hit.
	MetricReplayDetected
	// MetricLogout counts logout calls, effective or not.
	MetricLogout
	// MetricLogoutRevoked counts logouts that actually wrote a blacklist entry.
	MetricLogoutRevoked
	// MetricRecoverViaAccess counts recoveries resolved by the access token.
	MetricRecoverViaAccess
	// MetricRecoverViaRotation counts recoveries that fell back to rotation.
	MetricRecoverViaRotation
	// MetricRecoverUnauthenticated counts recoveries that resolved to no session.
	MetricRecoverUnauthenticated
	// MetricValidateLatency is the histogram ID for access validation latency.
	MetricValidateLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

// paddedCounter keeps each counter on its own cache line so hot counters do
// not false-share under concurrent load.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is the engine's lock-free counter set. A nil or disabled Metrics
// accepts every call as a no-op.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics builds a counter set from config.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters record anything.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the validation latency histogram records.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample into the validation histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricValidateLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value reads a single counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and histogram. Reads are atomic per cell,
// not across the set.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricValidateLatency].buckets[i])
		}
		s.Histograms[MetricValidateLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
