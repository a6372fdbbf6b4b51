package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu             sync.Mutex
	requestCount   map[string]int64
	latencyTotal   map[string]time.Duration
	errorCount     map[string]int64
	eventCount     map[string]int64
	droppedCount   map[string]int64
	publishFailure int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests        map[string]int64   `json:"requests"`
	AvgLatencyMs    map[string]float64 `json:"avg_latency_ms"`
	Errors          map[string]int64   `json:"errors"`
	EventsDelivered map[string]int64   `json:"events_delivered"`
	EventsDropped   map[string]int64   `json:"events_dropped"`
	PublishFailures int64              `json:"publish_failures"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		latencyTotal: make(map[string]time.Duration),
		errorCount:   make(map[string]int64),
		eventCount:   make(map[string]int64),
		droppedCount: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.latencyTotal[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordDelivery counts one event handed to a subscriber.
func (m *Metrics) RecordDelivery(eventType string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventCount[eventType]++
}

// RecordDrop counts one event discarded because a subscriber buffer was full.
func (m *Metrics) RecordDrop(eventType string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.droppedCount[eventType]++
}

// RecordPublishFailure counts a transport error while publishing.
func (m *Metrics) RecordPublishFailure() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishFailure++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Requests:        copyCounts(m.requestCount),
		AvgLatencyMs:    m.averageLatency(),
		Errors:          copyCounts(m.errorCount),
		EventsDelivered: copyCounts(m.eventCount),
		EventsDropped:   copyCounts(m.droppedCount),
		PublishFailures: m.publishFailure,
	}
}

func (m *Metrics) averageLatency() map[string]float64 {
	out := make(map[string]float64, len(m.latencyTotal))
	for key, total := range m.latencyTotal {
		if n := m.requestCount[key]; n > 0 {
			out[key] = float64(total.Microseconds()) / 1000 / float64(n)
		}
	}
	return out
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
