package observability

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/domain"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu            sync.Mutex
	startedAt     time.Time
	requestCount  map[string]int64
	requestTime   map[string]time.Duration
	errorCount    map[string]int64
	outcomeCount  map[domain.TriageOutcome]int64
	enqueueFailed int64
}

// RouteStats summarizes one method, route and status combination.
type RouteStats struct {
	Key           string  `json:"key"`
	Count         int64   `json:"count"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}

// Snapshot is a point-in-time copy of every counter.
type Snapshot struct {
	UptimeSeconds  float64                        `json:"uptime_seconds"`
	Requests       []RouteStats                   `json:"requests"`
	Errors         map[string]int64               `json:"errors"`
	Outcomes       map[domain.TriageOutcome]int64 `json:"outcomes"`
	EnqueueFailed  int64                          `json:"enqueue_failed"`
	TotalProcessed int64                          `json:"total_processed"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		startedAt:    time.Now(),
		requestCount: make(map[string]int64),
		requestTime:  make(map[string]time.Duration),
		errorCount:   make(map[string]int64),
		outcomeCount: make(map[domain.TriageOutcome]int64),
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
	m.requestTime[key] += duration
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

// RecordOutcome counts a report that reached a terminal record.
func (m *Metrics) RecordOutcome(outcome domain.TriageOutcome) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomeCount[outcome]++
}

// RecordEnqueueFailure counts a report refused at the queue.
func (m *Metrics) RecordEnqueueFailure() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueueFailed++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{Errors: map[string]int64{}, Outcomes: map[domain.TriageOutcome]int64{}}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		UptimeSeconds: time.Since(m.startedAt).Seconds(),
		Requests:      make([]RouteStats, 0, len(m.requestCount)),
		Errors:        make(map[string]int64, len(m.errorCount)),
		Outcomes:      make(map[domain.TriageOutcome]int64, len(m.outcomeCount)),
		EnqueueFailed: m.enqueueFailed,
	}
	for key, count := range m.requestCount {
		stats := RouteStats{Key: key, Count: count}
		if count > 0 {
			stats.AvgDurationMs = float64(m.requestTime[key].Microseconds()) / 1000 / float64(count)
		}
		snap.Requests = append(snap.Requests, stats)
	}
	sort.Slice(snap.Requests, func(i, j int) bool { return snap.Requests[i].Key < snap.Requests[j].Key })
	for key, count := range m.errorCount {
		snap.Errors[key] = count
	}
	for outcome, count := range m.outcomeCount {
		snap.Outcomes[outcome] = count
		snap.TotalProcessed += count
	}
	return snap
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
