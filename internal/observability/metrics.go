package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for requests and ticket
// operations.
type Metrics struct {
	mu             sync.Mutex
	requestCount   map[string]int64
	errorCount     map[string]int64
	purchasedUnits int64
	purchaseFails  int64
	sweepsRun      int64
	ticketsExpired int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
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

// RecordPurchase counts units sold by a successful purchase.
func (m *Metrics) RecordPurchase(amount int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purchasedUnits += int64(amount)
}

// RecordPurchaseFailure counts rejected or exhausted purchase attempts.
func (m *Metrics) RecordPurchaseFailure() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purchaseFails++
}

// RecordSweep counts one sweeper pass and the tickets it expired.
func (m *Metrics) RecordSweep(expired int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepsRun++
	m.ticketsExpired += int64(expired)
}

// Snapshot returns current ticket-operation counters.
func (m *Metrics) Snapshot() (purchasedUnits, purchaseFails, sweepsRun, ticketsExpired int64) {
	if m == nil {
		return 0, 0, 0, 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.purchasedUnits, m.purchaseFails, m.sweepsRun, m.ticketsExpired
}
