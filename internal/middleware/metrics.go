package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics counts HTTP requests and analysis outcomes for GET /metrics.
type Metrics struct {
	start time.Time

	requests        atomic.Uint64
	requestsActive  atomic.Int64
	requestsFailed  atomic.Uint64
	analyses        atomic.Uint64
	analysesActive  atomic.Int64
	analysesSuccess atomic.Uint64

	mu             sync.Mutex
	failuresByKind map[string]uint64
	upstreamStatus map[int]uint64
}

func NewMetrics() *Metrics {
	return &Metrics{
		start:          time.Now(),
		failuresByKind: make(map[string]uint64),
		upstreamStatus: make(map[int]uint64),
	}
}

// BeginAnalysis counts an analysis as in flight. The returned func settles
// it: an empty kind is a success, otherwise the failure is counted under kind
// and, when the provider answered, under its status code.
func (m *Metrics) BeginAnalysis() func(kind string, upstreamStatus int) {
	m.analyses.Add(1)
	m.analysesActive.Add(1)
	var once sync.Once
	return func(kind string, upstreamStatus int) {
		once.Do(func() {
			m.analysesActive.Add(-1)
			if kind == "" {
				m.analysesSuccess.Add(1)
				return
			}
			m.mu.Lock()
			defer m.mu.Unlock()
			m.failuresByKind[kind]++
			if upstreamStatus > 0 {
				m.upstreamStatus[upstreamStatus]++
			}
		})
	}
}

type RequestStats struct {
	Total    uint64 `json:"total"`
	InFlight int64  `json:"in_flight"`
	Failed   uint64 `json:"failed"`
}

type AnalysisStats struct {
	Total          uint64            `json:"total"`
	InFlight       int64             `json:"in_flight"`
	Succeeded      uint64            `json:"succeeded"`
	FailedByKind   map[string]uint64 `json:"failed_by_kind"`
	UpstreamStatus map[string]uint64 `json:"upstream_status"`
}

type MemoryStats struct {
	AllocBytes uint64 `json:"alloc_bytes"`
	SysBytes   uint64 `json:"sys_bytes"`
	NumGC      uint32 `json:"num_gc"`
}

type Snapshot struct {
	Requests      RequestStats  `json:"requests"`
	Analyses      AnalysisStats `json:"analyses"`
	UptimeSeconds float64       `json:"uptime_seconds"`
	Goroutines    int           `json:"goroutines"`
	Memory        MemoryStats   `json:"memory"`
}

func (m *Metrics) Snapshot() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	s := Snapshot{
		Requests: RequestStats{
			Total:    m.requests.Load(),
			InFlight: m.requestsActive.Load(),
			Failed:   m.requestsFailed.Load(),
		},
		Analyses: AnalysisStats{
			Total:          m.analyses.Load(),
			InFlight:       m.analysesActive.Load(),
			Succeeded:      m.analysesSuccess.Load(),
			FailedByKind:   make(map[string]uint64),
			UpstreamStatus: make(map[string]uint64),
		},
		UptimeSeconds: time.Since(m.start).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		Memory: MemoryStats{
			AllocBytes: mem.Alloc,
			SysBytes:   mem.Sys,
			NumGC:      mem.NumGC,
		},
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for k, n := range m.failuresByKind {
		s.Analyses.FailedByKind[k] = n
	}
	for code, n := range m.upstreamStatus {
		s.Analyses.UpstreamStatus[strconv.Itoa(code)] = n
	}
	return s
}

// Middleware counts requests; any status of 400 or above is a failure.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.requests.Add(1)
		m.requestsActive.Add(1)
		defer m.requestsActive.Add(-1)

		wrapped := wrapWriter(w)
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= http.StatusBadRequest {
			m.requestsFailed.Add(1)
		}
	})
}

// Handler serves the snapshot as JSON.
func (m *Metrics) Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m.Snapshot())
}
