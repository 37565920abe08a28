package main

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeConflict
	outcomeRejected
	outcomeRateLimited
	outcomeError
)

type OperationMetrics struct {
	Total       int64
	Success     int64
	Conflict    int64
	Rejected    int64
	RateLimited int64
	Error       int64
	Latencies   []time.Duration
	mu          sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, o outcome) {
	atomic.AddInt64(&om.Total, 1)
	switch o {
	case outcomeSuccess:
		atomic.AddInt64(&om.Success, 1)
	case outcomeConflict:
		atomic.AddInt64(&om.Conflict, 1)
	case outcomeRejected:
		atomic.AddInt64(&om.Rejected, 1)
	case outcomeRateLimited:
		atomic.AddInt64(&om.RateLimited, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]
	return avg, min, max, p50, p95
}

func percentileIndex(n, pct int) int {
	idx := n * pct / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	Booking       OperationMetrics
	Reschedule    OperationMetrics
	Cancel        OperationMetrics
	Confirm       OperationMetrics
	ReadByID      OperationMetrics
	ListByPatient OperationMetrics
	FreeSlots     OperationMetrics
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	pct := func(n int64) float64 { return float64(n) / float64(total) * 100 }

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	success := atomic.LoadInt64(&om.Success)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, pct(success))
	for _, c := range []struct {
		label string
		n     int64
	}{
		{"Conflicts", atomic.LoadInt64(&om.Conflict)},
		{"Rejected", atomic.LoadInt64(&om.Rejected)},
		{"Rate limited", atomic.LoadInt64(&om.RateLimited)},
		{"Errors", atomic.LoadInt64(&om.Error)},
	} {
		if c.n > 0 {
			fmt.Printf("  %s: %d (%.1f%%)\n", c.label, c.n, pct(c.n))
		}
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

func repeat(s string, n int) string {
	return strings.Repeat(s, n)
}
