// Package perf provides optional latency instrumentation for the book
// engine's hot-path operations. It is a no-op unless explicitly
// enabled, so the common case pays nothing for it.
package perf

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/grd/stat"
)

// durations adapts a []time.Duration to github.com/grd/stat's sample
// interface (Len/Get), the same adapter shape used to feed it batches
// of latency samples.
type durations []time.Duration

func (d durations) Len() int          { return len(d) }
func (d durations) Get(i int) float64 { return float64(d[i]) }

// Timer measures the wall-clock duration of a hot-path operation. It
// reads a monotonic clock via time.Now/time.Since, the portable Go
// substitute for a CPU-timestamp-counter read.
type Timer struct {
	start   time.Time
	enabled bool
}

// StartTimer begins timing. When enabled is false the returned Timer
// is inert and Stop is free.
func StartTimer(enabled bool) Timer {
	if !enabled {
		return Timer{}
	}
	return Timer{start: time.Now(), enabled: true}
}

// Stop returns the elapsed duration, or zero if the timer was disabled.
func (t Timer) Stop() time.Duration {
	if !t.enabled {
		return 0
	}
	return time.Since(t.start)
}

// Histogram accumulates latency samples per named operation and
// reports min/max/mean/median/standard deviation plus percentile bands
// on demand.
type Histogram struct {
	enabled bool
	samples map[string][]time.Duration
}

// NewHistogram returns a Histogram. When enabled is false, Record is a
// no-op and Report prints nothing.
func NewHistogram(enabled bool) *Histogram {
	return &Histogram{enabled: enabled, samples: make(map[string][]time.Duration)}
}

// Enabled reports whether recording is active. Safe to call on a nil
// *Histogram, which reports false.
func (h *Histogram) Enabled() bool {
	return h != nil && h.enabled
}

// Record adds one latency sample for the named operation.
func (h *Histogram) Record(op string, d time.Duration) {
	if !h.Enabled() {
		return
	}
	h.samples[op] = append(h.samples[op], d)
}

// Report writes a min/max/mean/median/stddev summary for every
// recorded operation, sorted by operation name, followed by percentile
// bands gated on sample count: 10th/20th/50th/70th/90th once more than
// 10 samples are recorded, 95th/99th once more than 100, and 99.99th
// once at least 10000 are recorded.
func (h *Histogram) Report(w io.Writer) {
	if !h.enabled || len(h.samples) == 0 {
		return
	}

	ops := make([]string, 0, len(h.samples))
	for op := range h.samples {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	fmt.Fprintf(w, "\n[Latency Histogram]\n")
	for _, op := range ops {
		samples := append([]time.Duration(nil), h.samples[op]...)
		sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })

		d := durations(samples)
		mean := stat.Mean(d)
		stdDev := stat.SdMean(d, mean)
		n := len(samples)
		median := samples[n/2]

		fmt.Fprintf(w, "   %-12s n=%-8d min=%-10s max=%-10s mean=%-10s median=%-10s stddev=%s\n",
			op, n,
			samples[0], samples[n-1],
			time.Duration(mean), median, time.Duration(stdDev))

		if n > 10 {
			fmt.Fprintf(w, "      %-20s\n", "[Percentiles]")
			fmt.Fprintf(w, "      10th=%-10s 20th=%-10s 50th=%-10s 70th=%-10s 90th=%-10s\n",
				samples[percentileIndex(n, 10, 100)], samples[percentileIndex(n, 20, 100)],
				samples[percentileIndex(n, 50, 100)], samples[percentileIndex(n, 70, 100)],
				samples[percentileIndex(n, 90, 100)])
		}
		if n > 100 {
			fmt.Fprintf(w, "      95th=%-10s 99th=%-10s\n",
				samples[percentileIndex(n, 95, 100)], samples[percentileIndex(n, 99, 100)])
		}
		if n >= 10000 {
			fmt.Fprintf(w, "      99.99th=%s\n", samples[percentileIndex(n, 9999, 10000)])
		}
	}
}

// percentileIndex returns the sample index for the p/scale percentile
// (e.g. p=95, scale=100 for the 95th percentile; p=9999, scale=10000
// for the 99.99th), clamped to the last valid index.
func percentileIndex(n, p, scale int) int {
	idx := n * p / scale
	if idx >= n {
		idx = n - 1
	}
	return idx
}
