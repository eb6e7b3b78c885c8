// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

type (
	// Reporter receives progress of long-running loader steps. Calls always
	// come in Begin, zero or more Update, End order.
	Reporter interface {
		// Begin starts a progress span. indeterminate is true when the total
		// amount of work is unknown.
		Begin(label string, indeterminate bool)
		// Update reports progress. fraction is in [0,1] and ignored for
		// indeterminate spans.
		Update(fraction float64, label string)
		// End finishes the current span.
		End()
	}

	// NopReporter discards all progress.
	NopReporter struct{}

	// LogReporter writes progress to a logger at debug level, throttled to
	// one update per Interval.
	LogReporter struct {
		Logger   *log.Logger
		Interval time.Duration

		mu      sync.Mutex
		label   string
		last    time.Time
		started time.Time
	}
)

func (NopReporter) Begin(string, bool)     {}
func (NopReporter) Update(float64, string) {}
func (NopReporter) End()                   {}

// NewLogReporter returns a LogReporter with a one-second update interval.
func NewLogReporter(logger *log.Logger) *LogReporter {
	return &LogReporter{Logger: logger, Interval: time.Second}
}

// Begin implements Reporter.
func (r *LogReporter) Begin(label string, indeterminate bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.label = label
	r.started = time.Now()
	r.last = time.Time{}
	if label != "" {
		r.logger().Info(label, "indeterminate", indeterminate)
	}
}

// Update implements Reporter.
func (r *LogReporter) Update(fraction float64, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if !r.last.IsZero() && now.Sub(r.last) < r.Interval {
		return
	}
	r.last = now
	r.logger().Debug(r.label, "progress", label, "percent", int(fraction*100))
}

// End implements Reporter.
func (r *LogReporter) End() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.label != "" {
		r.logger().Debug(r.label+" done", "elapsed", time.Since(r.started).Round(time.Millisecond))
	}
	r.label = ""
}

func (r *LogReporter) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}

// byteProgress renders a download position for progress labels.
func byteProgress(done, total int64) (fraction float64, label string) {
	if total <= 0 {
		return 0, humanize.Bytes(uint64(max(done, 0)))
	}
	fraction = float64(done) / float64(total)
	return fraction, fmt.Sprintf("%s / %s (%d%%)", humanize.Bytes(uint64(max(done, 0))), humanize.Bytes(uint64(total)), int(fraction*100))
}
