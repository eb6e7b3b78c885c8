// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestByteProgress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		done, total  int64
		wantFraction float64
		wantLabel    string
	}{
		{"unknown_total", 2048, -1, 0, "2.0 kB"},
		{"half", 500, 1000, 0.5, "500 B / 1.0 kB (50%)"},
		{"complete", 1000, 1000, 1, "1.0 kB / 1.0 kB (100%)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fraction, label := byteProgress(tt.done, tt.total)
			if fraction != tt.wantFraction || label != tt.wantLabel {
				t.Errorf("byteProgress(%d, %d) = %v, %q; want %v, %q",
					tt.done, tt.total, fraction, label, tt.wantFraction, tt.wantLabel)
			}
		})
	}
}

func TestLogReporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	r := NewLogReporter(logger)

	r.Begin("Downloading zlib-1.2.11.tar.gz", false)
	r.Update(0.25, "25%")
	r.Update(0.5, "50%") // throttled
	r.End()

	out := buf.String()
	if !strings.Contains(out, "Downloading zlib-1.2.11.tar.gz") {
		t.Errorf("missing begin line:\n%s", out)
	}
	if strings.Count(out, "progress=") != 1 {
		t.Errorf("updates inside one interval should be throttled:\n%s", out)
	}
	if !strings.Contains(out, "done") {
		t.Errorf("missing end line:\n%s", out)
	}
}
