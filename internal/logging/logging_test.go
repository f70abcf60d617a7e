package logging

import (
	"bytes"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRateLimiterCapsEmittedLines verifies spec.md §8's rate-limiter
// property: for any 1-second window, no more than LogsPerSec lines are
// emitted even under heavy concurrent load.
func TestRateLimiterCapsEmittedLines(t *testing.T) {
	var out, errOut bytes.Buffer
	var mu sync.Mutex
	lg := New(&lockedWriter{&out, &mu}, &lockedWriter{&errOut, &mu})

	var wg sync.WaitGroup
	for i := 0; i < 500; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lg.Throttled("line")
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	lines := strings.Count(out.String(), "\n")
	require.LessOrEqual(t, lines, LogsPerSec)
}

type lockedWriter struct {
	buf *bytes.Buffer
	mu  *sync.Mutex
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

// TestSuppressedNoticeEmittedOnce verifies that once a window has
// suppressed lines, the next window emits exactly one "suppressed N"
// notice.
func TestSuppressedNoticeEmittedOnce(t *testing.T) {
	var out, errOut bytes.Buffer
	lg := New(&out, &errOut)

	// Seed the window far in the past relative to "now" isn't directly
	// controllable without a clock seam; instead we exercise the
	// suppressed-counter bookkeeping directly, mirroring the atomic
	// protocol in logThrottled.
	atomic.StoreInt64(&lg.windowSecond, 0)
	atomic.StoreInt64(&lg.countInWindow, LogsPerSec)
	atomic.StoreInt64(&lg.suppressed, 7)

	lg.Throttled("triggers window roll")

	require.Equal(t, 1, strings.Count(out.String(), "suppressed 7 messages in last 1s"))
}
