package proc

import (
	"io"
	"strings"
	"sync"
)

// StreamLines normalizes every line ending (CR, CRLF, LF) in s to a single
// newline. The presence or absence of a trailing newline is preserved
// exactly.
func StreamLines(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\r' {
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
			b.WriteByte('\n')
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// ListLines normalizes line endings like StreamLines and splits the result
// into lines with terminators stripped. An unterminated final partial line
// is preserved as the last element; terminated text produces no spurious
// empty trailing element.
func ListLines(s string) []string {
	normalized := StreamLines(s)
	if normalized == "" {
		return nil
	}
	lines := strings.Split(normalized, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// captureBuffer accumulates one stage's drained output. Writes come from a
// single drain worker (or the proxy goroutine) until the stage finishes;
// reads happen only after the pipeline joins that worker, so the lock is a
// guard rather than a coordination point.
type captureBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
	// tee receives a copy of every write for hidden-interactive capture,
	// keeping live terminal output flowing while the buffer fills.
	tee io.Writer
}

func newCaptureBuffer(tee io.Writer) *captureBuffer {
	return &captureBuffer{tee: tee}
}

func (c *captureBuffer) Write(p []byte) (int, error) {
	c.mu.Lock()
	c.buf.Write(p)
	c.mu.Unlock()
	if c.tee != nil {
		if _, err := c.tee.Write(p); err != nil {
			return len(p), nil
		}
	}
	return len(p), nil
}

func (c *captureBuffer) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}
