package proto

// DefaultLineCapacity is the default bound on an assembled line.
const DefaultLineCapacity = 64

// LineAssembler accumulates inbound bytes into lines. '\n' completes a
// line and '\r' is ignored. The buffer is bounded: once it fills up, the
// line is forcibly completed so a misbehaving host cannot grow it
// without limit.
type LineAssembler struct {
	buf []byte
	cap int
}

// NewLineAssembler creates an assembler with the given capacity.
// Non-positive capacities fall back to DefaultLineCapacity.
func NewLineAssembler(capacity int) *LineAssembler {
	if capacity <= 0 {
		capacity = DefaultLineCapacity
	}
	return &LineAssembler{
		buf: make([]byte, 0, capacity),
		cap: capacity,
	}
}

// Push feeds one byte into the assembler. When a line boundary is
// reached, it returns the completed line and true; the internal buffer
// is reset for the next line.
func (a *LineAssembler) Push(b byte) (string, bool) {
	switch b {
	case '\r':
		return "", false
	case '\n':
		return a.complete(), true
	}

	a.buf = append(a.buf, b)
	if len(a.buf) >= a.cap {
		// Overflow forces an early boundary; the line is processed as-is.
		return a.complete(), true
	}
	return "", false
}

func (a *LineAssembler) complete() string {
	line := string(a.buf)
	a.buf = a.buf[:0]
	return line
}
