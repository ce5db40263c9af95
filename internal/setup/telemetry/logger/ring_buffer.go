package logger

// RingBuffer keeps the most recent lines written to a log file.
type RingBuffer struct {
	lines    []string
	capacity int
	head     int // next write position
	size     int
	// written counts lines added since the last rotation.
	written int
}

// NewRingBuffer creates a ring buffer holding up to capacity lines.
// A capacity below one is treated as one.
func NewRingBuffer(capacity int) *RingBuffer {
	capacity = max(capacity, 1)
	return &RingBuffer{
		lines:    make([]string, capacity),
		capacity: capacity,
	}
}

// Add appends a line, overwriting the oldest one when full.
func (rb *RingBuffer) Add(line string) {
	rb.lines[rb.head] = line
	rb.head = (rb.head + 1) % rb.capacity
	if rb.size < rb.capacity {
		rb.size++
	}
	rb.written++
}

// Lines returns the buffered lines, oldest first.
func (rb *RingBuffer) Lines() []string {
	if rb.size == 0 {
		return nil
	}

	result := make([]string, rb.size)
	start := (rb.head - rb.size + rb.capacity) % rb.capacity
	for i := range rb.size {
		result[i] = rb.lines[(start+i)%rb.capacity]
	}
	return result
}

// Len returns the number of buffered lines.
func (rb *RingBuffer) Len() int {
	return rb.size
}

// Cap returns the maximum number of buffered lines.
func (rb *RingBuffer) Cap() int {
	return rb.capacity
}
