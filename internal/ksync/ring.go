package ksync

// RingBuffer is a fixed-capacity byte ring, the storage behind Pipe
// (§4.6). Grounded on kernel/pipe/pipe_unsafe.go's buffered byte queue,
// reworked from an ilist.List of segments into one flat backing array
// since this kernel's pipes are small and fixed-size rather than
// growable up to a system limit.
//
// Not safe for concurrent use; callers serialize access with their own
// mutex (Pipe holds one), matching §5's "Pipe ring buffer: mutex."
type RingBuffer struct {
	buf        []byte
	start, len int
}

// NewRingBuffer allocates a ring of the given capacity in bytes.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{buf: make([]byte, capacity)}
}

// Len returns the number of unread bytes currently buffered.
func (r *RingBuffer) Len() int { return r.len }

// Cap returns the ring's fixed capacity.
func (r *RingBuffer) Cap() int { return len(r.buf) }

// Free returns the number of bytes that can still be written.
func (r *RingBuffer) Free() int { return len(r.buf) - r.len }

// Write copies min(len(p), r.Free()) bytes from p into the ring and
// returns the count written. Never blocks (the ring has no suspension
// semantics of its own; Pipe decides what to do when Free() == 0).
func (r *RingBuffer) Write(p []byte) int {
	n := len(p)
	if n > r.Free() {
		n = r.Free()
	}
	end := (r.start + r.len) % len(r.buf)
	for i := 0; i < n; i++ {
		r.buf[(end+i)%len(r.buf)] = p[i]
	}
	r.len += n
	return n
}

// Read copies min(len(p), r.Len()) bytes out of the ring into p,
// advancing the read pointer, and returns the count read.
func (r *RingBuffer) Read(p []byte) int {
	n := len(p)
	if n > r.len {
		n = r.len
	}
	for i := 0; i < n; i++ {
		p[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	r.start = (r.start + n) % len(r.buf)
	r.len -= n
	return n
}
