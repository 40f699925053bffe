package http11

import (
	"bytes"
	"io"
	"iter"
)

// RawFrame is one complete, unparsed request message including its
// terminating blank line. It is a copy and does not alias the FrameBuffer.
type RawFrame []byte

// FrameBuffer accumulates bytes from a single connection and splits them
// into request messages terminated by an empty line.
//
// Layout:
//
//	buf[:start]        framed and dispatched, reclaimed by Compact
//	buf[start:]        unconsumed tail (zero, one or a partial request)
//
// The backing array never grows beyond the configured capacity, so memory
// use per connection is bounded regardless of how long it lives.
//
// A FrameBuffer is owned by exactly one goroutine and is not safe for
// concurrent use.
type FrameBuffer struct {
	buf   []byte
	start int

	// scanned is the index before which no terminator can begin.
	// It lets a search resume after a partial read instead of rescanning.
	scanned int

	max int
}

// NewFrameBuffer creates a buffer holding at most max unconsumed bytes.
// A non-positive max selects DefaultMaxBufferSize.
func NewFrameBuffer(max int) *FrameBuffer {
	if max <= 0 {
		max = DefaultMaxBufferSize
	}
	return &FrameBuffer{max: max}
}

// Cap returns the configured capacity.
func (b *FrameBuffer) Cap() int {
	return b.max
}

// Buffered returns the number of unconsumed bytes.
func (b *FrameBuffer) Buffered() int {
	return len(b.buf) - b.start
}

// Available returns how many more bytes can be appended.
func (b *FrameBuffer) Available() int {
	return b.max - b.Buffered()
}

// Bytes returns the unconsumed tail. The slice aliases the buffer and is
// only valid until the next mutating call.
func (b *FrameBuffer) Bytes() []byte {
	return b.buf[b.start:]
}

// Append adds p to the unconsumed tail. If the tail plus p would exceed
// the capacity, nothing is appended and ErrBufferFull is returned.
func (b *FrameBuffer) Append(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if len(p) > b.Available() {
		return ErrBufferFull
	}

	if len(b.buf)+len(p) > cap(b.buf) {
		b.Compact()
		b.grow(len(b.buf) + len(p))
	}
	b.buf = append(b.buf, p...)
	return nil
}

// grow ensures the backing array can hold need bytes without exceeding max.
func (b *FrameBuffer) grow(need int) {
	if need <= cap(b.buf) {
		return
	}
	newCap := 2 * cap(b.buf)
	if newCap < need {
		newCap = need
	}
	if newCap < 512 {
		newCap = 512
	}
	if newCap > b.max {
		newCap = b.max
	}
	nb := make([]byte, len(b.buf), newCap)
	copy(nb, b.buf)
	b.buf = nb
}

// Fill performs a single read from r into chunk (bounded by the free
// capacity) and appends what was read.
//
// It returns ErrBufferFull without reading when the buffer already holds
// max bytes of unterminated data. A read of zero bytes with a nil error is
// reported as io.ErrNoProgress. Bytes returned together with an error are
// appended before the error is returned.
func (b *FrameBuffer) Fill(r io.Reader, chunk []byte) (int, error) {
	avail := b.Available()
	if avail == 0 {
		return 0, ErrBufferFull
	}
	if len(chunk) == 0 {
		chunk = make([]byte, DefaultReadChunkSize)
	}
	if len(chunk) > avail {
		chunk = chunk[:avail]
	}

	n, err := r.Read(chunk)
	if n > 0 {
		// Cannot fail: n <= avail
		_ = b.Append(chunk[:n])
	}
	if n == 0 && err == nil {
		err = io.ErrNoProgress
	}
	return n, err
}

// Next extracts the next complete frame, if any.
// The consumed bytes are not reclaimed until Compact.
func (b *FrameBuffer) Next() (RawFrame, bool) {
	from := b.scanned
	if from < b.start {
		from = b.start
	}

	idx := bytes.Index(b.buf[from:], terminator)
	if idx == -1 {
		// The last len(terminator)-1 bytes may still start a terminator
		b.scanned = len(b.buf) - len(terminator) + 1
		if b.scanned < b.start {
			b.scanned = b.start
		}
		return nil, false
	}

	end := from + idx + len(terminator)
	frame := RawFrame(bytes.Clone(b.buf[b.start:end]))
	b.start = end
	b.scanned = end
	return frame, true
}

// Frames returns the complete frames currently in the buffer, in arrival
// order. The sequence is lazy: each frame is extracted only when the
// consumer asks for it. When iteration stops, for any reason, the buffer
// is compacted. Frames not consumed remain buffered and are produced by the
// next call.
func (b *FrameBuffer) Frames() iter.Seq[RawFrame] {
	return func(yield func(RawFrame) bool) {
		defer b.Compact()
		for {
			frame, ok := b.Next()
			if !ok {
				return
			}
			if !yield(frame) {
				return
			}
		}
	}
}

// Compact discards framed bytes by moving the unconsumed tail to the start
// of the buffer. Vacated bytes are zeroed.
func (b *FrameBuffer) Compact() {
	if b.start == 0 {
		return
	}
	n := copy(b.buf, b.buf[b.start:])
	clear(b.buf[n:])
	b.buf = b.buf[:n]

	b.scanned -= b.start
	if b.scanned < 0 {
		b.scanned = 0
	}
	b.start = 0
}

// Reset discards all buffered data but keeps the backing array.
func (b *FrameBuffer) Reset() {
	clear(b.buf)
	b.buf = b.buf[:0]
	b.start = 0
	b.scanned = 0
}

// Release discards all buffered data and drops the backing array.
func (b *FrameBuffer) Release() {
	b.Reset()
	b.buf = nil
}
