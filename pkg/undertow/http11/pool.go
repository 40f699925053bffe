package http11

import "sync"

// readChunkPool provides pooled read buffers for connections using the
// default chunk size. This eliminates a 4KB allocation per connection.
var readChunkPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, DefaultReadChunkSize)
		return &buf
	},
}

// getReadChunk returns a read buffer of the requested size and a function
// that gives it back. Only default-sized buffers are pooled.
func getReadChunk(size int) ([]byte, func()) {
	if size <= 0 || size == DefaultReadChunkSize {
		bufPtr := readChunkPool.Get().(*[]byte)
		return *bufPtr, func() { readChunkPool.Put(bufPtr) }
	}
	return make([]byte, size), func() {}
}
