// Package buffer pools the copy buffers used by file transfers, so
// concurrent downloads reuse memory instead of allocating a fresh buffer
// per file.
package buffer

import (
	"io"
	"sync"
)

// Size is the length of a pooled transfer buffer. FTP data connections
// deliver at most a few segments per read, so anything past 128KB buys
// nothing.
const Size = 128 * 1024

var pool = sync.Pool{
	New: func() interface{} {
		return make([]byte, Size)
	},
}

// Get returns a transfer buffer of Size bytes.
func Get() []byte {
	return pool.Get().([]byte)
}

// Put returns a buffer obtained from Get. Buffers of any other capacity
// are left to the garbage collector.
func Put(buf []byte) {
	if cap(buf) != Size {
		return
	}
	// nolint:staticcheck // SA6002: pooling the slice itself is intended
	pool.Put(buf[:Size])
}

// onlyWriter hides any ReadFrom method on dst. io.CopyBuffer would
// otherwise delegate to it and skip the pooled buffer.
type onlyWriter struct {
	io.Writer
}

// Copy copies src to dst through a pooled buffer and returns the number
// of bytes copied.
func Copy(dst io.Writer, src io.Reader) (int64, error) {
	buf := Get()
	defer Put(buf)
	return io.CopyBuffer(onlyWriter{dst}, src, buf)
}
