// Package pool reuses render buffers across live events.
package pool

import (
	"bytes"
	"sync"
)

// MaxPooledBuffer is the largest capacity a buffer may have and still be
// recycled. A page with every section rendered stays well below it.
const MaxPooledBuffer = 256 * 1024

var buffers = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// GetBuffer retrieves an empty buffer from the pool.
func GetBuffer() *bytes.Buffer {
	buf := buffers.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool. Oversized buffers are dropped.
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > MaxPooledBuffer {
		return
	}
	buffers.Put(buf)
}
