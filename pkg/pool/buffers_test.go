package pool

import (
	"bytes"
	"testing"
)

func TestGetBuffer_Empty(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("<main id=\"home\"></main>")
	PutBuffer(buf)

	again := GetBuffer()
	if again.Len() != 0 {
		t.Errorf("pooled buffer not reset, len = %d", again.Len())
	}
	PutBuffer(again)
}

func TestPutBuffer_Oversized(t *testing.T) {
	big := bytes.NewBuffer(make([]byte, 0, MaxPooledBuffer+1))
	// Must not panic and must not be handed out again as-is.
	PutBuffer(big)
	PutBuffer(nil)
}
