package zigbind

import (
	"testing"
	"unsafe"
)

func TestBufferLifecycle(t *testing.T) {
	backing := []byte("hello")
	freed := 0
	b := NewBuffer(unsafe.Pointer(&backing[0]), len(backing), func(p unsafe.Pointer, n int) {
		freed++
	})

	if got := string(b.Bytes()); got != "hello" {
		t.Errorf("Bytes = %q", got)
	}
	if b.Len() != 5 {
		t.Errorf("Len = %d", b.Len())
	}

	b.Free()
	b.Free() // idempotent
	if freed != 1 {
		t.Errorf("free callback ran %d times, want 1", freed)
	}
	if b.Bytes() != nil || b.Len() != 0 {
		t.Error("buffer should be empty after Free")
	}
}

func TestBufferNil(t *testing.T) {
	var b Buffer
	if b.Bytes() != nil {
		t.Error("zero buffer should expose no bytes")
	}
	b.Free()
}
