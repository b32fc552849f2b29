package zigbind

import "unsafe"

// Embed marks an inline Zig fragment with its declaration block. The literal
// must separate Zig source from declarations with a "---" line. The returned
// value carries no runtime meaning; the annotation exists for the scanner.
func Embed(src string) struct{} {
	_ = src
	return struct{}{}
}

// Include references an external Zig file and pairs it with an inline
// declaration block. Like Embed, it only matters at scan time.
func Include(path, decls string) struct{} {
	_, _ = path, decls
	return struct{}{}
}

// Buffer is memory owned by the foreign side, released through the free
// callback the generated code installs. After Free the view is invalid.
type Buffer struct {
	ptr  unsafe.Pointer
	size int
	free func(unsafe.Pointer, int)
}

// NewBuffer wraps foreign-owned memory. Generated code calls this; user code
// normally only consumes the result.
func NewBuffer(ptr unsafe.Pointer, size int, free func(unsafe.Pointer, int)) *Buffer {
	return &Buffer{ptr: ptr, size: size, free: free}
}

// Bytes exposes the foreign memory as a byte slice. The slice is only valid
// until Free.
func (b *Buffer) Bytes() []byte {
	if b.ptr == nil || b.size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(b.ptr), b.size)
}

// Len returns the buffer size in bytes.
func (b *Buffer) Len() int { return b.size }

// Free releases the foreign memory. Further calls are no-ops.
func (b *Buffer) Free() {
	if b.ptr != nil && b.free != nil {
		b.free(b.ptr, b.size)
	}
	b.ptr = nil
	b.size = 0
}
