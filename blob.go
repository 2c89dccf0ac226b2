package vfs

// Blob is an immutable byte buffer, typically read from a file.
//
// Blobs are shared by all readers of the same logical file and are safe
// for concurrent use. Callers must not modify the returned bytes.
type Blob interface {
	// Bytes returns the underlying data. The slice must be treated as
	// read-only.
	Bytes() []byte

	// Size returns the length of the data in bytes.
	Size() int
}

// BlobIsEmpty reports whether b is nil or holds no data.
func BlobIsEmpty(b Blob) bool {
	return b == nil || b.Size() == 0
}

type memBlob struct {
	data []byte
}

// NewBlob wraps data in a Blob. The blob takes ownership of the slice;
// callers must not modify it afterwards.
func NewBlob(data []byte) Blob {
	return &memBlob{data: data}
}

func (b *memBlob) Bytes() []byte { return b.data }
func (b *memBlob) Size() int     { return len(b.data) }
