package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBlobIsEmpty(t *testing.T) {
	t.Parallel()

	assert.True(t, BlobIsEmpty(nil))
	assert.True(t, BlobIsEmpty(NewBlob(nil)))
	assert.True(t, BlobIsEmpty(NewBlob([]byte{})))
	assert.False(t, BlobIsEmpty(NewBlob([]byte("x"))))
}

func TestNewBlob(t *testing.T) {
	t.Parallel()

	data := []byte("hello")
	blob := NewBlob(data)
	assert.Equal(t, data, blob.Bytes())
	assert.Equal(t, 5, blob.Size())
}

func TestEnumerateToSlice(t *testing.T) {
	t.Parallel()

	var names []string
	cb := EnumerateToSlice(&names)
	cb("a")
	cb("b")
	assert.Equal(t, []string{"a", "b"}, names)
}
