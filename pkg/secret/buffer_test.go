package secret

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func newBuffer(t *testing.T, capacity int) *Buffer {
	t.Helper()

	b, err := New(capacity)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, b.Close())
	})

	return b
}

func TestNew_InvalidCapacity(t *testing.T) {
	_, err := New(0)
	assert.Error(t, err)

	_, err = New(-4)
	assert.Error(t, err)
}

func TestBuffer_Set(t *testing.T) {
	b := newBuffer(t, 16)

	require.NoError(t, b.Set([]byte("hunter22")))
	assert.Equal(t, "hunter22", string(b.Bytes()))

	require.NoError(t, b.Set([]byte("abc")))
	assert.Equal(t, "abc", string(b.Bytes()))
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 16, b.Cap())
}

func TestBuffer_SetTooLong(t *testing.T) {
	b := newBuffer(t, 4)
	require.NoError(t, b.Set([]byte("abcd")))

	assert.ErrorIs(t, b.Set([]byte("abcde")), ErrTooLong)
	assert.Equal(t, "abcd", string(b.Bytes()))
}

func TestBuffer_AppendRunesAndBackspace(t *testing.T) {
	b := newBuffer(t, 16)

	require.NoError(t, b.AppendRunes([]rune("pä")))
	require.NoError(t, b.AppendRunes([]rune{'ß'}))
	assert.Equal(t, "päß", string(b.Bytes()))
	assert.Equal(t, 3, b.RuneCount())

	b.Backspace()
	assert.Equal(t, "pä", string(b.Bytes()))
	b.Backspace()
	b.Backspace()
	b.Backspace()
	assert.Equal(t, 0, b.Len())
}

func TestBuffer_AppendRunesIsAtomic(t *testing.T) {
	b := newBuffer(t, 3)
	require.NoError(t, b.AppendRunes([]rune("ab")))

	assert.ErrorIs(t, b.AppendRunes([]rune("cd")), ErrTooLong)
	assert.Equal(t, "ab", string(b.Bytes()))
}

func TestBuffer_Reset(t *testing.T) {
	b := newBuffer(t, 8)
	require.NoError(t, b.Set([]byte("secret")))
	region := b.Bytes()[:6]

	b.Reset()

	assert.Equal(t, 0, b.Len())
	assert.Equal(t, make([]byte, 6), region)
}

func TestBuffer_CloneIsIndependent(t *testing.T) {
	b := newBuffer(t, 8)
	require.NoError(t, b.Set([]byte("first")))

	clone, err := b.Clone()
	require.NoError(t, err)
	defer clone.Close()

	require.NoError(t, b.Set([]byte("second")))
	assert.Equal(t, "first", string(clone.Bytes()))
	assert.Equal(t, 8, clone.Cap())
}

func TestBuffer_Close(t *testing.T) {
	b, err := New(8)
	require.NoError(t, err)
	require.NoError(t, b.Set([]byte("secret")))

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	assert.Panics(t, func() { b.Bytes() })
	assert.ErrorIs(t, b.Set([]byte("x")), ErrClosed)
	assert.ErrorIs(t, b.AppendRunes([]rune("x")), ErrClosed)
	_, err = b.Clone()
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, b.RuneCount())
}

func TestZero(t *testing.T) {
	data := []byte("password")
	Zero(data)
	assert.Equal(t, make([]byte, 8), data)
}
