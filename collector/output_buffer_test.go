package collector_test

import (
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/e2ekit/collector"
)

func TestOutputBuffer_WriteWithinLimit(t *testing.T) {
	buffer := collector.NewOutputBuffer(100)
	data := []byte("hello world")

	n, err := buffer.Write(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, "hello world", buffer.String())
	assert.Equal(t, len(data), buffer.Len())
	assert.False(t, buffer.Truncated())
}

func TestOutputBuffer_WriteExceedsLimit(t *testing.T) {
	buffer := collector.NewOutputBuffer(10)
	data := []byte("this is a very long string that exceeds the limit")

	n, err := buffer.Write(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n) // full length even when truncated
	assert.Equal(t, 10, buffer.Len())
	assert.True(t, buffer.Truncated())
	assert.Equal(t, int64(len(data)-10), buffer.Dropped())
	assert.Equal(t, "this is a ... (40 bytes truncated)", buffer.String())
}

func TestOutputBuffer_WriteExactLimit(t *testing.T) {
	buffer := collector.NewOutputBuffer(10)

	n, err := buffer.Write([]byte("1234567890"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.False(t, buffer.Truncated())
	assert.Equal(t, "1234567890", buffer.String())
}

func TestOutputBuffer_MultipleWrites(t *testing.T) {
	buffer := collector.NewOutputBuffer(10)

	for _, chunk := range []string{"hello", " wo", "rld!!"} {
		n, err := buffer.Write([]byte(chunk))
		require.NoError(t, err)
		assert.Equal(t, len(chunk), n)
	}

	assert.True(t, buffer.Truncated())
	assert.Equal(t, int64(3), buffer.Dropped())
	assert.Equal(t, 10, buffer.Len())

	_, _ = buffer.Write([]byte(" more"))
	assert.Equal(t, int64(8), buffer.Dropped())
	assert.Equal(t, 10, buffer.Len())
}

func TestOutputBuffer_ZeroLimit(t *testing.T) {
	buffer := collector.NewOutputBuffer(0)

	n, err := buffer.Write([]byte("test"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.True(t, buffer.Truncated())
	assert.Equal(t, 0, buffer.Len())
}

func TestOutputBuffer_CopyN(t *testing.T) {
	buffer := collector.NewOutputBuffer(100)

	n, err := io.CopyN(buffer, strings.NewReader(strings.Repeat("x", 200)), 101)
	require.NoError(t, err)
	assert.Equal(t, int64(101), n)
	assert.Equal(t, 100, buffer.Len())
	assert.Equal(t, int64(1), buffer.Dropped())
}

func TestOutputBuffer_Reset(t *testing.T) {
	buffer := collector.NewOutputBuffer(5)
	_, _ = buffer.Write([]byte("hello world"))
	require.True(t, buffer.Truncated())

	buffer.Reset()
	assert.False(t, buffer.Truncated())
	assert.Equal(t, "", buffer.String())

	_, _ = buffer.Write([]byte("new"))
	assert.Equal(t, "new", buffer.String())
}

func TestOutputBuffer_ConcurrentWrites(t *testing.T) {
	buffer := collector.NewOutputBuffer(50)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = buffer.Write([]byte("0123456789"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, buffer.Len())
	assert.Equal(t, int64(50), buffer.Dropped())
}
