package engine

import (
	"bytes"
	"io"

	"github.com/stretchr/testify/require"
	"testing"
)

func TestProgressReaderCountsBytes(t *testing.T) {
	data := make([]byte, 20*1024)
	var events []Progress

	pr := newProgressReader(bytes.NewReader(data), "file.bin", int64(len(data)), func(p Progress) {
		events = append(events, p)
	})

	n, err := io.Copy(io.Discard, pr)
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), n)
	require.Equal(t, int64(len(data)), pr.TotalBytes())

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	require.Equal(t, "file.bin", last.FileName)
	require.Equal(t, int64(len(data)), last.BytesTransferred)
	require.Equal(t, 100.0, last.Percentage)
}

func TestProgressReaderNilFunc(t *testing.T) {
	data := make([]byte, 1024)

	pr := newProgressReader(bytes.NewReader(data), "file.bin", int64(len(data)), nil)

	n, err := io.Copy(io.Discard, pr)
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), n)
}

func TestProgressWriterEmitsPerChunk(t *testing.T) {
	data := make([]byte, 3*chunkSize)
	var events []Progress

	pw := newProgressWriter(io.Discard, "file.bin", int64(len(data)), func(p Progress) {
		events = append(events, p)
	})

	// LimitReader hides the WriterTo fast path so the copy actually
	// moves through the chunk buffer
	src := io.LimitReader(bytes.NewReader(data), int64(len(data)))
	buffer := make([]byte, chunkSize)
	n, err := io.CopyBuffer(pw, src, buffer)
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), n)

	// one event per 8KiB chunk
	require.Len(t, events, 3)
	require.InDelta(t, 33.3, events[0].Percentage, 0.1)
	require.Equal(t, 100.0, events[2].Percentage)
}

func TestPercentageWithUnknownTotal(t *testing.T) {
	require.Equal(t, 0.0, percentage(100, 0))
	require.Equal(t, 50.0, percentage(50, 100))
}
