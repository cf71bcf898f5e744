package engine

import (
	"io"
)

// Progress is one snapshot of a single file transfer. Events are
// emitted through the caller's ProgressFunc while the transfer runs;
// every transferred file gets at least one event at 100%.
type Progress struct {
	FileName         string
	BytesTransferred int64
	TotalBytes       int64
	Percentage       float64
}

// ProgressFunc receives progress events. A nil func disables
// reporting.
type ProgressFunc func(Progress)

// transfers stream through 8KiB chunks so progress events arrive at
// a steady granularity even for large files
const chunkSize = 8 * 1024

func percentage(done, total int64) float64 {
	if total <= 0 {
		return 0.0
	}
	return float64(done) / float64(total) * 100.0
}

// progressReader counts the bytes flowing out of a reader and fires
// an event per read.
type progressReader struct {
	in       io.Reader
	fileName string
	total    int64
	done     int64
	fn       ProgressFunc
}

func newProgressReader(in io.Reader, fileName string, total int64, fn ProgressFunc) *progressReader {
	return &progressReader{
		in:       in,
		fileName: fileName,
		total:    total,
		fn:       fn,
	}
}

func (pr *progressReader) Read(p []byte) (int, error) {
	size, err := pr.in.Read(p)

	pr.done += int64(size)
	if size > 0 && pr.fn != nil {
		pr.fn(Progress{
			FileName:         pr.fileName,
			BytesTransferred: pr.done,
			TotalBytes:       pr.total,
			Percentage:       percentage(pr.done, pr.total),
		})
	}

	return size, err
}

func (pr *progressReader) TotalBytes() int64 {
	return pr.done
}

// progressWriter is the write side equivalent, used on downloads.
type progressWriter struct {
	out      io.Writer
	fileName string
	total    int64
	done     int64
	fn       ProgressFunc
}

func newProgressWriter(out io.Writer, fileName string, total int64, fn ProgressFunc) *progressWriter {
	return &progressWriter{
		out:      out,
		fileName: fileName,
		total:    total,
		fn:       fn,
	}
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	size, err := pw.out.Write(p)

	pw.done += int64(size)
	if size > 0 && pw.fn != nil {
		pw.fn(Progress{
			FileName:         pw.fileName,
			BytesTransferred: pw.done,
			TotalBytes:       pw.total,
			Percentage:       percentage(pw.done, pw.total),
		})
	}

	return size, err
}

func (pw *progressWriter) TotalBytes() int64 {
	return pw.done
}
