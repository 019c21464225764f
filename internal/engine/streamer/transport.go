package streamer

import (
	"bufio"
	"errors"
	"io"

	"go.trai.ch/assetpipe/internal/core/ports"
)

// transport yields a source in fixed-size chunks. The returned chunk is only
// valid until the next call. Next returns io.EOF once no chunk is left, which
// for an empty source is the first call.
type transport interface {
	Next() (chunk []byte, last bool, err error)
	Mapped() bool
	Close() error
}

// openTransport maps sources larger than bufferSize and falls back to a
// buffered sequential read when the source cannot be mapped.
func openTransport(src ports.Source, chunkSize int, bufferSize int64) transport {
	if size := src.Size(); size > bufferSize && src.Fd() >= 0 {
		if t, err := mapSource(src, chunkSize); err == nil {
			return t
		}
	}
	return newBufferedTransport(src, chunkSize)
}

type bufferedTransport struct {
	r    *bufio.Reader
	buf  []byte
	done bool
}

func newBufferedTransport(src io.Reader, chunkSize int) *bufferedTransport {
	return &bufferedTransport{
		r:   bufio.NewReaderSize(src, chunkSize),
		buf: make([]byte, chunkSize),
	}
}

func (t *bufferedTransport) Next() ([]byte, bool, error) {
	if t.done {
		return nil, true, io.EOF
	}
	n, err := io.ReadFull(t.r, t.buf)
	switch {
	case errors.Is(err, io.EOF):
		t.done = true
		return nil, true, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		t.done = true
		return t.buf[:n], true, nil
	case err != nil:
		return nil, false, err
	}
	if _, err := t.r.Peek(1); errors.Is(err, io.EOF) {
		t.done = true
	}
	return t.buf[:n], t.done, nil
}

func (t *bufferedTransport) Mapped() bool { return false }

func (t *bufferedTransport) Close() error { return nil }
