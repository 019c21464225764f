//go:build unix

package streamer

import (
	"fmt"
	"io"
	"runtime/debug"

	"go.trai.ch/assetpipe/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sys/unix"
)

// mappedTransport reads a source through a read-only shared mapping.
type mappedTransport struct {
	data []byte
	buf  []byte
	off  int
}

func mapSource(src ports.Source, chunkSize int) (transport, error) {
	size := src.Size()
	data, err := unix.Mmap(src.Fd(), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to map source"), "size", size)
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
	return &mappedTransport{data: data, buf: make([]byte, chunkSize)}, nil
}

// Next copies the next chunk out of the mapping. A truncated or failing backing
// file surfaces as an error instead of crashing the process with SIGBUS.
func (t *mappedTransport) Next() (chunk []byte, last bool, err error) {
	if t.off >= len(t.data) {
		return nil, true, io.EOF
	}

	old := debug.SetPanicOnFault(true)
	defer func() {
		debug.SetPanicOnFault(old)
		if r := recover(); r != nil {
			chunk, last = nil, false
			err = zerr.With(zerr.New(fmt.Sprintf("page fault reading mapped source: %v", r)), "offset", t.off)
		}
	}()

	n := copy(t.buf, t.data[t.off:])
	t.off += n
	return t.buf[:n], t.off >= len(t.data), nil
}

func (t *mappedTransport) Mapped() bool { return true }

func (t *mappedTransport) Close() error {
	if t.data == nil {
		return nil
	}
	err := unix.Munmap(t.data)
	t.data = nil
	return err
}
