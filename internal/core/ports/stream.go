package ports

import (
	"io"

	"go.trai.ch/assetpipe/internal/core/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=stream.go -destination=mocks/mock_stream.go -package=mocks

// StreamCallback receives the progress of one streaming session.
// Chunk callbacks arrive in order from a single goroutine; exactly one terminal
// callback follows the last chunk callback.
type StreamCallback interface {
	// OnChunkReceived delivers chunk number index. chunk is only valid during the call.
	OnChunkReceived(session domain.SessionInfo, chunk []byte, index int, isLast bool)
	OnStreamingComplete(session domain.SessionInfo)
	OnStreamingError(session domain.SessionInfo, err error)
	OnStreamingCancelled(session domain.SessionInfo)
}

// Source is an opened streaming source.
type Source interface {
	io.ReadCloser
	// Size returns the total number of bytes the source holds.
	Size() int64
	// Fd returns the file descriptor backing the source, or -1 when it cannot be mapped.
	Fd() int
}

// SourceOpener resolves locators to readable sources.
type SourceOpener interface {
	Open(locator string) (Source, error)
}
