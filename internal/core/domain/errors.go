package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidIdentity is returned when an operation receives an empty identity.
	ErrInvalidIdentity = zerr.New("invalid asset identity")

	// ErrUnregisteredType is returned when no factory is registered for an asset type.
	ErrUnregisteredType = zerr.New("unregistered asset type")

	// ErrNilFactory is returned when a load is submitted without a factory.
	ErrNilFactory = zerr.New("nil asset factory")

	// ErrLoadTimeout is returned when a factory does not finish within the load timeout.
	ErrLoadTimeout = zerr.New("asset load timed out")

	// ErrLoadCancelled is returned by handles whose load was cancelled.
	ErrLoadCancelled = zerr.New("asset load cancelled")

	// ErrLoaderClosed is returned when submitting to a closed loader.
	ErrLoaderClosed = zerr.New("loader closed")

	// ErrFactoryPanic is returned when a factory panics.
	ErrFactoryPanic = zerr.New("asset factory panicked")

	// ErrNilAsset is returned when a factory reports success without an asset.
	ErrNilAsset = zerr.New("factory returned nil asset")

	// ErrCapacityExceeded is returned when an asset is larger than the cache memory ceiling.
	ErrCapacityExceeded = zerr.New("asset exceeds cache capacity")

	// ErrSelfDependency is returned when an asset is declared as its own dependency.
	ErrSelfDependency = zerr.New("asset cannot depend on itself")

	// ErrNodeNotFound is returned when a graph lookup references an unknown identity.
	ErrNodeNotFound = zerr.New("dependency node not found")

	// ErrStreamCancelled is the terminal error recorded on cancelled streaming sessions.
	ErrStreamCancelled = zerr.New("streaming cancelled")

	// ErrStreamerClosed is returned when starting a stream on a closed streamer.
	ErrStreamerClosed = zerr.New("streamer closed")

	// ErrInvalidChunkSize is returned when a non-positive chunk size is requested.
	ErrInvalidChunkSize = zerr.New("invalid chunk size")

	// ErrInvalidConfig is returned when configuration values are out of range.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrNoTargetsSpecified is returned when a command needs at least one identity.
	ErrNoTargetsSpecified = zerr.New("no target assets specified")
)
