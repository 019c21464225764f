package streamer

// Option configures a single streaming session.
type Option func(*sessionOptions)

type sessionOptions struct {
	chunkSize int
}

// WithChunkSize overrides the configured chunk size for one session.
func WithChunkSize(n int) Option {
	return func(o *sessionOptions) {
		o.chunkSize = n
	}
}
