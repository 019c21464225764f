//go:build !unix

package streamer

import (
	"go.trai.ch/assetpipe/internal/core/ports"
	"go.trai.ch/zerr"
)

func mapSource(ports.Source, int) (transport, error) {
	return nil, zerr.New("memory mapping is not supported on this platform")
}
