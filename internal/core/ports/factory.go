// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/assetpipe/internal/core/domain"
)

// Factory materializes an asset from its request.
//
// Implementations must be safe to call from any goroutine and must not assume
// ordering relative to other calls. ctx is cancelled when the load times out or
// is cancelled; factories doing long I/O should honor it.
//
//go:generate go run go.uber.org/mock/mockgen -source=factory.go -destination=mocks/mock_factory.go -package=mocks
type Factory interface {
	Create(ctx context.Context, req domain.LoadRequest) (domain.Asset, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(ctx context.Context, req domain.LoadRequest) (domain.Asset, error)

// Create calls f.
func (f FactoryFunc) Create(ctx context.Context, req domain.LoadRequest) (domain.Asset, error) {
	return f(ctx, req)
}
