package chain

import (
	"context"
	"errors"

	contract "metasignet/contracts/chain"
)

// ErrDisabled is returned by the no-op registrar. Callers that treat the
// mirror as best-effort log it and move on.
var ErrDisabled = errors.New("chain registrar disabled")

// NoopRegistrar is the local-verification fallback: no chain configured,
// every call reports the path as disabled.
type NoopRegistrar struct{}

// NewNoop creates a registrar for deployments without a chain connection.
func NewNoop() *NoopRegistrar {
	return &NoopRegistrar{}
}

func (r *NoopRegistrar) RegisterContent(_ context.Context, _ contract.Registration) (contract.Receipt, error) {
	return contract.Receipt{}, ErrDisabled
}

func (r *NoopRegistrar) VouchForContent(_ context.Context, _ string) (contract.Receipt, error) {
	return contract.Receipt{}, ErrDisabled
}

func (r *NoopRegistrar) GetContentDetails(_ context.Context, _ string) (contract.ContentMetadata, error) {
	return contract.ContentMetadata{}, ErrDisabled
}

var _ Registrar = (*NoopRegistrar)(nil)
