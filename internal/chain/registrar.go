// Package chain defines the optional blockchain escalation path. The ledger
// mirrors attestations and vouches to an on-chain registry when one is
// configured; the ledger is complete and correct with this path absent, and
// mirror failures never affect a ledger result.
package chain

import (
	"context"

	contract "metasignet/contracts/chain"
)

// Registrar is the on-chain registry contract surface. The contract exposes
// registerContent, vouchForContent, and getContentDetails; transaction
// submission, gas, and confirmation policy all live behind this boundary.
type Registrar interface {
	RegisterContent(ctx context.Context, reg contract.Registration) (contract.Receipt, error)
	VouchForContent(ctx context.Context, contentHash string) (contract.Receipt, error)
	GetContentDetails(ctx context.Context, contentHash string) (contract.ContentMetadata, error)
}
