package audit

import (
	"context"
)

// Store is the audit sink capability. Implementations must be append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByActor(ctx context.Context, actor string) ([]Event, error)
}
