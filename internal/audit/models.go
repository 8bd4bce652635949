package audit

import (
	"time"

	"metasignet/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp   time.Time
	Actor       domain.ActorID
	Fingerprint string // truncated display prefix, never the full value
	Action      Action
	Outcome     string
	Reason      string
	// Enrichment from the HTTP edge.
	RequestID string
	Device    string
}

// Action names the ledger operations worth auditing.
type Action string

const (
	ActionContentAttested Action = "content_attested"
	ActionContentVouched  Action = "content_vouched"
	ActionAttestRejected  Action = "attest_rejected"
	ActionVouchRejected   Action = "vouch_rejected"
)
