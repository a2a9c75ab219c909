// Package sheets defines the outbound port for the audit-ledger
// mirror: an append-only copy of every ledger mutation kept outside
// the database, typically in a Google spreadsheet the accountant
// already works in.
package sheets

import (
	"context"
	"time"

	"harvestbook/internal/core"
)

// AuditEntry is one mirrored ledger mutation.
type AuditEntry struct {
	Timestamp  time.Time
	EntityKind string
	EntityID   int64
	Op         string
	Amount     core.Money
	Details    string
}

// LedgerMirror appends audit entries to an external ledger copy.
type LedgerMirror interface {
	Append(ctx context.Context, entry AuditEntry) (rowRef string, err error)
}
