// Package memory is the in-process LedgerMirror used in tests and as
// the default backend when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"harvestbook/internal/sheets"
)

type Mirror struct {
	mu      sync.Mutex
	entries []sheets.AuditEntry
}

func New() *Mirror {
	return &Mirror{}
}

var _ sheets.LedgerMirror = (*Mirror)(nil)

// Append stores the entry and returns a synthetic row reference.
func (m *Mirror) Append(_ context.Context, entry sheets.AuditEntry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return fmt.Sprintf("mem:%d", len(m.entries)), nil
}

// Entries returns a copy of everything mirrored so far.
func (m *Mirror) Entries() []sheets.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sheets.AuditEntry, len(m.entries))
	copy(out, m.entries)
	return out
}
