package amqp

import (
	"encoding/json"
	"time"
)

// EntityKind names the ledger table a change touched.
type EntityKind string

const (
	KindJob           EntityKind = "harvesting_job"
	KindRental        EntityKind = "machine_rental"
	KindPayment       EntityKind = "payment"
	KindRentalPayment EntityKind = "rental_payment"
	KindAdvance       EntityKind = "daily_advance"
	KindExpense       EntityKind = "machine_expense"
)

// Op is the kind of write that happened.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// LedgerChangedMessage is a lightweight change notification. It carries
// only the entity reference; the worker reloads the affected rows from
// the database and recomputes the running totals from them.
type LedgerChangedMessage struct {
	EntityKind EntityKind `json:"entity_kind"`
	EntityID   int64      `json:"entity_id"`
	Op         Op         `json:"op"`
	Timestamp  time.Time  `json:"timestamp"`
}

func NewLedgerChangedMessage(kind EntityKind, id int64, op Op) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		EntityKind: kind,
		EntityID:   id,
		Op:         op,
		Timestamp:  time.Now(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.EntityKind == "" {
		return nil, errEmptyEntityKind
	}
	return &msg, nil
}
