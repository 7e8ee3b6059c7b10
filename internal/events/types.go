// internal/events/types.go
package events

import (
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	OperationStarted   EventType = "operation.started"
	OperationCompleted EventType = "operation.completed"
	OperationFailed    EventType = "operation.failed"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// Operation describes an on-chain action: what was done, by whom and with what.
type Operation struct {
	Kind         string // "airdrop", "transfer", "token.mint", ...
	Wallet       string
	Counterparty string
	Mint         string
	Amount       string // decimal string in UI units
	Cluster      string
}

// OperationStartedEvent is emitted before a transaction is built.
type OperationStartedEvent struct {
	BaseEvent
	Operation
}

// OperationCompletedEvent is emitted after the transaction is confirmed.
type OperationCompletedEvent struct {
	BaseEvent
	Operation
	Signature string
	Duration  time.Duration
}

// OperationFailedEvent is emitted when building, sending or confirming fails.
type OperationFailedEvent struct {
	BaseEvent
	Operation
	Signature string // may be empty if the transaction never reached the cluster
	Error     error
}

// NewStarted creates OperationStartedEvent stamped with current time.
func NewStarted(op Operation) OperationStartedEvent {
	return OperationStartedEvent{
		BaseEvent: BaseEvent{EventType: OperationStarted, EventTime: time.Now().UTC()},
		Operation: op,
	}
}

// NewCompleted creates OperationCompletedEvent stamped with current time.
func NewCompleted(op Operation, signature string, duration time.Duration) OperationCompletedEvent {
	return OperationCompletedEvent{
		BaseEvent: BaseEvent{EventType: OperationCompleted, EventTime: time.Now().UTC()},
		Operation: op,
		Signature: signature,
		Duration:  duration,
	}
}

// NewFailed creates OperationFailedEvent stamped with current time.
func NewFailed(op Operation, signature string, err error) OperationFailedEvent {
	return OperationFailedEvent{
		BaseEvent: BaseEvent{EventType: OperationFailed, EventTime: time.Now().UTC()},
		Operation: op,
		Signature: signature,
		Error:     err,
	}
}
