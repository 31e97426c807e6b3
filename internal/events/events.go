package events

import (
	"context"
	"time"
)

type Type string

const (
	TypeConnected         Type = "session.connected"
	TypeTransferBroadcast Type = "transfer.broadcast"
	TypeTransferConfirmed Type = "transfer.confirmed"
)

type Event struct {
	Type      Type      `json:"type"`
	Account   string    `json:"account"`
	TxHash    string    `json:"txHash,omitempty"`
	AddressTo string    `json:"addressTo,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Message   string    `json:"message,omitempty"`
	Keyword   string    `json:"keyword,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher delivers session events to an external sink.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
