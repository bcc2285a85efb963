// Package types defines the messages exchanged through the message broker.
package types

import "time"

// Kinds of event.
const (
	SUBMITTED = "submitted" // the wallet sent the envelope to the gateway
	STATUS    = "status"    // the tracker saw the gateway status change
)

// Event announces the life cycle of one submission on one DLT.
type Event struct {
	Kind            string    `json:"kind"`
	ID              string    `json:"id"` // submission id in the store
	MappID          string    `json:"mappId"`
	TransactionID   string    `json:"overledgerTransactionId"`
	Dlt             string    `json:"dlt"`
	Status          string    `json:"status"`
	TransactionHash string    `json:"transactionHash,omitempty"`
	Time            time.Time `json:"time"`
}

// RoutingKey is the topic an event is published under: <dlt>.tx.<transactionId>.
func (e Event) RoutingKey() string {
	return e.Dlt + ".tx." + e.TransactionID
}
