// Package msg defines the interface for different message brokers.
package msg

import (
	"sync"

	"github.com/architectjyothi/overledger-sdk-go/lib/msg/types"
)

// Broker types.
const (
	AMQP   = "amqp"
	MEMORY = "memory"
)

// Broker carries submission events from the wallet and tracker services to their consumers.
type Broker interface {
	Setup() error
	Close() error

	// SendEvent publishes e for dlt.
	SendEvent(dlt string, e types.Event) error
	// GetEvents consumes the events of dlt. A message is acknowledged only once mut is unlocked by the consumer.
	GetEvents(dlt string, mut *sync.Mutex) (<-chan types.Event, <-chan error, error)
}
