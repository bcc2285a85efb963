// Package mb implements the opening of message broker connections.
package mb

import (
	"github.com/pkg/errors"

	"github.com/architectjyothi/overledger-sdk-go/lib/msg"
	"github.com/architectjyothi/overledger-sdk-go/lib/msg/amqp"
	"github.com/architectjyothi/overledger-sdk-go/lib/msg/memory"
)

// ErrUnknownType is returned for an unsupported broker type.
var ErrUnknownType = errors.New("unknown message broker type")

// New returns a broker connection according to mbType and sets it up.
func New(mbType, connection string) (msg.Broker, error) {
	var (
		b   msg.Broker
		err error
	)

	switch mbType {
	case msg.AMQP:
		b, err = amqp.New(connection)
	case msg.MEMORY:
		b = memory.New()
	default:
		return nil, errors.Wrap(ErrUnknownType, mbType)
	}

	if err != nil {
		return nil, err
	}

	if err = b.Setup(); err != nil {
		_ = b.Close()

		return nil, err
	}

	return b, nil
}
