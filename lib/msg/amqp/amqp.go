// Package amqp implements the message broker interface for AMQP compliant brokers (ie RabbitMQ)
package amqp

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"

	"github.com/architectjyothi/overledger-sdk-go/lib/msg/types"
)

// Exchange receives every submission event, routed by <dlt>.tx.<transactionId>.
const Exchange = "ovl"

// Amqp implements a connection to a broker and a channel for reuse.
type Amqp struct {
	conn *amqp.Connection
	l    sync.Mutex // guards ch
	ch   *amqp.Channel
}

// New instantiates a new amqp broker.
func New(uri string) (*Amqp, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot connect to broker")
	}

	log.Info().Msg("connected to message broker")

	return &Amqp{conn: conn}, nil
}

// Setup declares the topic exchange the wallet and tracker services publish submission events to.
func (r *Amqp) Setup() error {
	// obtain a one-use channel
	channel, err := r.conn.Channel()
	if err != nil {
		return errors.Wrap(err, "cannot open channel")
	}
	defer channel.Close()

	return errors.Wrap(channel.ExchangeDeclare(Exchange, amqp.ExchangeTopic, true, false, false, false, nil),
		"cannot declare exchange")
}

// Close terminates gracefully the connection to the AMQP message broker.
func (r *Amqp) Close() error {
	r.l.Lock()
	if r.ch != nil {
		if err := r.ch.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing amqp channel")
		}

		r.ch = nil
	}
	r.l.Unlock()

	return r.conn.Close()
}

// channel returns the shared channel, opening it if not present.
func (r *Amqp) channel() (*amqp.Channel, error) {
	r.l.Lock()
	defer r.l.Unlock()

	if r.ch == nil {
		ch, err := r.conn.Channel()
		if err != nil {
			return nil, errors.Wrap(err, "cannot open channel")
		}

		r.ch = ch
	}

	return r.ch, nil
}

// Queue is the durable queue consuming the events of dlt.
func Queue(dlt string) string {
	return Exchange + dlt
}

// SendEvent publishes e to the exchange.
func (r *Amqp) SendEvent(dlt string, e types.Event) error {
	e.Dlt = dlt

	body, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "cannot encode event")
	}

	ch, err := r.channel()
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		Headers:     amqp.Table{"x-event-name": dlt + "." + e.TransactionID},
		Body:        body,
		ContentType: "application/json",
	}

	if err = ch.Publish(Exchange, e.RoutingKey(), false, false, msg); err != nil {
		log.Error().Err(err).Str("dlt", dlt).Msg("error sending event to message broker")

		return errors.Wrap(err, "cannot publish event")
	}

	return nil
}

// GetEvents consumes the events of dlt pushing them to the returned channel. The Mutex pointer is provided to ensure
// the consumed message has been fully dealt with by the management function, so the message consumed is only
// acknowledged when the mutex is unlocked.
func (r *Amqp) GetEvents(dlt string, mut *sync.Mutex) (<-chan types.Event, <-chan error, error) {
	ch, err := r.channel()
	if err != nil {
		return nil, nil, err
	}

	if _, err = ch.QueueDeclare(Queue(dlt), true, false, false, false, nil); err != nil {
		return nil, nil, errors.Wrapf(err, "cannot declare queue %s", Queue(dlt))
	}

	if err = ch.QueueBind(Queue(dlt), dlt+".tx.#", Exchange, false, nil); err != nil {
		return nil, nil, errors.Wrapf(err, "cannot bind queue %s", Queue(dlt))
	}

	msgs, err := ch.Consume(Queue(dlt), "ovl-"+dlt, false, false, false, false, nil)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "cannot consume queue %s", Queue(dlt))
	}

	eves := make(chan types.Event)
	errs := make(chan error)

	go func() {
		defer close(errs)
		defer close(eves)

		for m := range msgs {
			var e types.Event
			if err := json.Unmarshal(m.Body, &e); err != nil {
				errs <- errors.Wrap(err, "cannot decode event")

				_ = m.Nack(false, false)

				continue
			}

			eves <- e

			mut.Lock() // wait for the consumer to finish processing the event

			if err := m.Ack(false); err != nil {
				log.Warn().Err(err).Str("dlt", dlt).Msg("cannot acknowledge event")
			}
		}
	}()

	return eves, errs, nil
}
