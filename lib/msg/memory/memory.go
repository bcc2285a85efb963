// Package memory implements the message broker interface in process memory. Events published before a consumer
// subscribes are queued, up to Capacity per DLT.
package memory

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/architectjyothi/overledger-sdk-go/lib/msg/types"
)

// Capacity is the number of events queued per DLT.
const Capacity = 256

// Errors.
var (
	ErrQueueFull = errors.New("event queue is full")
	ErrClosed    = errors.New("broker is closed")
)

// Memory is a msg.Broker safe for concurrent use.
type Memory struct {
	l      sync.Mutex
	queues map[string]chan types.Event
	done   chan struct{}
	closed bool
}

// New returns an empty broker.
func New() *Memory {
	return &Memory{queues: make(map[string]chan types.Event), done: make(chan struct{})}
}

// Setup does nothing, there is nothing to declare.
func (m *Memory) Setup() error { return nil }

// Close stops every consumer.
func (m *Memory) Close() error {
	m.l.Lock()
	defer m.l.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}

	return nil
}

func (m *Memory) queue(dlt string) (chan types.Event, error) {
	m.l.Lock()
	defer m.l.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	q, ok := m.queues[dlt]
	if !ok {
		q = make(chan types.Event, Capacity)
		m.queues[dlt] = q
	}

	return q, nil
}

// SendEvent queues e for dlt.
func (m *Memory) SendEvent(dlt string, e types.Event) error {
	q, err := m.queue(dlt)
	if err != nil {
		return err
	}

	e.Dlt = dlt

	select {
	case q <- e:
		return nil
	default:
		return errors.Wrap(ErrQueueFull, dlt)
	}
}

// Len returns the number of events of dlt waiting for a consumer.
func (m *Memory) Len(dlt string) int {
	m.l.Lock()
	defer m.l.Unlock()

	return len(m.queues[dlt])
}

// GetEvents consumes the events of dlt. As with AMQP, the next event is only delivered once the consumer has unlocked
// mut.
func (m *Memory) GetEvents(dlt string, mut *sync.Mutex) (<-chan types.Event, <-chan error, error) {
	q, err := m.queue(dlt)
	if err != nil {
		return nil, nil, err
	}

	eves := make(chan types.Event)
	errs := make(chan error)

	go func() {
		defer close(errs)
		defer close(eves)

		for {
			select {
			case <-m.done:
				return
			case e := <-q:
				select {
				case eves <- e:
				case <-m.done:
					return
				}

				mut.Lock() // wait for the consumer to finish processing the event
			}
		}
	}()

	return eves, errs, nil
}
