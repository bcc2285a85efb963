// Package tracker implements the submission tracker microservice. The tracker polls the gateway for the submissions
// recorded in the journal that have not reached a final status, records every status change and announces it to
// the message broker.
package tracker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	overledger "github.com/architectjyothi/overledger-sdk-go"
	"github.com/architectjyothi/overledger-sdk-go/lib/gateway"
	"github.com/architectjyothi/overledger-sdk-go/lib/metrics"
	"github.com/architectjyothi/overledger-sdk-go/lib/msg"
	mtypes "github.com/architectjyothi/overledger-sdk-go/lib/msg/types"
	"github.com/architectjyothi/overledger-sdk-go/lib/store"
	"github.com/architectjyothi/overledger-sdk-go/tracker/watch"
)

// DefaultPoll applies when no polling interval is configured.
const DefaultPoll = 10 * time.Second

// parallel bounds the gateway reads in flight during a cycle.
const parallel = 4

// Reader reads the gateway view of a submission. *overledger.SDK satisfies it.
type Reader interface {
	ReadByTransactionID(ctx context.Context, id string) (*gateway.Response, error)
}

// Tracker implements a tracker service.
type Tracker struct {
	r    Reader
	db   store.DB
	mb   msg.Broker // optional
	m    *metrics.Metrics
	poll time.Duration
	w    *watch.Watch

	l      sync.Mutex
	cancel context.CancelFunc
}

// New instantiates a new tracker service. mb and m may be nil.
func New(r Reader, db store.DB, mb msg.Broker, m *metrics.Metrics, poll time.Duration) *Tracker {
	if poll <= 0 {
		poll = DefaultPoll
	}

	return &Tracker{r: r, db: db, mb: mb, m: m, poll: poll, w: watch.New(nil)}
}

// Track starts polling until ctx is cancelled or StopTracker is called. The returned channel receives a single
// message once the last cycle has finished.
func (t *Tracker) Track(ctx context.Context) chan string {
	ret := make(chan string, 1)

	ctx, cancel := context.WithCancel(ctx)

	t.w.Start()

	t.l.Lock()
	t.cancel = cancel
	t.l.Unlock()

	go func() {
		defer cancel()

		ticker := time.NewTicker(t.poll)
		defer ticker.Stop()

		log.Info().Dur("poll", t.poll).Msg("tracking submissions")

		for t.w.Status() == watch.WORK {
			if n, err := t.Cycle(ctx); err != nil {
				log.Error().Err(err).Msg("tracking cycle failed")
			} else if n > 0 {
				log.Info().Int("changes", n).Int("pending", t.w.Len()).Msg("tracking cycle")
			}

			select {
			case <-ctx.Done():
				t.w.Stop()
			case <-ticker.C:
			}
		}

		ret <- fmt.Sprintf("done after %d cycles", t.w.Cycles)
	}()

	return ret
}

// StopTracker ends the polling started by Track. A cycle in progress is cancelled.
func (t *Tracker) StopTracker() {
	t.w.Stop()

	t.l.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.l.Unlock()
}

// Cycle reads once every pending submission and applies the status changes. It returns the number of changes.
func (t *Tracker) Cycle(ctx context.Context) (int, error) {
	pending, err := t.db.PendingSubmissions()
	if err != nil {
		return 0, err
	}

	t.w.Load(pending)

	var n int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for _, id := range t.w.TransactionIDs() {
		id := id

		g.Go(func() error {
			res, err := t.r.ReadByTransactionID(gctx, id)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}

				log.Warn().Err(err).Str("transactionId", id).Msg("cannot read submission")

				return nil
			}

			if res.Status < 200 || res.Status > 299 {
				log.Warn().Int("status", res.Status).Str("transactionId", id).Msg("gateway refused submission read")

				return nil
			}

			tr, err := overledger.DecodeReply(res)
			if err != nil {
				log.Warn().Err(err).Str("transactionId", id).Msg("cannot decode submission")

				return nil
			}

			for _, c := range t.w.Scan(tr) {
				t.apply(c)
				atomic.AddInt64(&n, 1)
			}

			return nil
		})
	}

	err = g.Wait()
	t.w.Done()

	return int(n), err
}

// apply records c and announces it.
func (t *Tracker) apply(c watch.Change) {
	s := c.Submission

	if err := t.db.UpdateStatus(s.ID, c.Status); err != nil {
		log.Error().Err(err).Str("id", s.ID).Str("dlt", s.Dlt).Msg("cannot update submission status")

		return
	}

	t.m.ObserveStatus(s.Dlt, c.Status)

	log.Info().Str("id", s.ID).Str("dlt", s.Dlt).Str("transactionId", s.TransactionID).Str("from", s.Status).
		Str("to", c.Status).Msg("submission status changed")

	if t.mb == nil {
		return
	}

	hash := c.TransactionHash
	if hash == "" {
		hash = s.TransactionHash
	}

	eve := mtypes.Event{
		Kind:            mtypes.STATUS,
		ID:              s.ID,
		MappID:          s.MappID,
		TransactionID:   s.TransactionID,
		Status:          c.Status,
		TransactionHash: hash,
		Time:            time.Now().UTC(),
	}

	if err := t.mb.SendEvent(s.Dlt, eve); err != nil {
		log.Error().Err(err).Str("dlt", s.Dlt).Msg("cannot publish status event")
	}
}
