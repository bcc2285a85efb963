// Package wallet implements the wallet microservice.
//
// This microservice exposes the SDK through a RESTful API: clients create accounts, query balances, sign batches and
// submit them to the gateway. Every submission is recorded in the journal, when one is configured, and announced to
// the message broker so the tracker service and other consumers can follow it.
package wallet

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	overledger "github.com/architectjyothi/overledger-sdk-go"
	"github.com/architectjyothi/overledger-sdk-go/lib/msg"
	"github.com/architectjyothi/overledger-sdk-go/lib/store"
	"github.com/architectjyothi/overledger-sdk-go/lib/store/db"
)

// Wallet contains the data necessary to deliver the service.
type Wallet struct {
	sdk *overledger.SDK
	db  store.DB      // submission journal, optional
	mb  msg.Broker    // optional
	l   sync.Mutex    // guards s and ss
	s   *http.Server  // http server
	ss  *http.Server  // https server
	sc  chan struct{} // closed once the servers are shut down
	so  sync.Once
}

// New returns a pointer to a new Wallet service. dbConn and mb may be nil.
func New(sdk *overledger.SDK, dbConn store.DB, mb msg.Broker) *Wallet {
	return &Wallet{
		sdk: sdk,
		db:  dbConn,
		mb:  mb,
		sc:  make(chan struct{}),
	}
}

// StopWallet shuts down the http servers implementing the RESTful API and closes gracefully the connections to
// message broker and database.
func (w *Wallet) StopWallet() {
	w.l.Lock()
	s, ss := w.s, w.ss
	w.l.Unlock()

	if s != nil {
		if err := s.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("error in http server shutdown")
		}
	}

	if ss != nil {
		if err := ss.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("error in https server shutdown")
		}
	}

	w.so.Do(func() { close(w.sc) }) // indicate shutdowns have finished

	if w.mb != nil {
		if err := w.mb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing message broker")
		}
	}

	if w.db != nil {
		err := db.Close(w.db)
		log.Info().Err(err).Msg("disconnected database")
	}
}

// ManageEvents starts go routines to consume the message broker queues for the submission events of every
// configured DLT. For each DLT, two channels are read, one for events and one for errors.
func (w *Wallet) ManageEvents() error {
	if w.mb == nil {
		return nil
	}

	for _, name := range w.sdk.Dlts() {
		mut := new(sync.Mutex)
		mut.Lock()

		eveCh, errCh, err := w.mb.GetEvents(name, mut)
		if err != nil {
			return err
		}

		go func(dlt string) {
			log.Info().Str("dlt", dlt).Msg("start listening to event channel")

			for eve := range eveCh {
				log.Info().Str("dlt", dlt).Str("kind", eve.Kind).Str("id", eve.ID).
					Str("transactionId", eve.TransactionID).Str("status", eve.Status).Msg("received event")
				mut.Unlock()
			}

			log.Info().Str("dlt", dlt).Msg("stop listening to event channel")
		}(name)

		go func(dlt string) {
			for e := range errCh {
				log.Warn().Err(e).Str("dlt", dlt).Msg("received error")
			}
		}(name)
	}

	return nil
}
