package wallet

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const timeout = 15

// Router returns the RESTful API of the wallet service.
func (w *Wallet) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", w.homeHandler)
	r.HandleFunc("/networks", w.networksHandler).Methods(http.MethodGet)               // configured DLTs
	r.HandleFunc("/account/{dlt}", w.accountHandler).Methods(http.MethodGet)           // configured account address
	r.HandleFunc("/account/{dlt}", w.newAccountHandler).Methods(http.MethodPost)       // create a keypair
	r.HandleFunc("/balance/{dlt}/{address}", w.balanceHandler).Methods(http.MethodGet) // address balance
	r.HandleFunc("/balances", w.balancesHandler).Methods(http.MethodPost)              // several balances at once
	r.HandleFunc("/fund/{dlt}/{address}", w.fundHandler).Methods(http.MethodPost)      // testnet faucet
	r.HandleFunc("/sign", w.signHandler).Methods(http.MethodPost)                      // sign a batch
	r.HandleFunc("/send", w.sendHandler).Methods(http.MethodPost)                      // sign and submit a batch
	r.HandleFunc("/tx/{id}", w.txHandler).Methods(http.MethodGet)                      // gateway view of a submission
	r.HandleFunc("/transactions", w.transactionsHandler).Methods(http.MethodGet)       // submissions of the mapp
	r.HandleFunc("/submissions", w.submissionsHandler).Methods(http.MethodGet)         // journal

	return r
}

// Init sets up and starts the http/https server to service the RESTful API for a wallet service. If sslPort, sslCert
// and sslKey are informed, it will start an https (TLS) server on the specified endpoint. It blocks until StopWallet
// is called.
func (w *Wallet) Init(endpoint, port, sslPort, sslCert, sslKey string) string {
	var (
		l           sync.Mutex // guards err and errTLS
		err, errTLS error
	)

	r := w.Router()

	if port != "" {
		s := &http.Server{
			Handler:      r,
			Addr:         endpoint + ":" + port,
			WriteTimeout: timeout * time.Second,
			ReadTimeout:  timeout * time.Second,
		}

		w.l.Lock()
		w.s = s
		w.l.Unlock()

		go func() {
			e := s.ListenAndServe()

			l.Lock()
			err = e
			l.Unlock()
		}()

		log.Info().Msgf("listening to API http requests on %s:%s", endpoint, port)
	}

	if sslPort != "" && sslCert != "" && sslKey != "" {
		ss := &http.Server{
			Handler:      r,
			Addr:         endpoint + ":" + sslPort,
			WriteTimeout: timeout * time.Second,
			ReadTimeout:  timeout * time.Second,
		}

		w.l.Lock()
		w.ss = ss
		w.l.Unlock()

		go func() {
			e := ss.ListenAndServeTLS(sslCert, sslKey)

			l.Lock()
			errTLS = e
			l.Unlock()
		}()

		log.Info().Msgf("listening to API https requests on %s:%s", endpoint, sslPort)
	}

	// wait for servers to be shutdown
	<-w.sc

	l.Lock()
	defer l.Unlock()

	return fmt.Sprintf("shutdown http server:%v, https server:%v", err, errTLS)
}
