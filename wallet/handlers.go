package wallet

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	overledger "github.com/architectjyothi/overledger-sdk-go"
	"github.com/architectjyothi/overledger-sdk-go/lib/dlt"
	"github.com/architectjyothi/overledger-sdk-go/lib/dlt/types"
	"github.com/architectjyothi/overledger-sdk-go/lib/gateway"
	mtypes "github.com/architectjyothi/overledger-sdk-go/lib/msg/types"
	"github.com/architectjyothi/overledger-sdk-go/lib/store"
)

// Errors returned to client requests.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNoJournal  = errors.New("no submission journal configured")
)

// Response defines the data structure returned to the client making the http request. Body holds the JSON encoded
// result.
type Response struct {
	Body  string `json:"body"`
	Error string `json:"error,omitempty"`
}

// statusOf maps err to the http status replied.
func statusOf(err error) int {
	var se *gateway.StatusError

	switch {
	case errors.Is(err, types.ErrUnknownDlt), errors.Is(err, types.ErrUnsupportedDlt):
		return http.StatusNotFound
	case errors.As(err, &se):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

// reply writes the Response for body, or for err when not nil, and logs the request.
func reply(rw http.ResponseWriter, r *http.Request, code int, body interface{}, err error) {
	var res Response

	if err != nil {
		res.Error = err.Error()

		if code < http.StatusBadRequest {
			code = statusOf(err)
		}
	} else {
		switch b := body.(type) {
		case nil:
		case string:
			res.Body = b
		case json.RawMessage:
			res.Body = string(b)
		default:
			tmp, _ := json.Marshal(b)
			res.Body = string(tmp)
		}
	}

	log.Info().Err(err).Str("remote", r.RemoteAddr).Str("method", r.Method).Str("uri", r.RequestURI).
		Int("status", code).Msg("httpreq")

	rw.Header().Set("Content-Type", "application/json;charset=utf8")
	rw.WriteHeader(code)
	_ = json.NewEncoder(rw).Encode(&res)
}

// decode reads the JSON request body into v.
func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrapf(ErrBadRequest, "%v", err)
	}

	return nil
}

// homeHandler just replies a welcome message to the client.
func (w *Wallet) homeHandler(rw http.ResponseWriter, r *http.Request) {
	reply(rw, r, http.StatusOK, "Hello, this is your multi-ledger wallet!", nil)
}

// networksHandler replies the DLTs configured in the SDK.
func (w *Wallet) networksHandler(rw http.ResponseWriter, r *http.Request) {
	reply(rw, r, http.StatusOK, w.sdk.Dlts(), nil)
}

// accountHandler replies the address of the account configured for the DLT. The private key is never replied.
func (w *Wallet) accountHandler(rw http.ResponseWriter, r *http.Request) {
	var (
		err  error
		addr string
	)

	defer func() { reply(rw, r, http.StatusOK, addr, err) }()

	a, err := w.sdk.Dlt(mux.Vars(r)["dlt"])
	if err != nil {
		return
	}

	acc, ok := a.Account()
	if !ok {
		err = &types.AccountNotConfiguredError{Dlt: a.Name()}

		return
	}

	addr = acc.Address
}

// newAccountHandler creates a keypair for the DLT and replies it. The SDK account is left unchanged.
func (w *Wallet) newAccountHandler(rw http.ResponseWriter, r *http.Request) {
	var (
		err error
		acc types.Account
	)

	defer func() { reply(rw, r, http.StatusCreated, acc, err) }()

	a, err := w.sdk.Dlt(mux.Vars(r)["dlt"])
	if err != nil {
		return
	}

	acc, err = a.CreateAccount()
}

// balanceHandler replies the balance of an address on one DLT.
func (w *Wallet) balanceHandler(rw http.ResponseWriter, r *http.Request) {
	var (
		err error
		bal *types.Balance
	)

	defer func() { reply(rw, r, http.StatusOK, bal, err) }()

	v := mux.Vars(r)

	a, err := w.sdk.Dlt(v["dlt"])
	if err != nil {
		return
	}

	bal, err = a.GetBalance(r.Context(), v["address"])
}

// balancesHandler replies the balances of several addresses at once.
func (w *Wallet) balancesHandler(rw http.ResponseWriter, r *http.Request) {
	var (
		err  error
		bals []overledger.BalanceResult
	)

	defer func() { reply(rw, r, http.StatusOK, bals, err) }()

	var reqs []overledger.BalanceRequest
	if err = decode(r, &reqs); err != nil {
		return
	}

	bals, err = w.sdk.GetBalances(r.Context(), reqs)
}

// fundHandler asks the testnet faucet to fund an address. The amount is taken from the query (?amount=), the ledger
// default otherwise.
func (w *Wallet) fundHandler(rw http.ResponseWriter, r *http.Request) {
	var (
		err error
		res *types.FundingResult
	)

	defer func() { reply(rw, r, http.StatusOK, res, err) }()

	v := mux.Vars(r)

	a, err := w.sdk.Dlt(v["dlt"])
	if err != nil {
		return
	}

	res, err = a.FundAccount(r.Context(), r.URL.Query().Get("amount"), v["address"])
}

// signHandler signs a batch and replies the signed transactions without submitting them. With ?each=true every entry
// is signed independently and its own error reported.
func (w *Wallet) signHandler(rw http.ResponseWriter, r *http.Request) {
	var (
		err  error
		body interface{}
	)

	defer func() { reply(rw, r, http.StatusOK, body, err) }()

	var reqs []overledger.SignRequest
	if err = decode(r, &reqs); err != nil {
		return
	}

	if r.URL.Query().Get("each") == "true" {
		body, err = w.sdk.SignEach(r.Context(), reqs)

		return
	}

	body, err = w.sdk.Sign(r.Context(), reqs)
}

// sendHandler signs a batch, submits it in one envelope and replies the gateway response. Every signed entry is
// recorded in the journal and announced to the broker.
func (w *Wallet) sendHandler(rw http.ResponseWriter, r *http.Request) {
	var (
		err  error
		body json.RawMessage
	)

	code := http.StatusAccepted

	defer func() { reply(rw, r, code, body, err) }()

	var reqs []overledger.SignRequest
	if err = decode(r, &reqs); err != nil {
		return
	}

	signed, err := w.sdk.Sign(r.Context(), reqs)
	if err != nil {
		return
	}

	res, err := w.sdk.Send(r.Context(), signed)
	if err != nil {
		return
	}

	body = res.Data

	tr, errD := overledger.DecodeReply(res)
	if errD != nil {
		log.Warn().Err(errD).Msg("cannot decode submission reply, not recorded")

		return
	}

	w.record(tr, signed)
}

// record journals and announces each signed entry of the submission tr. Entries are keyed by the registry name of
// their DLT, whatever casing the caller used.
func (w *Wallet) record(tr *overledger.TransactionReply, signed []types.SignedTransaction) {
	now := time.Now().UTC()

	for _, st := range signed {
		sub := store.Submission{
			ID:                uuid.New().String(),
			MappID:            w.sdk.MappID(),
			TransactionID:     tr.TransactionID,
			Dlt:               dlt.Normalize(st.Dlt),
			SignedTransaction: st.SignedTransaction,
			Status:            store.StatusSubmitted,
			Created:           now,
			Updated:           now,
		}

		if e, ok := tr.Entry(sub.Dlt); ok {
			sub.TransactionHash = e.TransactionHash

			if e.Status != "" {
				sub.Status = string(e.Status)
			}
		}

		if w.db != nil {
			if err := w.db.AddSubmission(sub); err != nil {
				log.Error().Err(err).Str("dlt", sub.Dlt).Str("transactionId", sub.TransactionID).
					Msg("cannot record submission")
			}
		}

		if w.mb != nil {
			eve := mtypes.Event{
				Kind:            mtypes.SUBMITTED,
				ID:              sub.ID,
				MappID:          sub.MappID,
				TransactionID:   sub.TransactionID,
				Status:          sub.Status,
				TransactionHash: sub.TransactionHash,
				Time:            now,
			}

			if err := w.mb.SendEvent(sub.Dlt, eve); err != nil {
				log.Error().Err(err).Str("dlt", sub.Dlt).Msg("cannot publish submission event")
			}
		}
	}
}

// txHandler replies the gateway view of a submission. A gateway error reply is passed through with its status.
func (w *Wallet) txHandler(rw http.ResponseWriter, r *http.Request) {
	w.passThrough(rw, r, func() (*gateway.Response, error) {
		return w.sdk.ReadByTransactionID(r.Context(), mux.Vars(r)["id"])
	})
}

// transactionsHandler replies the submissions of the mapp as listed by the gateway.
func (w *Wallet) transactionsHandler(rw http.ResponseWriter, r *http.Request) {
	w.passThrough(rw, r, func() (*gateway.Response, error) {
		return w.sdk.ReadTransactionsByMappID(r.Context())
	})
}

func (w *Wallet) passThrough(rw http.ResponseWriter, r *http.Request, read func() (*gateway.Response, error)) {
	var (
		err  error
		body json.RawMessage
	)

	code := http.StatusOK

	defer func() { reply(rw, r, code, body, err) }()

	res, err := read()
	if err != nil {
		code = http.StatusBadGateway

		return
	}

	code, body = res.Status, res.Data
	if code < http.StatusOK || code > 299 {
		err = fmt.Errorf("gateway replied %d: %s", res.Status, res.Data)
	}
}

// submissionsHandler replies the journal, filtered by the DLTs in the query (?dlt=ripple&dlt=ethereum).
func (w *Wallet) submissionsHandler(rw http.ResponseWriter, r *http.Request) {
	var (
		err  error
		subs []store.Submission
	)

	defer func() { reply(rw, r, http.StatusOK, subs, err) }()

	if w.db == nil {
		err = ErrNoJournal

		return
	}

	subs, err = w.db.GetSubmissions(r.URL.Query()["dlt"])
}
