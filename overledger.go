package overledger

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/architectjyothi/overledger-sdk-go/lib/dlt"
	"github.com/architectjyothi/overledger-sdk-go/lib/dlt/types"
	"github.com/architectjyothi/overledger-sdk-go/lib/gateway"
	"github.com/architectjyothi/overledger-sdk-go/lib/metrics"
	"github.com/architectjyothi/overledger-sdk-go/lib/search"
)

// Networks and the gateway base URL of each.
const (
	Mainnet    = "mainnet"
	Testnet    = "testnet"
	MainnetURL = "https://bpi.overledger.io/v1"
	TestnetURL = "http://bpi.devnet.overledger.io/v1"
)

// Options configure an SDK.
type Options struct {
	Dlts    []types.Config   `json:"dlts" mapstructure:"dlts"`
	Network string           `json:"network,omitempty" mapstructure:"network"` // mainnet or testnet (default)
	Timeout int              `json:"timeout,omitempty" mapstructure:"timeout"` // per request, in milliseconds
	BaseURL string           `json:"baseUrl,omitempty" mapstructure:"baseUrl"` // overrides the network URL
	Metrics *metrics.Metrics `json:"-" mapstructure:"-"`
}

// SDK is the orchestrator: it holds one adapter per configured DLT, signs batches concurrently and submits them
// in a single envelope. It is safe for concurrent use. The adapter map is written only by New.
type SDK struct {
	network string
	gw      *gateway.Client
	metrics *metrics.Metrics
	dlts    map[string]types.Adapter

	l      sync.RWMutex
	mappID string
	bpiKey string
	search *search.Search
}

// New returns an SDK authenticating as mappID:bpiKey with an adapter loaded per entry of opts.Dlts. A later entry
// for the same DLT replaces an earlier one.
func New(mappID, bpiKey string, opts Options) (*SDK, error) {
	if opts.Dlts == nil {
		return nil, errors.Wrap(types.ErrConfiguration, "the dlts are missing")
	}

	network := opts.Network
	if network != Mainnet {
		network = Testnet
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = TestnetURL
		if network == Mainnet {
			baseURL = MainnetURL
		}
	}

	s := &SDK{
		network: network,
		gw:      gateway.New(baseURL, mappID, bpiKey, time.Duration(opts.Timeout)*time.Millisecond),
		metrics: opts.Metrics,
		dlts:    make(map[string]types.Adapter, len(opts.Dlts)),
		mappID:  mappID,
		bpiKey:  bpiKey,
	}
	s.search = search.New(s.gw)

	for _, cfg := range opts.Dlts {
		a, err := dlt.Load(s, cfg)
		if err != nil {
			return nil, err
		}

		if _, ok := s.dlts[a.Name()]; ok {
			log.Warn().Str("dlt", a.Name()).Msg("dlt configured twice, keeping the last one")
		}

		s.dlts[a.Name()] = a
	}

	log.Info().Str("network", network).Str("url", baseURL).Strs("dlts", s.Dlts()).Msg("sdk configured")

	return s, nil
}

// Network returns mainnet or testnet.
func (s *SDK) Network() string {
	return s.network
}

// Gateway returns the gateway client.
func (s *SDK) Gateway() *gateway.Client {
	return s.gw
}

// Search returns the search endpoints client.
func (s *SDK) Search() *search.Search {
	s.l.RLock()
	defer s.l.RUnlock()

	return s.search
}

// MappID returns the application id sent in envelopes and credentials.
func (s *SDK) MappID() string {
	s.l.RLock()
	defer s.l.RUnlock()

	return s.mappID
}

// SetMappID replaces the application id for subsequent requests.
func (s *SDK) SetMappID(mappID string) {
	s.l.Lock()
	s.mappID = mappID
	s.resetCredentials()
	s.l.Unlock()
}

// BpiKey returns the gateway key.
func (s *SDK) BpiKey() string {
	s.l.RLock()
	defer s.l.RUnlock()

	return s.bpiKey
}

// SetBpiKey replaces the gateway key for subsequent requests.
func (s *SDK) SetBpiKey(bpiKey string) {
	s.l.Lock()
	s.bpiKey = bpiKey
	s.resetCredentials()
	s.l.Unlock()
}

// resetCredentials must be called with the write lock held.
func (s *SDK) resetCredentials() {
	s.gw.SetCredentials(s.mappID, s.bpiKey)
	s.search = search.New(s.gw)
}

// Dlt returns the adapter configured for name.
func (s *SDK) Dlt(name string) (types.Adapter, error) {
	a, ok := s.dlts[dlt.Normalize(name)]
	if !ok {
		return nil, &types.UnknownDltError{Name: name}
	}

	return a, nil
}

// Dlts returns the names of the configured DLTs, sorted.
func (s *SDK) Dlts() []string {
	names := make([]string, 0, len(s.dlts))

	for _, n := range dlt.Supported() {
		if _, ok := s.dlts[n]; ok {
			names = append(names, n)
		}
	}

	return names
}

// SignRequest asks for one transaction on Dlt.
type SignRequest struct {
	Dlt       string                   `json:"dlt"`
	ToAddress string                   `json:"toAddress"`
	Message   string                   `json:"message"`
	Options   types.TransactionOptions `json:"options,omitempty"`
}

// UnmarshalJSON decodes the options into the variant of the request's DLT.
func (r *SignRequest) UnmarshalJSON(b []byte) error {
	var raw struct {
		Dlt       string          `json:"dlt"`
		ToAddress string          `json:"toAddress"`
		Message   string          `json:"message"`
		Options   json.RawMessage `json:"options"`
	}

	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	// an unsupported DLT keeps nil options: signing reports it against this entry alone
	o, err := dlt.DecodeOptions(raw.Dlt, raw.Options)
	if err != nil && !errors.Is(err, types.ErrUnsupportedDlt) {
		return err
	}

	*r = SignRequest{Dlt: raw.Dlt, ToAddress: raw.ToAddress, Message: raw.Message, Options: o}

	return nil
}

// SignResult is the outcome of one entry of SignEach.
type SignResult struct {
	types.SignedTransaction
	Err error `json:"-"`
}

// MarshalJSON adds the error message, if any, as "error".
func (r SignResult) MarshalJSON() ([]byte, error) {
	out := struct {
		types.SignedTransaction
		Error string `json:"error,omitempty"`
	}{SignedTransaction: r.SignedTransaction}

	if r.Err != nil {
		out.Error = r.Err.Error()
	}

	return json.Marshal(out)
}

func (s *SDK) adapters(reqs []SignRequest) ([]types.Adapter, error) {
	if reqs == nil {
		return nil, types.ErrInvalidInput
	}

	as := make([]types.Adapter, len(reqs))

	for i, r := range reqs {
		a, err := s.Dlt(r.Dlt)
		if err != nil {
			return nil, err
		}

		as[i] = a
	}

	return as, nil
}

func (s *SDK) sign(ctx context.Context, a types.Adapter, r SignRequest) (string, error) {
	start := time.Now()
	signed, err := a.Sign(ctx, r.ToAddress, r.Message, r.Options)
	s.metrics.ObserveSign(a.Name(), start, err)

	return signed, err
}

// Sign signs every request concurrently. Results keep the order of reqs. The first failure aborts the batch:
// the remaining signers see a cancelled context and nothing is returned.
func (s *SDK) Sign(ctx context.Context, reqs []SignRequest) ([]types.SignedTransaction, error) {
	as, err := s.adapters(reqs)
	if err != nil {
		return nil, err
	}

	res := make([]types.SignedTransaction, len(reqs))
	g, gctx := errgroup.WithContext(ctx)

	for i := range reqs {
		i := i

		g.Go(func() error {
			signed, err := s.sign(gctx, as[i], reqs[i])
			if err != nil {
				return err
			}

			res[i] = types.SignedTransaction{Dlt: reqs[i].Dlt, SignedTransaction: signed}

			return nil
		})
	}

	if err = g.Wait(); err != nil {
		log.Debug().Err(err).Int("requests", len(reqs)).Msg("batch sign failed")

		return nil, err
	}

	return res, nil
}

// SignEach signs every request concurrently and reports each outcome separately: one failure does not affect
// the others. An unknown DLT fails only its own entry.
func (s *SDK) SignEach(ctx context.Context, reqs []SignRequest) ([]SignResult, error) {
	if reqs == nil {
		return nil, types.ErrInvalidInput
	}

	res := make([]SignResult, len(reqs))

	var wg sync.WaitGroup

	for i := range reqs {
		res[i].Dlt = reqs[i].Dlt

		a, err := s.Dlt(reqs[i].Dlt)
		if err != nil {
			res[i].Err = err

			continue
		}

		wg.Add(1)

		go func(i int, a types.Adapter) {
			defer wg.Done()

			res[i].SignedTransaction.SignedTransaction, res[i].Err = s.sign(ctx, a, reqs[i])
		}(i, a)
	}

	wg.Wait()

	return res, nil
}

// Send submits signed in one envelope with a POST to /transactions. The gateway response is returned as is.
func (s *SDK) Send(ctx context.Context, signed []types.SignedTransaction) (*gateway.Response, error) {
	calls := make([]types.APICall, 0, len(signed))

	for _, st := range signed {
		a, err := s.Dlt(st.Dlt)
		if err != nil {
			return nil, err
		}

		calls = append(calls, a.BuildAPICall(st.SignedTransaction))
	}

	env := types.WrapperAPICall{MappID: s.MappID(), DltData: calls}

	start := time.Now()
	r, err := s.gw.Post(ctx, "/transactions", env)

	status := 0
	if r != nil {
		status = r.Status
	}

	s.metrics.ObserveSubmit(status, start)
	log.Debug().Err(err).Int("dltData", len(calls)).Int("status", status).Msg("envelope submitted")

	return r, err
}

// SignAndSend signs the batch and submits it.
func (s *SDK) SignAndSend(ctx context.Context, reqs []SignRequest) (*gateway.Response, error) {
	signed, err := s.Sign(ctx, reqs)
	if err != nil {
		return nil, err
	}

	return s.Send(ctx, signed)
}

// BalanceRequest is one entry of GetBalances.
type BalanceRequest struct {
	Dlt     string `json:"dlt"`
	Address string `json:"address"`
}

// BalanceResult is the balance of one address.
type BalanceResult struct {
	Dlt     string `json:"dlt"`
	Address string `json:"address"`
	Unit    string `json:"unit"`
	Value   string `json:"value"`
}

// GetBalances queries several balances at once with a POST to /balances.
func (s *SDK) GetBalances(ctx context.Context, reqs []BalanceRequest) ([]BalanceResult, error) {
	if reqs == nil {
		return nil, types.ErrInvalidInput
	}

	r, err := s.gw.Post(ctx, "/balances", reqs)
	if err != nil {
		return nil, err
	}

	var res []BalanceResult
	if err = r.Decode(&res); err != nil {
		return nil, err
	}

	return res, nil
}

// ReadTransactionsByMappID lists the transactions submitted by this application. A gateway error reply is
// returned as the response.
func (s *SDK) ReadTransactionsByMappID(ctx context.Context) (*gateway.Response, error) {
	return gateway.Tolerate(s.gw.Get(ctx, "/mapp/"+s.MappID()+"/transactions"))
}

// ReadByTransactionID returns the submission id. A gateway error reply is returned as the response.
func (s *SDK) ReadByTransactionID(ctx context.Context, id string) (*gateway.Response, error) {
	return gateway.Tolerate(s.gw.Get(ctx, "/transactions/"+id))
}
