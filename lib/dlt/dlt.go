// Package dlt is the registry of the supported ledgers. It loads an adapter per configured DLT and decodes the
// ledger specific transaction options.
package dlt

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/architectjyothi/overledger-sdk-go/lib/dlt/bitcoin"
	"github.com/architectjyothi/overledger-sdk-go/lib/dlt/ethereum"
	"github.com/architectjyothi/overledger-sdk-go/lib/dlt/ripple"
	"github.com/architectjyothi/overledger-sdk-go/lib/dlt/types"
)

// Supported ledger names.
const (
	Ripple   = ripple.Name
	Ethereum = ethereum.Name
	Bitcoin  = bitcoin.Name
)

type entry struct {
	load    func(types.SDK, types.Config) (types.Adapter, error)
	options func() types.TransactionOptions // returns a pointer to a zero value to decode into
}

//nolint:gochecknoglobals // static registry
var registry = map[string]entry{
	Ripple: {
		load: func(sdk types.SDK, cfg types.Config) (types.Adapter, error) {
			return ripple.New(sdk, cfg)
		},
		options: func() types.TransactionOptions { return &ripple.Options{} },
	},
	Ethereum: {
		load: func(sdk types.SDK, cfg types.Config) (types.Adapter, error) {
			return ethereum.New(sdk, cfg)
		},
		options: func() types.TransactionOptions { return &ethereum.Options{} },
	},
	Bitcoin: {
		load: func(sdk types.SDK, cfg types.Config) (types.Adapter, error) {
			return bitcoin.New(sdk, cfg)
		},
		options: func() types.TransactionOptions { return &bitcoin.Options{} },
	},
}

// Normalize returns the registry key of a ledger name: "Ripple" and "ripple" are the same ledger.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Supported returns the sorted names of the ledgers with an adapter.
func Supported() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// Load returns the adapter for cfg.Dlt bound to sdk.
func Load(sdk types.SDK, cfg types.Config) (types.Adapter, error) {
	name := Normalize(cfg.Dlt)

	e, ok := registry[name]
	if !ok {
		return nil, &types.UnsupportedDltError{Name: cfg.Dlt}
	}

	if name != Ethereum && (cfg.ChainID != 0 || cfg.HD != nil) {
		return nil, errors.Wrapf(types.ErrConfiguration, "chainId and hd are only supported by %s, not %s",
			Ethereum, name)
	}

	a, err := e.load(sdk, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot load %s", name)
	}

	return a, nil
}

// DecodeOptions decodes raw into the transaction options of the named ledger. Empty or null raw gives nil options,
// so that building reports the first missing field.
func DecodeOptions(name string, raw json.RawMessage) (types.TransactionOptions, error) {
	e, ok := registry[Normalize(name)]
	if !ok {
		return nil, &types.UnsupportedDltError{Name: name}
	}

	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	o := e.options()
	if err := json.Unmarshal(raw, o); err != nil {
		return nil, errors.Wrapf(types.ErrValidation, "invalid %s options: %s", Normalize(name), err)
	}

	return o, nil
}
