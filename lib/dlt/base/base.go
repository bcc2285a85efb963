// Package base implements the behaviour every ledger adapter shares: the account slot, gateway side endpoints
// (balances and faucet funding), api call wrapping and sign-and-send.
package base

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/architectjyothi/overledger-sdk-go/lib/dlt/types"
	"github.com/architectjyothi/overledger-sdk-go/lib/gateway"
)

// Signer is the ledger specific half of an adapter.
type Signer interface {
	Sign(ctx context.Context, toAddress, message string, options types.TransactionOptions) (string, error)
}

// DLT is embedded by the ledger adapters.
type DLT struct {
	name        string
	symbol      string
	fundDefault string
	sdk         types.SDK

	l       sync.RWMutex // concurrent SetAccount calls: last write wins
	account *types.Account
}

// New returns a DLT named name. fundDefault is the amount requested from the faucet when none is given.
func New(sdk types.SDK, name, symbol, fundDefault string) *DLT {
	return &DLT{name: name, symbol: symbol, fundDefault: fundDefault, sdk: sdk}
}

// Name returns the DLT name.
func (d *DLT) Name() string {
	return d.name
}

// Symbol returns the native currency symbol.
func (d *DLT) Symbol() string {
	return d.symbol
}

// SDK returns the orchestrator the adapter was loaded by.
func (d *DLT) SDK() types.SDK {
	return d.sdk
}

// HasAccount reports whether an account was set up.
func (d *DLT) HasAccount() bool {
	d.l.RLock()
	defer d.l.RUnlock()

	return d.account != nil
}

// Account returns a copy of the current account.
func (d *DLT) Account() (types.Account, bool) {
	d.l.RLock()
	defer d.l.RUnlock()

	if d.account == nil {
		return types.Account{}, false
	}

	return *d.account, true
}

// Store replaces the current account. Only adapters call it, right after deriving the address from the key.
func (d *DLT) Store(a types.Account) {
	d.l.Lock()
	d.account = &a
	d.l.Unlock()
}

// SignAccount returns the account to sign with or the AccountNotConfigured error naming this DLT.
func (d *DLT) SignAccount() (types.Account, error) {
	a, ok := d.Account()
	if !ok {
		return a, &types.AccountNotConfiguredError{Dlt: d.name}
	}

	return a, nil
}

// BuildAPICall wraps a signed transaction with the DLT name.
func (d *DLT) BuildAPICall(signedTransaction string) types.APICall {
	return types.APICall{Dlt: d.name, SignedTransaction: signedTransaction}
}

// SignAndSend signs with s and submits the single signed transaction through the orchestrator.
func (d *DLT) SignAndSend(ctx context.Context, s Signer, toAddress, message string,
	options types.TransactionOptions) (*gateway.Response, error) {
	signed, err := s.Sign(ctx, toAddress, message, options)
	if err != nil {
		return nil, err
	}

	return d.sdk.Send(ctx, []types.SignedTransaction{{Dlt: d.name, SignedTransaction: signed}})
}

// address resolves an optional address against the account.
func (d *DLT) address(address string) (string, error) {
	if address != "" {
		return address, nil
	}

	a, ok := d.Account()
	if !ok {
		return "", &types.AccountNotConfiguredError{}
	}

	return a.Address, nil
}

// GetBalance returns the balance of address, or of the account when address is empty.
func (d *DLT) GetBalance(ctx context.Context, address string) (*types.Balance, error) {
	addr, err := d.address(address)
	if err != nil {
		return nil, err
	}

	r, err := d.sdk.Gateway().Get(ctx, "/balances/"+d.name+"/"+addr)
	if err != nil {
		return nil, err
	}

	var b types.Balance
	if err = r.Decode(&b); err != nil {
		return nil, err
	}

	return &b, nil
}

// FundAccount asks the faucet for amount (the ledger default when empty) on address (the account when empty).
func (d *DLT) FundAccount(ctx context.Context, amount, address string) (*types.FundingResult, error) {
	addr, err := d.address(address)
	if err != nil {
		return nil, err
	}

	if amount == "" {
		amount = d.fundDefault
	}

	r, err := d.sdk.Gateway().Post(ctx, "/faucet/fund/"+d.name+"/"+addr+"/"+amount, nil)
	if err != nil {
		return nil, err
	}

	var f types.FundingResult
	if err = r.Decode(&f); err != nil {
		return nil, errors.Wrapf(err, "[%s] faucet reply", d.name)
	}

	log.Info().Str("dlt", d.name).Str("address", addr).Str("amount", amount).Str("status", f.Status).
		Msg("faucet funding requested")

	return &f, nil
}
