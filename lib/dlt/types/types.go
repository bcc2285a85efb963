// Package types common DLT types shared by the orchestrator and the ledger adapters.
package types

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/architectjyothi/overledger-sdk-go/lib/gateway"
)

// Adapter is the capability contract every ledger adapter satisfies. Build and sign internals differ per ledger
// but the external shape does not.
type Adapter interface {
	// member-type methods
	Name() string   // ledger name, ie. "ripple"
	Symbol() string // native currency symbol, ie. "XRP"
	// account methods
	CreateAccount() (Account, error)
	SetAccount(privateKey string) error
	HasAccount() bool
	Account() (Account, bool)
	// transaction methods
	Sign(ctx context.Context, toAddress, message string, options TransactionOptions) (string, error)
	SignAndSend(ctx context.Context, toAddress, message string, options TransactionOptions) (*gateway.Response, error)
	BuildAPICall(signedTransaction string) APICall
	// gateway side endpoints
	GetBalance(ctx context.Context, address string) (*Balance, error)
	FundAccount(ctx context.Context, amount, address string) (*FundingResult, error)
}

// SDK is the part of the orchestrator an adapter is allowed to use.
type SDK interface {
	Network() string
	Gateway() *gateway.Client
	Send(ctx context.Context, signed []SignedTransaction) (*gateway.Response, error)
}

// TransactionOptions is the ledger specific set of fields required to build a transaction. Each implementation
// belongs to exactly one DLT.
type TransactionOptions interface {
	Dlt() string
}

// Account is a private key and the address derived from it.
type Account struct {
	Address    string `json:"address"`
	PrivateKey string `json:"privateKey"`
}

// HDConfig selects an account of a hierarchical deterministic wallet.
type HDConfig struct {
	Seed   string `json:"seed" mapstructure:"seed"` // hex encoded
	Wallet uint32 `json:"wallet" mapstructure:"wallet"`
	Change uint8  `json:"change" mapstructure:"change"`
	ID     uint32 `json:"id" mapstructure:"id"`
}

// Config is the per-DLT configuration given to the orchestrator. ChainID and HD are only used by ethereum.
type Config struct {
	Dlt        string    `json:"dlt" mapstructure:"dlt"`
	PrivateKey string    `json:"privateKey,omitempty" mapstructure:"privateKey"`
	ChainID    uint64    `json:"chainId,omitempty" mapstructure:"chainId"`
	HD         *HDConfig `json:"hd,omitempty" mapstructure:"hd"`
}

// SignedTransaction is one ledger's signed payload as returned by the orchestrator's Sign.
type SignedTransaction struct {
	Dlt               string `json:"dlt"`
	SignedTransaction string `json:"signedTransaction"`
}

// APICall is the wire unit for one ledger's contribution to a submission.
type APICall struct {
	Dlt               string `json:"dlt"`
	SignedTransaction string `json:"signedTransaction"`
}

// WrapperAPICall is the submission envelope.
type WrapperAPICall struct {
	MappID  string    `json:"mappId"`
	DltData []APICall `json:"dltData"`
}

// Balance of an address as reported by the gateway.
type Balance struct {
	Unit  string `json:"unit"`
	Value string `json:"value"`
}

// FundingResult is the faucet reply.
type FundingResult struct {
	Status          string `json:"status"`
	Message         string `json:"message"`
	TransactionHash string `json:"transactionHash,omitempty"`
	Address         string `json:"address,omitempty"`
	Amount          string `json:"amount,omitempty"`
}

// Uint is an unsigned option value that decodes from a JSON number or a numeric string.
type Uint uint64

// NewUint returns a pointer to v, handy for building options.
func NewUint(v uint64) *Uint {
	u := Uint(v)

	return &u
}

// UnmarshalJSON implements json.Unmarshaler.
func (u *Uint) UnmarshalJSON(b []byte) error {
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}

	*u = Uint(v)

	return nil
}
