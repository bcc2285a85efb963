// Package ethereum implements the adapter for ethereum networks. Transactions are legacy EIP-155 transfers that
// carry the message as call data.
package ethereum

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tarancss/hd"

	"github.com/architectjyothi/overledger-sdk-go/lib/dlt/base"
	"github.com/architectjyothi/overledger-sdk-go/lib/dlt/types"
	"github.com/architectjyothi/overledger-sdk-go/lib/gateway"
)

// Ledger constants.
const (
	Name        = "ethereum"
	Symbol      = "ETH"
	FundDefault = "1000000000000000000" // wei
)

// Chain ids used when the configuration does not give one.
const (
	MainnetChainID uint64 = 1
	TestnetChainID uint64 = 3
)

// Options are the fields required to build a transfer.
type Options struct {
	Amount   string      `json:"amount,omitempty"`   // in wei
	FeeLimit *types.Uint `json:"feeLimit,omitempty"` // gas
	FeePrice string      `json:"feePrice,omitempty"` // wei per gas
	Sequence *types.Uint `json:"sequence,omitempty"` // nonce
}

// Dlt implements types.TransactionOptions.
func (Options) Dlt() string { return Name }

// Ethereum implements types.Adapter for ethereum networks.
type Ethereum struct {
	*base.DLT
	chainID *big.Int
	signer  ethtypes.Signer
}

// New returns an ethereum adapter. The account comes from cfg.PrivateKey or, when absent, from the HD wallet
// described by cfg.HD.
func New(sdk types.SDK, cfg types.Config) (*Ethereum, error) {
	id := cfg.ChainID
	if id == 0 {
		id = TestnetChainID
		if sdk.Network() == "mainnet" {
			id = MainnetChainID
		}
	}

	chainID := new(big.Int).SetUint64(id)
	e := &Ethereum{
		DLT:     base.New(sdk, Name, Symbol, FundDefault),
		chainID: chainID,
		signer:  ethtypes.NewEIP155Signer(chainID),
	}

	switch {
	case cfg.PrivateKey != "":
		if err := e.SetAccount(cfg.PrivateKey); err != nil {
			return nil, err
		}
	case cfg.HD != nil:
		if err := e.setHDAccount(cfg.HD); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// ChainID returns the EIP-155 chain id transactions are signed for.
func (e *Ethereum) ChainID() *big.Int {
	return new(big.Int).Set(e.chainID)
}

func (e *Ethereum) setHDAccount(c *types.HDConfig) error {
	seed, err := hex.DecodeString(strings.TrimPrefix(c.Seed, "0x"))
	if err != nil {
		return errors.Wrap(types.ErrConfiguration, "hd seed must be hex encoded")
	}

	w, err := hd.Init(seed)
	if err != nil {
		return errors.Wrapf(types.ErrConfiguration, "cannot initialise hd wallet: %s", err)
	}

	_, key, _, err := w.Address(c.Wallet, c.Change, c.ID)
	if err != nil {
		return errors.Wrapf(types.ErrConfiguration, "cannot derive hd account %d/%d/%d: %s", c.Wallet, c.Change, c.ID, err)
	}

	log.Debug().Str("dlt", Name).Uint32("wallet", c.Wallet).Uint8("change", c.Change).Uint32("id", c.ID).
		Msg("account derived from hd wallet")

	return e.SetAccount(hex.EncodeToString(key))
}

// CreateAccount generates a new key pair. The account is not stored.
func (e *Ethereum) CreateAccount() (types.Account, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return types.Account{}, errors.Wrap(err, "cannot generate ethereum key")
	}

	return account(key), nil
}

func account(key *ecdsa.PrivateKey) types.Account {
	return types.Account{
		Address:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
		PrivateKey: hexutil.Encode(crypto.FromECDSA(key)),
	}
}

// SetAccount makes the hex encoded privateKey (with or without 0x) the current account.
func (e *Ethereum) SetAccount(privateKey string) error {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKey, "0x"))
	if err != nil {
		return errors.Wrap(err, "cannot set ethereum account")
	}

	e.Store(account(key))

	return nil
}

func options(o types.TransactionOptions) (Options, error) {
	switch v := o.(type) {
	case nil:
		return Options{}, nil
	case Options:
		return v, nil
	case *Options:
		if v == nil {
			return Options{}, nil
		}

		return *v, nil
	default:
		return Options{}, errors.Wrapf(types.ErrOptionsMismatch, "%T given to %s", o, Name)
	}
}

func bigOption(field, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok || v.Sign() < 0 {
		return nil, errors.Wrapf(types.ErrValidation, "options.%s is not a valid amount: %q", field, s)
	}

	return v, nil
}

// BuildTransaction validates the options and returns the unsigned transfer to toAddress.
func (e *Ethereum) BuildTransaction(toAddress, message string, o types.TransactionOptions) (*ethtypes.Transaction,
	error) {
	opts, err := options(o)
	if err != nil {
		return nil, err
	}

	switch {
	case opts.Amount == "":
		return nil, types.MissingOption("amount")
	case opts.FeeLimit == nil:
		return nil, types.MissingOption("feeLimit")
	case opts.FeePrice == "":
		return nil, types.MissingOption("feePrice")
	case opts.Sequence == nil:
		return nil, types.MissingOption("sequence")
	}

	if !common.IsHexAddress(toAddress) {
		return nil, errors.Wrapf(types.ErrValidation, "invalid ethereum address %q", toAddress)
	}

	amount, err := bigOption("amount", opts.Amount)
	if err != nil {
		return nil, err
	}

	price, err := bigOption("feePrice", opts.FeePrice)
	if err != nil {
		return nil, err
	}

	var data []byte
	if message != "" {
		data = []byte(message)
	}

	return ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    uint64(*opts.Sequence),
		GasPrice: price,
		Gas:      uint64(*opts.FeeLimit),
		To:       addressPtr(common.HexToAddress(toAddress)),
		Value:    amount,
		Data:     data,
	}), nil
}

func addressPtr(a common.Address) *common.Address {
	return &a
}

// Sign builds and signs a transfer, returning the 0x prefixed RLP encoding.
func (e *Ethereum) Sign(_ context.Context, toAddress, message string, o types.TransactionOptions) (string, error) {
	acc, err := e.SignAccount()
	if err != nil {
		return "", err
	}

	tx, err := e.BuildTransaction(toAddress, message, o)
	if err != nil {
		return "", err
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(acc.PrivateKey, "0x"))
	if err != nil {
		return "", errors.Wrap(err, "bad ethereum account key")
	}

	signed, err := ethtypes.SignTx(tx, e.signer, key)
	if err != nil {
		return "", errors.Wrap(err, "cannot sign ethereum transaction")
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return "", errors.Wrap(err, "cannot encode ethereum transaction")
	}

	log.Debug().Str("dlt", Name).Str("from", acc.Address).Str("to", toAddress).Str("hash", signed.Hash().Hex()).
		Msg("transaction signed")

	return hexutil.Encode(raw), nil
}

// SignAndSend signs a transfer and submits it on its own.
func (e *Ethereum) SignAndSend(ctx context.Context, toAddress, message string,
	o types.TransactionOptions) (*gateway.Response, error) {
	return e.DLT.SignAndSend(ctx, e, toAddress, message, o)
}
