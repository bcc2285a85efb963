// Package bitcoin implements the adapter for bitcoin networks. A transaction spends one legacy P2PKH output of the
// account and carries the message in an OP_RETURN output.
package bitcoin

import (
	"bytes"
	"context"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/architectjyothi/overledger-sdk-go/lib/dlt/base"
	"github.com/architectjyothi/overledger-sdk-go/lib/dlt/types"
	"github.com/architectjyothi/overledger-sdk-go/lib/gateway"
)

// Ledger constants.
const (
	Name        = "bitcoin"
	Symbol      = "XBT"
	FundDefault = "1"
	Dust        = 546 // satoshis, smallest change output kept
)

// ErrInsufficientValue is returned when the spent output cannot pay the amount and the fee.
var ErrInsufficientValue = errors.New("previous output value does not cover amount and fee")

// Options are the fields required to build a transaction. Amounts are in satoshis.
type Options struct {
	Amount                  *types.Uint `json:"amount,omitempty"`
	FeePrice                *types.Uint `json:"feePrice,omitempty"`
	Sequence                *types.Uint `json:"sequence,omitempty"` // index of the previous output
	PreviousTransactionHash string      `json:"previousTransactionHash,omitempty"`
	Value                   *types.Uint `json:"value,omitempty"` // value of the previous output
}

// Dlt implements types.TransactionOptions.
func (Options) Dlt() string { return Name }

// Bitcoin implements types.Adapter for bitcoin networks.
type Bitcoin struct {
	*base.DLT
	net *chaincfg.Params
}

// New returns a bitcoin adapter on mainnet or testnet3 depending on the orchestrator network.
func New(sdk types.SDK, cfg types.Config) (*Bitcoin, error) {
	net := &chaincfg.TestNet3Params
	if sdk.Network() == "mainnet" {
		net = &chaincfg.MainNetParams
	}

	b := &Bitcoin{DLT: base.New(sdk, Name, Symbol, FundDefault), net: net}

	if cfg.PrivateKey != "" {
		if err := b.SetAccount(cfg.PrivateKey); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// Params returns the chain parameters of the adapter.
func (b *Bitcoin) Params() *chaincfg.Params {
	return b.net
}

// CreateAccount generates a new WIF key and its P2PKH address. The account is not stored.
func (b *Bitcoin) CreateAccount() (types.Account, error) {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return types.Account{}, errors.Wrap(err, "cannot generate bitcoin key")
	}

	wif, err := btcutil.NewWIF(key, b.net, true)
	if err != nil {
		return types.Account{}, errors.Wrap(err, "cannot encode bitcoin key")
	}

	addr, err := b.address(wif)
	if err != nil {
		return types.Account{}, err
	}

	return types.Account{Address: addr.EncodeAddress(), PrivateKey: wif.String()}, nil
}

func (b *Bitcoin) address(wif *btcutil.WIF) (*btcutil.AddressPubKeyHash, error) {
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(wif.SerializePubKey()), b.net)

	return addr, errors.Wrap(err, "cannot derive bitcoin address")
}

func (b *Bitcoin) decodeWIF(privateKey string) (*btcutil.WIF, error) {
	wif, err := btcutil.DecodeWIF(privateKey)
	if err != nil {
		return nil, errors.Wrap(err, "cannot decode WIF")
	}

	if !wif.IsForNet(b.net) {
		return nil, errors.Errorf("WIF key is not for %s", b.net.Name)
	}

	return wif, nil
}

// SetAccount makes the WIF privateKey the current account.
func (b *Bitcoin) SetAccount(privateKey string) error {
	wif, err := b.decodeWIF(privateKey)
	if err != nil {
		return errors.Wrap(err, "cannot set bitcoin account")
	}

	addr, err := b.address(wif)
	if err != nil {
		return err
	}

	b.Store(types.Account{Address: addr.EncodeAddress(), PrivateKey: privateKey})

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

// BuildTransaction validates the options and returns the unsigned transaction spending the previous output of
// from (the account address) to toAddress. Change goes back to from when it is not dust.
func (b *Bitcoin) BuildTransaction(from, toAddress, message string, o types.TransactionOptions) (*wire.MsgTx,
	error) {
	opts, err := options(o)
	if err != nil {
		return nil, err
	}

	switch {
	case opts.Amount == nil:
		return nil, types.MissingOption("amount")
	case opts.FeePrice == nil:
		return nil, types.MissingOption("feePrice")
	case opts.Sequence == nil:
		return nil, types.MissingOption("sequence")
	case opts.PreviousTransactionHash == "":
		return nil, types.MissingOption("previousTransactionHash")
	case opts.Value == nil:
		return nil, types.MissingOption("value")
	}

	amount, fee, value := int64(*opts.Amount), int64(*opts.FeePrice), int64(*opts.Value)
	if amount <= 0 {
		return nil, errors.Wrap(types.ErrValidation, "options.amount must be positive")
	}

	change := value - amount - fee
	if amount < 0 || fee < 0 || value < 0 || change < 0 {
		return nil, errors.Wrapf(ErrInsufficientValue, "value %d, amount %d, fee %d", value, amount, fee)
	}

	prev, err := chainhash.NewHashFromStr(opts.PreviousTransactionHash)
	if err != nil {
		return nil, errors.Wrapf(types.ErrValidation, "invalid previousTransactionHash: %s", err)
	}

	dst, err := b.payTo(toAddress)
	if err != nil {
		return nil, err
	}

	memo, err := txscript.NullDataScript([]byte(message))
	if err != nil {
		return nil, errors.Wrapf(types.ErrValidation, "message cannot be embedded: %s", err)
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(prev, uint32(*opts.Sequence)), nil, nil))
	tx.AddTxOut(wire.NewTxOut(0, memo))
	tx.AddTxOut(wire.NewTxOut(amount, dst))

	if change >= Dust {
		own, err := b.payTo(from)
		if err != nil {
			return nil, err
		}

		tx.AddTxOut(wire.NewTxOut(change, own))
	}

	return tx, nil
}

func (b *Bitcoin) payTo(address string) ([]byte, error) {
	addr, err := btcutil.DecodeAddress(address, b.net)
	if err != nil || !addr.IsForNet(b.net) {
		return nil, errors.Wrapf(types.ErrValidation, "invalid %s address %q", b.net.Name, address)
	}

	script, err := txscript.PayToAddrScript(addr)

	return script, errors.Wrap(err, "cannot build output script")
}

// Sign builds and signs a transaction, returning its hex serialization.
func (b *Bitcoin) Sign(_ context.Context, toAddress, message string, o types.TransactionOptions) (string, error) {
	acc, err := b.SignAccount()
	if err != nil {
		return "", err
	}

	tx, err := b.BuildTransaction(acc.Address, toAddress, message, o)
	if err != nil {
		return "", err
	}

	wif, err := b.decodeWIF(acc.PrivateKey)
	if err != nil {
		return "", err
	}

	prevScript, err := b.payTo(acc.Address)
	if err != nil {
		return "", err
	}

	sig, err := txscript.SignatureScript(tx, 0, prevScript, txscript.SigHashAll, wif.PrivKey, wif.CompressPubKey)
	if err != nil {
		return "", errors.Wrap(err, "cannot sign bitcoin transaction")
	}

	tx.TxIn[0].SignatureScript = sig

	var buf bytes.Buffer
	if err = tx.Serialize(&buf); err != nil {
		return "", errors.Wrap(err, "cannot serialize bitcoin transaction")
	}

	log.Debug().Str("dlt", Name).Str("from", acc.Address).Str("to", toAddress).Str("hash", tx.TxHash().String()).
		Msg("transaction signed")

	return hex.EncodeToString(buf.Bytes()), nil
}

// SignAndSend signs a transaction and submits it on its own.
func (b *Bitcoin) SignAndSend(ctx context.Context, toAddress, message string,
	o types.TransactionOptions) (*gateway.Response, error) {
	return b.DLT.SignAndSend(ctx, b, toAddress, message, o)
}
