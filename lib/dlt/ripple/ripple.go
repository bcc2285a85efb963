// Package ripple implements the adapter for the XRP Ledger.
//
// Signing a payment goes through four steps: the options are validated in a fixed order (amount, feePrice,
// sequence, maxLedgerVersion), a Transaction is built with the amount converted from drops to XRP, a Preparer turns
// it into the ledger's unsigned transaction and finally the transaction is signed with the account key and
// serialized to the hex blob the gateway submits.
package ripple

import (
	"context"
	"encoding/hex"
	"math"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/architectjyothi/overledger-sdk-go/lib/dlt/base"
	"github.com/architectjyothi/overledger-sdk-go/lib/dlt/types"
	"github.com/architectjyothi/overledger-sdk-go/lib/gateway"
)

// Ledger constants.
const (
	Name        = "ripple"
	Symbol      = "XRP"
	FundDefault = "1000000000" // drops
	decimals    = 6            // drops per XRP: 10^6
)

// Options are the fields required to build a payment.
type Options struct {
	Amount           string      `json:"amount,omitempty"`   // in drops
	FeePrice         string      `json:"feePrice,omitempty"` // in XRP
	Sequence         *types.Uint `json:"sequence,omitempty"`
	MaxLedgerVersion *types.Uint `json:"maxLedgerVersion,omitempty"`
}

// Dlt implements types.TransactionOptions.
func (Options) Dlt() string { return Name }

// Amount of a payment leg.
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Party is the source or the destination of a payment.
type Party struct {
	Address string `json:"address"`
	Amount  Amount `json:"amount"`
}

// Memo is carried verbatim.
type Memo struct {
	Data string `json:"data"`
}

// Payment is the ledger independent description of the transfer.
type Payment struct {
	Source      Party  `json:"source"`
	Destination Party  `json:"destination"`
	Memos       []Memo `json:"memos"`
}

// Instructions control how the payment is applied.
type Instructions struct {
	MaxLedgerVersion uint32 `json:"maxLedgerVersion"`
	Sequence         uint32 `json:"sequence"`
	Fee              string `json:"fee"` // in XRP
}

// Transaction is the built, not yet prepared, payment.
type Transaction struct {
	Address      string       `json:"address"`
	Payment      Payment      `json:"payment"`
	Instructions Instructions `json:"instructions"`
}

// MemoData is the hex encoded memo content.
type MemoData struct {
	MemoData string `json:"MemoData"`
}

// MemoWrapper is the ledger's memo array element.
type MemoWrapper struct {
	Memo MemoData `json:"Memo"`
}

// TxJSON is the ledger native payment, amounts in drops.
type TxJSON struct {
	TransactionType    string        `json:"TransactionType"`
	Account            string        `json:"Account"`
	Destination        string        `json:"Destination"`
	Amount             string        `json:"Amount"`
	Fee                string        `json:"Fee"`
	Flags              uint32        `json:"Flags"`
	Sequence           uint32        `json:"Sequence"`
	LastLedgerSequence uint32        `json:"LastLedgerSequence"`
	Memos              []MemoWrapper `json:"Memos,omitempty"`
	SigningPubKey      string        `json:"SigningPubKey,omitempty"`
	TxnSignature       string        `json:"TxnSignature,omitempty"`
}

// Preparer resolves a built transaction into the ledger native unsigned transaction. Implementations may need a
// round trip to the ledger.
type Preparer interface {
	PreparePayment(ctx context.Context, tx *Transaction) (*TxJSON, error)
}

// Ripple implements types.Adapter for the XRP Ledger.
type Ripple struct {
	*base.DLT
	preparer Preparer
}

// New returns a ripple adapter, setting the account when cfg has a private key.
func New(sdk types.SDK, cfg types.Config) (*Ripple, error) {
	r := &Ripple{DLT: base.New(sdk, Name, Symbol, FundDefault), preparer: LocalPreparer{}}

	if cfg.PrivateKey != "" {
		if err := r.SetAccount(cfg.PrivateKey); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// SetPreparer replaces the preparation step.
func (r *Ripple) SetPreparer(p Preparer) {
	r.preparer = p
}

// CreateAccount generates a new family seed and its address. The account is not stored.
func (r *Ripple) CreateAccount() (types.Account, error) {
	secret, err := GenerateSeed()
	if err != nil {
		return types.Account{}, err
	}

	address, _, err := DeriveAddress(secret)
	if err != nil {
		return types.Account{}, err
	}

	return types.Account{Address: address, PrivateKey: secret}, nil
}

// SetAccount derives the address of the family seed privateKey and makes it the current account.
func (r *Ripple) SetAccount(privateKey string) error {
	address, _, err := DeriveAddress(privateKey)
	if err != nil {
		return errors.Wrap(err, "cannot set ripple account")
	}

	r.Store(types.Account{Address: address, PrivateKey: privateKey})

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

func uint32Option(field string, v *types.Uint) (uint32, error) {
	if uint64(*v) > math.MaxUint32 {
		return 0, errors.Wrapf(types.ErrValidation, "options.%s out of range: %d", field, uint64(*v))
	}

	return uint32(*v), nil
}

// BuildTransaction validates the options and assembles the payment from the current account to toAddress.
func (r *Ripple) BuildTransaction(toAddress, message string, o types.TransactionOptions) (*Transaction, error) {
	opts, err := options(o)
	if err != nil {
		return nil, err
	}

	switch {
	case opts.Amount == "":
		return nil, types.MissingOption("amount")
	case opts.FeePrice == "":
		return nil, types.MissingOption("feePrice")
	case opts.Sequence == nil:
		return nil, types.MissingOption("sequence")
	case opts.MaxLedgerVersion == nil:
		return nil, types.MissingOption("maxLedgerVersion")
	}

	sequence, err := uint32Option("sequence", opts.Sequence)
	if err != nil {
		return nil, err
	}

	maxLedger, err := uint32Option("maxLedgerVersion", opts.MaxLedgerVersion)
	if err != nil {
		return nil, err
	}

	xrp, err := DropsToXRP(opts.Amount)
	if err != nil {
		return nil, err
	}

	acc, err := r.SignAccount()
	if err != nil {
		return nil, err
	}

	amount := Amount{Value: xrp, Currency: Symbol}

	return &Transaction{
		Address: acc.Address,
		Payment: Payment{
			Source:      Party{Address: acc.Address, Amount: amount},
			Destination: Party{Address: toAddress, Amount: amount},
			Memos:       []Memo{{Data: message}},
		},
		Instructions: Instructions{MaxLedgerVersion: maxLedger, Sequence: sequence, Fee: opts.FeePrice},
	}, nil
}

// Sign builds, prepares and signs a payment, returning the hex encoded signed transaction.
func (r *Ripple) Sign(ctx context.Context, toAddress, message string, o types.TransactionOptions) (string, error) {
	acc, err := r.SignAccount()
	if err != nil {
		return "", err
	}

	tx, err := r.BuildTransaction(toAddress, message, o)
	if err != nil {
		return "", err
	}

	prepared, err := r.preparer.PreparePayment(ctx, tx)
	if err != nil {
		return "", err
	}

	blob, id, err := SignTx(prepared, acc.PrivateKey)
	if err != nil {
		return "", err
	}

	log.Debug().Str("dlt", Name).Str("from", acc.Address).Str("to", toAddress).Str("hash", id).
		Msg("payment signed")

	return blob, nil
}

// SignAndSend signs a payment and submits it on its own.
func (r *Ripple) SignAndSend(ctx context.Context, toAddress, message string,
	o types.TransactionOptions) (*gateway.Response, error) {
	return r.DLT.SignAndSend(ctx, r, toAddress, message, o)
}

// SignTx signs prepared with the family seed secret. It returns the uppercase hex blob and the transaction hash.
func SignTx(prepared *TxJSON, secret string) (blob, hash string, err error) {
	_, key, err := DeriveAddress(secret)
	if err != nil {
		return "", "", err
	}

	tx := *prepared
	tx.SigningPubKey = strings.ToUpper(hex.EncodeToString(key.PubKey().SerializeCompressed()))
	tx.TxnSignature = ""

	digest, err := SigningHash(&tx)
	if err != nil {
		return "", "", err
	}

	tx.TxnSignature = strings.ToUpper(hex.EncodeToString(ecdsa.Sign(key, digest).Serialize()))

	b, err := Serialize(&tx, false)
	if err != nil {
		return "", "", err
	}

	return strings.ToUpper(hex.EncodeToString(b)), TxID(b), nil
}

// LocalPreparer prepares payments whose instructions are fully specified, so it never needs the network.
type LocalPreparer struct{}

// PreparePayment implements Preparer.
func (LocalPreparer) PreparePayment(_ context.Context, tx *Transaction) (*TxJSON, error) {
	amount, err := XRPToDrops(tx.Payment.Destination.Amount.Value)
	if err != nil {
		return nil, err
	}

	fee, err := XRPToDrops(tx.Instructions.Fee)
	if err != nil {
		return nil, errors.Wrap(err, "bad fee")
	}

	memos := make([]MemoWrapper, 0, len(tx.Payment.Memos))
	for _, m := range tx.Payment.Memos {
		memos = append(memos, MemoWrapper{Memo: MemoData{MemoData: strings.ToUpper(hex.EncodeToString([]byte(m.Data)))}})
	}

	return &TxJSON{
		TransactionType:    "Payment",
		Account:            tx.Payment.Source.Address,
		Destination:        tx.Payment.Destination.Address,
		Amount:             amount,
		Fee:                fee,
		Flags:              tfFullyCanonicalSig,
		Sequence:           tx.Instructions.Sequence,
		LastLedgerSequence: tx.Instructions.MaxLedgerVersion,
		Memos:              memos,
	}, nil
}

// DropsToXRP converts a drops amount to XRP.
func DropsToXRP(drops string) (string, error) {
	d, err := decimal.NewFromString(drops)
	if err != nil || d.IsNegative() {
		return "", errors.Wrapf(types.ErrValidation, "invalid drops amount %q", drops)
	}

	return d.Shift(-decimals).String(), nil
}

// XRPToDrops converts an XRP amount to drops. More than six decimal places is an error.
func XRPToDrops(xrp string) (string, error) {
	d, err := decimal.NewFromString(xrp)
	if err != nil || d.IsNegative() {
		return "", errors.Wrapf(types.ErrValidation, "invalid XRP amount %q", xrp)
	}

	drops := d.Shift(decimals)
	if !drops.Equal(drops.Truncate(0)) {
		return "", errors.Wrapf(types.ErrValidation, "XRP amount %q has too many decimal places", xrp)
	}

	return drops.Truncate(0).String(), nil
}
