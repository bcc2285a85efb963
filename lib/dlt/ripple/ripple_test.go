package ripple

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architectjyothi/overledger-sdk-go/lib/dlt/ethereum"
	"github.com/architectjyothi/overledger-sdk-go/lib/dlt/types"
	"github.com/architectjyothi/overledger-sdk-go/lib/gateway"
)

const (
	genesisSecret  = "snoPBrXtMeMyMHUVTgbuqAfg1SUTb"
	genesisAddress = "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"
)

type fakeSDK struct {
	sent [][]types.SignedTransaction
}

func (f *fakeSDK) Network() string          { return "testnet" }
func (f *fakeSDK) Gateway() *gateway.Client { return gateway.New("http://127.0.0.1:1", "m", "k", 0) }
func (f *fakeSDK) Send(_ context.Context, s []types.SignedTransaction) (*gateway.Response, error) {
	f.sent = append(f.sent, s)

	return &gateway.Response{Status: 200, Data: json.RawMessage(`{"status":"broadcasted"}`)}, nil
}

func newRipple(t *testing.T) (*Ripple, *fakeSDK) {
	t.Helper()

	sdk := &fakeSDK{}
	r, err := New(sdk, types.Config{Dlt: Name})
	require.NoError(t, err)

	return r, sdk
}

func fullOptions() Options {
	return Options{
		Amount:           "1",
		FeePrice:         "0.000012",
		Sequence:         types.NewUint(1),
		MaxLedgerVersion: types.NewUint(100000000),
	}
}

func TestDeriveAddress(t *testing.T) {
	address, key, err := DeriveAddress(genesisSecret)
	require.NoError(t, err)
	assert.Equal(t, genesisAddress, address)
	assert.Len(t, key.PubKey().SerializeCompressed(), 33)

	_, _, err = DeriveAddress("snoPBrXtMeMyMHUVTgbuqAfg1SUTc")
	assert.ErrorIs(t, err, ErrBadSeed)

	_, _, err = DeriveAddress(genesisAddress)
	assert.ErrorIs(t, err, ErrBadSeed)
}

func TestAddressRoundTrip(t *testing.T) {
	id, err := DecodeAddress(genesisAddress)
	require.NoError(t, err)
	assert.Len(t, id, 20)
	assert.Equal(t, genesisAddress, EncodeAddress(id))

	_, err = DecodeAddress("0x357dd3856d856197c1a000bbAb4aBCB97Dfc92c4")
	assert.ErrorIs(t, err, ErrBadAddress)
}

func TestCreateAccount(t *testing.T) {
	r, _ := newRipple(t)

	account, err := r.CreateAccount()
	require.NoError(t, err)
	assert.Regexp(t, `^s[1-9A-HJ-NP-Za-km-z]{28}$`, account.PrivateKey)
	assert.Regexp(t, `^r[1-9A-HJ-NP-Za-km-z]{25,34}$`, account.Address)
	assert.False(t, r.HasAccount(), "CreateAccount must not store the account")

	require.NoError(t, r.SetAccount(account.PrivateKey))

	got, ok := r.Account()
	require.True(t, ok)
	assert.Equal(t, account.Address, got.Address)
}

func TestSetAccountReplaces(t *testing.T) {
	r, _ := newRipple(t)

	require.NoError(t, r.SetAccount(genesisSecret))

	other, err := r.CreateAccount()
	require.NoError(t, err)
	require.NoError(t, r.SetAccount(other.PrivateKey))
	require.NoError(t, r.SetAccount(genesisSecret))

	got, _ := r.Account()
	assert.Equal(t, genesisAddress, got.Address)
	assert.Equal(t, genesisSecret, got.PrivateKey)

	err = r.SetAccount("not a seed")
	require.Error(t, err)

	got, _ = r.Account()
	assert.Equal(t, genesisAddress, got.Address, "a failed SetAccount keeps the previous account")
}

func TestSignWithoutAccount(t *testing.T) {
	r, _ := newRipple(t)

	_, err := r.Sign(context.Background(), genesisAddress, "QNT tt3", fullOptions())
	require.ErrorIs(t, err, types.ErrAccountNotConfigured)
	assert.EqualError(t, err, "the ripple account must be set up")
}

func TestBuildTransactionValidationOrder(t *testing.T) {
	r, _ := newRipple(t)
	require.NoError(t, r.SetAccount(genesisSecret))

	fields := []string{"amount", "feePrice", "sequence", "maxLedgerVersion"}

	// every subset of present fields: the error names the first missing one
	for mask := 0; mask < 1<<len(fields)-1; mask++ {
		var o Options

		if mask&1 != 0 {
			o.Amount = "1"
		}

		if mask&2 != 0 {
			o.FeePrice = "0.000012"
		}

		if mask&4 != 0 {
			o.Sequence = types.NewUint(1)
		}

		if mask&8 != 0 {
			o.MaxLedgerVersion = types.NewUint(100000000)
		}

		var first string

		for i, f := range fields {
			if mask&(1<<i) == 0 {
				first = f

				break
			}
		}

		_, err := r.BuildTransaction(genesisAddress, "QNT tt3", o)

		var missing *types.MissingOptionError
		require.ErrorAs(t, err, &missing, "mask %04b", mask)
		assert.Equal(t, first, missing.Field, "mask %04b", mask)
		assert.EqualError(t, err, "options."+first+" must be set up")
		assert.ErrorIs(t, err, types.ErrValidation)
	}
}

func TestBuildTransactionNilOptions(t *testing.T) {
	r, _ := newRipple(t)
	require.NoError(t, r.SetAccount(genesisSecret))

	_, err := r.Sign(context.Background(), genesisAddress, "QNT tt3", nil)
	assert.EqualError(t, err, "options.amount must be set up")
}

type otherOptions struct{}

func (otherOptions) Dlt() string { return "ethereum" }

func TestBuildTransactionWrongVariant(t *testing.T) {
	r, _ := newRipple(t)
	require.NoError(t, r.SetAccount(genesisSecret))

	_, err := r.BuildTransaction(genesisAddress, "m", otherOptions{})
	assert.ErrorIs(t, err, types.ErrOptionsMismatch)

	// a typed nil of another ledger is a mismatch too, not a nil dereference
	require.NotPanics(t, func() {
		_, err = r.BuildTransaction(genesisAddress, "m", (*ethereum.Options)(nil))
	})
	assert.ErrorIs(t, err, types.ErrOptionsMismatch)
	assert.Contains(t, err.Error(), "*ethereum.Options given to ripple")
}

func TestBuildTransaction(t *testing.T) {
	r, _ := newRipple(t)
	require.NoError(t, r.SetAccount(genesisSecret))

	o := fullOptions()
	o.Amount = "1500000"

	tx, err := r.BuildTransaction("rPT1Sjq2YGrBMTttX4GZHjKu9dyfzbpAYe", "QNT tt3", &o)
	require.NoError(t, err)

	assert.Equal(t, genesisAddress, tx.Address)
	assert.Equal(t, Party{Address: genesisAddress, Amount: Amount{Value: "1.5", Currency: "XRP"}}, tx.Payment.Source)
	assert.Equal(t, Party{Address: "rPT1Sjq2YGrBMTttX4GZHjKu9dyfzbpAYe", Amount: Amount{Value: "1.5", Currency: "XRP"}},
		tx.Payment.Destination)
	assert.Equal(t, []Memo{{Data: "QNT tt3"}}, tx.Payment.Memos)
	assert.Equal(t, Instructions{MaxLedgerVersion: 100000000, Sequence: 1, Fee: "0.000012"}, tx.Instructions)
}

func TestPreparePayment(t *testing.T) {
	r, _ := newRipple(t)
	require.NoError(t, r.SetAccount(genesisSecret))

	tx, err := r.BuildTransaction("rPT1Sjq2YGrBMTttX4GZHjKu9dyfzbpAYe", "hi", fullOptions())
	require.NoError(t, err)

	p, err := LocalPreparer{}.PreparePayment(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, "Payment", p.TransactionType)
	assert.Equal(t, "1", p.Amount)
	assert.Equal(t, "12", p.Fee)
	assert.Equal(t, uint32(0x80000000), p.Flags)
	assert.Equal(t, uint32(1), p.Sequence)
	assert.Equal(t, uint32(100000000), p.LastLedgerSequence)
	assert.Equal(t, "6869", p.Memos[0].Memo.MemoData)
}

func TestSign(t *testing.T) {
	r, _ := newRipple(t)
	require.NoError(t, r.SetAccount(genesisSecret))

	signed, err := r.Sign(context.Background(), "rPT1Sjq2YGrBMTttX4GZHjKu9dyfzbpAYe", "QNT tt3", fullOptions())
	require.NoError(t, err)

	assert.Greater(t, len(signed), 200)
	assert.True(t, strings.HasPrefix(signed, "120"), signed)
	assert.True(t, strings.HasPrefix(signed, "120000"), "payment transaction type")

	_, err = hex.DecodeString(signed)
	require.NoError(t, err)

	// memo data travels verbatim
	assert.Contains(t, signed, strings.ToUpper(hex.EncodeToString([]byte("QNT tt3"))))

	// signing is deterministic
	again, err := r.Sign(context.Background(), "rPT1Sjq2YGrBMTttX4GZHjKu9dyfzbpAYe", "QNT tt3", fullOptions())
	require.NoError(t, err)
	assert.Equal(t, signed, again)
}

func TestSignBadDestination(t *testing.T) {
	r, _ := newRipple(t)
	require.NoError(t, r.SetAccount(genesisSecret))

	_, err := r.Sign(context.Background(), "0x357dd3856d856197c1a000bbAb4aBCB97Dfc92c4", "m", fullOptions())
	assert.ErrorIs(t, err, ErrBadAddress)
}

type failingPreparer struct{ err error }

func (f failingPreparer) PreparePayment(context.Context, *Transaction) (*TxJSON, error) {
	return nil, f.err
}

func TestSignPreparerError(t *testing.T) {
	r, _ := newRipple(t)
	require.NoError(t, r.SetAccount(genesisSecret))

	boom := assert.AnError
	r.SetPreparer(failingPreparer{err: boom})

	_, err := r.Sign(context.Background(), genesisAddress, "m", fullOptions())
	assert.Same(t, boom, err, "preparation errors propagate unmodified")
}

func TestSignAndSend(t *testing.T) {
	r, sdk := newRipple(t)
	require.NoError(t, r.SetAccount(genesisSecret))

	resp, err := r.SignAndSend(context.Background(), "rPT1Sjq2YGrBMTttX4GZHjKu9dyfzbpAYe", "QNT tt3", fullOptions())
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)

	require.Len(t, sdk.sent, 1)
	require.Len(t, sdk.sent[0], 1)
	assert.Equal(t, "ripple", sdk.sent[0][0].Dlt)
	assert.True(t, strings.HasPrefix(sdk.sent[0][0].SignedTransaction, "120000"))
}

func TestBuildAPICall(t *testing.T) {
	r, _ := newRipple(t)

	assert.Equal(t, types.APICall{Dlt: "ripple", SignedTransaction: "1200"}, r.BuildAPICall("1200"))
	assert.Equal(t, "ripple", r.Name())
	assert.Equal(t, "XRP", r.Symbol())
}

func TestOptionsJSON(t *testing.T) {
	var o Options

	require.NoError(t, json.Unmarshal([]byte(`{"amount":"1","feePrice":"0.000012","sequence":"1","maxLedgerVersion":100000000}`), &o))
	assert.Equal(t, types.Uint(1), *o.Sequence)
	assert.Equal(t, types.Uint(100000000), *o.MaxLedgerVersion)
}

func TestDropsConversion(t *testing.T) {
	cases := []struct {
		drops, xrp string
	}{
		{"1", "0.000001"},
		{"12", "0.000012"},
		{"1000000", "1"},
		{"1000000000", "1000"},
	}

	for _, c := range cases {
		xrp, err := DropsToXRP(c.drops)
		require.NoError(t, err)
		assert.Equal(t, c.xrp, xrp)

		drops, err := XRPToDrops(c.xrp)
		require.NoError(t, err)
		assert.Equal(t, c.drops, drops)
	}

	_, err := DropsToXRP("one")
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = XRPToDrops("0.0000001")
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestVariableLength(t *testing.T) {
	cases := []struct {
		n   int
		exp []byte
	}{
		{0, []byte{0x00}},
		{192, []byte{0xC0}},
		{193, []byte{0xC1, 0x00}},
		{12480, []byte{0xF0, 0xFF}},
		{12481, []byte{0xF1, 0x00, 0x00}},
	}

	for _, c := range cases {
		var e encoder
		require.NoError(t, e.vl(c.n))
		assert.Equal(t, c.exp, e.Bytes(), "length %d", c.n)
	}

	var e encoder
	assert.ErrorIs(t, e.vl(918745), ErrTooLong)
}

func TestFieldID(t *testing.T) {
	cases := []struct {
		typeCode, fieldCode int
		exp                 []byte
	}{
		{typeUInt16, 2, []byte{0x12}},
		{typeUInt32, 27, []byte{0x20, 0x1B}},
		{typeAccountID, 1, []byte{0x81}},
		{typeArray, 9, []byte{0xF9}},
		{16, 1, []byte{0x01, 0x10}},
		{16, 17, []byte{0x00, 0x10, 0x11}},
	}

	for _, c := range cases {
		var e encoder
		e.field(c.typeCode, c.fieldCode)
		assert.Equal(t, c.exp, e.Bytes())
	}
}
