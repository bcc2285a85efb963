package ethereum

import (
	"context"
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architectjyothi/overledger-sdk-go/lib/dlt/types"
	"github.com/architectjyothi/overledger-sdk-go/lib/gateway"
)

const (
	hdSeed    = "642ce4e20f09c9f4d285c2b336063eaafbe4cb06dece8134f3a64bdd8f8c0c24df73e1a2e7056359b6db61e179ff45e5ada51d14f07b30becb6d92b961d35df4"
	hdAddress = "0xf4cefc8d1afaa51d5a5e7f57d214b60429ca4378"
	recipient = "0x357dd3856d856197c1a000bbAb4aBCB97Dfc92c4"
)

type fakeSDK struct {
	network string
	sent    [][]types.SignedTransaction
}

func (f *fakeSDK) Network() string          { return f.network }
func (f *fakeSDK) Gateway() *gateway.Client { return gateway.New("http://127.0.0.1:1", "m", "k", 0) }
func (f *fakeSDK) Send(_ context.Context, s []types.SignedTransaction) (*gateway.Response, error) {
	f.sent = append(f.sent, s)

	return &gateway.Response{Status: 200, Data: json.RawMessage(`{}`)}, nil
}

func fullOptions() Options {
	return Options{Amount: "0x565656", FeeLimit: types.NewUint(21000), FeePrice: "41000000000", Sequence: types.NewUint(0)}
}

func TestHDAccount(t *testing.T) {
	e, err := New(&fakeSDK{network: "testnet"}, types.Config{
		Dlt: Name,
		HD:  &types.HDConfig{Seed: hdSeed, Wallet: 2, Change: 0, ID: 1},
	})
	require.NoError(t, err)

	acc, ok := e.Account()
	require.True(t, ok)
	assert.Equal(t, hdAddress, strings.ToLower(acc.Address))

	_, err = New(&fakeSDK{}, types.Config{Dlt: Name, HD: &types.HDConfig{Seed: "zz"}})
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestChainID(t *testing.T) {
	cases := []struct {
		network string
		cfg     uint64
		exp     int64
	}{
		{"testnet", 0, 3},
		{"mainnet", 0, 1},
		{"testnet", 4, 4},
		{"mainnet", 1337, 1337},
	}

	for _, c := range cases {
		e, err := New(&fakeSDK{network: c.network}, types.Config{Dlt: Name, ChainID: c.cfg})
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(c.exp), e.ChainID())
	}
}

func TestCreateAndSetAccount(t *testing.T) {
	e, err := New(&fakeSDK{network: "testnet"}, types.Config{Dlt: Name})
	require.NoError(t, err)
	assert.False(t, e.HasAccount())

	acc, err := e.CreateAccount()
	require.NoError(t, err)
	assert.True(t, common.IsHexAddress(acc.Address))
	assert.Regexp(t, `^0x[0-9a-f]{64}$`, acc.PrivateKey)
	assert.False(t, e.HasAccount())

	require.NoError(t, e.SetAccount(acc.PrivateKey))

	got, ok := e.Account()
	require.True(t, ok)
	assert.Equal(t, acc.Address, got.Address)

	// the 0x prefix is optional
	require.NoError(t, e.SetAccount(strings.TrimPrefix(acc.PrivateKey, "0x")))

	assert.Error(t, e.SetAccount("0xnothex"))
}

func TestValidationOrder(t *testing.T) {
	e, err := New(&fakeSDK{network: "testnet"}, types.Config{Dlt: Name, HD: &types.HDConfig{Seed: hdSeed}})
	require.NoError(t, err)

	cases := []struct {
		opts  Options
		field string
	}{
		{Options{}, "amount"},
		{Options{Amount: "1"}, "feeLimit"},
		{Options{Amount: "1", FeeLimit: types.NewUint(21000)}, "feePrice"},
		{Options{Amount: "1", FeeLimit: types.NewUint(21000), FeePrice: "1"}, "sequence"},
		{Options{FeePrice: "1", Sequence: types.NewUint(1)}, "amount"},
	}

	for _, c := range cases {
		_, err := e.Sign(context.Background(), recipient, "m", c.opts)
		assert.EqualError(t, err, "options."+c.field+" must be set up")
		assert.ErrorIs(t, err, types.ErrValidation)
	}

	o := fullOptions()
	o.Amount = "ten"
	_, err = e.Sign(context.Background(), recipient, "m", o)
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = e.Sign(context.Background(), "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh", "m", fullOptions())
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestSignWithoutAccount(t *testing.T) {
	e, err := New(&fakeSDK{network: "testnet"}, types.Config{Dlt: Name})
	require.NoError(t, err)

	_, err = e.Sign(context.Background(), recipient, "m", fullOptions())
	assert.EqualError(t, err, "the ethereum account must be set up")
}

func TestSign(t *testing.T) {
	sdk := &fakeSDK{network: "testnet"}
	e, err := New(sdk, types.Config{Dlt: Name, HD: &types.HDConfig{Seed: hdSeed, Wallet: 2, ID: 1}})
	require.NoError(t, err)

	signed, err := e.Sign(context.Background(), recipient, "QNT tt3", fullOptions())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(signed, "0x"))

	raw, err := hexutil.Decode(signed)
	require.NoError(t, err)

	tx := new(ethtypes.Transaction)
	require.NoError(t, tx.UnmarshalBinary(raw))

	from, err := ethtypes.Sender(ethtypes.NewEIP155Signer(big.NewInt(3)), tx)
	require.NoError(t, err)
	assert.Equal(t, hdAddress, strings.ToLower(from.Hex()))

	assert.Equal(t, common.HexToAddress(recipient), *tx.To())
	assert.Equal(t, big.NewInt(0x565656), tx.Value())
	assert.Equal(t, uint64(21000), tx.Gas())
	assert.Equal(t, big.NewInt(41000000000), tx.GasPrice())
	assert.Equal(t, uint64(0), tx.Nonce())
	assert.Equal(t, []byte("QNT tt3"), tx.Data())
	assert.Equal(t, big.NewInt(3), tx.ChainId())

	resp, err := e.SignAndSend(context.Background(), recipient, "QNT tt3", fullOptions())
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	require.Len(t, sdk.sent, 1)
	assert.Equal(t, []types.SignedTransaction{{Dlt: Name, SignedTransaction: signed}}, sdk.sent[0])
}

type rippleOptions struct{}

func (rippleOptions) Dlt() string { return "ripple" }

func TestOptionsMismatch(t *testing.T) {
	e, err := New(&fakeSDK{network: "testnet"}, types.Config{Dlt: Name, HD: &types.HDConfig{Seed: hdSeed}})
	require.NoError(t, err)

	_, err = e.Sign(context.Background(), recipient, "m", rippleOptions{})
	assert.ErrorIs(t, err, types.ErrOptionsMismatch)

	require.NotPanics(t, func() {
		_, err = e.Sign(context.Background(), recipient, "m", (*rippleOptions)(nil))
	})
	assert.ErrorIs(t, err, types.ErrOptionsMismatch)

	o := fullOptions()
	_, err = e.Sign(context.Background(), recipient, "m", &o)
	assert.NoError(t, err)
}
