package dlt

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architectjyothi/overledger-sdk-go/lib/dlt/bitcoin"
	"github.com/architectjyothi/overledger-sdk-go/lib/dlt/ethereum"
	"github.com/architectjyothi/overledger-sdk-go/lib/dlt/ripple"
	"github.com/architectjyothi/overledger-sdk-go/lib/dlt/types"
	"github.com/architectjyothi/overledger-sdk-go/lib/gateway"
)

type fakeSDK struct{}

func (fakeSDK) Network() string          { return "testnet" }
func (fakeSDK) Gateway() *gateway.Client { return gateway.New("http://127.0.0.1:1", "m", "k", 0) }
func (fakeSDK) Send(context.Context, []types.SignedTransaction) (*gateway.Response, error) {
	return nil, nil
}

func TestSupported(t *testing.T) {
	assert.Equal(t, []string{"bitcoin", "ethereum", "ripple"}, Supported())
}

func TestLoad(t *testing.T) {
	cases := []struct {
		name, expName, symbol string
	}{
		{"ripple", "ripple", "XRP"},
		{"Ripple", "ripple", "XRP"},
		{" RIPPLE ", "ripple", "XRP"},
		{"ethereum", "ethereum", "ETH"},
		{"Bitcoin", "bitcoin", "XBT"},
	}

	for _, c := range cases {
		a, err := Load(fakeSDK{}, types.Config{Dlt: c.name})
		require.NoError(t, err, c.name)
		assert.Equal(t, c.expName, a.Name())
		assert.Equal(t, c.symbol, a.Symbol())
		assert.False(t, a.HasAccount())
	}
}

func TestLoadUnsupported(t *testing.T) {
	_, err := Load(fakeSDK{}, types.Config{Dlt: "hyperledger"})

	var unsupported *types.UnsupportedDltError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "hyperledger", unsupported.Name)
	assert.ErrorIs(t, err, types.ErrUnsupportedDlt)
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestLoadEthereumOnlyFields(t *testing.T) {
	_, err := Load(fakeSDK{}, types.Config{Dlt: "ripple", ChainID: 3})
	assert.ErrorIs(t, err, types.ErrConfiguration)

	_, err = Load(fakeSDK{}, types.Config{Dlt: "bitcoin", HD: &types.HDConfig{}})
	assert.ErrorIs(t, err, types.ErrConfiguration)

	a, err := Load(fakeSDK{}, types.Config{Dlt: "ethereum", ChainID: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(4), a.(*ethereum.Ethereum).ChainID().Int64())
}

func TestLoadWithKey(t *testing.T) {
	a, err := Load(fakeSDK{}, types.Config{Dlt: "ripple", PrivateKey: "snoPBrXtMeMyMHUVTgbuqAfg1SUTb"})
	require.NoError(t, err)

	acc, ok := a.Account()
	require.True(t, ok)
	assert.Equal(t, "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh", acc.Address)

	_, err = Load(fakeSDK{}, types.Config{Dlt: "ripple", PrivateKey: "bad"})
	assert.Error(t, err)
}

func TestDecodeOptions(t *testing.T) {
	o, err := DecodeOptions("Ripple", json.RawMessage(`{"amount":"1","feePrice":"0.000012","sequence":1}`))
	require.NoError(t, err)
	require.IsType(t, &ripple.Options{}, o)
	assert.Equal(t, "1", o.(*ripple.Options).Amount)
	assert.Nil(t, o.(*ripple.Options).MaxLedgerVersion)

	o, err = DecodeOptions("ethereum", json.RawMessage(`{"amount":"10","feeLimit":"21000"}`))
	require.NoError(t, err)
	assert.Equal(t, types.Uint(21000), *o.(*ethereum.Options).FeeLimit)

	o, err = DecodeOptions("bitcoin", json.RawMessage(`{"previousTransactionHash":"ab","value":5}`))
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", o.Dlt())
	assert.Equal(t, types.Uint(5), *o.(*bitcoin.Options).Value)

	o, err = DecodeOptions("ripple", nil)
	require.NoError(t, err)
	assert.Nil(t, o)

	o, err = DecodeOptions("ripple", json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Nil(t, o)

	_, err = DecodeOptions("ripple", json.RawMessage(`{"sequence":"x"}`))
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = DecodeOptions("corda", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, types.ErrUnsupportedDlt)
}
