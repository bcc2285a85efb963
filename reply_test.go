package overledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architectjyothi/overledger-sdk-go/lib/gateway"
)

func TestDecodeReply(t *testing.T) {
	r := &gateway.Response{Status: 200, Data: []byte(`{
		"mappId": "network.quant.software",
		"overledgerTransactionId": "5e3b8c07-5b3b-4c8b-bd3a-9f0cbd1ea0b3",
		"dltData": [
			{"dlt": "ripple", "transactionHash": "E8F7ED33", "status": "Broadcasted"},
			{"dlt": "ethereum", "transactionHash": "0x2ba0", "status": {"status": "confirmed", "code": "0"}},
			{"dlt": "bitcoin"}
		]}`)}

	tr, err := DecodeReply(r)
	require.NoError(t, err)
	assert.Equal(t, "5e3b8c07-5b3b-4c8b-bd3a-9f0cbd1ea0b3", tr.TransactionID)
	require.Len(t, tr.DltData, 3)
	assert.Equal(t, Status("broadcasted"), tr.DltData[0].Status)
	assert.Equal(t, Status("confirmed"), tr.DltData[1].Status)
	assert.Equal(t, Status(""), tr.DltData[2].Status)

	e, ok := tr.Entry("ETHEREUM")
	assert.True(t, ok)
	assert.Equal(t, "0x2ba0", e.TransactionHash)

	_, ok = tr.Entry("stellar")
	assert.False(t, ok)

	_, err = DecodeReply(&gateway.Response{Status: 200})
	assert.Error(t, err)

	_, err = DecodeReply(&gateway.Response{Status: 200, Data: []byte(`{"dltData": [{"status": 3}]}`)})
	assert.Error(t, err)
}
