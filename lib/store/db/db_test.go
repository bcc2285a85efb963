package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architectjyothi/overledger-sdk-go/lib/store/memory"
)

func TestNew(t *testing.T) {
	d, err := New(MEMORY, "")
	require.NoError(t, err)
	assert.IsType(t, &memory.Memory{}, d)
	assert.NoError(t, Close(d))

	_, err = New("cassandra", "")
	assert.ErrorIs(t, err, ErrUnknownType)
}
