//go:build integration

package mongo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/architectjyothi/overledger-sdk-go/lib/store/storetest"
)

const uri = "mongodb://localhost:27017"

func TestMongo(t *testing.T) {
	m, err := New(uri)
	require.NoError(t, err)

	defer func() { require.NoError(t, m.CloseMongo()) }()

	require.NoError(t, m.DeleteSubmissions())
	defer func() { _ = m.DeleteSubmissions() }()

	storetest.Run(t, m)
}
