// Package storetest runs the same behaviour checks against every store.DB implementation.
package storetest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architectjyothi/overledger-sdk-go/lib/store"
)

// Run checks db, which must be empty.
func Run(t *testing.T, db store.DB) {
	t.Helper()

	// created in the past so that an update always moves Updated forward
	now := time.Now().UTC().Truncate(time.Millisecond).Add(-time.Minute)
	subs := []store.Submission{
		{ID: "s1", MappID: "mapp", TransactionID: "ovl-1", Dlt: "ripple", SignedTransaction: "1200", Status: "submitted",
			Created: now, Updated: now},
		{ID: "s2", MappID: "mapp", TransactionID: "ovl-1", Dlt: "ethereum", SignedTransaction: "0xf8", Status: "submitted",
			Created: now.Add(time.Second), Updated: now.Add(time.Second)},
		{ID: "s3", MappID: "mapp", TransactionID: "ovl-2", Dlt: "bitcoin", SignedTransaction: "0100", Status: "confirmed",
			Created: now.Add(2 * time.Second), Updated: now.Add(2 * time.Second)},
	}

	for _, s := range subs {
		require.NoError(t, db.AddSubmission(s))
	}

	assert.ErrorIs(t, db.AddSubmission(subs[0]), store.ErrDuplicate)

	all, err := db.GetSubmissions(nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"s1", "s2", "s3"}, ids(all))
	assert.Equal(t, "1200", all[0].SignedTransaction)

	some, err := db.GetSubmissions([]string{"Ripple", "bitcoin"})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s3"}, ids(some))

	pending, err := db.PendingSubmissions()
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, ids(pending))

	require.NoError(t, db.UpdateStatus("s1", store.StatusConfirmed))
	require.NoError(t, db.UpdateStatus("s2", "broadcasted"))

	pending, err = db.PendingSubmissions()
	require.NoError(t, err)
	require.Equal(t, []string{"s2"}, ids(pending))
	assert.Equal(t, "broadcasted", pending[0].Status)
	assert.True(t, pending[0].Updated.After(pending[0].Created))

	assert.ErrorIs(t, db.UpdateStatus("nope", store.StatusFailed), store.ErrSubmissionNotFound)
}

func ids(subs []store.Submission) []string {
	out := make([]string, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.ID)
	}

	return out
}
