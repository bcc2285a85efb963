package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architectjyothi/overledger-sdk-go/lib/gateway"
)

func mockSearch(t *testing.T) *httptest.Server {
	t.Helper()

	reply := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer mapp:key", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		}
	}

	r := mux.NewRouter()
	s := r.PathPrefix("/v1/search").Subrouter()
	s.HandleFunc("/transactions/{hash}", reply(`{"type":"transaction"}`)).Methods(http.MethodGet)
	s.HandleFunc("/whoami/{hash}", reply(`{"type":"address"}`)).Methods(http.MethodGet)
	s.HandleFunc("/chains/{dlt}/blocks/byHash/{hash}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"dlt":"` + mux.Vars(r)["dlt"] + `","hash":"` + mux.Vars(r)["hash"] + `"}`))
	}).Methods(http.MethodGet)
	s.HandleFunc("/chains/{dlt}/blocks/byNumber/{n}", func(w http.ResponseWriter, r *http.Request) {
		if mux.Vars(r)["n"] == "0" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":"block not found"}`))

			return
		}

		_, _ = w.Write([]byte(`{"number":` + mux.Vars(r)["n"] + `}`))
	}).Methods(http.MethodGet)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return srv
}

func TestSearch(t *testing.T) {
	srv := mockSearch(t)
	s := New(gateway.New(srv.URL+"/v1", "mapp", "key", 0))

	assert.Equal(t, srv.URL+"/v1/search", s.BaseURL())

	ctx := context.Background()

	r, err := s.Transaction(ctx, "ABC")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"transaction"}`, string(r.Data))

	r, err = s.WhoAmI(ctx, "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"address"}`, string(r.Data))

	r, err = s.BlockByHash(ctx, "ripple", "FF")
	require.NoError(t, err)
	assert.JSONEq(t, `{"dlt":"ripple","hash":"FF"}`, string(r.Data))

	r, err = s.BlockByNumber(ctx, "bitcoin", 1234)
	require.NoError(t, err)
	assert.JSONEq(t, `{"number":1234}`, string(r.Data))
}

func TestSearchErrorBody(t *testing.T) {
	srv := mockSearch(t)
	s := New(gateway.New(srv.URL+"/v1", "mapp", "key", 0))

	r, err := s.BlockByNumber(context.Background(), "bitcoin", 0)
	require.NoError(t, err, "read-only lookups hand back the error reply")
	assert.Equal(t, http.StatusNotFound, r.Status)
	assert.JSONEq(t, `{"errors":"block not found"}`, string(r.Data))
}

func TestSearchTransportError(t *testing.T) {
	s := New(gateway.New("http://127.0.0.1:1", "mapp", "key", 0))

	_, err := s.Transaction(context.Background(), "ABC")
	assert.Error(t, err)
}
