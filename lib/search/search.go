// Package search queries the gateway search endpoints. Lookups are read-only: a non-2xx reply is returned as a
// regular response so callers can inspect the gateway error body.
package search

import (
	"context"
	"net/url"
	"strconv"

	"github.com/architectjyothi/overledger-sdk-go/lib/gateway"
)

// Path is the search base path under the gateway URL.
const Path = "/search"

// Search is bound to the gateway of an orchestrator.
type Search struct {
	c *gateway.Client
}

// New returns a Search rooted at gw's base URL plus Path.
func New(gw *gateway.Client) *Search {
	return &Search{c: gw.Sub(Path)}
}

// BaseURL returns the search base URL.
func (s *Search) BaseURL() string {
	return s.c.BaseURL()
}

// Transaction looks a transaction up by hash.
func (s *Search) Transaction(ctx context.Context, hash string) (*gateway.Response, error) {
	return gateway.Tolerate(s.c.Get(ctx, "/transactions/"+url.PathEscape(hash)))
}

// WhoAmI reports what kind of object hash identifies (transaction, block or address).
func (s *Search) WhoAmI(ctx context.Context, hash string) (*gateway.Response, error) {
	return gateway.Tolerate(s.c.Get(ctx, "/whoami/"+url.PathEscape(hash)))
}

// BlockByHash returns a block of dlt by hash.
func (s *Search) BlockByHash(ctx context.Context, dlt, hash string) (*gateway.Response, error) {
	return gateway.Tolerate(s.c.Get(ctx, "/chains/"+dlt+"/blocks/byHash/"+url.PathEscape(hash)))
}

// BlockByNumber returns a block of dlt by number.
func (s *Search) BlockByNumber(ctx context.Context, dlt string, number uint64) (*gateway.Response, error) {
	return gateway.Tolerate(s.c.Get(ctx, "/chains/"+dlt+"/blocks/byNumber/"+strconv.FormatUint(number, 10)))
}
