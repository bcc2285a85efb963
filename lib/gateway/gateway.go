// Package gateway implements the HTTP transport to the upstream gateway API. Every request carries the bearer
// credential "<mappId>:<bpiKey>" and is bounded by the client timeout.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout applies when no timeout is configured.
const DefaultTimeout = 5000 * time.Millisecond

// Response is the gateway reply, returned unmodified to callers.
type Response struct {
	Status int             `json:"status"`
	Header http.Header     `json:"-"`
	Data   json.RawMessage `json:"data"`
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v interface{}) error {
	if len(r.Data) == 0 {
		return errors.New("empty response body")
	}

	return errors.Wrap(json.Unmarshal(r.Data, v), "cannot decode gateway response")
}

// StatusError is returned for non-2xx replies. The response is kept so read-only lookups can hand it back.
type StatusError struct {
	Method   string
	Path     string
	Response *Response
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway %s %s: status %d: %s", e.Method, e.Path, e.Response.Status, e.Response.Data)
}

// Client is a gateway connection. It is safe for concurrent use.
type Client struct {
	baseURL string
	hc      *http.Client

	l    sync.RWMutex
	auth string
}

// New returns a client for baseURL. A zero timeout means DefaultTimeout.
func New(baseURL, mappID, bpiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: timeout},
		auth:    bearer(mappID, bpiKey),
	}
}

func bearer(mappID, bpiKey string) string {
	return "Bearer " + mappID + ":" + bpiKey
}

// BaseURL returns the URL every request path is appended to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the per request timeout.
func (c *Client) Timeout() time.Duration {
	return c.hc.Timeout
}

// SetCredentials replaces the bearer credential for subsequent requests.
func (c *Client) SetCredentials(mappID, bpiKey string) {
	c.l.Lock()
	c.auth = bearer(mappID, bpiKey)
	c.l.Unlock()
}

// Sub returns a client rooted at baseURL+path sharing the transport and the current credential.
func (c *Client) Sub(path string) *Client {
	c.l.RLock()
	defer c.l.RUnlock()

	return &Client{baseURL: c.baseURL + path, hc: c.hc, auth: c.auth}
}

// Get issues a GET request on path.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST request on path. A nil body sends no body at all.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Do sends a request and reads the whole reply. Non-2xx replies return both the response and a *StatusError.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}) (*Response, error) {
	var rd io.Reader

	if body != nil {
		pl, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "cannot encode request body")
		}

		rd = bytes.NewReader(pl)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot build request %s %s", method, path)
	}

	c.l.RLock()
	req.Header.Set("Authorization", c.auth)
	c.l.RUnlock()
	req.Header.Set("Accept", "application/json")

	if rd != nil {
		req.Header.Set("Content-Type", "application/json;charset=utf8")
	}

	start := time.Now()

	resp, err := c.hc.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("method", method).Str("path", path).Msg("gateway request failed")

		return nil, errors.Wrapf(err, "gateway %s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read gateway reply to %s %s", method, path)
	}

	log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).Msg("gateway request")

	r := &Response{Status: resp.StatusCode, Header: resp.Header, Data: data}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return r, &StatusError{Method: method, Path: path, Response: r}
	}

	return r, nil
}

// Tolerate returns the error reply of a non-2xx status as a regular response. Transport errors pass through.
func Tolerate(r *Response, err error) (*Response, error) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Response, nil
	}

	return r, err
}
