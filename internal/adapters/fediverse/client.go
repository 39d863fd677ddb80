// Package fediverse provides the JSON-over-HTTP client used for WebFinger
// discovery, ActivityPub document fetches, and inbox delivery
package fediverse

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"tidepool/internal/core/fed"
	perr "tidepool/internal/platform/errors"
	"tidepool/internal/platform/logger"
)

const (
	defaultTimeout = 10 * time.Second
	defaultUA      = "tidepool-fed"

	// AcceptActivityJSON is the media type for ActivityPub documents
	AcceptActivityJSON = "application/activity+json"

	// AcceptJRD is the media type for WebFinger descriptors
	AcceptJRD = "application/jrd+json"

	maxBodyBytes = 1 << 20
)

// Options configures the Client
type Options struct {
	UserAgent string
	Timeout   time.Duration
}

// Client issues single-attempt federation requests. Retry policy belongs to
// the caller; the client only classifies failures as transport or protocol
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
	now  func() time.Time
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("fediverse"),
		now:  time.Now,
	}
}

// GetJSON fetches url with the given Accept header and decodes the body into out
func (c *Client) GetJSON(ctx context.Context, url, accept string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "fediverse new request failed")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = drainAndClose(resp.Body) }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return perr.Protocolf("fediverse get %s status %d body %s", url, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeProtocol, "fediverse get %s undecodable body", url)
	}
	return nil
}

// PostJSON posts an ActivityPub document to url, signing when a signer is given.
// The returned status code is valid only when err is nil
func (c *Client) PostJSON(ctx context.Context, url string, body []byte, signer fed.Signer) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeUnknown, "fediverse new request failed")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Content-Type", AcceptActivityJSON)
	if signer != nil {
		if err := signer.Sign(req); err != nil {
			return 0, perr.Wrapf(err, perr.ErrorCodeUnknown, "fediverse request signing failed")
		}
	}

	resp, err := c.do(req)
	if err != nil {
		return 0, err
	}
	_ = drainAndClose(resp.Body)
	return resp.StatusCode, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	start := c.now()
	resp, err := c.http.Do(req)
	lat := c.now().Sub(start)

	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeTransport, "fediverse %s %s failed", req.Method, req.URL)
	}

	c.log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("latency", lat).
		Msg("fediverse http response")
	return resp, nil
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, maxBodyBytes))
	return rc.Close()
}
