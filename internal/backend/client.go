// Package backend talks to the board server's REST API.
package backend

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"cardboard/internal/api"
	"cardboard/internal/errors"
	"cardboard/internal/httputil"
	"cardboard/internal/logger"
	"cardboard/internal/version"
)

// DefaultBaseURL is where the board server listens unless configured.
const DefaultBaseURL = "http://localhost:8000/api"

// Client fetches board state and posts actions.
type Client struct {
	baseURL string
	http    *httputil.RetryableClient
}

// NewClient builds a client for baseURL. retries applies to state fetches
// only; actions are posted once.
func NewClient(baseURL string, timeout time.Duration, retries int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	hc := httputil.NewRetryableClient(timeout, retries)
	hc.SetUserAgent(version.UserAgent())
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// FetchState loads the full board snapshot.
func (c *Client) FetchState(ctx context.Context) (*api.AppState, error) {
	var st api.AppState
	if err := c.http.GetJSON(ctx, c.baseURL+"/state", &st); err != nil {
		return nil, c.wrap(err)
	}
	logger.Backend("fetched state %q: %d cards, category view=%v", st.BoardName, len(st.Cards), st.InCategoryView())
	return &st, nil
}

// PerformAction posts a single action. Any 2xx reply is success.
func (c *Client) PerformAction(ctx context.Context, a api.Action) error {
	body, err := api.EncodeAction(a)
	if err != nil {
		return err
	}
	logger.Backend("POST action %s", body)
	if err := c.http.PostJSON(ctx, c.baseURL+"/action", body, nil); err != nil {
		return errors.NewActionError(a.Type(), c.wrap(err))
	}
	return nil
}

// wrap turns transport failures into a connection error; HTTP status errors
// are already user errors.
func (c *Client) wrap(err error) error {
	var userErr *errors.UserError
	if stderrors.As(err, &userErr) {
		return err
	}
	return errors.NewBackendConnectionError(c.baseURL, err)
}

// ProbeResult summarises a health check against the server.
type ProbeResult struct {
	BaseURL   string
	Latency   time.Duration
	BoardName string
	Cards     int
	Tags      int
	Warnings  []api.IntegrityWarning
}

func (p ProbeResult) String() string {
	return fmt.Sprintf("%s: board %q, %d cards, %d tags, %d integrity warnings (%v)",
		p.BaseURL, p.BoardName, p.Cards, p.Tags, len(p.Warnings), p.Latency.Round(time.Millisecond))
}

// Probe fetches the state once and reports what it found.
func (c *Client) Probe(ctx context.Context) (ProbeResult, error) {
	start := time.Now()
	st, err := c.FetchState(ctx)
	if err != nil {
		return ProbeResult{BaseURL: c.baseURL}, err
	}
	return ProbeResult{
		BaseURL:   c.baseURL,
		Latency:   time.Since(start),
		BoardName: st.BoardName,
		Cards:     len(st.Cards),
		Tags:      len(st.Tags),
		Warnings:  st.Validate(),
	}, nil
}
