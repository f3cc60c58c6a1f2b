// Package client is the HTTP client for a remote ensemble server. It
// speaks the same Server-Sent Events protocol the server emits, so a
// remote run surfaces the identical event stream a local run would.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/mmichie/ensemble/pkg/ensemble/pipeline"
	"github.com/mmichie/ensemble/pkg/ensemble/provider"
	"github.com/mmichie/ensemble/pkg/ensemble/streaming"
)

const defaultTimeout = 5 * time.Minute

// Request mirrors the server's request body.
type Request struct {
	Prompt     string           `json:"prompt"`
	Constraint string           `json:"constraint,omitempty"`
	History    provider.History `json:"history,omitempty"`
}

// Client talks to one ensemble server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a client for the server at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stream runs one request against the server and feeds each pipeline
// event to the handler in order. It returns after the terminal event;
// a stream that ends without one is a protocol error.
func (c *Client) Stream(ctx context.Context, req Request, handler func(pipeline.Event) error) error {
	resp, err := c.post(ctx, "/api/ensemble", req, "text/event-stream")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	parser := streaming.NewParser(resp.Body)
	for {
		frame, err := parser.Next(ctx)
		if err == io.EOF {
			return pkgerrors.New("stream ended without a terminal event")
		}
		if err != nil {
			return pkgerrors.Wrap(err, "reading event stream")
		}

		var ev pipeline.Event
		if err := json.Unmarshal([]byte(frame.Data), &ev); err != nil {
			return pkgerrors.Wrapf(err, "malformed event payload %q", frame.Data)
		}
		if err := handler(ev); err != nil {
			return err
		}
		if ev.Terminal() {
			return nil
		}
	}
}

// Complete runs one request to completion and returns the aggregate
// outcome.
func (c *Client) Complete(ctx context.Context, req Request) (pipeline.Outcome, error) {
	resp, err := c.post(ctx, "/api/ensemble/complete", req, "application/json")
	if err != nil {
		return pipeline.Outcome{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return pipeline.Outcome{}, decodeError(resp)
	}

	var outcome pipeline.Outcome
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
		return pipeline.Outcome{}, pkgerrors.Wrap(err, "decoding outcome")
	}
	return outcome, nil
}

func (c *Client) post(ctx context.Context, path string, req Request, accept string) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "encoding request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "creating request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", accept)
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "request to %s failed", c.baseURL+path)
	}
	return resp, nil
}

// decodeError surfaces the server's JSON error body when present
func decodeError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
