// Package practicum queries the homework status API.
package practicum

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hwbot/internal/homework"
	logx "hwbot/pkg/logx"
)

const (
	DefaultEndpoint   = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	DefaultAuthScheme = "OAuth"
	DefaultTimeout    = 30 * time.Second

	// maxBody caps how much of a response body is read.
	maxBody = 4 << 20
)

type Config struct {
	Endpoint   string
	Token      string
	AuthScheme string
	// Timeout bounds one Fetch call, including reading the body.
	Timeout time.Duration
}

// Client performs single-attempt status queries. Retrying is the caller's job.
type Client struct {
	cfg  Config
	http *http.Client
	log  logx.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default http client (tests use httptest's).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(log logx.Logger) Option {
	return func(c *Client) { c.log = log }
}

func New(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("practicum token is empty")
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.AuthScheme) == "" {
		cfg.AuthScheme = DefaultAuthScheme
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, log: logx.Nop()}
	for _, o := range opts {
		o(c)
	}
	if c.log.IsZero() {
		c.log = logx.Nop()
	}
	return c, nil
}

func (c *Client) Endpoint() string { return c.cfg.Endpoint }

// Fetch issues GET <endpoint>?from_date=<cursor> and returns the decoded body.
//
// Failures are *homework.Error: KindTransport when no usable response was
// received (dial, DNS, timeout, unreadable or undecodable body) and
// KindProtocol for any status other than 200.
func (c *Client) Fetch(ctx context.Context, cursor int64) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	u, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return nil, homework.TransportError(err)
	}
	q := u.Query()
	q.Set("from_date", strconv.FormatInt(cursor, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, homework.TransportError(err)
	}
	req.Header.Set("Authorization", c.cfg.AuthScheme+" "+strings.TrimSpace(c.cfg.Token))
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, homework.TransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		c.log.Warn("status api answered non-OK",
			logx.Int("status", resp.StatusCode),
			logx.Int64("from_date", cursor),
			logx.Duration("took", time.Since(start)),
		)
		return nil, homework.ProtocolError(resp.StatusCode)
	}

	var raw any
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBody))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, homework.TransportError(err)
	}
	c.log.Debug("status api fetched", logx.Int64("from_date", cursor), logx.Duration("took", time.Since(start)))
	return raw, nil
}
