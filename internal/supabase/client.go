// Package supabase is the HTTP client for the hosted backend: PostgREST
// tables under /rest/v1, GoTrue auth under /auth/v1 and edge functions
// under /functions/v1.
package supabase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
	"github.com/pauljones0/commodity-tracker/internal/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Options configures a Client. Only URL and AnonKey are required.
type Options struct {
	URL     string
	AnonKey string

	// HTTPClient defaults to a client with no timeout; request lifetime
	// is left to the backend.
	HTTPClient *http.Client

	// RequestsPerSecond and Burst pace outgoing requests. Zero disables
	// pacing.
	RequestsPerSecond float64
	Burst             int

	// Store persists the session between runs. Nil keeps it in memory.
	Store SessionStore

	// RefreshMargin is how long before expiry a session is refreshed.
	RefreshMargin time.Duration

	Logger *slog.Logger
}

type Client struct {
	base    *url.URL
	anonKey string
	http    *http.Client
	limiter *rate.Limiter
	store   SessionStore
	margin  time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	session  *gateway.Session
	restored bool

	refreshMu sync.Mutex

	lmu       sync.Mutex
	listeners map[uint64]gateway.AuthListener
	nextID    uint64
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid supabase url %q: %w", opts.URL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid supabase url %q: scheme and host required", opts.URL)
	}
	if opts.AnonKey == "" {
		return nil, fmt.Errorf("supabase anon key is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: NewLoggingRoundTripper(http.DefaultTransport)}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		base:      base,
		anonKey:   opts.AnonKey,
		http:      httpClient,
		limiter:   limiter,
		store:     opts.Store,
		margin:    opts.RefreshMargin,
		logger:    logger,
		now:       time.Now,
		listeners: make(map[uint64]gateway.AuthListener),
	}, nil
}

// Gateway exposes the client through the gateway capabilities.
func (c *Client) Gateway() gateway.Gateway {
	return gateway.Gateway{Tables: c, Auth: c, Functions: c}
}

type request struct {
	op      string
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
	// anon sends the anon key as bearer even when signed in.
	anon bool
}

// do sends r and decodes a 2xx body into dest. Non-2xx responses become
// *gateway.Error.
func (c *Client) do(ctx context.Context, r request, dest any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := *c.base
	u.Path = c.base.Path + r.path
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode %s body: %w", r.op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.bearer(r.anon))
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveGateway(r.op, 0, time.Since(start))
		return fmt.Errorf("%s: %w", r.op, err)
	}
	defer resp.Body.Close()
	metrics.ObserveGateway(r.op, resp.StatusCode, time.Since(start))

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: reading response: %w", r.op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, bodyBytes)
	}
	if dest == nil || len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, dest); err != nil {
		return fmt.Errorf("%s: decoding response: %w", r.op, err)
	}
	return nil
}

func (c *Client) bearer(anon bool) string {
	if anon {
		return c.anonKey
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session != nil && c.session.AccessToken != "" {
		return c.session.AccessToken
	}
	return c.anonKey
}

// errorBody covers the error shapes of PostgREST, GoTrue and functions.
type errorBody struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	Error            any    `json:"error"`
	ErrorDescription string `json:"error_description"`
	Details          string `json:"details"`
	Hint             string `json:"hint"`
}

func decodeError(status int, body []byte) error {
	e := &gateway.Error{Status: status}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		e.Message = strings.TrimSpace(string(body))
		if e.Message == "" {
			e.Message = http.StatusText(status)
		}
		return e
	}

	switch {
	case eb.ErrorCode != "":
		e.Code = eb.ErrorCode
	case eb.Code != nil:
		e.Code = fmt.Sprint(eb.Code)
	}
	errText, _ := eb.Error.(string)
	if e.Code == "" && errText != "" && eb.ErrorDescription != "" {
		e.Code = errText
	}

	switch {
	case eb.Message != "":
		e.Message = eb.Message
	case eb.Msg != "":
		e.Message = eb.Msg
	case eb.ErrorDescription != "":
		e.Message = eb.ErrorDescription
	case errText != "":
		e.Message = errText
	default:
		e.Message = http.StatusText(status)
	}
	return e
}
