package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/derickschaefer/ecowise/internal/util"
)

const userAgent = "ecowise/1.0"

// maxBodyBytes bounds how much of a vendor response is read.
const maxBodyBytes = 4 << 20

// Request describes one outbound vendor call.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// CallerOptions configures a Caller.
type CallerOptions struct {
	// Timeout bounds the whole call, including time spent waiting on the
	// pacer. Zero means no bound beyond the caller's context.
	Timeout time.Duration
	// Rate is the maximum outbound requests per second. Zero or negative
	// disables pacing.
	Rate float64
	// HTTPClient overrides the default client (tests, custom transports).
	HTTPClient *http.Client
	// Secret is redacted from debug-logged URLs.
	Secret string
	Logger *slog.Logger
}

// Caller performs paced, time-bounded JSON requests for a single provider.
// It never retries: the first failure is classified and returned.
type Caller struct {
	name       string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	secret     string
	logger     *slog.Logger
}

// NewCaller creates a Caller for the named provider.
func NewCaller(name string, opts CallerOptions) *Caller {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	limit := rate.Inf
	burst := 1
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
		burst = int(opts.Rate)
		if burst < 1 {
			burst = 1
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Caller{
		name:       name,
		timeout:    opts.Timeout,
		httpClient: hc,
		limiter:    rate.NewLimiter(limit, burst),
		secret:     opts.Secret,
		logger:     logger,
	}
}

// Name returns the provider name used in errors and logs.
func (c *Caller) Name() string { return c.name }

// Do sends req and decodes a 200 JSON body into out.
//
// Transport failures are classified before any body is read. A non-200
// status is classified with ClassifyStatus (statusMsgs overrides default
// messages). A 200 whose body is not valid JSON for out is
// KindMalformedResponse. The returned *Error is nil on success.
func (c *Caller) Do(ctx context.Context, req Request, out any, statusMsgs map[int]string) *Error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		// Wait refuses early when the deadline cannot be met.
		if ctx.Err() != nil {
			return c.tag(ClassifyTransport(ctx.Err()))
		}
		return c.tag(Errorf(KindTimeout, MsgTimeout))
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return c.tag(Errorf(KindInvalidArgument, "building request: %v", util.RedactIn(err.Error(), c.secret)))
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	c.logger.Debug("provider request",
		"provider", c.name,
		"method", req.Method,
		"url", util.RedactIn(req.URL, c.secret))

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		perr := c.tag(ClassifyTransport(err))
		c.logger.Warn("provider transport failure",
			"provider", c.name, "kind", perr.Kind, "error", util.RedactIn(err.Error(), c.secret))
		return perr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.tag(ClassifyTransport(err))
	}

	c.logger.Debug("provider response",
		"provider", c.name,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		perr := c.tag(ClassifyStatus(resp.StatusCode, statusMsgs))
		c.logger.Warn("provider returned error status",
			"provider", c.name, "status", resp.StatusCode, "kind", perr.Kind)
		return perr
	}

	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Warn("provider response not decodable", "provider", c.name, "error", err)
		return c.tag(Errorf(KindMalformedResponse, MsgMalformed))
	}
	return nil
}

// Malformed returns a tagged KindMalformedResponse error for responses that
// decoded but lack required fields.
func (c *Caller) Malformed(field string) *Error {
	c.logger.Warn("provider response missing field", "provider", c.name, "field", field)
	return c.tag(Errorf(KindMalformedResponse, MsgMalformed))
}

// Fail tags err with this caller's provider name.
func (c *Caller) Fail(err *Error) *Error { return c.tag(err) }

func (c *Caller) tag(err *Error) *Error {
	if err != nil && err.Provider == "" {
		err.Provider = c.name
	}
	return err
}
