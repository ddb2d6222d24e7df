package session

import (
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/swanhubx/swanlab-go/version"
)

// SDKHeader is the identity header attached to every request made through a
// session.
const SDKHeader = "swanlab-sdk"

// headerTransport applies session-level default headers to outgoing
// requests. Per-request headers are merged with the defaults; on a name
// collision the per-request value wins for that call only. The incoming
// request is cloned, never mutated.
type headerTransport struct {
	Transport http.RoundTripper
	Header    http.Header
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	inner := t.Transport
	if inner == nil {
		inner = http.DefaultTransport
	}

	out := req
	for name, values := range t.Header {
		if _, ok := req.Header[name]; ok {
			continue
		}
		if out == req {
			out = req.Clone(req.Context())
		}
		for _, v := range values {
			out.Header.Add(name, v)
		}
	}
	return inner.RoundTrip(out)
}

// SessionBuilder assembles an *http.Client bound to the retry policy and the
// swanlab-sdk identity header. The zero-configuration path reads the retry
// settings from the process environment at Build time; explicit settings
// take precedence over the environment.
type SessionBuilder struct {
	cfg        *RetryConfig
	environ    map[string]string
	sdkVersion string
	base       http.RoundTripper
	timeout    time.Duration
	log        zerolog.Logger
}

// NewSessionBuilder creates a SessionBuilder with default settings.
func NewSessionBuilder() *SessionBuilder {
	return &SessionBuilder{
		sdkVersion: version.Get(),
		log:        zerolog.Nop(),
	}
}

// WithRetryConfig sets the retry settings explicitly, bypassing the
// environment. Build validates the values and defaults invalid fields.
func (b *SessionBuilder) WithRetryConfig(cfg RetryConfig) *SessionBuilder {
	b.cfg = &cfg
	return b
}

// WithRetryTotal sets the retry budget after the initial attempt.
func (b *SessionBuilder) WithRetryTotal(total int) *SessionBuilder {
	b.explicit().Total = total
	return b
}

// WithBackoffFactor sets the multiplier for the exponential wait between
// retries, in seconds.
func (b *SessionBuilder) WithBackoffFactor(factor float64) *SessionBuilder {
	b.explicit().BackoffFactor = factor
	return b
}

// WithEnviron sets an explicit environment snapshot to resolve the retry
// settings from, instead of the process environment. Useful in tests to
// avoid mutating shared process state.
func (b *SessionBuilder) WithEnviron(environ map[string]string) *SessionBuilder {
	b.environ = environ
	return b
}

// WithSDKVersion overrides the value of the swanlab-sdk header. An empty
// value is replaced at Build time by the version provider's output.
func (b *SessionBuilder) WithSDKVersion(v string) *SessionBuilder {
	b.sdkVersion = v
	return b
}

// WithBaseTransport sets the RoundTripper the retry policy wraps. Defaults
// to http.DefaultTransport.
func (b *SessionBuilder) WithBaseTransport(rt http.RoundTripper) *SessionBuilder {
	b.base = rt
	return b
}

// WithTimeout sets the overall per-request timeout on the built client.
// Zero, the default, means no client-level timeout.
func (b *SessionBuilder) WithTimeout(timeout time.Duration) *SessionBuilder {
	b.timeout = timeout
	return b
}

// WithLogger sets the logger used to report configuration values that were
// replaced by defaults. Defaults to a no-op logger.
func (b *SessionBuilder) WithLogger(log zerolog.Logger) *SessionBuilder {
	b.log = log
	return b
}

func (b *SessionBuilder) explicit() *RetryConfig {
	if b.cfg == nil {
		cfg := DefaultRetryConfig()
		b.cfg = &cfg
	}
	return b.cfg
}

// resolveConfig produces the effective retry settings for this build.
func (b *SessionBuilder) resolveConfig() RetryConfig {
	if b.cfg == nil {
		return ParseRetryConfig(b.environ, b.log)
	}

	cfg := *b.cfg
	if cfg.Total < 0 {
		b.log.Warn().Int("value", cfg.Total).Int("default", DefaultRetryTotal).
			Msg("invalid retry total, using default")
		cfg.Total = DefaultRetryTotal
	}
	if math.IsNaN(cfg.BackoffFactor) || math.IsInf(cfg.BackoffFactor, 0) || cfg.BackoffFactor < 0 {
		b.log.Warn().Float64("value", cfg.BackoffFactor).Float64("default", DefaultBackoffFactor).
			Msg("invalid backoff factor, using default")
		cfg.BackoffFactor = DefaultBackoffFactor
	}
	return cfg
}

// Build creates the HTTP client. Construction never fails: invalid settings
// are replaced by their defaults. The same retry policy applies to http and
// https requests alike, and each Build call produces an independent client.
func (b *SessionBuilder) Build() *http.Client {
	cfg := b.resolveConfig()

	sdk := b.sdkVersion
	if sdk == "" {
		sdk = version.Get()
	}

	timeout := b.timeout
	if timeout < 0 {
		b.log.Warn().Dur("value", timeout).Msg("negative timeout ignored")
		timeout = 0
	}

	header := make(http.Header)
	header.Set(SDKHeader, sdk)

	return &http.Client{
		Timeout: timeout,
		Transport: &headerTransport{
			Header: header,
			Transport: &retryTransport{
				Transport:     b.base,
				MaxRetries:    cfg.Total,
				RetryStrategy: ExponentialBackoff(cfg.BackoffFactor),
			},
		},
	}
}

// NewSession builds a session from the process environment with default
// settings. Malformed configuration falls back to defaults; construction
// never fails.
func NewSession() *http.Client {
	return NewSessionBuilder().Build()
}
