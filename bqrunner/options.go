package bqrunner

import (
	"log/slog"
	"time"

	bq "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	DefaultPollInterval = 10 * time.Second
	DefaultHTTPTimeout  = 60 * time.Second
)

// QueryOptions are applied to every submitted query job.
type QueryOptions struct {
	// Location is used when fetching results. If empty, the location
	// reported by the service on submission is used.
	Location       string
	MaxBytesBilled int64
	// UseLegacySQL keeps the service default when nil.
	UseLegacySQL      *bool
	DisableQueryCache bool
}

func (o *QueryOptions) jobConfig(query string) *bq.JobConfigurationQuery {
	cfg := &bq.JobConfigurationQuery{
		Query:              query,
		MaximumBytesBilled: o.MaxBytesBilled,
		UseLegacySql:       o.UseLegacySQL,
	}
	if o.DisableQueryCache {
		cfg.UseQueryCache = googleapi.Bool(false)
	}

	return cfg
}

type runnerConfig struct {
	pollInterval    time.Duration
	maxPollAttempts int
	httpTimeout     time.Duration
	logger          *slog.Logger
	query           QueryOptions
	clientOptions   []option.ClientOption
}

type Option func(*runnerConfig)

func newRunnerConfig(opts []Option) *runnerConfig {
	cfg := &runnerConfig{
		pollInterval: DefaultPollInterval,
		httpTimeout:  DefaultHTTPTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// WithPollInterval sets the sleep between job status checks.
func WithPollInterval(d time.Duration) Option {
	return func(c *runnerConfig) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithMaxPollAttempts bounds the number of status checks. Zero (default)
// polls until the job completes.
func WithMaxPollAttempts(n int) Option {
	return func(c *runnerConfig) {
		if n >= 0 {
			c.maxPollAttempts = n
		}
	}
}

// WithHTTPTimeout bounds every single request to the API.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *runnerConfig) {
		if d > 0 {
			c.httpTimeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *runnerConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithQueryOptions(opts QueryOptions) Option {
	return func(c *runnerConfig) {
		c.query = opts
	}
}

// WithClientOptions passes extra options to the REST client, e.g. a custom
// endpoint.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(c *runnerConfig) {
		c.clientOptions = append(c.clientOptions, opts...)
	}
}
