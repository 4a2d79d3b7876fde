package adapters

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/kndndrj/bqrunner/bqrunner"
	"github.com/kndndrj/bqrunner/config"
	"github.com/kndndrj/bqrunner/core"
)

// Register client
func init() {
	_ = register(NewBigQuery(bqrunner.AuthJWT), "bigquery")
	_ = register(NewBigQuery(bqrunner.AuthMetadata), "bigquery_gce", "bigquery-gce")
}

var _ core.Adapter = (*BigQuery)(nil)

type BigQuery struct {
	auth bqrunner.AuthKind
	opts []bqrunner.Option
}

// NewBigQuery returns an adapter authenticating with the given strategy.
// opts are applied after the ones parsed from the url.
func NewBigQuery(auth bqrunner.AuthKind, opts ...bqrunner.Option) *BigQuery {
	return &BigQuery{
		auth: auth,
		opts: opts,
	}
}

// Connect creates a driver which runs queries as BigQuery jobs in the
// project specified in the url. The format of the url is as follows:
//
//	bigquery://[project][?options]
//
// The project is required for jwt auth. With metadata auth the project is
// read from the instance metadata server and the host part is ignored.
//
// Options:
//   - json-key-file=string: base64 encoded service account key
//   - credentials=path/to/creds.json: key file read from disk, alternative to json-key-file
//   - poll-interval=duration: delay between job status checks
//   - max-poll-attempts=integer: give up after this many status checks, 0 is unbounded
//   - http-timeout=duration: timeout of a single api call
//   - location=string: job location
//   - max-bytes-billed=integer: maximum bytes to be billed
//   - use-legacy-sql=bool: whether to use legacy SQL
//   - disable-query-cache=bool: whether to disable query cache
//
// For internal testing:
//   - endpoint=url: custom REST endpoint, e.g. an emulator
func (bq *BigQuery) Connect(rawURL string) (core.Driver, error) {
	cfg, err := bq.parse(rawURL)
	if err != nil {
		return nil, err
	}

	return newBigQueryDriver(cfg, bq.opts...)
}

func (bq *BigQuery) parse(rawURL string) (config.Config, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return config.Config{}, err
	}

	if u.Scheme != "bigquery" {
		return config.Config{}, fmt.Errorf("unexpected scheme: %q", u.Scheme)
	}

	cfg := config.Default()
	cfg.Auth = bq.auth
	if bq.auth == bqrunner.AuthJWT {
		cfg.ProjectID = u.Host
	}

	params := u.Query()

	setters := []func() error{
		func() error {
			return callIfStringSet("json-key-file", params, func(key string) error {
				// unescaped '+' in base64 is decoded as a space
				cfg.JSONKeyFile = strings.ReplaceAll(key, " ", "+")
				return nil
			})
		},
		func() error {
			return callIfStringSet("credentials", params, func(path string) error {
				raw, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("os.ReadFile: %w", err)
				}
				cfg.JSONKeyFile = base64.StdEncoding.EncodeToString(raw)
				return nil
			})
		},
		func() error { return setDurationOption(&cfg.PollInterval, "poll-interval", params) },
		func() error { return setIntOption(&cfg.MaxPollAttempts, "max-poll-attempts", params) },
		func() error { return setDurationOption(&cfg.HTTPTimeout, "http-timeout", params) },
		func() error { return setStringOption(&cfg.Query.Location, "location", params) },
		func() error { return setInt64Option(&cfg.Query.MaxBytesBilled, "max-bytes-billed", params) },
		func() error {
			return callIfSet("use-legacy-sql", params, strconv.ParseBool, func(b bool) error {
				cfg.Query.UseLegacySQL = &b
				return nil
			})
		},
		func() error { return setBoolOption(&cfg.Query.DisableQueryCache, "disable-query-cache", params) },
		func() error { return setStringOption(&cfg.Endpoint, "endpoint", params) },
	}
	for _, set := range setters {
		if err := set(); err != nil {
			return config.Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("cfg.Validate: %w", err)
	}

	return cfg, nil
}

// FromConfig returns an adapter which ignores the connection url and
// connects with cfg instead.
func FromConfig(cfg config.Config, opts ...bqrunner.Option) core.Adapter {
	return &configAdapter{
		cfg:  cfg,
		opts: opts,
	}
}

type configAdapter struct {
	cfg  config.Config
	opts []bqrunner.Option
}

func (a *configAdapter) Connect(string) (core.Driver, error) {
	return newBigQueryDriver(a.cfg, a.opts...)
}
