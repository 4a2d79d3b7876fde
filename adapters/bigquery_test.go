package adapters

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kndndrj/bqrunner/bqrunner"
	"github.com/kndndrj/bqrunner/config"
)

func TestBigQuery_parse(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(keyPath, []byte(`{"type":"service_account"}`), 0o600))

	legacy := true

	tests := []struct {
		name    string
		auth    bqrunner.AuthKind
		url     string
		want    func(*config.Config)
		wantErr string
	}{
		{
			name: "should parse project and key",
			auth: bqrunner.AuthJWT,
			url:  "bigquery://my-project?json-key-file=a2V5",
			want: func(c *config.Config) {
				c.ProjectID = "my-project"
				c.JSONKeyFile = "a2V5"
			},
		},
		{
			name: "should restore plus signs of an unescaped key",
			auth: bqrunner.AuthJWT,
			url:  "bigquery://my-project?json-key-file=ab+c/d==",
			want: func(c *config.Config) {
				c.ProjectID = "my-project"
				c.JSONKeyFile = "ab+c/d=="
			},
		},
		{
			name: "should read and encode the credentials file",
			auth: bqrunner.AuthJWT,
			url:  "bigquery://my-project?credentials=" + keyPath,
			want: func(c *config.Config) {
				c.ProjectID = "my-project"
				c.JSONKeyFile = base64.StdEncoding.EncodeToString([]byte(`{"type":"service_account"}`))
			},
		},
		{
			name: "should parse all options",
			auth: bqrunner.AuthMetadata,
			url: "bigquery://ignored?poll-interval=500ms&max-poll-attempts=3&http-timeout=5s" +
				"&location=EU&max-bytes-billed=1000&use-legacy-sql=true&disable-query-cache=true" +
				"&endpoint=http://localhost:9050/",
			want: func(c *config.Config) {
				c.PollInterval = 500 * time.Millisecond
				c.MaxPollAttempts = 3
				c.HTTPTimeout = 5 * time.Second
				c.Query.Location = "EU"
				c.Query.MaxBytesBilled = 1000
				c.Query.UseLegacySQL = &legacy
				c.Query.DisableQueryCache = true
				c.Endpoint = "http://localhost:9050/"
			},
		},
		{
			name:    "should reject other schemes",
			auth:    bqrunner.AuthJWT,
			url:     "postgres://my-project",
			wantErr: "unexpected scheme",
		},
		{
			name:    "should require a key for jwt auth",
			auth:    bqrunner.AuthJWT,
			url:     "bigquery://my-project",
			wantErr: "json key file is required",
		},
		{
			name:    "should require a project for jwt auth",
			auth:    bqrunner.AuthJWT,
			url:     "bigquery://?json-key-file=a2V5",
			wantErr: "project id is required",
		},
		{
			name:    "should reject invalid values",
			auth:    bqrunner.AuthMetadata,
			url:     "bigquery://?poll-interval=often",
			wantErr: `invalid value for "poll-interval"`,
		},
		{
			name:    "should reject a missing credentials file",
			auth:    bqrunner.AuthJWT,
			url:     "bigquery://my-project?credentials=" + filepath.Join(t.TempDir(), "missing.json"),
			wantErr: "os.ReadFile",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewBigQuery(tt.auth).parse(tt.url)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			want := config.Default()
			want.Auth = tt.auth
			tt.want(&want)
			assert.Equal(t, want, got)
		})
	}
}

func TestMux_GetAdapter(t *testing.T) {
	r := require.New(t)
	mux := new(Mux)

	for _, alias := range []string{"bigquery", "bigquery_gce", "bigquery-gce"} {
		adapter, err := mux.GetAdapter(alias)
		r.NoError(err, alias)
		r.IsType(&BigQuery{}, adapter)
	}

	jwt, _ := mux.GetAdapter("bigquery")
	r.Equal(bqrunner.AuthJWT, jwt.(*BigQuery).auth)
	gce, _ := mux.GetAdapter("bigquery_gce")
	r.Equal(bqrunner.AuthMetadata, gce.(*BigQuery).auth)

	_, err := mux.GetAdapter("sqlite")
	r.ErrorIs(err, ErrUnsupportedTypeAlias)

	r.ErrorIs(register(NewBigQuery(bqrunner.AuthJWT), ""), errNoValidTypeAliases)
}

func TestBigQuery_Connect(t *testing.T) {
	r := require.New(t)

	driver, err := NewBigQuery(bqrunner.AuthMetadata).Connect("bigquery://")
	r.NoError(err)
	r.IsType(&bigQueryDriver{}, driver)
	driver.Close()

	_, err = NewBigQuery(bqrunner.AuthJWT).Connect("bigquery://p")
	r.Error(err)
}
