package testhelpers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/gcloud"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kndndrj/bqrunner/adapters"
	"github.com/kndndrj/bqrunner/core"
)

const bigQueryProject = "test-project"

// BigQueryContainer is a BigQuery emulator together with a fake instance
// metadata server, so the metadata credential strategy works without a real
// compute instance.
type BigQueryContainer struct {
	*gcloud.GCloudContainer
	ConnURL  string
	Conn     *core.Connection
	metadata *httptest.Server
}

// NewBigQueryContainer starts the emulator seeded with testdata and opens a
// connection with the bigquery_gce adapter. Empty params.Type and params.URL
// default to the emulator connection.
func NewBigQueryContainer(ctx context.Context, params core.ConnectionParams) (*BigQueryContainer, error) {
	seedFile, err := GetTestDataFile("bigquery_seed.yaml")
	if err != nil {
		return nil, err
	}
	defer seedFile.Close()

	ctr, err := gcloud.RunBigQuery(
		ctx,
		"ghcr.io/goccy/bigquery-emulator:0.6.6",
		gcloud.WithProjectID(bigQueryProject),
		gcloud.WithDataYAML(seedFile),
		tc.CustomizeRequest(tc.GenericContainerRequest{
			ProviderType: GetContainerProvider(),
			ContainerRequest: tc.ContainerRequest{
				ImagePlatform: "linux/amd64",
			},
		}),
		tc.WithWaitStrategy(wait.ForLog("[bigquery-emulator] gRPC")),
	)
	if err != nil {
		return nil, err
	}

	metadata := newMetadataServer(ctr.Settings.ProjectID)
	if err := os.Setenv("GCE_METADATA_HOST", strings.TrimPrefix(metadata.URL, "http://")); err != nil {
		metadata.Close()
		return nil, err
	}

	connURL := fmt.Sprintf("bigquery://?poll-interval=100ms&max-bytes-billed=1000&disable-query-cache=true&endpoint=%s/", ctr.URI)
	if params.Type == "" {
		params.Type = "bigquery_gce"
	}
	if params.URL == "" {
		params.URL = connURL
	}

	conn, err := adapters.NewConnection(params)
	if err != nil {
		metadata.Close()
		return nil, err
	}

	return &BigQueryContainer{
		GCloudContainer: ctr,
		ConnURL:         connURL,
		Conn:            conn,
		metadata:        metadata,
	}, nil
}

// Close stops the fake metadata server. The container is terminated by the
// caller.
func (c *BigQueryContainer) Close() {
	c.Conn.Close()
	c.metadata.Close()
}

func newMetadataServer(projectID string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /computeMetadata/v1/project/project-id", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(projectID))
	})
	mux.HandleFunc("GET /computeMetadata/v1/instance/service-accounts/default/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "emulator",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	return httptest.NewServer(mux)
}
