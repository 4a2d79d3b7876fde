package bqrunner

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/compute/metadata"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	bq "google.golang.org/api/bigquery/v2"
)

type AuthKind string

const (
	// AuthJWT signs requests with a service account key and uses a
	// configured project id.
	AuthJWT AuthKind = "jwt"
	// AuthMetadata uses the credentials and project of the compute
	// instance the runner is deployed on.
	AuthMetadata AuthKind = "metadata"
)

// Credentials produce an authenticated HTTP client and resolve the project
// queries are billed to. The set of implementations is closed: use
// [JWTCredentials] or [MetadataCredentials].
type Credentials interface {
	httpClient(ctx context.Context, timeout time.Duration) (*http.Client, error)
	projectID(ctx context.Context) (string, error)
}

// NewCredentials selects the credential strategy by kind.
func NewCredentials(kind AuthKind, projectID, jsonKeyFile string) (Credentials, error) {
	switch kind {
	case AuthJWT, "":
		if projectID == "" {
			return nil, ErrEmptyProjectID
		}
		if jsonKeyFile == "" {
			return nil, fmt.Errorf("json key file is required for %q auth", AuthJWT)
		}
		return JWTCredentials(projectID, jsonKeyFile), nil
	case AuthMetadata:
		return MetadataCredentials(), nil
	default:
		return nil, fmt.Errorf("unsupported auth kind: %q", kind)
	}
}

var _ Credentials = (*jwtCredentials)(nil)

type jwtCredentials struct {
	project string
	// base64 encoded service account json key
	keyFile string
}

// JWTCredentials authenticates with a base64 encoded JSON service account key.
func JWTCredentials(projectID, jsonKeyFile string) Credentials {
	return &jwtCredentials{
		project: projectID,
		keyFile: jsonKeyFile,
	}
}

func (c *jwtCredentials) httpClient(ctx context.Context, timeout time.Duration) (*http.Client, error) {
	key, err := base64.StdEncoding.DecodeString(c.keyFile)
	if err != nil {
		return nil, &UnexpectedError{Err: fmt.Errorf("base64.DecodeString: %w", err)}
	}

	conf, err := google.JWTConfigFromJSON(key, bq.BigqueryScope)
	if err != nil {
		return nil, &UnexpectedError{Err: fmt.Errorf("google.JWTConfigFromJSON: %w", err)}
	}

	client := conf.Client(ctx)
	client.Timeout = timeout
	return client, nil
}

func (c *jwtCredentials) projectID(context.Context) (string, error) {
	return c.project, nil
}

var _ Credentials = (*metadataCredentials)(nil)

type metadataCredentials struct {
	client *metadata.Client
}

// MetadataCredentials authenticates with the default service account of the
// compute instance. The project id is read from the metadata server too.
func MetadataCredentials() Credentials {
	return &metadataCredentials{
		client: metadata.NewClient(nil),
	}
}

func (c *metadataCredentials) httpClient(ctx context.Context, timeout time.Duration) (*http.Client, error) {
	client := oauth2.NewClient(ctx, google.ComputeTokenSource("", bq.BigqueryScope))
	client.Timeout = timeout
	return client, nil
}

func (c *metadataCredentials) projectID(ctx context.Context) (string, error) {
	id, err := c.client.ProjectIDWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("metadata.ProjectID: %w", err)
	}

	return id, nil
}
