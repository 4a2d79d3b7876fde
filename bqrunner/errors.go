package bqrunner

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

var (
	ErrEmptyQuery           = errors.New("query is empty")
	ErrEmptyProjectID       = errors.New("project id is empty")
	ErrPollAttemptsExceeded = errors.New("job did not complete within the allowed poll attempts")
)

// ServiceError is returned when the BigQuery API responds with an error.
type ServiceError struct {
	Code    int
	Message string
	// Body is the raw upstream error payload.
	Body string
	Err  error
}

func (e *ServiceError) Error() string {
	if e.Body != "" {
		return e.Body
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// CancellationError is returned when the caller's context is done before the
// result was collected. The remote job is left running.
type CancellationError struct {
	Err error
}

func (e *CancellationError) Error() string {
	return "query cancelled by user"
}

func (e *CancellationError) Unwrap() error {
	return e.Err
}

// UnexpectedError wraps everything that is neither a service error nor a
// cancellation, e.g. a malformed reply.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected error: %s", e.Err)
}

func (e *UnexpectedError) Unwrap() error {
	return e.Err
}

func unexpectedf(format string, args ...any) error {
	return &UnexpectedError{Err: fmt.Errorf(format, args...)}
}

// classify turns an error returned by the job service into one of the three
// error kinds. Cancellation wins over anything the transport reported.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &CancellationError{Err: ctxErr}
	}

	var (
		svcErr *ServiceError
		cErr   *CancellationError
		uErr   *UnexpectedError
	)
	switch {
	case errors.As(err, &cErr):
		return cErr
	case errors.As(err, &svcErr):
		return svcErr
	case errors.As(err, &uErr):
		return uErr
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &ServiceError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Body:    apiErr.Body,
			Err:     err,
		}
	}

	// transport failures (dns, tls, per-request timeout) surface synchronously
	return &ServiceError{Message: err.Error(), Err: err}
}
