package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ slog.LogValuer = (*Call)(nil)

type (
	CallID string

	// Call is a single asynchronous execution of a query on a connection.
	Call struct {
		id        CallID
		query     string
		timestamp time.Time

		mu        sync.RWMutex
		state     CallState
		timeTaken time.Duration
		// any error that might occur during execution
		err    error
		result *Result

		cancelFunc func()
		done       chan struct{}
	}
)

func newCallFromExecutor(executor func(context.Context) (ResultStream, error), query string, onEvent func(CallState, *Call)) *Call {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Call{
		id:         CallID(uuid.New().String()),
		query:      query,
		state:      CallStateUnknown,
		timestamp:  time.Now(),
		cancelFunc: cancel,
		done:       make(chan struct{}),
	}

	eventsCh := make(chan CallState, 10)

	// event function handler, done is closed once every event was handled
	go func() {
		defer close(c.done)
		for state := range eventsCh {
			if onEvent != nil {
				onEvent(state, c)
			}
		}
	}()

	go func() {
		defer close(eventsCh)
		defer cancel()

		emit := func(state CallState, res *Result, err error) {
			c.mu.Lock()
			c.state = state
			c.result = res
			c.err = err
			if state.IsFinal() {
				c.timeTaken = time.Since(c.timestamp)
			}
			c.mu.Unlock()

			eventsCh <- state
		}

		failed := func(state CallState, err error) {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				state = CallStateCanceled
			}
			emit(state, nil, err)
		}

		emit(CallStateExecuting, nil, nil)
		iter, err := executor(ctx)
		if err != nil {
			failed(CallStateExecutingFailed, err)
			return
		}

		res, err := drain(iter, func() { emit(CallStateRetrieving, nil, nil) })
		if err != nil {
			failed(CallStateRetrievingFailed, err)
			return
		}

		emit(CallStateRetrieved, res, nil)
	}()

	return c
}

func (c *Call) GetID() CallID {
	return c.id
}

func (c *Call) GetState() CallState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Call) GetTimeTaken() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.timeTaken
}

func (c *Call) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Done returns a non-buffered channel that is closed when
// call finishes and all events were delivered.
func (c *Call) Done() chan struct{} {
	return c.done
}

// Cancel stops a call which is still executing. The result of a call which
// already started retrieving is kept.
func (c *Call) Cancel() {
	if c.GetState() > CallStateExecuting {
		return
	}
	c.cancelFunc()
}

// GetResult returns the result of a retrieved call.
func (c *Call) GetResult() (*Result, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.result == nil {
		return nil, fmt.Errorf("call is %s and has no result", c.state)
	}
	return c.result, nil
}

// LogValue groups the call attributes under a single log key.
func (c *Call) LogValue() slog.Value {
	c.mu.RLock()
	defer c.mu.RUnlock()

	attrs := []slog.Attr{
		slog.String("id", string(c.id)),
		slog.String("query", c.query),
		slog.String("state", c.state.String()),
		slog.Time("started", c.timestamp),
	}
	if c.state.IsFinal() {
		attrs = append(attrs, slog.Duration("took", c.timeTaken))
	}
	if c.result != nil {
		attrs = append(attrs, slog.Int("rows", c.result.Len()))
	}
	if c.err != nil {
		attrs = append(attrs, slog.String("error", c.err.Error()))
	}

	return slog.GroupValue(attrs...)
}
