// Package mock provides an in-memory adapter with canned responses.
package mock

import (
	"context"
	"sync"

	"github.com/kndndrj/bqrunner/core"
)

var (
	_ core.Adapter = (*Adapter)(nil)
	_ core.Driver  = (*driver)(nil)
)

type AdapterOption func(*Adapter)

// WithResponse registers the answer to a single query.
func WithResponse(query string, resp Response) AdapterOption {
	return func(a *Adapter) {
		a.responses[query] = resp
	}
}

// Adapter answers every query with its registered response, or with the
// fallback one. It remembers the urls it was connected with.
type Adapter struct {
	fallback  Response
	responses map[string]Response

	mu   sync.Mutex
	urls []string
}

func NewAdapter(fallback Response, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		fallback:  fallback,
		responses: make(map[string]Response),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Connect(url string) (core.Driver, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.urls = append(a.urls, url)

	return &driver{adapter: a}, nil
}

// URLs returns every url passed to Connect, in order.
func (a *Adapter) URLs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.urls...)
}

type driver struct {
	adapter *Adapter
}

func (d *driver) Query(ctx context.Context, query string) (core.ResultStream, error) {
	resp, ok := d.adapter.responses[query]
	if !ok {
		resp = d.adapter.fallback
	}

	if resp.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if resp.Err != nil {
		return nil, resp.Err
	}

	return resp.stream(), nil
}

func (d *driver) Close() {}
