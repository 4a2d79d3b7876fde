package adapters

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kndndrj/bqrunner/core"
)

var (
	errNoValidTypeAliases   = errors.New("no valid type aliases provided")
	ErrUnsupportedTypeAlias = errors.New("no driver registered for provided type alias")
)

var (
	registeredMu sync.RWMutex
	// registeredAdapters holds implemented adapters - specific adapters register themselves in their init functions.
	registeredAdapters = make(map[string]core.Adapter)
)

// register registers a new adapter under every non-empty alias
func register(adapter core.Adapter, aliases ...string) error {
	registeredMu.Lock()
	defer registeredMu.Unlock()

	invalidCount := 0
	for _, alias := range aliases {
		if alias == "" {
			invalidCount++
			continue
		}
		registeredAdapters[alias] = adapter
	}

	if invalidCount == len(aliases) {
		return errNoValidTypeAliases
	}

	return nil
}

// Mux is an interface to all internal adapters.
type Mux struct{}

func (*Mux) GetAdapter(typ string) (core.Adapter, error) {
	registeredMu.RLock()
	defer registeredMu.RUnlock()

	value, ok := registeredAdapters[typ]
	if !ok {
		return nil, ErrUnsupportedTypeAlias
	}

	return value, nil
}

// NewConnection is a wrapper around core.NewConnection that picks the adapter
// registered for the expanded type.
func NewConnection(params core.ConnectionParams) (*core.Connection, error) {
	expanded, err := params.Expand()
	if err != nil {
		return nil, fmt.Errorf("params.Expand: %w", err)
	}

	adapter, err := new(Mux).GetAdapter(expanded.Type)
	if err != nil {
		return nil, fmt.Errorf("Mux.GetAdapter: %w", err)
	}

	c, err := core.NewConnection(params, adapter)
	if err != nil {
		return nil, fmt.Errorf("core.NewConnection: %w", err)
	}

	return c, nil
}
