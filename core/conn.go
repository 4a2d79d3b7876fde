package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type (
	// Driver is an interface for a specific database driver
	Driver interface {
		Query(context.Context, string) (ResultStream, error)
		Close()
	}

	// Adapter is an object which allows to connect to database via url
	Adapter interface {
		Connect(url string) (Driver, error)
	}
)

type ConnectionID string

// Connection executes queries on a driver opened from expanded params.
type Connection struct {
	id     ConnectionID
	name   string
	typ    string
	driver Driver
}

func NewConnection(params ConnectionParams, adapter Adapter) (*Connection, error) {
	expanded, err := params.Expand()
	if err != nil {
		return nil, fmt.Errorf("params.Expand: %w", err)
	}

	if expanded.ID == "" {
		expanded.ID = ConnectionID(uuid.New().String())
	}

	driver, err := adapter.Connect(expanded.URL)
	if err != nil {
		return nil, fmt.Errorf("adapter.Connect: %w", err)
	}

	return &Connection{
		id:     expanded.ID,
		name:   expanded.Name,
		typ:    expanded.Type,
		driver: driver,
	}, nil
}

func (c *Connection) GetID() ConnectionID {
	return c.id
}

func (c *Connection) GetName() string {
	return c.name
}

func (c *Connection) GetType() string {
	return c.typ
}

// Execute runs the query asynchronously. onEvent is called for every state
// change of the returned call, in order.
func (c *Connection) Execute(query string, onEvent func(CallState, *Call)) *Call {
	exec := func(ctx context.Context) (ResultStream, error) {
		return c.driver.Query(ctx, query)
	}

	return newCallFromExecutor(exec, query, onEvent)
}

func (c *Connection) Close() {
	c.driver.Close()
}
