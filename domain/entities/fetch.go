package entities

import (
	"errors"
	"sync"
)

// ErrAlreadyReleased is returned when a FetchContext is released twice.
var ErrAlreadyReleased = errors.New("fetch context already released")

// FetchContext holds the endpoint and body of a pending network request
// while it crosses an asynchronous boundary. Whoever creates it owns it
// until Release is called; Release must be called exactly once.
//
// The bridge itself never dispatches a FetchContext.
type FetchContext struct {
	endpoint string
	body     string
	mu       sync.Mutex
	released bool
}

// NewFetchContext allocates a context owning copies of endpoint and body.
func NewFetchContext(endpoint, body string) *FetchContext {
	return &FetchContext{endpoint: endpoint, body: body}
}

// Endpoint returns the request endpoint, or "" once released.
func (c *FetchContext) Endpoint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoint
}

// Body returns the request body, or "" once released.
func (c *FetchContext) Body() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.body
}

// Released reports whether Release has been called.
func (c *FetchContext) Released() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

// Release drops both strings and the context itself.
// A second call returns ErrAlreadyReleased and changes nothing.
func (c *FetchContext) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return ErrAlreadyReleased
	}
	c.endpoint = ""
	c.body = ""
	c.released = true
	return nil
}
