// Package middleware wraps the handling of one inbound consultation message
// in a chain of interceptors: logging, validation, rate limiting, error
// mapping and context enrichment.
package middleware

import (
	"context"

	"github.com/sweetpotato0/ai-lawdesk/consult"
	"github.com/sweetpotato0/ai-lawdesk/message"
)

// Context represents the middleware execution context
type Context struct {
	SessionID string

	// Original user input
	Input string

	// History holds the stored turns followed by the inbound user turn.
	History []*message.Message

	// Title is set when the conversation should be (re)titled.
	Title string

	// Reply produced by the engine, or a fixed reply set by a middleware.
	Reply *consult.Reply

	// Error swallowed by the error handler, kept for inspection.
	Error error

	// Metadata for passing data between middlewares
	Metadata map[string]any

	context context.Context
}

// NewContext creates a new middleware context
func NewContext(ctx context.Context, sessionID, input string, history []*message.Message) *Context {
	return &Context{
		SessionID: sessionID,
		Input:     input,
		History:   history,
		Metadata:  make(map[string]any),
		context:   ctx,
	}
}

// Context returns the underlying context.Context
func (c *Context) Context() context.Context {
	if c.context == nil {
		return context.Background()
	}
	return c.context
}

// FirstTurn reports whether the inbound message opens the conversation.
func (c *Context) FirstTurn() bool {
	return len(message.UserTexts(c.History)) <= 1
}

// Middleware defines the interface for middleware components
type Middleware interface {
	// Name returns the name of the middleware for logging and debugging
	Name() string

	// Execute runs the middleware logic. Returning an error stops the chain.
	Execute(ctx *Context, next Handler) error
}

// Handler is the function called to pass control to the next middleware
type Handler func(*Context) error

// MiddlewareChain represents a sequence of middleware to be executed
type MiddlewareChain struct {
	middlewares []Middleware
}

// NewChain creates a new middleware chain
func NewChain(middlewares ...Middleware) *MiddlewareChain {
	return &MiddlewareChain{
		middlewares: middlewares,
	}
}

// Add appends a middleware to the chain
func (c *MiddlewareChain) Add(m Middleware) *MiddlewareChain {
	c.middlewares = append(c.middlewares, m)
	return c
}

// Len returns the number of middlewares in the chain.
func (c *MiddlewareChain) Len() int {
	return len(c.middlewares)
}

// Execute runs all middlewares in the chain
func (c *MiddlewareChain) Execute(ctx *Context, finalHandler Handler) error {
	return c.executeMiddleware(ctx, 0, finalHandler)
}

func (c *MiddlewareChain) executeMiddleware(ctx *Context, index int, finalHandler Handler) error {
	if index >= len(c.middlewares) {
		return finalHandler(ctx)
	}

	nextHandler := func(ctx *Context) error {
		return c.executeMiddleware(ctx, index+1, finalHandler)
	}

	return c.middlewares[index].Execute(ctx, nextHandler)
}
