package command

import "context"

// Request carries everything a handler or middleware sees for one
// invocation: the validated input, the resolved configuration, the command's
// metadata, and the execution context values. Values is extended
// copy-on-write as the chain progresses; a single Request is never shared
// across concurrent invocations.
type Request struct {
	Input    map[string]any
	Config   map[string]any
	Metadata map[string]any
	Values   map[string]any
}

// extend returns a copy of the request whose Values map has patch merged in
// at the top level. The receiver is left untouched so upstream middleware
// keeps its own view of the context.
func (r *Request) extend(patch map[string]any) *Request {
	next := *r
	next.Values = make(map[string]any, len(r.Values)+len(patch))
	for k, v := range r.Values {
		next.Values[k] = v
	}
	for k, v := range patch {
		next.Values[k] = v
	}
	return &next
}

// Handler is the terminal operation of a command.
type Handler func(ctx context.Context, req *Request) (any, error)

// Next is the continuation handed to a middleware. Calling it merges patch
// into the context values seen downstream and runs the next link. A
// middleware that never calls Next short-circuits the chain, which is a
// deliberate capability (authorization gates, cached results).
type Next func(patch map[string]any) (any, error)

// Middleware is a named interceptor. A well-behaved middleware invokes next
// exactly once, but the contract allows zero or several calls.
type Middleware struct {
	Name string
	Fn   func(ctx context.Context, req *Request, next Next) (any, error)
}

// Chain composes the middleware sequence around the handler, in order:
// mws[0] is the outermost link and the handler is the innermost. The fold
// runs once per invocation; an empty sequence yields the handler itself.
func Chain(mws []Middleware, h Handler) Handler {
	wrapped := h
	for i := len(mws) - 1; i >= 0; i-- {
		mw := mws[i]
		downstream := wrapped
		wrapped = func(ctx context.Context, req *Request) (any, error) {
			next := func(patch map[string]any) (any, error) {
				return downstream(ctx, req.extend(patch))
			}
			return mw.Fn(ctx, req, next)
		}
	}
	return wrapped
}
