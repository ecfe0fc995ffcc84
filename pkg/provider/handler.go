// Package provider defines the contract a resource author implements and
// the registry a provider binary assembles before serving. A handler owns
// the full lifecycle of one resource type; its schema is derived from the
// resource struct once at registration and cached for the life of the
// process.
package provider

import "context"

// Handler implements the lifecycle of one resource type T. All four
// operations are required. Operations are invoked synchronously, one
// goroutine per inbound call, and may block; the handler owns its own
// external I/O.
//
// Errors returned by any operation are converted into error diagnostics on
// the response. They never fail the RPC at the transport level and are
// never retried by this layer.
type Handler[T any] interface {
	// Create provisions a new resource from the desired configuration and
	// returns the full new state, including any backend-assigned values.
	Create(ctx context.Context, config T) (T, error)

	// Read refreshes the state of an existing resource. A nil result means
	// the resource no longer exists; that is not an error.
	Read(ctx context.Context, current T) (*T, error)

	// Update reconciles the resource to the planned state and returns the
	// resulting state.
	Update(ctx context.Context, planned T) (T, error)

	// Delete removes the resource. It returns false when there was nothing
	// to delete, which surfaces as a warning rather than an error.
	Delete(ctx context.Context, prior T) (bool, error)
}

// Validator is optionally implemented by handlers that check configuration
// beyond what the schema expresses. Handlers that do not implement it
// produce no diagnostics.
type Validator[T any] interface {
	// ValidateConfig inspects a desired configuration and returns any
	// diagnostics. Returning an error-severity diagnostic does not abort
	// anything at this layer; the engine decides what to do with it.
	ValidateConfig(ctx context.Context, config T) []Diagnostic
}

// Planner is optionally implemented by handlers that modify the proposed
// state during planning, for example to preserve backend-assigned values
// from the prior state. Handlers that do not implement it plan the proposed
// state verbatim.
//
// prior is nil when the resource does not exist yet (the create case); it
// is never coerced into a zero value.
type Planner[T any] interface {
	PlanChange(ctx context.Context, prior *T, proposed T) (T, error)
}

// ConfigureFunc receives the provider-level configuration blob, decoded
// into a generic map. It runs once, before any resource operation.
type ConfigureFunc func(ctx context.Context, config map[string]any) error

// StopFunc runs when the engine asks the provider to stop. A failure here
// is logged and swallowed: stop always succeeds from the engine's point of
// view.
type StopFunc func(ctx context.Context) error
