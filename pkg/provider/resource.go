package provider

import (
	"context"
	"reflect"

	"github.com/kitehq/kite-plugin-go/pkg/payload"
	"github.com/kitehq/kite-plugin-go/pkg/schema"
)

// Resource is the type-erased view of a registered handler that the
// dispatcher works against. Payloads cross this boundary as opaque blobs;
// the typed wrapper created by Register does the decoding and encoding so
// handler authors only ever see their own struct type.
type Resource interface {
	// TypeName returns the resource type name the handler was registered
	// under.
	TypeName() string

	// Schema returns the schema derived at registration.
	Schema() schema.Schema

	// Create decodes config, provisions the resource, and returns the
	// encoded new state.
	Create(ctx context.Context, config []byte) ([]byte, error)

	// Read decodes the current state and refreshes it. A nil result with a
	// nil error is the not-found signal.
	Read(ctx context.Context, current []byte) ([]byte, error)

	// Update decodes the planned state, applies it, and returns the
	// encoded new state.
	Update(ctx context.Context, planned []byte) ([]byte, error)

	// Delete decodes the prior state and removes the resource. False means
	// there was nothing to delete.
	Delete(ctx context.Context, prior []byte) (bool, error)

	// Validate decodes the configuration and runs the handler's validation,
	// if it has any.
	Validate(ctx context.Context, config []byte) ([]Diagnostic, error)

	// Plan computes the planned state from an optional prior state (empty
	// blob means absent) and the proposed state.
	Plan(ctx context.Context, prior, proposed []byte) ([]byte, error)
}

// typedResource adapts a Handler[T] to the erased Resource interface.
type typedResource[T any] struct {
	name    string
	schema  schema.Schema
	handler Handler[T]
}

// newTypedResource derives the schema for T and wraps the handler. A T the
// protocol cannot describe is a configuration error: the provider must not
// start.
func newTypedResource[T any](name string, h Handler[T]) (*typedResource[T], error) {
	derived, err := schema.Derive(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return &typedResource[T]{name: name, schema: derived, handler: h}, nil
}

func (r *typedResource[T]) TypeName() string { return r.name }

func (r *typedResource[T]) Schema() schema.Schema { return r.schema }

func (r *typedResource[T]) Create(ctx context.Context, config []byte) ([]byte, error) {
	var desired T
	if _, err := payload.Decode(config, &desired); err != nil {
		return nil, err
	}
	created, err := r.handler.Create(ctx, desired)
	if err != nil {
		return nil, err
	}
	return payload.Encode(created)
}

func (r *typedResource[T]) Read(ctx context.Context, current []byte) ([]byte, error) {
	var state T
	if _, err := payload.Decode(current, &state); err != nil {
		return nil, err
	}
	refreshed, err := r.handler.Read(ctx, state)
	if err != nil {
		return nil, err
	}
	if refreshed == nil {
		return nil, nil
	}
	return payload.Encode(*refreshed)
}

func (r *typedResource[T]) Update(ctx context.Context, planned []byte) ([]byte, error) {
	var state T
	if _, err := payload.Decode(planned, &state); err != nil {
		return nil, err
	}
	updated, err := r.handler.Update(ctx, state)
	if err != nil {
		return nil, err
	}
	return payload.Encode(updated)
}

func (r *typedResource[T]) Delete(ctx context.Context, prior []byte) (bool, error) {
	var state T
	if _, err := payload.Decode(prior, &state); err != nil {
		return false, err
	}
	return r.handler.Delete(ctx, state)
}

func (r *typedResource[T]) Validate(ctx context.Context, config []byte) ([]Diagnostic, error) {
	validator, ok := r.handler.(Validator[T])
	if !ok {
		return nil, nil
	}
	var desired T
	if _, err := payload.Decode(config, &desired); err != nil {
		return nil, err
	}
	return validator.ValidateConfig(ctx, desired), nil
}

func (r *typedResource[T]) Plan(ctx context.Context, prior, proposed []byte) ([]byte, error) {
	// The proposed state is decoded unconditionally so a malformed payload
	// fails here, not later in Create or Update.
	var proposedState T
	if _, err := payload.Decode(proposed, &proposedState); err != nil {
		return nil, err
	}

	planner, ok := r.handler.(Planner[T])
	if !ok {
		// Default plan policy: the proposed state verbatim.
		return proposed, nil
	}
	var priorState *T
	if len(prior) > 0 {
		priorState = new(T)
		if _, err := payload.Decode(prior, priorState); err != nil {
			return nil, err
		}
	}
	planned, err := planner.PlanChange(ctx, priorState, proposedState)
	if err != nil {
		return nil, err
	}
	return payload.Encode(planned)
}
