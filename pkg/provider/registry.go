package provider

import (
	"context"
	"fmt"
	"sort"

	"github.com/kitehq/kite-plugin-go/pkg/payload"
	"github.com/kitehq/kite-plugin-go/pkg/schema"
)

// Registry maps resource type names to handlers and carries the
// provider-level configure and stop hooks. A provider binary populates it
// completely before serving begins; after that it is only read, so lookups
// need no synchronization.
type Registry struct {
	name      string
	version   string
	resources map[string]Resource
	configure ConfigureFunc
	stop      StopFunc
}

// Option customizes a Registry at construction.
type Option func(*Registry)

// WithConfigure installs the provider-level configure hook.
func WithConfigure(fn ConfigureFunc) Option {
	return func(r *Registry) { r.configure = fn }
}

// WithStop installs the provider-level stop hook.
func WithStop(fn StopFunc) Option {
	return func(r *Registry) { r.stop = fn }
}

// NewRegistry creates a registry for a provider with the given identity.
func NewRegistry(name, version string, opts ...Option) *Registry {
	r := &Registry{
		name:      name,
		version:   version,
		resources: make(map[string]Resource),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the provider name.
func (r *Registry) Name() string { return r.name }

// Version returns the provider version.
func (r *Registry) Version() string { return r.version }

// Register adds a handler for a resource type, deriving and caching its
// schema. It fails when the type name is already taken or when T cannot be
// described by the protocol; either way the provider must not start.
func Register[T any](r *Registry, typeName string, h Handler[T]) error {
	if typeName == "" {
		return fmt.Errorf("resource type name must not be empty")
	}
	if _, exists := r.resources[typeName]; exists {
		return fmt.Errorf("resource type %q already registered", typeName)
	}
	res, err := newTypedResource(typeName, h)
	if err != nil {
		return fmt.Errorf("registering resource type %q: %w", typeName, err)
	}
	r.resources[typeName] = res
	return nil
}

// MustRegister is Register for provider startup routines that prefer to
// panic on a configuration error.
func MustRegister[T any](r *Registry, typeName string, h Handler[T]) {
	if err := Register(r, typeName, h); err != nil {
		panic(err)
	}
}

// Lookup returns the resource registered under typeName.
func (r *Registry) Lookup(typeName string) (Resource, bool) {
	res, ok := r.resources[typeName]
	return res, ok
}

// TypeNames returns the registered resource type names in sorted order.
func (r *Registry) TypeNames() []string {
	names := make([]string, 0, len(r.resources))
	for name := range r.resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schemas returns the cached schema of every registered resource type.
func (r *Registry) Schemas() map[string]schema.Schema {
	schemas := make(map[string]schema.Schema, len(r.resources))
	for name, res := range r.resources {
		schemas[name] = res.Schema()
	}
	return schemas
}

// Configure decodes the provider-level configuration blob and hands it to
// the configure hook. Providers without a hook accept any configuration.
func (r *Registry) Configure(ctx context.Context, blob []byte) error {
	if r.configure == nil {
		return nil
	}
	config := make(map[string]any)
	if _, err := payload.Decode(blob, &config); err != nil {
		return err
	}
	return r.configure(ctx, config)
}

// Stop runs the provider-level stop hook, if any.
func (r *Registry) Stop(ctx context.Context) error {
	if r.stop == nil {
		return nil
	}
	return r.stop(ctx)
}
