// Package dispatch implements the provider side of the Kite RPC protocol:
// it looks resource handlers up in the registry, moves payloads across the
// typed handler boundary, and converts every handler-domain failure into
// diagnostics on an otherwise successful response. Only failures below the
// handler layer surface as transport faults, so the engine never needs a
// second error channel.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/kitehq/kite-plugin-go/pkg/provider"
	"github.com/kitehq/kite-plugin-go/pkg/rpc"
	"github.com/kitehq/kite-plugin-go/pkg/schema"
	"github.com/kitehq/kite-plugin-go/pkg/telemetry"
)

// DefaultStopDelay is how long after acknowledging a Stop request the
// shutdown trigger fires. The delay exists so the response reaches the
// engine before the transport goes away; firing before responding would
// turn a clean stop into a transport error on the engine side.
const DefaultStopDelay = 100 * time.Millisecond

// Options configures a Dispatcher.
type Options struct {
	// Logger receives per-operation debug logging.
	Logger zerolog.Logger

	// Metrics records diagnostic counts. May be nil.
	Metrics *telemetry.Metrics

	// Tracer produces per-operation spans. May be nil.
	Tracer *telemetry.Tracer

	// OnStop triggers the lifecycle manager's shutdown. It is invoked
	// StopDelay after a Stop response has been produced.
	OnStop func()

	// StopDelay overrides DefaultStopDelay when positive.
	StopDelay time.Duration
}

// Dispatcher implements rpc.ProviderServer over a provider registry.
type Dispatcher struct {
	reg       *provider.Registry
	log       zerolog.Logger
	metrics   *telemetry.Metrics
	tracer    *telemetry.Tracer
	onStop    func()
	stopDelay time.Duration
}

// New creates a dispatcher for the given registry.
func New(reg *provider.Registry, opts Options) *Dispatcher {
	delay := opts.StopDelay
	if delay <= 0 {
		delay = DefaultStopDelay
	}
	return &Dispatcher{
		reg:       reg,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		tracer:    opts.Tracer,
		onStop:    opts.OnStop,
		stopDelay: delay,
	}
}

var _ rpc.ProviderServer = (*Dispatcher)(nil)

// GetSchema returns the schema of every registered resource type. It has
// no failure mode: an empty registry produces an empty schema map.
func (d *Dispatcher) GetSchema(ctx context.Context, _ *rpc.GetSchemaRequest) (*rpc.GetSchemaResponse, error) {
	_, span := d.startSpan(ctx, "get_schema", "")
	defer span.End()

	schemas := make(map[string]rpc.ResourceSchema)
	for name, s := range d.reg.Schemas() {
		schemas[name] = wireSchema(s)
	}
	return &rpc.GetSchemaResponse{
		Provider: d.reg.Name(),
		Version:  d.reg.Version(),
		Schemas:  schemas,
	}, nil
}

// Configure hands the provider-level configuration blob to the provider's
// configure hook.
func (d *Dispatcher) Configure(ctx context.Context, req *rpc.ConfigureRequest) (*rpc.ConfigureResponse, error) {
	ctx, span := d.startSpan(ctx, "configure", "")
	defer span.End()

	if err := d.reg.Configure(ctx, req.Config); err != nil {
		telemetry.RecordError(span, err)
		return &rpc.ConfigureResponse{Diagnostics: d.errorDiagnostics("Provider configuration failed", err)}, nil
	}
	return &rpc.ConfigureResponse{}, nil
}

// Validate runs a resource type's validation over a desired configuration.
func (d *Dispatcher) Validate(ctx context.Context, req *rpc.ValidateRequest) (*rpc.ValidateResponse, error) {
	ctx, span := d.startSpan(ctx, "validate", req.TypeName)
	defer span.End()

	res, ok := d.reg.Lookup(req.TypeName)
	if !ok {
		return &rpc.ValidateResponse{Diagnostics: d.unknownType(req.TypeName)}, nil
	}
	diags, err := res.Validate(ctx, req.Config)
	if err != nil {
		telemetry.RecordError(span, err)
		return &rpc.ValidateResponse{Diagnostics: d.errorDiagnostics("Validation failed", err)}, nil
	}
	return &rpc.ValidateResponse{Diagnostics: d.wireDiagnostics(diags)}, nil
}

// Create provisions a new resource and returns its encoded new state.
func (d *Dispatcher) Create(ctx context.Context, req *rpc.CreateRequest) (*rpc.CreateResponse, error) {
	ctx, span := d.startSpan(ctx, "create", req.TypeName)
	defer span.End()

	res, ok := d.reg.Lookup(req.TypeName)
	if !ok {
		return &rpc.CreateResponse{Diagnostics: d.unknownType(req.TypeName)}, nil
	}
	newState, err := res.Create(ctx, req.Config)
	if err != nil {
		telemetry.RecordError(span, err)
		return &rpc.CreateResponse{Diagnostics: d.errorDiagnostics("Create failed", err)}, nil
	}
	return &rpc.CreateResponse{NewState: newState}, nil
}

// Read refreshes a resource's state. A response with no new state and no
// error diagnostics means the resource no longer exists.
func (d *Dispatcher) Read(ctx context.Context, req *rpc.ReadRequest) (*rpc.ReadResponse, error) {
	ctx, span := d.startSpan(ctx, "read", req.TypeName)
	defer span.End()

	res, ok := d.reg.Lookup(req.TypeName)
	if !ok {
		return &rpc.ReadResponse{Diagnostics: d.unknownType(req.TypeName)}, nil
	}
	newState, err := res.Read(ctx, req.CurrentState)
	if err != nil {
		telemetry.RecordError(span, err)
		return &rpc.ReadResponse{Diagnostics: d.errorDiagnostics("Read failed", err)}, nil
	}
	return &rpc.ReadResponse{NewState: newState}, nil
}

// Update reconciles a resource to its planned state.
func (d *Dispatcher) Update(ctx context.Context, req *rpc.UpdateRequest) (*rpc.UpdateResponse, error) {
	ctx, span := d.startSpan(ctx, "update", req.TypeName)
	defer span.End()

	res, ok := d.reg.Lookup(req.TypeName)
	if !ok {
		return &rpc.UpdateResponse{Diagnostics: d.unknownType(req.TypeName)}, nil
	}
	newState, err := res.Update(ctx, req.PlannedState)
	if err != nil {
		telemetry.RecordError(span, err)
		return &rpc.UpdateResponse{Diagnostics: d.errorDiagnostics("Update failed", err)}, nil
	}
	return &rpc.UpdateResponse{NewState: newState}, nil
}

// Delete removes a resource. A resource that was already gone yields a
// warning, not an error: the caller must be able to tell "nothing to do"
// from "something went wrong".
func (d *Dispatcher) Delete(ctx context.Context, req *rpc.DeleteRequest) (*rpc.DeleteResponse, error) {
	ctx, span := d.startSpan(ctx, "delete", req.TypeName)
	defer span.End()

	res, ok := d.reg.Lookup(req.TypeName)
	if !ok {
		return &rpc.DeleteResponse{Diagnostics: d.unknownType(req.TypeName)}, nil
	}
	deleted, err := res.Delete(ctx, req.PriorState)
	if err != nil {
		telemetry.RecordError(span, err)
		return &rpc.DeleteResponse{Diagnostics: d.errorDiagnostics("Delete failed", err)}, nil
	}
	if !deleted {
		d.metrics.ObserveDiagnostic(string(rpc.SeverityWarning))
		return &rpc.DeleteResponse{Diagnostics: []rpc.Diagnostic{{
			Severity: rpc.SeverityWarning,
			Summary:  "Resource not found",
			Detail:   fmt.Sprintf("no %s resource matched the prior state; nothing was deleted", req.TypeName),
		}}}, nil
	}
	return &rpc.DeleteResponse{}, nil
}

// Plan computes the planned state for a change. The prior state may be
// legitimately absent (the create case) and is passed through as absent,
// never as a zero value.
func (d *Dispatcher) Plan(ctx context.Context, req *rpc.PlanRequest) (*rpc.PlanResponse, error) {
	ctx, span := d.startSpan(ctx, "plan", req.TypeName)
	defer span.End()

	res, ok := d.reg.Lookup(req.TypeName)
	if !ok {
		return &rpc.PlanResponse{Diagnostics: d.unknownType(req.TypeName)}, nil
	}
	planned, err := res.Plan(ctx, req.PriorState, req.ProposedState)
	if err != nil {
		telemetry.RecordError(span, err)
		return &rpc.PlanResponse{Diagnostics: d.errorDiagnostics("Plan failed", err)}, nil
	}
	return &rpc.PlanResponse{PlannedState: planned}, nil
}

// Stop acknowledges the stop request and schedules shutdown to fire after
// the response has gone out. Stop-hook failures are logged, never
// surfaced: stop always succeeds from the engine's point of view.
func (d *Dispatcher) Stop(ctx context.Context, _ *rpc.StopRequest) (*rpc.StopResponse, error) {
	ctx, span := d.startSpan(ctx, "stop", "")
	defer span.End()

	if err := d.reg.Stop(ctx); err != nil {
		d.log.Warn().Err(err).Msg("provider stop hook failed")
	}
	if d.onStop != nil {
		time.AfterFunc(d.stopDelay, d.onStop)
	}
	return &rpc.StopResponse{}, nil
}

// unknownType builds the single error diagnostic every operation returns
// for an unregistered resource type name.
func (d *Dispatcher) unknownType(typeName string) []rpc.Diagnostic {
	d.metrics.ObserveDiagnostic(string(rpc.SeverityError))
	return []rpc.Diagnostic{{
		Severity: rpc.SeverityError,
		Summary:  "Unknown resource type",
		Detail:   fmt.Sprintf("no handler is registered for resource type %q", typeName),
	}}
}

// errorDiagnostics converts a handler-domain failure into a single error
// diagnostic carrying the failure message.
func (d *Dispatcher) errorDiagnostics(summary string, err error) []rpc.Diagnostic {
	d.metrics.ObserveDiagnostic(string(rpc.SeverityError))
	return []rpc.Diagnostic{{
		Severity: rpc.SeverityError,
		Summary:  summary,
		Detail:   err.Error(),
	}}
}

// wireDiagnostics translates handler diagnostics into their wire form.
func (d *Dispatcher) wireDiagnostics(diags []provider.Diagnostic) []rpc.Diagnostic {
	if len(diags) == 0 {
		return nil
	}
	out := make([]rpc.Diagnostic, len(diags))
	for i, diag := range diags {
		d.metrics.ObserveDiagnostic(string(diag.Severity))
		out[i] = rpc.Diagnostic{
			Severity: rpc.Severity(diag.Severity),
			Summary:  diag.Summary,
			Detail:   diag.Detail,
			Path:     diag.Path,
		}
	}
	return out
}

// wireSchema translates a derived schema into its wire form.
func wireSchema(s schema.Schema) rpc.ResourceSchema {
	out := rpc.ResourceSchema{Version: s.Version}
	for _, p := range s.Properties {
		out.Properties = append(out.Properties, rpc.PropertySchema{
			Name:     p.Name,
			Type:     p.Type,
			Required: p.Required,
			Computed: p.Computed,
		})
	}
	return out
}

// startSpan begins a per-operation span, or a no-op span when tracing is
// not configured.
func (d *Dispatcher) startSpan(ctx context.Context, operation, typeName string) (context.Context, trace.Span) {
	if d.tracer == nil {
		return ctx, trace.SpanFromContext(context.Background())
	}
	return d.tracer.StartOperation(ctx, operation, typeName)
}
