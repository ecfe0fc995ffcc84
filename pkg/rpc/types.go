// Package rpc defines the wire surface of the Kite provider protocol,
// version 1: the request and response messages for the nine provider
// operations, the CBOR message codec, the gRPC service descriptor, and a
// client for the engine side.
//
// Messages are plain structs marshaled with CBOR rather than generated
// protobuf code; the service descriptor is written out by hand in
// service.go. Resource state crosses the wire as opaque payload blobs and
// is only ever interpreted by the handler layer.
package rpc

// Severity classifies a wire diagnostic.
type Severity string

const (
	// SeverityError marks a failed operation.
	SeverityError Severity = "error"

	// SeverityWarning marks a non-fatal condition.
	SeverityWarning Severity = "warning"
)

// Diagnostic is the wire form of a structured warning or error. It travels
// inside a successful RPC response; transport-level faults are reserved for
// failures below the handler layer.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Summary  string   `json:"summary"`
	Detail   string   `json:"detail,omitempty"`
	Path     []string `json:"path,omitempty"`
}

// PropertySchema describes one attribute of a resource type on the wire.
type PropertySchema struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Computed bool   `json:"computed"`
}

// ResourceSchema is the wire schema of one resource type.
type ResourceSchema struct {
	Version    int              `json:"version"`
	Properties []PropertySchema `json:"properties"`
}

// GetSchemaRequest asks for the schema of every registered resource type.
type GetSchemaRequest struct{}

// GetSchemaResponse carries the provider identity and all resource schemas.
// An empty registry yields an empty map, never an error.
type GetSchemaResponse struct {
	Provider string                    `json:"provider"`
	Version  string                    `json:"version"`
	Schemas  map[string]ResourceSchema `json:"schemas"`
}

// ConfigureRequest carries the provider-level configuration blob.
type ConfigureRequest struct {
	Config []byte `json:"config,omitempty"`
}

// ConfigureResponse reports configuration diagnostics.
type ConfigureResponse struct {
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// ValidateRequest asks a resource type to validate a desired configuration.
type ValidateRequest struct {
	TypeName string `json:"type_name"`
	Config   []byte `json:"config,omitempty"`
}

// ValidateResponse carries validation diagnostics.
type ValidateResponse struct {
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// CreateRequest provisions a new resource from a desired configuration.
type CreateRequest struct {
	TypeName string `json:"type_name"`
	Config   []byte `json:"config,omitempty"`
}

// CreateResponse carries the encoded new state, or diagnostics on failure.
type CreateResponse struct {
	NewState    []byte       `json:"new_state,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// ReadRequest refreshes the state of an existing resource.
type ReadRequest struct {
	TypeName     string `json:"type_name"`
	CurrentState []byte `json:"current_state,omitempty"`
}

// ReadResponse carries the refreshed state. An empty NewState with no error
// diagnostics means the resource no longer exists.
type ReadResponse struct {
	NewState    []byte       `json:"new_state,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// UpdateRequest reconciles a resource to its planned state.
type UpdateRequest struct {
	TypeName     string `json:"type_name"`
	PlannedState []byte `json:"planned_state,omitempty"`
}

// UpdateResponse carries the state after the update.
type UpdateResponse struct {
	NewState    []byte       `json:"new_state,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// DeleteRequest removes a resource.
type DeleteRequest struct {
	TypeName   string `json:"type_name"`
	PriorState []byte `json:"prior_state,omitempty"`
}

// DeleteResponse reports deletion diagnostics. A resource that was already
// gone yields a single warning, not an error.
type DeleteResponse struct {
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// PlanRequest computes the planned state for a change. PriorState is empty
// when the resource does not exist yet.
type PlanRequest struct {
	TypeName      string `json:"type_name"`
	PriorState    []byte `json:"prior_state,omitempty"`
	ProposedState []byte `json:"proposed_state,omitempty"`
}

// PlanResponse carries the planned state.
type PlanResponse struct {
	PlannedState []byte       `json:"planned_state,omitempty"`
	Diagnostics  []Diagnostic `json:"diagnostics,omitempty"`
}

// StopRequest asks the provider to shut down.
type StopRequest struct{}

// StopResponse acknowledges the stop request. The provider exits shortly
// after this response has been delivered.
type StopResponse struct{}
