package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kitehq/kite-plugin-go/pkg/payload"
)

type gadget struct {
	ID   string `json:"id" kite:"computed"`
	Name string `json:"name"`
}

// gadgetHandler implements only the required operations, so the default
// validate and plan behavior is what gets exercised.
type gadgetHandler struct {
	store  map[string]gadget
	nextID int
}

func newGadgetHandler() *gadgetHandler {
	return &gadgetHandler{store: make(map[string]gadget)}
}

func (h *gadgetHandler) Create(_ context.Context, config gadget) (gadget, error) {
	h.nextID++
	config.ID = fmt.Sprintf("gadget-%d", h.nextID)
	h.store[config.ID] = config
	return config, nil
}

func (h *gadgetHandler) Read(_ context.Context, current gadget) (*gadget, error) {
	g, ok := h.store[current.ID]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (h *gadgetHandler) Update(_ context.Context, planned gadget) (gadget, error) {
	h.store[planned.ID] = planned
	return planned, nil
}

func (h *gadgetHandler) Delete(_ context.Context, prior gadget) (bool, error) {
	if _, ok := h.store[prior.ID]; !ok {
		return false, nil
	}
	delete(h.store, prior.ID)
	return true, nil
}

// strictHandler layers the optional interfaces on top of gadgetHandler.
type strictHandler struct {
	gadgetHandler
}

func (h *strictHandler) ValidateConfig(_ context.Context, config gadget) []Diagnostic {
	if config.Name == "" {
		return []Diagnostic{ErrorDiagnostic("Missing name", "name must not be empty")}
	}
	return nil
}

func (h *strictHandler) PlanChange(_ context.Context, prior *gadget, proposed gadget) (gadget, error) {
	if prior != nil {
		proposed.ID = prior.ID
	}
	return proposed, nil
}

// scalarHandler is registered with a type the protocol cannot describe.
type scalarHandler struct{}

func (scalarHandler) Create(_ context.Context, s string) (string, error) { return s, nil }
func (scalarHandler) Read(_ context.Context, s string) (*string, error)  { return &s, nil }
func (scalarHandler) Update(_ context.Context, s string) (string, error) { return s, nil }
func (scalarHandler) Delete(_ context.Context, _ string) (bool, error)   { return false, nil }

func TestRegister(t *testing.T) {
	reg := NewRegistry("test", "0.0.1")

	if err := Register(reg, "gadget", newGadgetHandler()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := Register(reg, "gadget", newGadgetHandler()); err == nil {
		t.Error("Register() allowed a duplicate type name")
	}
	if err := Register(reg, "", newGadgetHandler()); err == nil {
		t.Error("Register() allowed an empty type name")
	}

	res, ok := reg.Lookup("gadget")
	if !ok {
		t.Fatal("Lookup() did not find the registered type")
	}
	if res.TypeName() != "gadget" {
		t.Errorf("TypeName() = %q, want %q", res.TypeName(), "gadget")
	}
	if got := len(res.Schema().Properties); got != 2 {
		t.Errorf("schema has %d properties, want 2", got)
	}
}

func TestRegisterUndescribableType(t *testing.T) {
	reg := NewRegistry("test", "0.0.1")
	if err := Register[string](reg, "scalar", scalarHandler{}); err == nil {
		t.Fatal("Register() accepted a non-struct resource type")
	}
}

func TestCreateRoundTrip(t *testing.T) {
	reg := NewRegistry("test", "0.0.1")
	MustRegister(reg, "gadget", newGadgetHandler())
	res, _ := reg.Lookup("gadget")

	config, err := payload.Encode(gadget{Name: "a"})
	if err != nil {
		t.Fatal(err)
	}
	newState, err := res.Create(context.Background(), config)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var created gadget
	if _, err := payload.Decode(newState, &created); err != nil {
		t.Fatalf("decoding new state: %v", err)
	}
	if created.Name != "a" {
		t.Errorf("created.Name = %q, want %q", created.Name, "a")
	}
	if created.ID == "" {
		t.Error("created.ID was not assigned")
	}
}

func TestReadNotFound(t *testing.T) {
	reg := NewRegistry("test", "0.0.1")
	MustRegister(reg, "gadget", newGadgetHandler())
	res, _ := reg.Lookup("gadget")

	current, err := payload.Encode(gadget{ID: "gone"})
	if err != nil {
		t.Fatal(err)
	}
	newState, err := res.Read(context.Background(), current)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if newState != nil {
		t.Errorf("Read() = %x, want nil for a missing resource", newState)
	}
}

func TestDefaultValidate(t *testing.T) {
	reg := NewRegistry("test", "0.0.1")
	MustRegister(reg, "gadget", newGadgetHandler())
	res, _ := reg.Lookup("gadget")

	config, err := payload.Encode(gadget{})
	if err != nil {
		t.Fatal(err)
	}
	diags, err := res.Validate(context.Background(), config)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("default Validate() produced diagnostics: %+v", diags)
	}
}

func TestValidatorOverride(t *testing.T) {
	reg := NewRegistry("test", "0.0.1")
	MustRegister[gadget](reg, "gadget", &strictHandler{})
	res, _ := reg.Lookup("gadget")

	config, err := payload.Encode(gadget{})
	if err != nil {
		t.Fatal(err)
	}
	diags, err := res.Validate(context.Background(), config)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(diags) != 1 || diags[0].Severity != SeverityError {
		t.Errorf("Validate() diagnostics = %+v, want one error", diags)
	}
}

func TestDefaultPlanIsIdentity(t *testing.T) {
	reg := NewRegistry("test", "0.0.1")
	MustRegister(reg, "gadget", newGadgetHandler())
	res, _ := reg.Lookup("gadget")

	proposed, err := payload.Encode(gadget{ID: "gadget-1", Name: "b"})
	if err != nil {
		t.Fatal(err)
	}
	prior, err := payload.Encode(gadget{ID: "gadget-1", Name: "a"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		prior []byte
	}{
		{name: "prior absent", prior: nil},
		{name: "prior present", prior: prior},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			planned, err := res.Plan(context.Background(), tt.prior, proposed)
			if err != nil {
				t.Fatalf("Plan() error = %v", err)
			}
			if !bytes.Equal(planned, proposed) {
				t.Errorf("default Plan() = %x, want the proposed state verbatim %x", planned, proposed)
			}
		})
	}
}

func TestPlanRejectsMalformedProposed(t *testing.T) {
	tests := []struct {
		name    string
		handler Handler[gadget]
	}{
		{name: "default plan", handler: newGadgetHandler()},
		{name: "planner override", handler: &strictHandler{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry("test", "0.0.1")
			MustRegister(reg, "gadget", tt.handler)
			res, _ := reg.Lookup("gadget")

			planned, err := res.Plan(context.Background(), nil, []byte{0xff, 0x00, 0xde, 0xad})
			if err == nil {
				t.Fatalf("Plan() = %x, want a decode error for a malformed proposed state", planned)
			}
			var decErr *payload.DecodeError
			if !errors.As(err, &decErr) {
				t.Errorf("Plan() error = %T, want *payload.DecodeError", err)
			}
		})
	}
}

func TestPlannerOverride(t *testing.T) {
	reg := NewRegistry("test", "0.0.1")
	MustRegister[gadget](reg, "gadget", &strictHandler{})
	res, _ := reg.Lookup("gadget")

	prior, err := payload.Encode(gadget{ID: "gadget-7", Name: "a"})
	if err != nil {
		t.Fatal(err)
	}
	proposed, err := payload.Encode(gadget{Name: "b"})
	if err != nil {
		t.Fatal(err)
	}

	planned, err := res.Plan(context.Background(), prior, proposed)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	var got gadget
	if _, err := payload.Decode(planned, &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != "gadget-7" || got.Name != "b" {
		t.Errorf("planned = %+v, want ID carried forward and name updated", got)
	}
}

func TestConfigureHook(t *testing.T) {
	var seen map[string]any
	reg := NewRegistry("test", "0.0.1", WithConfigure(func(_ context.Context, config map[string]any) error {
		seen = config
		return nil
	}))

	blob, err := payload.Encode(map[string]any{"region": "eu-west-1"})
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.Configure(context.Background(), blob); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if seen["region"] != "eu-west-1" {
		t.Errorf("configure hook saw %+v", seen)
	}

	if err := reg.Configure(context.Background(), []byte{0xff, 0x00}); err == nil {
		t.Error("Configure() accepted a malformed blob")
	}
}

func TestStopHook(t *testing.T) {
	called := false
	reg := NewRegistry("test", "0.0.1", WithStop(func(context.Context) error {
		called = true
		return nil
	}))
	if err := reg.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !called {
		t.Error("stop hook was not invoked")
	}

	// A registry without hooks accepts both calls.
	bare := NewRegistry("bare", "0.0.1")
	if err := bare.Configure(context.Background(), nil); err != nil {
		t.Errorf("Configure() without hook error = %v", err)
	}
	if err := bare.Stop(context.Background()); err != nil {
		t.Errorf("Stop() without hook error = %v", err)
	}
}
