package schema

import (
	"reflect"
	"testing"
)

type endpoint struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type widgetSpec struct {
	ID       string            `json:"id" kite:"computed"`
	Name     string            `json:"name"`
	Replicas int               `json:"replicas"`
	Enabled  bool              `json:"enabled"`
	Tags     []string          `json:"tags"`
	Labels   map[string]string `json:"labels"`
	Endpoint endpoint          `json:"endpoint"`
	Extra    any               `json:"extra"`

	Renamed string `cbor:"cb_name" json:"ignored_json"`
	Skipped string `json:"-"`

	hidden string
}

func TestDerive(t *testing.T) {
	s, err := Derive(reflect.TypeOf(widgetSpec{}))
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if s.Version != Version {
		t.Errorf("Version = %d, want %d", s.Version, Version)
	}

	want := []Property{
		{Name: "id", Type: TypeString, Required: true, Computed: true},
		{Name: "name", Type: TypeString, Required: true},
		{Name: "replicas", Type: TypeNumber, Required: true},
		{Name: "enabled", Type: TypeBool, Required: true},
		{Name: "tags", Type: TypeList, Required: true},
		{Name: "labels", Type: TypeMap, Required: true},
		{Name: "endpoint", Type: "endpoint", Required: true},
		{Name: "extra", Type: TypeAny, Required: true},
		{Name: "cb_name", Type: TypeString, Required: true},
	}
	if !reflect.DeepEqual(s.Properties, want) {
		t.Errorf("Properties =\n%+v\nwant\n%+v", s.Properties, want)
	}
}

func TestDerivePointerType(t *testing.T) {
	direct, err := Derive(reflect.TypeOf(widgetSpec{}))
	if err != nil {
		t.Fatal(err)
	}
	viaPointer, err := Derive(reflect.TypeOf(&widgetSpec{}))
	if err != nil {
		t.Fatalf("Derive(pointer) error = %v", err)
	}
	if !reflect.DeepEqual(direct, viaPointer) {
		t.Error("pointer and value types derived different schemas")
	}
}

func TestDeriveNonStruct(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
	}{
		{name: "string", typ: reflect.TypeOf("")},
		{name: "int", typ: reflect.TypeOf(0)},
		{name: "slice", typ: reflect.TypeOf([]string{})},
		{name: "map", typ: reflect.TypeOf(map[string]string{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Derive(tt.typ); err == nil {
				t.Error("Derive() succeeded on a non-struct type")
			}
		})
	}
}

func TestTypeTagFallback(t *testing.T) {
	type odd struct {
		Ch   chan int        `json:"ch"`
		Fn   func()          `json:"fn"`
		Ptr  *string         `json:"ptr"`
		Anon struct{ X int } `json:"anon"`
	}

	s, err := Derive(reflect.TypeOf(odd{}))
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}

	byName := make(map[string]string)
	for _, p := range s.Properties {
		byName[p.Name] = p.Type
	}
	want := map[string]string{
		"ch":   TypeAny,
		"fn":   TypeAny,
		"ptr":  TypeString,
		"anon": TypeMap,
	}
	if !reflect.DeepEqual(byName, want) {
		t.Errorf("type tags = %v, want %v", byName, want)
	}
}
