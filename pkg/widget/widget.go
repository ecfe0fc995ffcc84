// Package widget is the reference resource implementation shipped with the
// SDK: a trivially small resource type backed by a local SQLite database.
// It exists so provider authors have a complete, runnable example of the
// handler contract, and so the SDK's own integration tests exercise a real
// handler end to end.
package widget

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kitehq/kite-plugin-go/pkg/provider"
)

// TypeName is the resource type name the widget handler registers under.
const TypeName = "widget"

// Widget is the resource state. Name is supplied by the caller; ID is
// assigned by the backend on create.
type Widget struct {
	ID   string `json:"id" kite:"computed"`
	Name string `json:"name"`
}

// Handler implements the widget resource lifecycle over a Store.
type Handler struct {
	store *Store
}

// NewHandler creates a widget handler.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Create assigns an ID and persists the widget.
func (h *Handler) Create(ctx context.Context, config Widget) (Widget, error) {
	config.ID = uuid.NewString()
	if err := h.store.Insert(ctx, config); err != nil {
		return Widget{}, err
	}
	return config, nil
}

// Read refreshes a widget from the store. A widget that has disappeared
// reads as absent, not as an error.
func (h *Handler) Read(ctx context.Context, current Widget) (*Widget, error) {
	w, err := h.store.Get(ctx, current.ID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Update applies the planned state.
func (h *Handler) Update(ctx context.Context, planned Widget) (Widget, error) {
	if err := h.store.Update(ctx, planned); err != nil {
		return Widget{}, err
	}
	return planned, nil
}

// Delete removes the widget, reporting false when it was already gone.
func (h *Handler) Delete(ctx context.Context, prior Widget) (bool, error) {
	return h.store.Delete(ctx, prior.ID)
}

// ValidateConfig requires a non-empty name.
func (h *Handler) ValidateConfig(_ context.Context, config Widget) []provider.Diagnostic {
	if config.Name == "" {
		return []provider.Diagnostic{{
			Severity: provider.SeverityError,
			Summary:  "Missing widget name",
			Detail:   "the name attribute must be a non-empty string",
			Path:     []string{"name"},
		}}
	}
	return nil
}

// PlanChange carries the backend-assigned ID forward from the prior state
// so an update does not appear to replace the widget.
func (h *Handler) PlanChange(_ context.Context, prior *Widget, proposed Widget) (Widget, error) {
	if prior != nil {
		if proposed.ID != "" && proposed.ID != prior.ID {
			return Widget{}, fmt.Errorf("widget id is assigned by the backend and cannot be changed (got %q, have %q)", proposed.ID, prior.ID)
		}
		proposed.ID = prior.ID
	}
	return proposed, nil
}
