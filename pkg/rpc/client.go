package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// Client is the engine-side view of a provider. It speaks the same CBOR
// codec the provider serves with.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection to a provider endpoint, usually
// dialed from the address in the handshake line.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// invoke performs one unary call with the protocol codec forced.
func invoke[Resp any](ctx context.Context, c *Client, method string, req any) (*Resp, error) {
	resp := new(Resp)
	err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, resp, grpc.ForceCodec(Codec{}))
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetSchema fetches the schema of every resource type the provider serves.
func (c *Client) GetSchema(ctx context.Context, req *GetSchemaRequest) (*GetSchemaResponse, error) {
	return invoke[GetSchemaResponse](ctx, c, "GetSchema", req)
}

// Configure delivers the provider-level configuration blob.
func (c *Client) Configure(ctx context.Context, req *ConfigureRequest) (*ConfigureResponse, error) {
	return invoke[ConfigureResponse](ctx, c, "Configure", req)
}

// Validate checks a desired resource configuration.
func (c *Client) Validate(ctx context.Context, req *ValidateRequest) (*ValidateResponse, error) {
	return invoke[ValidateResponse](ctx, c, "Validate", req)
}

// Create provisions a new resource.
func (c *Client) Create(ctx context.Context, req *CreateRequest) (*CreateResponse, error) {
	return invoke[CreateResponse](ctx, c, "Create", req)
}

// Read refreshes the state of an existing resource.
func (c *Client) Read(ctx context.Context, req *ReadRequest) (*ReadResponse, error) {
	return invoke[ReadResponse](ctx, c, "Read", req)
}

// Update reconciles a resource to its planned state.
func (c *Client) Update(ctx context.Context, req *UpdateRequest) (*UpdateResponse, error) {
	return invoke[UpdateResponse](ctx, c, "Update", req)
}

// Delete removes a resource.
func (c *Client) Delete(ctx context.Context, req *DeleteRequest) (*DeleteResponse, error) {
	return invoke[DeleteResponse](ctx, c, "Delete", req)
}

// Plan computes the planned state for a change.
func (c *Client) Plan(ctx context.Context, req *PlanRequest) (*PlanResponse, error) {
	return invoke[PlanResponse](ctx, c, "Plan", req)
}

// Stop asks the provider to shut down. The provider acknowledges first and
// exits shortly after.
func (c *Client) Stop(ctx context.Context, req *StopRequest) (*StopResponse, error) {
	return invoke[StopResponse](ctx, c, "Stop", req)
}
