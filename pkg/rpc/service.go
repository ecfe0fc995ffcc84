package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name of the provider
// protocol.
const ServiceName = "kite.provider.v1.Provider"

// ProviderServer is the server-side contract of the provider protocol. The
// dispatcher implements it; RegisterProviderServer attaches it to a gRPC
// server.
type ProviderServer interface {
	GetSchema(ctx context.Context, req *GetSchemaRequest) (*GetSchemaResponse, error)
	Configure(ctx context.Context, req *ConfigureRequest) (*ConfigureResponse, error)
	Validate(ctx context.Context, req *ValidateRequest) (*ValidateResponse, error)
	Create(ctx context.Context, req *CreateRequest) (*CreateResponse, error)
	Read(ctx context.Context, req *ReadRequest) (*ReadResponse, error)
	Update(ctx context.Context, req *UpdateRequest) (*UpdateResponse, error)
	Delete(ctx context.Context, req *DeleteRequest) (*DeleteResponse, error)
	Plan(ctx context.Context, req *PlanRequest) (*PlanResponse, error)
	Stop(ctx context.Context, req *StopRequest) (*StopResponse, error)
}

// RegisterProviderServer registers srv under the provider service name.
func RegisterProviderServer(s grpc.ServiceRegistrar, srv ProviderServer) {
	s.RegisterService(&serviceDesc, srv)
}

// unaryHandler adapts one typed server method to the shape gRPC expects
// from generated code, threading any configured interceptor chain.
func unaryHandler[Req, Resp any](
	method string,
	call func(srv ProviderServer, ctx context.Context, req *Req) (*Resp, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	full := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ProviderServer), ctx, req)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
		handler := func(ctx context.Context, r any) (any, error) {
			return call(srv.(ProviderServer), ctx, r.(*Req))
		}
		return interceptor(ctx, req, info, handler)
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProviderServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetSchema",
			Handler: unaryHandler("GetSchema", func(srv ProviderServer, ctx context.Context, req *GetSchemaRequest) (*GetSchemaResponse, error) {
				return srv.GetSchema(ctx, req)
			}),
		},
		{
			MethodName: "Configure",
			Handler: unaryHandler("Configure", func(srv ProviderServer, ctx context.Context, req *ConfigureRequest) (*ConfigureResponse, error) {
				return srv.Configure(ctx, req)
			}),
		},
		{
			MethodName: "Validate",
			Handler: unaryHandler("Validate", func(srv ProviderServer, ctx context.Context, req *ValidateRequest) (*ValidateResponse, error) {
				return srv.Validate(ctx, req)
			}),
		},
		{
			MethodName: "Create",
			Handler: unaryHandler("Create", func(srv ProviderServer, ctx context.Context, req *CreateRequest) (*CreateResponse, error) {
				return srv.Create(ctx, req)
			}),
		},
		{
			MethodName: "Read",
			Handler: unaryHandler("Read", func(srv ProviderServer, ctx context.Context, req *ReadRequest) (*ReadResponse, error) {
				return srv.Read(ctx, req)
			}),
		},
		{
			MethodName: "Update",
			Handler: unaryHandler("Update", func(srv ProviderServer, ctx context.Context, req *UpdateRequest) (*UpdateResponse, error) {
				return srv.Update(ctx, req)
			}),
		},
		{
			MethodName: "Delete",
			Handler: unaryHandler("Delete", func(srv ProviderServer, ctx context.Context, req *DeleteRequest) (*DeleteResponse, error) {
				return srv.Delete(ctx, req)
			}),
		},
		{
			MethodName: "Plan",
			Handler: unaryHandler("Plan", func(srv ProviderServer, ctx context.Context, req *PlanRequest) (*PlanResponse, error) {
				return srv.Plan(ctx, req)
			}),
		},
		{
			MethodName: "Stop",
			Handler: unaryHandler("Stop", func(srv ProviderServer, ctx context.Context, req *StopRequest) (*StopResponse, error) {
				return srv.Stop(ctx, req)
			}),
		},
	},
	Streams: []grpc.StreamDesc{},
}
