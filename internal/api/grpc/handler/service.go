package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "identity.v1.Identity"

// Full method names, as seen by interceptors.
const (
	MethodRegister         = "/" + ServiceName + "/Register"
	MethodAuthenticate     = "/" + ServiceName + "/Authenticate"
	MethodListIdentities   = "/" + ServiceName + "/ListIdentities"
	MethodChangePassword   = "/" + ServiceName + "/ChangePassword"
	MethodPromote          = "/" + ServiceName + "/Promote"
	MethodDemote           = "/" + ServiceName + "/Demote"
	MethodUpdateProfile    = "/" + ServiceName + "/UpdateProfile"
	MethodSoftDelete       = "/" + ServiceName + "/SoftDelete"
	MethodSubmitClientLogs = "/" + ServiceName + "/SubmitClientLogs"
)

// IdentityServer is the server API for the identity.v1.Identity service.
// Requests and responses are google.protobuf.Struct documents.
type IdentityServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Authenticate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListIdentities(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ChangePassword(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Promote(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Demote(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SoftDelete(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitClientLogs(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(IdentityServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(IdentityServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(IdentityServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// IdentityServiceDesc describes the identity.v1.Identity service.
var IdentityServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IdentityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(MethodRegister, IdentityServer.Register)},
		{MethodName: "Authenticate", Handler: unaryHandler(MethodAuthenticate, IdentityServer.Authenticate)},
		{MethodName: "ListIdentities", Handler: unaryHandler(MethodListIdentities, IdentityServer.ListIdentities)},
		{MethodName: "ChangePassword", Handler: unaryHandler(MethodChangePassword, IdentityServer.ChangePassword)},
		{MethodName: "Promote", Handler: unaryHandler(MethodPromote, IdentityServer.Promote)},
		{MethodName: "Demote", Handler: unaryHandler(MethodDemote, IdentityServer.Demote)},
		{MethodName: "UpdateProfile", Handler: unaryHandler(MethodUpdateProfile, IdentityServer.UpdateProfile)},
		{MethodName: "SoftDelete", Handler: unaryHandler(MethodSoftDelete, IdentityServer.SoftDelete)},
		{MethodName: "SubmitClientLogs", Handler: unaryHandler(MethodSubmitClientLogs, IdentityServer.SubmitClientLogs)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "identity/v1/identity.proto",
}

// RegisterIdentityServer registers srv on s.
func RegisterIdentityServer(s grpc.ServiceRegistrar, srv IdentityServer) {
	s.RegisterService(&IdentityServiceDesc, srv)
}
