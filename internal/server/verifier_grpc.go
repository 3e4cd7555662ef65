package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// The Verifier service carries google.protobuf.Struct payloads in both
// directions, so it needs no generated message types.
const (
	VerifierServiceName           = "kycverify.v1.Verifier"
	VerifierVerifyPersonMethod    = "/kycverify.v1.Verifier/VerifyPerson"
	VerifierGetVerificationMethod = "/kycverify.v1.Verifier/GetVerification"
)

type VerifierServer interface {
	VerifyPerson(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetVerification(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterVerifierServer(s grpc.ServiceRegistrar, srv VerifierServer) {
	s.RegisterService(&VerifierServiceDesc, srv)
}

var VerifierServiceDesc = grpc.ServiceDesc{
	ServiceName: VerifierServiceName,
	HandlerType: (*VerifierServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "VerifyPerson", Handler: verifyPersonHandler},
		{MethodName: "GetVerification", Handler: getVerificationHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "kycverify/v1/verifier.proto",
}

func verifyPersonHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VerifierServer).VerifyPerson(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: VerifierVerifyPersonMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(VerifierServer).VerifyPerson(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getVerificationHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VerifierServer).GetVerification(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: VerifierGetVerificationMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(VerifierServer).GetVerification(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// VerifierClient is the client side of the Verifier service.
type VerifierClient struct {
	cc grpc.ClientConnInterface
}

func NewVerifierClient(cc grpc.ClientConnInterface) *VerifierClient {
	return &VerifierClient{cc: cc}
}

func (c *VerifierClient) VerifyPerson(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, VerifierVerifyPersonMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *VerifierClient) GetVerification(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, VerifierGetVerificationMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
