package codec

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region service
// Full method names of the answer service. Every message is a
// google.protobuf.Struct.
const (
	ServiceName                 = "arbiter.v1.AnswerService"
	MethodCapabilities          = "/arbiter.v1.AnswerService/Capabilities"
	MethodClarificationFallback = "/arbiter.v1.AnswerService/ClarificationFallback"
	MethodGroundingFallback     = "/arbiter.v1.AnswerService/GroundingFallback"
)

// AnswerServiceClient is the client API for the answer service.
type AnswerServiceClient interface {
	Capabilities(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ClarificationFallback(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GroundingFallback(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type answerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAnswerServiceClient binds the answer service to a connection.
func NewAnswerServiceClient(cc grpc.ClientConnInterface) AnswerServiceClient {
	return &answerServiceClient{cc: cc}
}

func (c *answerServiceClient) Capabilities(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodCapabilities, in, opts)
}

func (c *answerServiceClient) ClarificationFallback(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodClarificationFallback, in, opts)
}

func (c *answerServiceClient) GroundingFallback(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGroundingFallback, in, opts)
}

func (c *answerServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
// #endregion service
