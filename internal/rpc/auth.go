package rpc

import (
	"context"

	"github.com/heyfriend/heyfriend/internal/backend"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// PrincipalHeader carries the caller identity on every call.
const PrincipalHeader = "x-heyfriend-principal"

// PrincipalInterceptor moves the caller identity from request metadata into
// the context. Calls without one fail with backend.ErrNotReady.
func PrincipalInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		p := principalFromMetadata(ctx)
		if p == "" {
			return nil, backend.ErrNotReady
		}
		return handler(backend.WithPrincipal(ctx, p), req)
	}
}

func principalFromMetadata(ctx context.Context) backend.Principal {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get(PrincipalHeader)
	if len(vals) == 0 {
		return ""
	}
	return backend.Principal(vals[0])
}
