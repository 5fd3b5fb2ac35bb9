package rpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/heyfriend/heyfriend/internal/backend"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var codeErrors = []struct {
	err  error
	code codes.Code
}{
	{backend.ErrNotFound, codes.NotFound},
	{backend.ErrPermissionDenied, codes.PermissionDenied},
	{backend.ErrAlreadyExists, codes.AlreadyExists},
	{backend.ErrInvalidArgument, codes.InvalidArgument},
	{backend.ErrNotReady, codes.Unauthenticated},
	{backend.ErrUnavailable, codes.Unavailable},
}

// ToStatus converts a backend error into a gRPC status error. Errors that
// already carry a status pass through; unknown errors become Internal.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, ce := range codeErrors {
		if errors.Is(err, ce.err) {
			return status.Error(ce.code, err.Error())
		}
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// FromStatus converts a gRPC status error back into an error that matches
// the backend sentinels with errors.Is.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.DeadlineExceeded, codes.ResourceExhausted:
		return fmt.Errorf("%s: %w", st.Message(), backend.ErrUnavailable)
	case codes.Canceled:
		return context.Canceled
	}
	for _, ce := range codeErrors {
		if st.Code() == ce.code {
			return fmt.Errorf("%s: %w", st.Message(), ce.err)
		}
	}
	return fmt.Errorf("backend: %s", st.Message())
}

// ErrorInterceptor maps errors returned by handlers to status codes.
func ErrorInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		return resp, ToStatus(err)
	}
}
