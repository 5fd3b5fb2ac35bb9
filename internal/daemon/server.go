package daemon

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/heyfriend/heyfriend/internal/api"
	"github.com/heyfriend/heyfriend/internal/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Server manages the gRPC server lifecycle for the backend daemon.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	logger     *zap.Logger
}

// NewServer creates a gRPC server bound to the configured TCP address.
func NewServer(p Params, logger *zap.Logger, svc *api.Service, metrics *Metrics, limiter *Limiter) (*Server, error) {
	addr := p.server().GRPCAddr
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return &Server{
		grpcServer: newGRPCServer(svc, logger, metrics, limiter),
		listener:   listener,
		logger:     logger,
	}, nil
}

// newGRPCServer builds the server and its interceptor chain. Outermost
// first: request logging, metrics, error mapping, principal extraction,
// rate limiting.
func newGRPCServer(svc *api.Service, logger *zap.Logger, metrics *Metrics, limiter *Limiter) *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		loggingInterceptor(logger),
		metrics.UnaryInterceptor(),
		rpc.ErrorInterceptor(),
		rpc.PrincipalInterceptor(),
		limiter.UnaryInterceptor(),
	))
	rpc.Register(srv, svc)
	return srv
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Start begins serving gRPC requests. Blocks until stopped.
func (s *Server) Start() error {
	s.logger.Info("gRPC server starting", zap.String("addr", s.Addr()))
	return s.grpcServer.Serve(s.listener)
}

// Stop performs a graceful shutdown.
func (s *Server) Stop(_ context.Context) {
	s.logger.Info("gRPC server stopping")
	s.grpcServer.GracefulStop()
}

func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("took", time.Since(start)),
		}
		if err != nil {
			logger.Warn("rpc failed", append(fields, zap.Error(err))...)
		} else {
			logger.Debug("rpc", fields...)
		}
		return resp, err
	}
}
