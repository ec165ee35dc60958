// Package grpc provides the gRPC transport layer for the fleet records service.
//
// The fleet.v1.Records service is declared by hand and exchanges
// google.protobuf.Struct messages, so no code generation step is needed.
package grpc

import (
	"context"
	"log/slog"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mvaleed/carfleet/internal/auth"
	"github.com/mvaleed/carfleet/internal/service"
)

// Server wraps the gRPC server with dependencies
type Server struct {
	grpcServer  *grpc.Server
	health      *health.Server
	services    *service.Services
	authService *service.AuthService
	logger      *slog.Logger
}

// NewServer creates a new gRPC server with all handlers registered
func NewServer(
	services *service.Services,
	authService *service.AuthService,
	logger *slog.Logger,
) *Server {
	s := &Server{
		health:      health.NewServer(),
		services:    services,
		authService: authService,
		logger:      logger,
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			s.loggingInterceptor,
			s.recoveryInterceptor,
			s.authInterceptor,
		),
	)

	RegisterRecordsServer(grpcServer, newRecordsServer(services, authService))
	healthpb.RegisterHealthServer(grpcServer, s.health)
	s.health.SetServingStatus(RecordsServiceName, healthpb.HealthCheckResponse_SERVING)

	s.grpcServer = grpcServer
	return s
}

// Serve starts the gRPC server on the given listener
func (s *Server) Serve(listener net.Listener) error {
	return s.grpcServer.Serve(listener)
}

// GracefulStop marks the service as not serving and drains in-flight calls.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

// loggingInterceptor logs all incoming requests
func (s *Server) loggingInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	s.logger.Info("gRPC request",
		"method", info.FullMethod,
	)

	resp, err := handler(ctx, req)
	if err != nil {
		s.logger.Warn("gRPC request failed",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
		)
	}

	return resp, err
}

// recoveryInterceptor recovers from panics
func (s *Server) recoveryInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("gRPC panic recovered",
				"method", info.FullMethod,
				"panic", r,
			)
			err = status.Error(codes.Internal, "internal server error")
		}
	}()

	return handler(ctx, req)
}

// authInterceptor validates JWT tokens for protected endpoints. User registration
// accepts a token but does not require one.
func (s *Server) authInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	if isPublicCall(info.FullMethod) {
		return handler(ctx, req)
	}

	md, _ := metadata.FromIncomingContext(ctx)
	tokens := md.Get("authorization")
	if len(tokens) == 0 {
		if isRegistration(info.FullMethod, req) {
			return handler(ctx, req)
		}
		return nil, status.Error(codes.Unauthenticated, "missing authorization token")
	}

	token := strings.TrimPrefix(tokens[0], "Bearer ")

	claims, err := s.authService.ValidateToken(ctx, token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	ctx = context.WithValue(ctx, claimsKey{}, claims)

	return handler(ctx, req)
}

// claimsKey is the context key for JWT claims
type claimsKey struct{}

// ClaimsFromContext extracts JWT claims from the context
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims, ok
}

// isPublicCall reports whether a call never needs a token.
func isPublicCall(method string) bool {
	return method == methodPath(methodSignIn) || method == healthpb.Health_Check_FullMethodName
}

// isRegistration reports whether the call adds a user.
func isRegistration(method string, req any) bool {
	in, ok := req.(*structpb.Struct)
	return ok && method == methodPath(methodAdd) && in.GetFields()["entity"].GetStringValue() == "users"
}
