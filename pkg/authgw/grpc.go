package authgw

import (
	"context"
	"errors"

	"go.od2.network/bearergw/pkg/bearer"
	"go.od2.network/bearergw/pkg/oauth2err"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// Interceptor is a gRPC server auth interceptor.
// Tokens are read from the "authorization" metadata.
type Interceptor struct {
	Filter *Filter
}

func (i *Interceptor) intercept(ctx context.Context) (context.Context, error) {
	log := i.Filter.logger()
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		log = log.With(zap.String("remote_addr", p.Addr.String()))
	}
	id, err := i.Filter.authorize(ctx, bearer.MetadataFromContext(ctx), log)
	if err != nil {
		if perr, ok := oauth2err.As(err); ok {
			return ctx, perr.GRPCStatus().Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return ctx, status.Error(codes.DeadlineExceeded, err.Error())
		}
		return ctx, status.Error(codes.Canceled, err.Error())
	}
	return WithIdentity(ctx, id), nil
}

// Unary returns a gRPC unary server interceptor for authentication.
func (i *Interceptor) Unary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		ctx, err = i.intercept(ctx)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// Stream returns a gRPC stream server interceptor for authentication.
func (i *Interceptor) Stream() grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		ctx, err := i.intercept(ss.Context())
		if err != nil {
			return err
		}
		wrappedStream := &serverStream{
			ServerStream: ss,
			ctx:          ctx,
		}
		return handler(srv, wrappedStream)
	}
}

type serverStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the embedded context.
func (s *serverStream) Context() context.Context {
	return s.ctx
}
