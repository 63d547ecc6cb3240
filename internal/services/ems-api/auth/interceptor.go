package auth

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/NordCoder/ems/internal/apperr"
	"github.com/NordCoder/ems/internal/domain/identity"
)

var publicFullMethods = map[string]bool{
	"/grpc.health.v1.Health/Check": true,
	"/grpc.health.v1.Health/Watch": true,
}

func authorization(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get("authorization"); len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

func (g *Gate) authenticateRPC(ctx context.Context) (context.Context, error) {
	id, err := g.Authenticate(ctx, authorization(ctx))
	if err != nil {
		return nil, status.Error(apperr.GRPCCode(err), apperr.PublicMessage(err))
	}
	return identity.WithIdentity(ctx, id), nil
}

func UnaryAuthInterceptor(g *Gate) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if publicFullMethods[info.FullMethod] {
			return next(ctx, req)
		}
		ctx, err := g.authenticateRPC(ctx)
		if err != nil {
			return nil, err
		}
		return next(ctx, req)
	}
}

type identityStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *identityStream) Context() context.Context { return s.ctx }

func StreamAuthInterceptor(g *Gate) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, next grpc.StreamHandler) error {
		if publicFullMethods[info.FullMethod] {
			return next(srv, ss)
		}
		ctx, err := g.authenticateRPC(ss.Context())
		if err != nil {
			return err
		}
		return next(srv, &identityStream{ServerStream: ss, ctx: ctx})
	}
}
