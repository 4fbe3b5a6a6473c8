package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/pitabwire/translationtools/languages"
)

// LanguageUnaryInterceptor puts the language supplied via metadata into the handler context.
func LanguageUnaryInterceptor(reg *languages.Registry) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any,
		_ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		return handler(withLanguage(ctx, reg), req)
	}
}

// LanguageStreamInterceptor is the streaming counterpart of LanguageUnaryInterceptor.
func LanguageStreamInterceptor(reg *languages.Registry) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		languageStream := &serverStreamWrapper{withLanguage(ss.Context(), reg), ss}
		return handler(srv, languageStream)
	}
}

func withLanguage(ctx context.Context, reg *languages.Registry) context.Context {
	ctx = languages.RegistryToContext(ctx, reg)
	return languages.ToContext(ctx, languages.FromIncomingGRPC(ctx, reg))
}

// serverStreamWrapper carries the language aware context for the stream handler.
type serverStreamWrapper struct {
	ctx context.Context
	grpc.ServerStream
}

func (s *serverStreamWrapper) Context() context.Context {
	return s.ctx
}
