package connect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/pitabwire/translationtools/languages"
)

// LanguageInterceptor implements connect.Interceptor, resolving the language from request headers.
type LanguageInterceptor struct {
	reg *languages.Registry
}

func NewLanguageInterceptor(reg *languages.Registry) *LanguageInterceptor {
	return &LanguageInterceptor{reg: reg}
}

func (l *LanguageInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return next(l.withLanguage(ctx, req.Header()), req)
	}
}

func (l *LanguageInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (l *LanguageInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		return next(l.withLanguage(ctx, conn.RequestHeader()), conn)
	}
}

func (l *LanguageInterceptor) withLanguage(ctx context.Context, header http.Header) context.Context {
	code := l.reg.Default()
	if explicit := header.Get(languages.MetadataKey); l.reg.Has(explicit) {
		code = explicit
	} else if matched, ok := l.reg.Match(header.Values(languages.AcceptLanguage)...); ok {
		code = matched
	}

	ctx = languages.RegistryToContext(ctx, l.reg)
	return languages.ToContext(ctx, code)
}
