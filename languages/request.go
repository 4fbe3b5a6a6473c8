package languages

import (
	"context"
	"net/http"
	"strings"

	"google.golang.org/grpc/metadata"
)

// Request parameters consulted for an explicit language choice.
const (
	QueryParam     = "lang"
	CookieName     = "lang"
	MetadataKey    = "lang"
	AcceptLanguage = "Accept-Language"
)

// PathLanguage returns the configured language prefixing path, e.g. "de" for "/de/simple/".
func PathLanguage(path string, reg *Registry) (string, bool) {
	if reg == nil {
		return "", false
	}

	segment, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if segment != "" && reg.Has(segment) {
		return segment, true
	}
	return "", false
}

// FromRequest determines the request language. The path prefix is consulted
// only when checkPath is set, then the lang query parameter, the lang cookie
// and the Accept-Language header. The registry default is used last.
// Without a registry no language is determined.
func FromRequest(r *http.Request, reg *Registry, checkPath bool) string {
	if reg == nil {
		return ""
	}

	if checkPath {
		if code, ok := PathLanguage(r.URL.Path, reg); ok {
			return code
		}
	}

	if code := r.URL.Query().Get(QueryParam); reg.Has(code) {
		return code
	}

	if cookie, err := r.Cookie(CookieName); err == nil && reg.Has(cookie.Value) {
		return cookie.Value
	}

	if code, ok := reg.Match(r.Header.Values(AcceptLanguage)...); ok {
		return code
	}

	return reg.Default()
}

// FromIncomingGRPC determines the language from incoming gRPC metadata, an
// explicit lang entry winning over accept-language.
func FromIncomingGRPC(ctx context.Context, reg *Registry) string {
	if reg == nil {
		return ""
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return reg.Default()
	}

	for _, code := range md.Get(MetadataKey) {
		if reg.Has(code) {
			return code
		}
	}

	if code, matched := reg.Match(md.Get(strings.ToLower(AcceptLanguage))...); matched {
		return code
	}

	return reg.Default()
}
