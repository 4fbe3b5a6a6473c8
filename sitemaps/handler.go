package sitemaps

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/pitabwire/util"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const contentTypeXML = "application/xml; charset=utf-8"

type handlerOptions struct {
	baseURL string
}

type HandlerOption func(*handlerOptions)

// WithBaseURL fixes the scheme and host of locations, otherwise taken from the request.
func WithBaseURL(baseURL string) HandlerOption {
	return func(o *handlerOptions) {
		o.baseURL = baseURL
	}
}

type handler struct {
	sections map[string]Sitemap
	opts     handlerOptions
}

// Handler serves /sitemap.xml as the index of sections and
// /sitemap-<section>.xml?p=N as the pages of one section.
func Handler(sections map[string]Sitemap, opts ...HandlerOption) http.Handler {
	h := &handler{sections: sections}
	for _, opt := range opts {
		opt(&h.opts)
	}
	return otelhttp.NewHandler(h, "sitemaps")
}

func (h *handler) baseURL(r *http.Request) string {
	if h.opts.baseURL != "" {
		return h.opts.baseURL
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + r.Host
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

	var buf bytes.Buffer
	var err error

	switch {
	case name == "sitemap.xml":
		err = WriteIndex(ctx, &buf, h.baseURL(r), h.sections)
	case strings.HasPrefix(name, "sitemap-") && strings.HasSuffix(name, ".xml"):
		section := strings.TrimSuffix(strings.TrimPrefix(name, "sitemap-"), ".xml")
		sm, ok := h.sections[section]
		if !ok {
			http.NotFound(w, r)
			return
		}

		page := 1
		if p := r.URL.Query().Get("p"); p != "" {
			page, err = strconv.Atoi(p)
			if err != nil || page < 1 {
				http.NotFound(w, r)
				return
			}
		}
		err = Write(ctx, &buf, h.baseURL(r), sm, page)
	default:
		http.NotFound(w, r)
		return
	}

	if err != nil {
		if errors.Is(err, ErrEmptyPage) {
			http.NotFound(w, r)
			return
		}
		util.Log(ctx).WithError(err).WithField("path", r.URL.Path).Error("could not render sitemap")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeXML)
	_, _ = w.Write(buf.Bytes())
}
