// Package httpcontext bridges fasthttp request contexts to stdlib contexts so
// the store and use cases stay transport-agnostic.
package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/crmkit/backend/pkg/logger"
)

type metaKey struct{}

// Meta carries per-request client details for logging and audit.
type Meta struct {
	RemoteAddr string
	UserAgent  string
}

// MetaFrom returns the request metadata attached by the adapter, if any.
func MetaFrom(ctx context.Context) (Meta, bool) {
	m, ok := ctx.Value(metaKey{}).(Meta)
	return m, ok
}

// Adapter derives a deadline-bearing stdlib context from a fasthttp request.
// Every derived context carries a request id (propagated from the client's
// X-Request-ID header or freshly minted) that the logger helpers pick up.
type Adapter struct {
	timeout time.Duration
}

// NewAdapter constructs an adapter enforcing the given per-request timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{timeout: timeout}
}

// Attach builds the request-scoped context and echoes the request id back in
// the response header so clients can correlate.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := requestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set("X-Request-ID", reqID)

	meta := Meta{UserAgent: string(ctx.Request.Header.UserAgent())}
	if addr := ctx.RemoteAddr(); addr != nil {
		meta.RemoteAddr = addr.String()
	}
	stdCtx = context.WithValue(stdCtx, metaKey{}, meta)

	return stdCtx, cancel
}

func requestID(ctx *fasthttp.RequestCtx) string {
	if ctx != nil {
		if header := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Request-ID"))); header != "" {
			return header
		}
	}
	return uuid.NewString()
}
