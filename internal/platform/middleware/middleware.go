// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package middleware holds the HTTP decorators mounted by the api package.

Order in the router matters:

  - RequestID and ClientIP run first so every log line can be correlated.
  - StructuredLogger emits one access log entry per request.
  - RateLimit, PanicRecovery and CORS guard the handlers.
  - Authenticate, RequireAuth and RequireScope gate by access token.
*/
package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/constants"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/ctxutil"
)

// Middleware is the decorator shape accepted by chi's Use.
type Middleware = func(http.Handler) http.Handler

// # Client Address

// ClientIP resolves the caller address once and stores it on the context.
//
// Proxy headers are honoured only when trustProxy is set; otherwise any
// caller could pick its own rate limit bucket.
func ClientIP(trustProxy bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ip := remoteHost(request.RemoteAddr)
			if trustProxy {
				if forwarded := forwardedFor(request.Header); forwarded != "" {
					ip = forwarded
				}
			}

			ctx := ctxutil.WithClientIP(request.Context(), ip)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// clientAddress returns the address stored by [ClientIP], falling back to the
// socket peer when the middleware is not mounted.
func clientAddress(request *http.Request) string {
	if ip := ctxutil.GetClientIP(request.Context()); ip != "" {
		return ip
	}
	return remoteHost(request.RemoteAddr)
}

func forwardedFor(header http.Header) string {
	if ip := strings.TrimSpace(header.Get(constants.HeaderXRealIP)); ip != "" {
		return ip
	}

	first, _, _ := strings.Cut(header.Get(constants.HeaderXForwardedFor), ",")
	return strings.TrimSpace(first)
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
