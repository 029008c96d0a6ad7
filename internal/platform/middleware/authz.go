// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/apperr"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/constants"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/ctxutil"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/respond"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/sec"
)

// TokenVerifier checks an access token and returns its claims.
// [sec.TokenService] implements it.
type TokenVerifier interface {
	VerifyToken(token string) (*sec.AuthClaims, error)
}

var (
	errMalformedAuthorization = apperr.Unauthorized("Authorization header must be 'Bearer <token>'")
	errInvalidAccessToken     = apperr.Unauthorized("Invalid or expired access token")
	errAuthenticationRequired = apperr.Unauthorized("Authentication required")
	errInsufficientScope      = apperr.Forbidden("Insufficient permissions")
)

// Authenticate verifies a bearer access token when one is present.
//
// Requests without an Authorization header continue anonymously; a header
// that is malformed or carries a bad token is rejected with 401 here rather
// than downgraded to anonymous. Verified claims are stored on the context and
// the request logger gains a user_id attribute.
func Authenticate(verifier TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			header := request.Header.Get(constants.HeaderAuthorization)
			if header == "" {
				next.ServeHTTP(writer, request)
				return
			}

			token, ok := bearerToken(header)
			if !ok {
				respond.Error(writer, request, errMalformedAuthorization)
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				respond.Error(writer, request, errInvalidAccessToken.WithCause(err))
				return
			}

			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			ctx = ctxutil.WithLogger(ctx, ctxutil.GetLogger(ctx).With(slog.String("user_id", claims.UserID())))
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// bearerToken splits "Bearer <token>", matching the scheme case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != "" && !strings.ContainsRune(token, ' ')
}

// RequireAuth rejects anonymous requests. Mount it after [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetAuthUser(request.Context()) == nil {
			respond.Error(writer, request, errAuthenticationRequired)
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireScope rejects anonymous requests with 401 and tokens lacking scope
// with 403. Mount it after [Authenticate]; it subsumes [RequireAuth].
func RequireScope(scope sec.Scope) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.GetAuthUser(request.Context())
			switch {
			case claims == nil:
				respond.Error(writer, request, errAuthenticationRequired)
			case !claims.HasScope(scope):
				respond.Error(writer, request, errInsufficientScope)
			default:
				next.ServeHTTP(writer, request)
			}
		})
	}
}
