package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/httputil"
	"provenance/pkg/requestcontext"
)

// JWTValidator turns a bearer token into the caller's claims.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims carries only the identity. Roles and subscription state are
// loaded from storage per request, so a stale token cannot widen access.
type JWTClaims struct {
	AccountID id.AccountID
	JTI       string
}

var (
	errMissingBearer = dErrors.New(dErrors.CodeUnauthorized, "missing or malformed bearer token")
	errRejectedToken = dErrors.New(dErrors.CodeUnauthorized, "token rejected")
)

// bearerToken extracts the credential from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireAuth admits requests carrying a valid access token and records the
// authenticated account in the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := bearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "rejected request without bearer token",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, errMissingBearer)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err == nil && claims.AccountID.IsNil() {
				err = errRejectedToken
			}
			if err != nil {
				logger.WarnContext(ctx, "rejected bearer token",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, errRejectedToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithAccountID(ctx, claims.AccountID)))
		})
	}
}
