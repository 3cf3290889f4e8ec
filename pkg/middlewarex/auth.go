package middlewarex

import (
	"net/http"
	"strings"

	"git.appkode.ru/pub/go/failure"

	"topar_market/pkg/contextx"
	"topar_market/pkg/errcodes"
	"topar_market/pkg/httpx/reply"
)

const bearerPrefix = "Bearer "

// TokenVerifier checks a bearer credential and resolves the account id it
// was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Auth rejects requests without a valid bearer token and puts the resolved
// user id into the context. Handlers behind it may rely on
// contextx.UserIDFromContext succeeding.
func Auth(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID, err := verifyRequest(verifier, r)
			if err != nil {
				reply.Error(ctx, w, err)

				return
			}

			ctx = contextx.WithUserID(ctx, contextx.UserID(userID))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves the user id when a valid token is present and lets
// the request through anonymously otherwise.
func OptionalAuth(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := verifyRequest(verifier, r)
			if err != nil {
				next.ServeHTTP(w, r)

				return
			}

			ctx := contextx.WithUserID(r.Context(), contextx.UserID(userID))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func verifyRequest(verifier TokenVerifier, r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")

	if !strings.HasPrefix(header, bearerPrefix) {
		return "", failure.NewUnauthorizedError(
			"no bearer token",
			failure.WithCode(errcodes.AccessTokenInvalid),
			failure.WithDescription("No token provided"),
		)
	}

	userID, err := verifier.Verify(strings.TrimPrefix(header, bearerPrefix))
	if err != nil {
		return "", failure.NewUnauthorizedError(
			"token verification: "+err.Error(),
			failure.WithCode(errcodes.AccessTokenInvalid),
			failure.WithDescription("Invalid token"),
		)
	}

	return userID, nil
}
