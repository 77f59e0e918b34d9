package middleware

import (
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskhub/backend/domain"
	authUC "github.com/taskhub/backend/usecase/auth"
)

const principalKey = "principal"

// Authenticate resolves the request to an authenticated identity: session
// cookie first, Bearer JWT as fallback. The resolved Principal carries id,
// email and role and is the only identity value handlers ever see.
func Authenticate(auth *authUC.UseCase, cookieName string, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			if sid := string(ctx.Request.Header.Cookie(cookieName)); sid != "" {
				if principal, err := auth.PrincipalFromSession(ctx, sid); err == nil {
					ctx.SetUserValue(principalKey, principal)
					next(ctx)
					return
				}
			}

			token := extractToken(ctx)
			if token == "" {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}
			principal, err := auth.PrincipalFromToken(ctx, token)
			if err != nil {
				logger.Warn("invalid bearer token", zap.Error(err))
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}
			ctx.SetUserValue(principalKey, principal)
			next(ctx)
		}
	}
}

// Principal returns the authenticated identity installed by Authenticate.
func Principal(ctx *fasthttp.RequestCtx) (domain.Principal, bool) {
	principal, ok := ctx.UserValue(principalKey).(domain.Principal)
	return principal, ok && principal.ID != ""
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
