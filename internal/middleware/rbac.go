package middleware

import (
	"github.com/valyala/fasthttp"

	"github.com/taskhub/backend/domain"
)

// RequireRole rejects requests whose principal ranks below the required
// role. Must run after Authenticate.
func RequireRole(required domain.Role) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			principal, ok := Principal(ctx)
			if !ok {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}
			if !principal.Role.HasAtLeast(required) {
				ctx.SetStatusCode(fasthttp.StatusForbidden)
				return
			}
			next(ctx)
		}
	}
}
