package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskhub/backend/api/transport"
	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/internal/middleware"
	"github.com/taskhub/backend/pkg/httpcontext"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

// principal fetches the authenticated identity; a missing one is a bug in
// route wiring, answered with 401 rather than a panic.
func (h baseHandler) principal(ctx *fasthttp.RequestCtx) (domain.Principal, bool) {
	principal, ok := middleware.Principal(ctx)
	if !ok {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), "unauthorized", nil))
	}
	return principal, ok
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)

	var meta interface{}
	var dErr *domain.Error
	if errors.As(err, &dErr) && len(dErr.Refs) > 0 {
		meta = map[string]interface{}{"missing": dErr.Refs}
	}

	h.respondJSON(ctx, status, transport.NewError(code, err.Error(), meta))
}

func (h baseHandler) respondInvalid(ctx *fasthttp.RequestCtx, message string) {
	h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeValidation), message, nil))
}

func mapError(err error) (int, string) {
	var dErr *domain.Error
	if !errors.As(err, &dErr) {
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}

	switch dErr.Code {
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized, string(dErr.Code)
	case domain.ErrCodeForbidden, domain.ErrCodeProtectedTarget:
		return http.StatusForbidden, string(dErr.Code)
	case domain.ErrCodeValidation, domain.ErrCodeMissingRefs, domain.ErrCodeInvalidRole, domain.ErrCodeSelfModification:
		return http.StatusBadRequest, string(dErr.Code)
	case domain.ErrCodeNotFound:
		return http.StatusNotFound, string(dErr.Code)
	case domain.ErrCodeConflict:
		return http.StatusConflict, string(dErr.Code)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}
