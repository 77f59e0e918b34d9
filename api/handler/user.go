package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskhub/backend/api/transport"
	"github.com/taskhub/backend/pkg/httpcontext"
	userUC "github.com/taskhub/backend/usecase/user"
)

type UserHandler struct {
	baseHandler
	uc *userUC.UseCase
}

func NewUserHandler(uc *userUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List users for the share picker
// @Tags users
// @Router /api/v1/users [get]
func (h *UserHandler) Directory(ctx *fasthttp.RequestCtx) {
	actor, ok := h.principal(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	users, err := h.uc.Directory(stdCtx, actor,
		string(ctx.QueryArgs().Peek("q")),
		parseInt(string(ctx.QueryArgs().Peek("limit")), 200),
	)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	summaries := make([]transport.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, transport.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	h.respondSuccess(ctx, http.StatusOK, summaries)
}

// @Summary Delete the caller's own account and cascade its tasks
// @Tags users
// @Router /api/v1/users/me [delete]
func (h *UserHandler) DeleteMe(ctx *fasthttp.RequestCtx) {
	actor, ok := h.principal(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.DeleteAccount(stdCtx, actor)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"message":             "account deleted",
		"tasks_deleted":       result.TasksDeleted,
		"removed_from_shared": result.SharesPruned,
	})
}
