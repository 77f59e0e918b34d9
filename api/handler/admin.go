package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskhub/backend/api/transport"
	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/pkg/httpcontext"
	userUC "github.com/taskhub/backend/usecase/user"
)

type AdminHandler struct {
	baseHandler
	uc *userUC.UseCase
}

func NewAdminHandler(uc *userUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List all users with protected flags
// @Tags admin
// @Router /api/v1/admin/users [get]
func (h *AdminHandler) ListUsers(ctx *fasthttp.RequestCtx) {
	actor, ok := h.principal(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	dir, err := h.uc.AdminList(stdCtx, actor, parseInt(string(ctx.QueryArgs().Peek("limit")), 200))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	users := make([]transport.AdminUser, 0, len(dir.Users))
	for _, entry := range dir.Users {
		users = append(users, transport.AdminUser{
			ID:        entry.User.ID,
			Name:      entry.User.Name,
			Email:     entry.User.Email,
			Role:      string(entry.User.Role),
			Protected: entry.Protected,
			CreatedAt: entry.User.CreatedAt.Format(time.RFC3339),
		})
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"actor_protected": dir.ActorProtected,
		"users":           users,
	})
}

// @Summary Change a user's role
// @Tags admin
// @Router /api/v1/admin/users/{id}/role [patch]
func (h *AdminHandler) SetRole(ctx *fasthttp.RequestCtx) {
	actor, ok := h.principal(ctx)
	if !ok {
		return
	}
	targetID, _ := ctx.UserValue("id").(string)
	if targetID == "" {
		h.respondInvalid(ctx, "missing user id")
		return
	}

	var req transport.RoleChangeRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.ChangeRole(stdCtx, actor, targetID, domain.Role(req.Role))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete a user account and cascade its tasks
// @Tags admin
// @Router /api/v1/admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(ctx *fasthttp.RequestCtx) {
	actor, ok := h.principal(ctx)
	if !ok {
		return
	}
	targetID, _ := ctx.UserValue("id").(string)
	if targetID == "" {
		h.respondInvalid(ctx, "missing user id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.DeleteUser(stdCtx, actor, targetID)
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
