package user

import (
	"context"

	"go.uber.org/zap"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/internal/cascade"
	"github.com/taskhub/backend/policy"
	"github.com/taskhub/backend/repository"
)

type UseCase struct {
	users    repository.UserRepository
	cascader *cascade.Cascader
	policy   *policy.Policy
	logger   *zap.Logger
}

func New(users repository.UserRepository, cascader *cascade.Cascader, pol *policy.Policy, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		cascader: cascader,
		policy:   pol,
		logger:   logger,
	}
}

// Directory lists users for the share picker, excluding the caller.
func (uc *UseCase) Directory(ctx context.Context, actor domain.Principal, query string, limit int) ([]domain.User, error) {
	users, err := uc.users.List(ctx, repository.UserFilter{Query: query, Limit: limit})
	if err != nil {
		return nil, err
	}
	out := users[:0]
	for _, u := range users {
		if u.ID != actor.ID {
			out = append(out, u)
		}
	}
	return out, nil
}

// DeleteAccount removes the actor's own account. The cascade runs before
// the user row is deleted so a cascade failure leaves the account and its
// tasks fully intact, with no orphan window.
func (uc *UseCase) DeleteAccount(ctx context.Context, actor domain.Principal) (cascade.Result, error) {
	result, err := uc.cascader.Run(ctx, actor.ID)
	if err != nil {
		return result, err
	}
	if err := uc.users.Delete(ctx, actor.ID); err != nil {
		return result, err
	}
	uc.logger.Info("account deleted", zap.String("user_id", actor.ID))
	return result, nil
}

// DeleteUser is the administrative variant of account deletion, structurally
// identical to self-deletion but guarded by the protected-target rule.
func (uc *UseCase) DeleteUser(ctx context.Context, actor domain.Principal, targetID string) (cascade.Result, error) {
	if actor.ID == targetID {
		return cascade.Result{}, domain.ErrSelfAdminDelete
	}
	target, err := uc.users.GetByID(ctx, targetID)
	if err != nil {
		return cascade.Result{}, err
	}
	if uc.policy.IsProtected(target.ID, target.Email) && !uc.policy.IsProtected(actor.ID, actor.Email) {
		return cascade.Result{}, domain.ErrProtectedTarget
	}

	result, err := uc.cascader.Run(ctx, target.ID)
	if err != nil {
		return result, err
	}
	if err := uc.users.Delete(ctx, target.ID); err != nil {
		return result, err
	}
	uc.logger.Info("account deleted by admin",
		zap.String("user_id", target.ID),
		zap.String("actor_id", actor.ID))
	return result, nil
}

// AdminEntry is a directory row as seen by an admin, with the protected
// flag recomputed from configuration at read time.
type AdminEntry struct {
	User      domain.User
	Protected bool
}

// AdminDirectory lists every user with protected flags, plus whether the
// requesting admin is protected (the UI disables controls accordingly).
type AdminDirectory struct {
	ActorProtected bool
	Users          []AdminEntry
}

func (uc *UseCase) AdminList(ctx context.Context, actor domain.Principal, limit int) (*AdminDirectory, error) {
	users, err := uc.users.List(ctx, repository.UserFilter{Limit: limit})
	if err != nil {
		return nil, err
	}
	dir := &AdminDirectory{
		ActorProtected: uc.policy.IsProtected(actor.ID, actor.Email),
		Users:          make([]AdminEntry, 0, len(users)),
	}
	for _, u := range users {
		dir.Users = append(dir.Users, AdminEntry{
			User:      u,
			Protected: uc.policy.IsProtected(u.ID, u.Email),
		})
	}
	return dir, nil
}

// ChangeRole applies an admin role change after the policy allows it.
func (uc *UseCase) ChangeRole(ctx context.Context, actor domain.Principal, targetID string, role domain.Role) (*domain.User, error) {
	target, err := uc.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := uc.policy.CanChangeRole(actor, target, role); err != nil {
		return nil, err
	}
	updated, err := uc.users.UpdateRole(ctx, target.ID, role)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("role changed",
		zap.String("user_id", updated.ID),
		zap.String("role", string(updated.Role)),
		zap.String("actor_id", actor.ID))
	return updated, nil
}
