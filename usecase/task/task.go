package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/policy"
	"github.com/taskhub/backend/repository"
)

type UseCase struct {
	tasks  repository.TaskRepository
	users  repository.UserRepository
	policy *policy.Policy
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, users repository.UserRepository, pol *policy.Policy, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		users:  users,
		policy: pol,
		logger: logger,
	}
}

// CreateInput is a task creation request. The initial share set may be given
// by user ids, emails, or both.
type CreateInput struct {
	Title        string
	Description  string
	Status       domain.TaskStatus
	DueDate      *time.Time
	SharedIDs    []string
	SharedEmails []string
}

func (uc *UseCase) Create(ctx context.Context, actor domain.Principal, in CreateInput) (*domain.Task, error) {
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}
	if len(in.Description) > domain.MaxDescriptionLength {
		return nil, domain.NewError(domain.ErrCodeValidation, "description is too long")
	}
	status := in.Status
	if status == "" {
		status = domain.StatusPending
	}
	if !status.Valid() {
		return nil, domain.NewError(domain.ErrCodeValidation, "status must be pending or completed")
	}

	shared, err := policy.ResolveShareSet(ctx, uc.users, in.SharedIDs, in.SharedEmails, actor.ID)
	if err != nil {
		return nil, err
	}

	task := &domain.Task{
		OwnerID:     actor.ID,
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		DueDate:     in.DueDate,
		SharedWith:  shared,
	}
	return uc.tasks.Create(ctx, task)
}

// List returns the tasks the actor owns or is shared on, optionally
// filtered by status. filter is one of "", "all", "pending", "completed".
func (uc *UseCase) List(ctx context.Context, actor domain.Principal, filter string, limit, offset int) ([]domain.Task, error) {
	var status domain.TaskStatus
	switch filter {
	case "", "all":
	case string(domain.StatusPending), string(domain.StatusCompleted):
		status = domain.TaskStatus(filter)
	default:
		return nil, domain.NewError(domain.ErrCodeValidation, "filter must be all, pending or completed")
	}

	return uc.tasks.List(ctx, repository.TaskFilter{
		ViewerID: actor.ID,
		Status:   status,
		Limit:    limit,
		Offset:   offset,
	})
}

// Get returns a task the actor may view. A task the actor may not view is
// indistinguishable from a missing one.
func (uc *UseCase) Get(ctx context.Context, actor domain.Principal, id string) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !uc.policy.CanView(actor, task) {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

// UpdateInput carries the fields a task update touched. Owner is decoded
// only so an explicit owner-change attempt can be rejected as malformed.
type UpdateInput struct {
	Title        *string
	Description  *string
	Status       *string
	DueDate      *time.Time
	ClearDueDate bool
	SharedIDs    []string
	SharedEmails []string
	SetShared    bool
	Owner        *string
}

func (uc *UseCase) Update(ctx context.Context, actor domain.Principal, id string, in UpdateInput) (*domain.Task, error) {
	// Owner reassignment is malformed input, not an authorization failure.
	if in.Owner != nil {
		return nil, domain.ErrOwnerImmutable
	}

	patch := domain.TaskPatch{
		Title:        in.Title,
		Description:  in.Description,
		DueDate:      in.DueDate,
		ClearDueDate: in.ClearDueDate,
	}
	if in.Title != nil {
		if err := validateTitle(*in.Title); err != nil {
			return nil, err
		}
	}
	if in.Description != nil && len(*in.Description) > domain.MaxDescriptionLength {
		return nil, domain.NewError(domain.ErrCodeValidation, "description is too long")
	}
	if in.Status != nil {
		status := domain.TaskStatus(*in.Status)
		if !status.Valid() {
			return nil, domain.NewError(domain.ErrCodeValidation, "status must be pending or completed")
		}
		patch.Status = &status
	}
	if in.SetShared {
		shared, err := policy.ResolveShareSet(ctx, uc.users, in.SharedIDs, in.SharedEmails, actor.ID)
		if err != nil {
			return nil, err
		}
		patch.SharedWith = shared
		patch.SetShared = true
	}
	if patch.IsEmpty() {
		return nil, domain.NewError(domain.ErrCodeValidation, "no changes supplied")
	}

	pred := repository.AccessOwner
	if policy.ClassifyUpdate(patch) == policy.UpdateStatusOnly {
		pred = repository.AccessOwnerOrShared
	}

	return uc.tasks.UpdateOne(ctx, id, actor.ID, pred, patch)
}

// Delete removes a task; only the owner ever matches the filtered delete.
func (uc *UseCase) Delete(ctx context.Context, actor domain.Principal, id string) error {
	return uc.tasks.DeleteOwned(ctx, id, actor.ID)
}

// Share grants the named users view and status rights on the task.
func (uc *UseCase) Share(ctx context.Context, actor domain.Principal, id string, emails []string) (*domain.Task, error) {
	if len(emails) == 0 {
		return nil, domain.NewError(domain.ErrCodeValidation, "emails must be a non-empty list")
	}
	ids, err := policy.ResolveShareSet(ctx, uc.users, nil, emails, actor.ID)
	if err != nil {
		return nil, err
	}
	return uc.tasks.AddShares(ctx, id, actor.ID, ids)
}

// Unshare revokes the named users' access. Unsharing a user who was not
// shared is a no-op.
func (uc *UseCase) Unshare(ctx context.Context, actor domain.Principal, id string, emails []string) (*domain.Task, error) {
	if len(emails) == 0 {
		return nil, domain.NewError(domain.ErrCodeValidation, "emails must be a non-empty list")
	}
	ids, err := policy.ResolveShareSet(ctx, uc.users, nil, emails, actor.ID)
	if err != nil {
		return nil, err
	}
	return uc.tasks.RemoveShares(ctx, id, actor.ID, ids)
}

func validateTitle(title string) error {
	if title == "" {
		return domain.NewError(domain.ErrCodeValidation, "title is required")
	}
	if len(title) > domain.MaxTitleLength {
		return domain.NewError(domain.ErrCodeValidation, "title is too long")
	}
	return nil
}
