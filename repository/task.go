package repository

import (
	"context"

	"github.com/taskhub/backend/domain"
)

// AccessPredicate selects which ownership predicate a filtered task
// statement matches on, alongside the task id. Matching id AND predicate in
// a single statement is the enforcement point against concurrent
// modification: a row the actor may not touch is simply never matched, and
// the caller sees the same NOT_FOUND as for a missing row.
type AccessPredicate int

const (
	// AccessOwner matches only the task owner.
	AccessOwner AccessPredicate = iota
	// AccessOwnerOrShared matches the owner or anyone in shared-with.
	AccessOwnerOrShared
)

type TaskFilter struct {
	// ViewerID restricts to tasks the user owns or is shared on.
	ViewerID string
	Status   domain.TaskStatus
	Limit    int
	Offset   int
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	// UpdateOne applies the patch to the single row matching id and the
	// predicate for actorID, returning the updated task or ErrTaskNotFound.
	UpdateOne(ctx context.Context, id string, actorID string, pred AccessPredicate, patch domain.TaskPatch) (*domain.Task, error)
	// DeleteOwned removes the task only if actorID owns it.
	DeleteOwned(ctx context.Context, id, actorID string) error
	// AddShares unions userIDs into the shared-with set, owner-filtered.
	AddShares(ctx context.Context, id, ownerID string, userIDs []string) (*domain.Task, error)
	// RemoveShares subtracts userIDs from the shared-with set,
	// owner-filtered. Removing absent users is a no-op, not an error.
	RemoveShares(ctx context.Context, id, ownerID string, userIDs []string) (*domain.Task, error)
	// DeleteByOwner and PruneSharedWith are the two cascade bulk operations.
	// Both are idempotent.
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
	PruneSharedWith(ctx context.Context, userID string) (int64, error)
}
