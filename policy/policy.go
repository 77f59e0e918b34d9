// Package policy holds the authorization decisions for tasks and roles.
// Every function here is a pure predicate over (actor, task, requested
// change); enforcement against concurrent writes happens in the repository
// layer via filtered single-row statements, but no mutation may be issued
// before the corresponding decision here has allowed it.
package policy

import (
	"github.com/taskhub/backend/domain"
)

// Config is the protected-identity allow-list, injected at construction so
// deployments (and tests) can vary it without ambient state. Membership is
// recomputed on every check and never cached on the user record.
type Config struct {
	ProtectedEmails map[string]struct{}
	ProtectedIDs    map[string]struct{}
}

// NewConfig normalizes the raw allow-lists from configuration.
func NewConfig(emails, ids []string) Config {
	cfg := Config{
		ProtectedEmails: make(map[string]struct{}, len(emails)),
		ProtectedIDs:    make(map[string]struct{}, len(ids)),
	}
	for _, e := range emails {
		if norm := domain.NormalizeEmail(e); norm != "" {
			cfg.ProtectedEmails[norm] = struct{}{}
		}
	}
	for _, id := range ids {
		if id != "" {
			cfg.ProtectedIDs[id] = struct{}{}
		}
	}
	return cfg
}

// Policy evaluates authorization decisions against the injected config.
type Policy struct {
	cfg Config
}

func New(cfg Config) *Policy {
	return &Policy{cfg: cfg}
}

// IsProtected reports whether the identity is on the configured allow-list,
// by normalized email or by id.
func (p *Policy) IsProtected(id, email string) bool {
	if norm := domain.NormalizeEmail(email); norm != "" {
		if _, ok := p.cfg.ProtectedEmails[norm]; ok {
			return true
		}
	}
	if id != "" {
		if _, ok := p.cfg.ProtectedIDs[id]; ok {
			return true
		}
	}
	return false
}

// CanView holds iff the actor owns the task or appears in its shared-with set.
func (p *Policy) CanView(actor domain.Principal, task *domain.Task) bool {
	if task == nil || actor.ID == "" {
		return false
	}
	return task.OwnerID == actor.ID || task.IsSharedWith(actor.ID)
}

// CanDelete holds only for the owner. Ownership is absolute for deletion;
// admins get no exception.
func (p *Policy) CanDelete(actor domain.Principal, task *domain.Task) bool {
	return task != nil && actor.ID != "" && task.OwnerID == actor.ID
}

// UpdateClass distinguishes the one update shared users may perform from
// everything else.
type UpdateClass int

const (
	// UpdateFull requires ownership.
	UpdateFull UpdateClass = iota
	// UpdateStatusOnly is the status toggle, open to owner and shared users.
	UpdateStatusOnly
)

// ClassifyUpdate returns UpdateStatusOnly iff the patch touches exactly the
// status field; any other touched field makes it a full update.
func ClassifyUpdate(patch domain.TaskPatch) UpdateClass {
	if patch.Status != nil &&
		patch.Title == nil && patch.Description == nil &&
		patch.DueDate == nil && !patch.ClearDueDate && !patch.SetShared {
		return UpdateStatusOnly
	}
	return UpdateFull
}

// CanUpdate decides the classified update for the actor.
func (p *Policy) CanUpdate(actor domain.Principal, task *domain.Task, class UpdateClass) bool {
	if class == UpdateStatusOnly {
		return p.CanView(actor, task)
	}
	return task != nil && actor.ID != "" && task.OwnerID == actor.ID
}

// CanChangeRole decides an admin role-change request. It returns nil when
// allowed, or one of ErrSelfRoleChange, ErrInvalidRole, ErrProtectedTarget.
// Protected identities can only be modified by other protected identities;
// demoting a founding admin takes an out-of-band configuration change.
func (p *Policy) CanChangeRole(actor domain.Principal, target *domain.User, requested domain.Role) error {
	if target == nil {
		return domain.ErrUserNotFound
	}
	if actor.ID == target.ID {
		return domain.ErrSelfRoleChange
	}
	if !requested.Valid() {
		return domain.ErrInvalidRole
	}
	if p.IsProtected(target.ID, target.Email) && !p.IsProtected(actor.ID, actor.Email) {
		return domain.ErrProtectedTarget
	}
	return nil
}
