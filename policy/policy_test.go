package policy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/backend/domain"
)

func testPolicy() *Policy {
	return New(NewConfig(
		[]string{"Root@Example.com", "founder@example.com"},
		[]string{"id-root"},
	))
}

func TestIsProtected(t *testing.T) {
	p := testPolicy()

	assert.True(t, p.IsProtected("", "root@example.com"))
	assert.True(t, p.IsProtected("", "ROOT@EXAMPLE.COM"), "email match must be case-insensitive")
	assert.True(t, p.IsProtected("id-root", ""))
	assert.False(t, p.IsProtected("id-other", "someone@example.com"))
	assert.False(t, p.IsProtected("", ""))
}

func TestCanViewAndDelete(t *testing.T) {
	p := testPolicy()
	task := &domain.Task{ID: "t1", OwnerID: "owner", SharedWith: []string{"friend"}}

	owner := domain.Principal{ID: "owner"}
	friend := domain.Principal{ID: "friend"}
	stranger := domain.Principal{ID: "stranger"}
	admin := domain.Principal{ID: "boss", Role: domain.RoleAdmin}

	assert.True(t, p.CanView(owner, task))
	assert.True(t, p.CanView(friend, task))
	assert.False(t, p.CanView(stranger, task))
	assert.False(t, p.CanView(admin, task), "admin role grants no task visibility")

	assert.True(t, p.CanDelete(owner, task))
	assert.False(t, p.CanDelete(friend, task))
	assert.False(t, p.CanDelete(admin, task))

	assert.False(t, p.CanView(owner, nil))
	assert.False(t, p.CanDelete(owner, nil))
	assert.False(t, p.CanView(domain.Principal{}, task), "empty principal never matches")
}

func TestClassifyUpdate(t *testing.T) {
	status := domain.StatusCompleted
	title := "new title"

	assert.Equal(t, UpdateStatusOnly, ClassifyUpdate(domain.TaskPatch{Status: &status}))
	assert.Equal(t, UpdateFull, ClassifyUpdate(domain.TaskPatch{Status: &status, Title: &title}))
	assert.Equal(t, UpdateFull, ClassifyUpdate(domain.TaskPatch{Title: &title}))
	assert.Equal(t, UpdateFull, ClassifyUpdate(domain.TaskPatch{Status: &status, ClearDueDate: true}))
	assert.Equal(t, UpdateFull, ClassifyUpdate(domain.TaskPatch{Status: &status, SetShared: true}))
	assert.Equal(t, UpdateFull, ClassifyUpdate(domain.TaskPatch{}), "empty patch is not a status toggle")
}

func TestCanUpdate(t *testing.T) {
	p := testPolicy()
	task := &domain.Task{ID: "t1", OwnerID: "owner", SharedWith: []string{"friend"}}

	owner := domain.Principal{ID: "owner"}
	friend := domain.Principal{ID: "friend"}
	stranger := domain.Principal{ID: "stranger"}

	assert.True(t, p.CanUpdate(owner, task, UpdateFull))
	assert.True(t, p.CanUpdate(owner, task, UpdateStatusOnly))

	assert.False(t, p.CanUpdate(friend, task, UpdateFull), "shared access stops at the status toggle")
	assert.True(t, p.CanUpdate(friend, task, UpdateStatusOnly))

	assert.False(t, p.CanUpdate(stranger, task, UpdateFull))
	assert.False(t, p.CanUpdate(stranger, task, UpdateStatusOnly))
}

func TestCanChangeRole(t *testing.T) {
	p := testPolicy()

	admin := domain.Principal{ID: "boss", Email: "boss@example.com", Role: domain.RoleAdmin}
	rootAdmin := domain.Principal{ID: "id-root", Email: "root@example.com", Role: domain.RoleAdmin}
	target := &domain.User{ID: "u1", Email: "u1@example.com", Role: domain.RoleUser}
	protected := &domain.User{ID: "pf", Email: "founder@example.com", Role: domain.RoleAdmin}

	require.NoError(t, p.CanChangeRole(admin, target, domain.RoleManager))

	err := p.CanChangeRole(admin, nil, domain.RoleManager)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))

	err = p.CanChangeRole(admin, &domain.User{ID: "boss"}, domain.RoleUser)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeSelfModification))

	err = p.CanChangeRole(admin, target, domain.Role("superuser"))
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidRole))

	err = p.CanChangeRole(admin, protected, domain.RoleUser)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeProtectedTarget),
		"unprotected admin may not touch a protected identity")

	require.NoError(t, p.CanChangeRole(rootAdmin, protected, domain.RoleManager),
		"protected admins may modify other protected identities")
}

func TestAccessDecisionProperties(t *testing.T) {
	p := testPolicy()
	rng := rand.New(rand.NewSource(1))
	ids := []string{"u0", "u1", "u2", "u3", "u4"}

	for i := 0; i < 500; i++ {
		task := &domain.Task{ID: "t", OwnerID: ids[rng.Intn(len(ids))]}
		for _, id := range ids {
			if id != task.OwnerID && rng.Intn(2) == 0 {
				task.SharedWith = append(task.SharedWith, id)
			}
		}
		actor := domain.Principal{ID: ids[rng.Intn(len(ids))]}

		isOwner := actor.ID == task.OwnerID
		isShared := task.IsSharedWith(actor.ID)

		assert.Equal(t, isOwner || isShared, p.CanView(actor, task))
		assert.Equal(t, isOwner, p.CanDelete(actor, task))
		assert.Equal(t, isOwner, p.CanUpdate(actor, task, UpdateFull))
		assert.Equal(t, isOwner || isShared, p.CanUpdate(actor, task, UpdateStatusOnly))

		// Delete and full update imply view.
		if p.CanDelete(actor, task) || p.CanUpdate(actor, task, UpdateFull) {
			assert.True(t, p.CanView(actor, task))
		}
	}
}
