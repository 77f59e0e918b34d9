package user

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/internal/cascade"
	"github.com/taskhub/backend/policy"
	"github.com/taskhub/backend/repository"
)

type memUserRepo struct {
	users map[string]*domain.User
}

func newMemUserRepo(users ...*domain.User) *memUserRepo {
	r := &memUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	norm := domain.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == norm {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) List(_ context.Context, _ repository.UserFilter) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) UpdateRole(_ context.Context, id string, role domain.Role) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Role = role
	copied := *u
	return &copied, nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// cascadeTaskRepo carries just enough task state to observe cascades.
type cascadeTaskRepo struct {
	tasks map[string]*domain.Task
}

func newCascadeTaskRepo(tasks ...*domain.Task) *cascadeTaskRepo {
	r := &cascadeTaskRepo{tasks: make(map[string]*domain.Task)}
	for _, t := range tasks {
		r.tasks[t.ID] = t
	}
	return r
}

func (r *cascadeTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	if t, ok := r.tasks[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, domain.ErrTaskNotFound
}

func (r *cascadeTaskRepo) List(_ context.Context, _ repository.TaskFilter) ([]domain.Task, error) {
	return nil, nil
}

func (r *cascadeTaskRepo) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	r.tasks[task.ID] = task
	return task, nil
}

func (r *cascadeTaskRepo) UpdateOne(_ context.Context, _, _ string, _ repository.AccessPredicate, _ domain.TaskPatch) (*domain.Task, error) {
	return nil, domain.ErrTaskNotFound
}

func (r *cascadeTaskRepo) DeleteOwned(_ context.Context, _, _ string) error {
	return domain.ErrTaskNotFound
}

func (r *cascadeTaskRepo) AddShares(_ context.Context, _, _ string, _ []string) (*domain.Task, error) {
	return nil, domain.ErrTaskNotFound
}

func (r *cascadeTaskRepo) RemoveShares(_ context.Context, _, _ string, _ []string) (*domain.Task, error) {
	return nil, domain.ErrTaskNotFound
}

func (r *cascadeTaskRepo) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	var n int64
	for id, t := range r.tasks {
		if t.OwnerID == ownerID {
			delete(r.tasks, id)
			n++
		}
	}
	return n, nil
}

func (r *cascadeTaskRepo) PruneSharedWith(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, t := range r.tasks {
		if t.IsSharedWith(userID) {
			kept := t.SharedWith[:0]
			for _, uid := range t.SharedWith {
				if uid != userID {
					kept = append(kept, uid)
				}
			}
			t.SharedWith = kept
			n++
		}
	}
	return n, nil
}

func fixture(tasks *cascadeTaskRepo, protectedEmails ...string) (*UseCase, *memUserRepo) {
	users := newMemUserRepo(
		&domain.User{ID: "victim", Email: "victim@example.com", Role: domain.RoleUser},
		&domain.User{ID: "bystander", Email: "bystander@example.com", Role: domain.RoleUser},
		&domain.User{ID: "boss", Email: "boss@example.com", Role: domain.RoleAdmin},
		&domain.User{ID: "founder", Email: "founder@example.com", Role: domain.RoleAdmin},
	)
	pol := policy.New(policy.NewConfig(protectedEmails, nil))
	cascader := cascade.New(tasks, nil, nil, nil, cascade.Config{})
	return New(users, cascader, pol, nil), users
}

func TestDirectoryExcludesActor(t *testing.T) {
	uc, _ := fixture(newCascadeTaskRepo())

	users, err := uc.Directory(context.Background(), domain.Principal{ID: "victim"}, "", 0)
	require.NoError(t, err)
	for _, u := range users {
		assert.NotEqual(t, "victim", u.ID)
	}
	assert.Len(t, users, 3)
}

func TestDeleteAccountCascades(t *testing.T) {
	tasks := newCascadeTaskRepo(
		&domain.Task{ID: "t1", OwnerID: "victim"},
		&domain.Task{ID: "t2", OwnerID: "victim", SharedWith: []string{"bystander"}},
		&domain.Task{ID: "t3", OwnerID: "bystander", SharedWith: []string{"victim", "boss"}},
		&domain.Task{ID: "t4", OwnerID: "bystander"},
	)
	uc, users := fixture(tasks)

	result, err := uc.DeleteAccount(context.Background(), domain.Principal{ID: "victim"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.TasksDeleted)
	assert.Equal(t, int64(1), result.SharesPruned)

	_, err = users.GetByID(context.Background(), "victim")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))

	// No task the victim owned remains, and no shared-with set still
	// references them.
	survivor, err := tasks.GetByID(context.Background(), "t3")
	require.NoError(t, err)
	assert.Equal(t, []string{"boss"}, survivor.SharedWith)
	for id := range tasks.tasks {
		assert.NotContains(t, []string{"t1", "t2"}, id)
	}
}

func TestAdminDeleteUser(t *testing.T) {
	tasks := newCascadeTaskRepo(&domain.Task{ID: "t1", OwnerID: "victim"})
	uc, users := fixture(tasks, "founder@example.com")
	boss := domain.Principal{ID: "boss", Email: "boss@example.com", Role: domain.RoleAdmin}

	// Self-deletion through the admin endpoint is refused.
	_, err := uc.DeleteUser(context.Background(), boss, "boss")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeSelfModification))

	// Protected targets are off limits to unprotected admins.
	_, err = uc.DeleteUser(context.Background(), boss, "founder")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeProtectedTarget))

	_, err = uc.DeleteUser(context.Background(), boss, "ghost")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))

	result, err := uc.DeleteUser(context.Background(), boss, "victim")
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.TasksDeleted)
	_, err = users.GetByID(context.Background(), "victim")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestAdminListProtectedFlags(t *testing.T) {
	uc, _ := fixture(newCascadeTaskRepo(), "founder@example.com")
	founder := domain.Principal{ID: "founder", Email: "founder@example.com", Role: domain.RoleAdmin}

	dir, err := uc.AdminList(context.Background(), founder, 0)
	require.NoError(t, err)
	assert.True(t, dir.ActorProtected)

	flags := make(map[string]bool, len(dir.Users))
	for _, entry := range dir.Users {
		flags[entry.User.ID] = entry.Protected
	}
	assert.True(t, flags["founder"])
	assert.False(t, flags["boss"])
	assert.False(t, flags["victim"])
}

func TestChangeRole(t *testing.T) {
	uc, _ := fixture(newCascadeTaskRepo(), "founder@example.com")
	boss := domain.Principal{ID: "boss", Email: "boss@example.com", Role: domain.RoleAdmin}

	updated, err := uc.ChangeRole(context.Background(), boss, "victim", domain.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, updated.Role)

	_, err = uc.ChangeRole(context.Background(), boss, "boss", domain.RoleUser)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeSelfModification))

	_, err = uc.ChangeRole(context.Background(), boss, "founder", domain.RoleUser)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeProtectedTarget))

	_, err = uc.ChangeRole(context.Background(), boss, "victim", domain.Role("owner"))
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidRole))
}
