package cascade

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/internal/infrastructure/journal"
	"github.com/taskhub/backend/repository"
)

// flakyTaskRepo fails cascade operations until healed.
type flakyTaskRepo struct {
	tasks  map[string]*domain.Task
	broken bool
}

func newFlakyTaskRepo(tasks ...*domain.Task) *flakyTaskRepo {
	r := &flakyTaskRepo{tasks: make(map[string]*domain.Task)}
	for _, t := range tasks {
		r.tasks[t.ID] = t
	}
	return r
}

var errStorage = errors.New("storage unavailable")

func (r *flakyTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	if t, ok := r.tasks[id]; ok {
		return t, nil
	}
	return nil, domain.ErrTaskNotFound
}

func (r *flakyTaskRepo) List(_ context.Context, _ repository.TaskFilter) ([]domain.Task, error) {
	return nil, nil
}

func (r *flakyTaskRepo) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	r.tasks[task.ID] = task
	return task, nil
}

func (r *flakyTaskRepo) UpdateOne(_ context.Context, _, _ string, _ repository.AccessPredicate, _ domain.TaskPatch) (*domain.Task, error) {
	return nil, domain.ErrTaskNotFound
}

func (r *flakyTaskRepo) DeleteOwned(_ context.Context, _, _ string) error {
	return domain.ErrTaskNotFound
}

func (r *flakyTaskRepo) AddShares(_ context.Context, _, _ string, _ []string) (*domain.Task, error) {
	return nil, domain.ErrTaskNotFound
}

func (r *flakyTaskRepo) RemoveShares(_ context.Context, _, _ string, _ []string) (*domain.Task, error) {
	return nil, domain.ErrTaskNotFound
}

func (r *flakyTaskRepo) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	if r.broken {
		return 0, errStorage
	}
	var n int64
	for id, t := range r.tasks {
		if t.OwnerID == ownerID {
			delete(r.tasks, id)
			n++
		}
	}
	return n, nil
}

func (r *flakyTaskRepo) PruneSharedWith(_ context.Context, userID string) (int64, error) {
	if r.broken {
		return 0, errStorage
	}
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

type stubHealth struct{ online bool }

func (s stubHealth) IsOnline() bool { return s.online }

func openJournal(t *testing.T) *journal.Store {
	t.Helper()
	store, err := journal.Open(filepath.Join(t.TempDir(), "cascade.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunIdempotent(t *testing.T) {
	repo := newFlakyTaskRepo(
		&domain.Task{ID: "t1", OwnerID: "gone"},
		&domain.Task{ID: "t2", OwnerID: "alive", SharedWith: []string{"gone", "other"}},
	)
	c := New(repo, nil, nil, nil, Config{})

	result, err := c.Run(context.Background(), "gone")
	require.NoError(t, err)
	assert.Equal(t, Result{TasksDeleted: 1, SharesPruned: 1}, result)

	// A second run finds nothing left to do.
	result, err = c.Run(context.Background(), "gone")
	require.NoError(t, err)
	assert.Equal(t, Result{}, result)

	assert.Equal(t, []string{"other"}, repo.tasks["t2"].SharedWith)
}

func TestHandleDeletionConfirmsJournal(t *testing.T) {
	repo := newFlakyTaskRepo(&domain.Task{ID: "t1", OwnerID: "gone"})
	jrnl := openJournal(t)
	c := New(repo, jrnl, nil, nil, Config{})

	c.HandleDeletion(context.Background(), "gone")

	size, err := jrnl.Size()
	require.NoError(t, err)
	assert.Equal(t, 0, size, "successful cascade clears its journal entry")
	assert.Empty(t, repo.tasks)
}

func TestHandleDeletionDefersOnFailure(t *testing.T) {
	repo := newFlakyTaskRepo(&domain.Task{ID: "t1", OwnerID: "gone"})
	repo.broken = true
	jrnl := openJournal(t)
	c := New(repo, jrnl, nil, nil, Config{})

	c.HandleDeletion(context.Background(), "gone")

	size, err := jrnl.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size, "failed cascade stays journaled for the reconciler")

	// Storage heals; the reconciler drains the entry.
	repo.broken = false
	require.NoError(t, c.Reconcile(context.Background()))

	size, err = jrnl.Size()
	require.NoError(t, err)
	assert.Equal(t, 0, size)
	assert.Empty(t, repo.tasks)
}

func TestReconcileSkipsWhileOffline(t *testing.T) {
	repo := newFlakyTaskRepo(&domain.Task{ID: "t1", OwnerID: "gone"})
	jrnl := openJournal(t)
	require.NoError(t, jrnl.Enqueue("gone"))
	c := New(repo, jrnl, stubHealth{online: false}, nil, Config{})

	require.NoError(t, c.Reconcile(context.Background()))

	size, err := jrnl.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size, "nothing drained while storage is down")
	assert.Len(t, repo.tasks, 1)
}

func TestReconcileEvictsAfterMaxRetries(t *testing.T) {
	repo := newFlakyTaskRepo(&domain.Task{ID: "t1", OwnerID: "gone"})
	repo.broken = true
	jrnl := openJournal(t)
	require.NoError(t, jrnl.Enqueue("gone"))
	c := New(repo, jrnl, nil, nil, Config{MaxRetries: 2})

	require.NoError(t, c.Reconcile(context.Background()))
	size, _ := jrnl.Size()
	assert.Equal(t, 1, size)

	require.NoError(t, c.Reconcile(context.Background()))
	size, err := jrnl.Size()
	require.NoError(t, err)
	assert.Equal(t, 0, size, "entry dropped once the retry budget is exhausted")
}
