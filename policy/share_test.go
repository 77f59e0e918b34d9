package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/backend/domain"
)

// fakeLookup resolves ids and emails from a fixed user set.
type fakeLookup struct {
	users []domain.User
}

func (f *fakeLookup) GetByID(_ context.Context, id string) (*domain.User, error) {
	for i := range f.users {
		if f.users[i].ID == id {
			return &f.users[i], nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeLookup) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	norm := domain.NormalizeEmail(email)
	for i := range f.users {
		if f.users[i].Email == norm {
			return &f.users[i], nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func shareLookup() *fakeLookup {
	return &fakeLookup{users: []domain.User{
		{ID: "u1", Email: "one@example.com"},
		{ID: "u2", Email: "two@example.com"},
		{ID: "u3", Email: "three@example.com"},
	}}
}

func TestResolveShareSet(t *testing.T) {
	lookup := shareLookup()

	got, err := ResolveShareSet(context.Background(), lookup,
		[]string{"u1"}, []string{"two@example.com"}, "owner")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, got)
}

func TestResolveShareSetDeduplicates(t *testing.T) {
	lookup := shareLookup()

	// u1 referenced three times: twice by id, once by email.
	got, err := ResolveShareSet(context.Background(), lookup,
		[]string{"u1", "u1"}, []string{"ONE@example.com"}, "owner")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, got)
}

func TestResolveShareSetExcludesActor(t *testing.T) {
	lookup := shareLookup()

	got, err := ResolveShareSet(context.Background(), lookup,
		[]string{"u1", "u2"}, nil, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, got, "sharing with yourself is silently dropped")
}

func TestResolveShareSetMissingReferences(t *testing.T) {
	lookup := shareLookup()

	_, err := ResolveShareSet(context.Background(), lookup,
		[]string{"u1", "ghost"}, []string{"nobody@example.com"}, "owner")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeMissingRefs))

	var dErr *domain.Error
	require.ErrorAs(t, err, &dErr)
	assert.ElementsMatch(t, []string{"ghost", "nobody@example.com"}, dErr.Refs,
		"all unresolved references are reported, none applied")
}

func TestResolveShareSetEmptyInput(t *testing.T) {
	got, err := ResolveShareSet(context.Background(), shareLookup(), nil, []string{"", "  "}, "owner")
	require.NoError(t, err)
	assert.Empty(t, got)
}
