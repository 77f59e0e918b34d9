package policy

import (
	"context"
	"sort"

	"github.com/taskhub/backend/domain"
)

// IdentityLookup is the slice of the user store that share resolution needs.
type IdentityLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// ResolveShareSet turns requested user ids and emails into a deduplicated
// set of existing user ids, excluding the actor's own id (an owner may not
// share a task with themselves). If any reference does not resolve, the
// whole request fails with MISSING_REFERENCES carrying the unresolved
// entries; partial shares are never applied.
func ResolveShareSet(ctx context.Context, lookup IdentityLookup, ids, emails []string, actorID string) ([]string, error) {
	resolved := make(map[string]struct{})
	var missing []string

	seenIDs := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seenIDs[id]; dup {
			continue
		}
		seenIDs[id] = struct{}{}

		user, err := lookup.GetByID(ctx, id)
		if err != nil {
			if domain.IsDomainError(err, domain.ErrCodeNotFound) {
				missing = append(missing, id)
				continue
			}
			return nil, err
		}
		resolved[user.ID] = struct{}{}
	}

	seenEmails := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		norm := domain.NormalizeEmail(email)
		if norm == "" {
			continue
		}
		if _, dup := seenEmails[norm]; dup {
			continue
		}
		seenEmails[norm] = struct{}{}

		user, err := lookup.GetByEmail(ctx, norm)
		if err != nil {
			if domain.IsDomainError(err, domain.ErrCodeNotFound) {
				missing = append(missing, norm)
				continue
			}
			return nil, err
		}
		resolved[user.ID] = struct{}{}
	}

	if len(missing) > 0 {
		return nil, domain.NewMissingReferences(missing)
	}

	delete(resolved, actorID)

	out := make([]string, 0, len(resolved))
	for id := range resolved {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
