package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/kirinyoku/bedslot/internal/domain"
	"github.com/kirinyoku/bedslot/internal/repository"
)

type clientRepo struct {
	h handle
}

func (r clientRepo) Create(_ context.Context, c domain.Client) error {
	st, release := r.h.acquire()
	defer release()

	if _, exists := st.clients[c.ID]; exists {
		return repository.ErrConflict
	}
	if emailTaken(st, c) {
		return repository.ErrConflict
	}

	st.clients[c.ID] = c

	return nil
}

func (r clientRepo) Update(_ context.Context, c domain.Client) error {
	st, release := r.h.acquire()
	defer release()

	cur, ok := st.clients[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if emailTaken(st, c) {
		return repository.ErrConflict
	}

	c.CreatedAt = cur.CreatedAt
	st.clients[c.ID] = c

	return nil
}

func (r clientRepo) Get(_ context.Context, id uuid.UUID) (domain.Client, error) {
	st, release := r.h.acquire()
	defer release()

	c, ok := st.clients[id]
	if !ok {
		return domain.Client{}, repository.ErrNotFound
	}

	return c, nil
}

func (r clientRepo) List(_ context.Context, limit, offset int) ([]domain.Client, error) {
	st, release := r.h.acquire()
	defer release()

	out := make([]domain.Client, 0, len(st.clients))
	for _, c := range st.clients {
		out = append(out, c)
	}

	slices.SortFunc(out, func(a, b domain.Client) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	return page(out, limit, offset), nil
}

func emailTaken(st *state, c domain.Client) bool {
	if c.Email == "" {
		return false
	}
	for id, other := range st.clients {
		if id != c.ID && strings.EqualFold(other.Email, c.Email) {
			return true
		}
	}
	return false
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[max(offset, 0):]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
