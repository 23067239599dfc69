package uow

import (
	"context"

	"github.com/kirinyoku/bedslot/internal/repository"
)

// AfterCommit is a function that runs after a successful transaction commit.
type AfterCommit func(ctx context.Context)

// Runner opens a transaction and hands fn repositories bound to it. The
// transaction commits when fn returns nil and rolls back otherwise.
type Runner interface {
	RunTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repos) error) error
}

// UoW represents a unit of work.
type UoW struct {
	runner Runner
}

func New(runner Runner) *UoW {
	return &UoW{runner: runner}
}

// Do runs fn inside the transaction. After a successful commit,
// it executes all after-commit hooks in registration order.
func (u *UoW) Do(
	ctx context.Context,
	fn func(ctx context.Context, tx repository.Repos, after func(AfterCommit)) error,
) error {
	var hooks []AfterCommit

	err := u.runner.RunTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		hooks = hooks[:0]
		return fn(ctx, tx, func(h AfterCommit) {
			hooks = append(hooks, h)
		})
	})
	if err != nil {
		return err
	}

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}
