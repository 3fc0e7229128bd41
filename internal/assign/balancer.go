// Package assign picks the least-loaded user for smart assignment.
package assign

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"taskboard/internal/apperr"
	"taskboard/internal/model"
)

// UserLister must return users in a stable order; ties go to whoever comes
// first.
type UserLister interface {
	List(ctx context.Context) ([]model.User, error)
}

// ActiveCounter reports, per assignee, how many tasks are assigned to them
// and not Done.
type ActiveCounter interface {
	CountActiveByAssignee(ctx context.Context) (map[uuid.UUID]int, error)
}

type Balancer struct {
	users  UserLister
	counts ActiveCounter
}

func NewBalancer(users UserLister, counts ActiveCounter) *Balancer {
	return &Balancer{users: users, counts: counts}
}

// Choose returns the user other than requester with the fewest active tasks.
func (b *Balancer) Choose(ctx context.Context, requester uuid.UUID) (model.User, error) {
	var (
		users  []model.User
		counts map[uuid.UUID]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = b.users.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = b.counts.CountActiveByAssignee(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.User{}, apperr.Internal("load assignment candidates", err)
	}

	var (
		best  model.User
		found bool
		least int
	)
	for _, u := range users {
		if u.ID == requester {
			continue
		}
		if n := counts[u.ID]; !found || n < least {
			best, least, found = u, n, true
		}
	}
	if !found {
		return model.User{}, apperr.NoEligibleUsers()
	}
	return best, nil
}
