package votecache

import (
	"context"

	"github.com/emilythestrangee/qna-forum/backend/internal/votes"
)

// Pending tracks one cast vote until the server answers.
type Pending struct {
	done chan struct{}

	// Optimistic holds the counts shown before the server answered.
	Optimistic votes.Counts

	counts votes.Counts
	err    error
}

func newPending(optimistic votes.Counts) *Pending {
	return &Pending{done: make(chan struct{}), Optimistic: optimistic}
}

func (p *Pending) finish(counts votes.Counts, err error) {
	p.counts = counts
	p.err = err
	close(p.done)
}

// Done is closed once the cast has been reconciled or rolled back.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the cast settles. On success it returns the server's
// counts. On failure it returns the counts the cache holds after settling
// (the restored snapshot, or the newer optimistic counts when a later cast
// on the same target superseded this one) and the error.
func (p *Pending) Wait(ctx context.Context) (votes.Counts, error) {
	select {
	case <-p.done:
		return p.counts, p.err
	case <-ctx.Done():
		return votes.Counts{}, ctx.Err()
	}
}
