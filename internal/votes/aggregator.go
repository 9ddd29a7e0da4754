package votes

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/emilythestrangee/qna-forum/backend/internal/models"
)

// Aggregator computes vote counts from the stored records. It holds no
// state and is safe for concurrent use.
type Aggregator struct {
	store VoteStore
}

func NewAggregator(store VoteStore) *Aggregator {
	return &Aggregator{store: store}
}

func (a *Aggregator) Counts(ctx context.Context, target Target) (Counts, error) {
	if !target.Valid() {
		return Counts{}, ErrInvalidVote
	}

	var up, down int64
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := a.store.CountVotes(gCtx, target, models.VoteUpvoted)
		up = n
		return err
	})
	g.Go(func() error {
		n, err := a.store.CountVotes(gCtx, target, models.VoteDownvoted)
		down = n
		return err
	})
	if err := g.Wait(); err != nil {
		return Counts{}, fmt.Errorf("count votes for %s: %w", target.Key(), err)
	}
	return NewCounts(int(up), int(down)), nil
}

// ContentScore sums the current scores of everything the author wrote.
func (a *Aggregator) ContentScore(ctx context.Context, targets TargetStore, authorID string) (int, error) {
	list, err := targets.TargetsBy(ctx, authorID)
	if err != nil {
		return 0, fmt.Errorf("list targets of %s: %w", authorID, err)
	}
	total := 0
	for _, t := range list {
		c, err := a.Counts(ctx, t)
		if err != nil {
			return 0, err
		}
		total += c.Score
	}
	return total, nil
}
