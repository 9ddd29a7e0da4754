package votecache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/qna-forum/backend/internal/models"
	"github.com/emilythestrangee/qna-forum/backend/internal/votes"
)

type result struct {
	counts votes.Counts
	err    error
}

type call struct {
	target    votes.Target
	direction models.VoteStatus
	reply     chan result
}

// fakeBackend hands every submission to the test through calls and blocks
// until the test replies.
type fakeBackend struct {
	calls chan *call

	fetchCounts votes.Counts
	fetchMine   models.VoteStatus
	fetchErr    error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: make(chan *call, 8)}
}

func (b *fakeBackend) SubmitVote(ctx context.Context, voterID string, target votes.Target, direction models.VoteStatus) (votes.Counts, error) {
	c := &call{target: target, direction: direction, reply: make(chan result, 1)}
	select {
	case b.calls <- c:
	case <-ctx.Done():
		return votes.Counts{}, ctx.Err()
	}
	select {
	case r := <-c.reply:
		return r.counts, r.err
	case <-ctx.Done():
		return votes.Counts{}, ctx.Err()
	}
}

func (b *fakeBackend) FetchVotes(ctx context.Context, target votes.Target) (votes.Counts, models.VoteStatus, error) {
	return b.fetchCounts, b.fetchMine, b.fetchErr
}

func (b *fakeBackend) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-b.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no vote submitted")
		return nil
	}
}

var (
	question = votes.Target{Type: models.VoteTypeQuestion, ID: "q1"}
	answer   = votes.Target{Type: models.VoteTypeAnswer, ID: "a1"}
)

func newTestCache(t *testing.T, b Backend, userID string) *Cache {
	t.Helper()
	c := New(b, userID, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(c.Close)
	return c
}

func wait(t *testing.T, p *Pending) (votes.Counts, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return p.Wait(ctx)
}

func TestOptimisticThenReconcile(t *testing.T) {
	b := newFakeBackend()
	c := newTestCache(t, b, "u1")

	p, err := c.CastVote(question, models.VoteUpvoted)
	require.NoError(t, err)

	// visible before the server answers
	mine, ok := c.MyVote(question)
	require.True(t, ok)
	assert.Equal(t, models.VoteUpvoted, mine)
	counts, ok := c.Counts(question)
	require.True(t, ok)
	assert.Equal(t, votes.NewCounts(1, 0), counts)
	assert.Equal(t, votes.NewCounts(1, 0), p.Optimistic)
	assert.Equal(t, StatePending, c.State(question))

	sent := b.next(t)
	assert.Equal(t, question, sent.target)
	assert.Equal(t, models.VoteUpvoted, sent.direction)

	// the server saw another voter too
	sent.reply <- result{counts: votes.NewCounts(2, 0)}
	got, err := wait(t, p)
	require.NoError(t, err)
	assert.Equal(t, votes.NewCounts(2, 0), got)

	counts, _ = c.Counts(question)
	assert.Equal(t, votes.NewCounts(2, 0), counts)
	mine, _ = c.MyVote(question)
	assert.Equal(t, models.VoteUpvoted, mine)
	assert.Equal(t, StateSettled, c.State(question))
	assert.NoError(t, c.Err())
}

func TestRollbackRestoresAbsence(t *testing.T) {
	b := newFakeBackend()
	c := newTestCache(t, b, "u1")

	p, err := c.CastVote(question, models.VoteDownvoted)
	require.NoError(t, err)

	boom := errors.New("network down")
	b.next(t).reply <- result{err: boom}

	_, err = wait(t, p)
	assert.ErrorIs(t, err, boom)

	_, ok := c.MyVote(question)
	assert.False(t, ok)
	_, ok = c.Counts(question)
	assert.False(t, ok)
	assert.ErrorIs(t, c.Err(), boom)
	assert.Equal(t, StateSettled, c.State(question))
}

func TestRollbackRestoresPriorValues(t *testing.T) {
	b := newFakeBackend()
	b.fetchCounts = votes.NewCounts(4, 1)
	b.fetchMine = models.VoteUpvoted
	c := newTestCache(t, b, "u1")

	_, _, err := c.Refresh(context.Background(), question)
	require.NoError(t, err)

	p, err := c.CastVote(question, models.VoteDownvoted)
	require.NoError(t, err)
	counts, _ := c.Counts(question)
	assert.Equal(t, votes.NewCounts(3, 2), counts)

	b.next(t).reply <- result{err: votes.ErrVoteConflict}
	restored, err := wait(t, p)
	assert.ErrorIs(t, err, votes.ErrVoteConflict)
	assert.Equal(t, votes.NewCounts(4, 1), restored)

	counts, _ = c.Counts(question)
	assert.Equal(t, votes.NewCounts(4, 1), counts)
	mine, _ := c.MyVote(question)
	assert.Equal(t, models.VoteUpvoted, mine)
}

func TestDoubleToggleBeforeResponse(t *testing.T) {
	b := newFakeBackend()
	c := newTestCache(t, b, "u1")

	p1, err := c.CastVote(question, models.VoteUpvoted)
	require.NoError(t, err)
	first := b.next(t)

	// second click computes from the optimistic state and removes the vote
	p2, err := c.CastVote(question, models.VoteUpvoted)
	require.NoError(t, err)
	second := b.next(t)

	mine, _ := c.MyVote(question)
	assert.Equal(t, models.VoteNone, mine)
	counts, _ := c.Counts(question)
	assert.Equal(t, votes.NewCounts(0, 0), counts)

	// a superseded response does not overwrite the newer optimistic state
	first.reply <- result{counts: votes.NewCounts(1, 0)}
	_, err = wait(t, p1)
	require.NoError(t, err)
	counts, _ = c.Counts(question)
	assert.Equal(t, votes.NewCounts(0, 0), counts)
	assert.Equal(t, StatePending, c.State(question))

	second.reply <- result{counts: votes.NewCounts(0, 0)}
	_, err = wait(t, p2)
	require.NoError(t, err)
	assert.Equal(t, StateSettled, c.State(question))
	mine, _ = c.MyVote(question)
	assert.Equal(t, models.VoteNone, mine)
}

func TestSupersededFailureKeepsLatestState(t *testing.T) {
	b := newFakeBackend()
	c := newTestCache(t, b, "u1")

	p1, err := c.CastVote(question, models.VoteUpvoted)
	require.NoError(t, err)
	first := b.next(t)

	p2, err := c.CastVote(question, models.VoteDownvoted)
	require.NoError(t, err)
	second := b.next(t)

	boom := errors.New("timeout")
	first.reply <- result{err: boom}
	shown, err := wait(t, p1)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, c.Err(), boom)
	// reports the newer optimistic counts, not the never-restored snapshot
	assert.Equal(t, votes.NewCounts(0, 1), shown)
	cached, _ := c.Counts(question)
	assert.Equal(t, shown, cached)

	mine, _ := c.MyVote(question)
	assert.Equal(t, models.VoteDownvoted, mine)

	second.reply <- result{counts: votes.NewCounts(0, 1)}
	_, err = wait(t, p2)
	require.NoError(t, err)
	counts, _ := c.Counts(question)
	assert.Equal(t, votes.NewCounts(0, 1), counts)
}

func TestTargetsAreIndependent(t *testing.T) {
	b := newFakeBackend()
	c := newTestCache(t, b, "u1")

	pq, err := c.CastVote(question, models.VoteUpvoted)
	require.NoError(t, err)
	pa, err := c.CastVote(answer, models.VoteDownvoted)
	require.NoError(t, err)

	boom := errors.New("answer vote failed")
	for range 2 {
		sent := b.next(t)
		if sent.target == answer {
			sent.reply <- result{err: boom}
		} else {
			sent.reply <- result{counts: votes.NewCounts(1, 0)}
		}
	}

	_, err = wait(t, pq)
	require.NoError(t, err)
	_, err = wait(t, pa)
	assert.ErrorIs(t, err, boom)

	counts, ok := c.Counts(question)
	require.True(t, ok)
	assert.Equal(t, votes.NewCounts(1, 0), counts)
	_, ok = c.Counts(answer)
	assert.False(t, ok)
}

func TestCastVoteRejections(t *testing.T) {
	b := newFakeBackend()

	anon := newTestCache(t, b, "")
	_, err := anon.CastVote(question, models.VoteUpvoted)
	assert.ErrorIs(t, err, votes.ErrNotAuthenticated)

	c := newTestCache(t, b, "u1")
	_, err = c.CastVote(votes.Target{Type: "comment", ID: "c1"}, models.VoteUpvoted)
	assert.ErrorIs(t, err, votes.ErrInvalidVote)
	_, err = c.CastVote(question, models.VoteNone)
	assert.ErrorIs(t, err, votes.ErrInvalidVote)

	assert.Empty(t, b.calls)
	_, ok := c.Counts(question)
	assert.False(t, ok)
}

func TestCloseRollsBackInFlight(t *testing.T) {
	b := newFakeBackend()
	c := New(b, "u1", slog.New(slog.NewTextHandler(io.Discard, nil)))

	p, err := c.CastVote(question, models.VoteUpvoted)
	require.NoError(t, err)
	b.next(t)

	c.Close()

	_, err = wait(t, p)
	assert.ErrorIs(t, err, context.Canceled)
	_, ok := c.MyVote(question)
	assert.False(t, ok)

	_, err = c.CastVote(question, models.VoteUpvoted)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRefreshSkipsPendingTarget(t *testing.T) {
	b := newFakeBackend()
	b.fetchCounts = votes.NewCounts(7, 0)
	c := newTestCache(t, b, "u1")

	p, err := c.CastVote(question, models.VoteDownvoted)
	require.NoError(t, err)
	sent := b.next(t)

	counts, _, err := c.Refresh(context.Background(), question)
	require.NoError(t, err)
	assert.Equal(t, votes.NewCounts(7, 0), counts)

	cached, _ := c.Counts(question)
	assert.Equal(t, votes.NewCounts(0, 1), cached)

	sent.reply <- result{counts: votes.NewCounts(7, 1)}
	_, err = wait(t, p)
	require.NoError(t, err)

	b.fetchCounts = votes.NewCounts(7, 1)
	b.fetchMine = models.VoteDownvoted
	_, _, err = c.Refresh(context.Background(), question)
	require.NoError(t, err)
	cached, _ = c.Counts(question)
	assert.Equal(t, votes.NewCounts(7, 1), cached)
}

func TestRefreshError(t *testing.T) {
	b := newFakeBackend()
	b.fetchErr = votes.ErrTargetNotFound
	c := newTestCache(t, b, "u1")

	_, _, err := c.Refresh(context.Background(), question)
	assert.ErrorIs(t, err, votes.ErrTargetNotFound)
	assert.ErrorIs(t, c.Err(), votes.ErrTargetNotFound)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "settled", StateSettled.String())
	assert.Equal(t, "State(7)", State(7).String())

	c := newTestCache(t, newFakeBackend(), "u1")
	assert.Equal(t, StateIdle, c.State(question))
}
