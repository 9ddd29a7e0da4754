// Package votecache is the session-side view of votes. It applies a vote
// locally before the server answers, then reconciles with the server's
// counts or rolls back to the exact prior state.
package votecache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/emilythestrangee/qna-forum/backend/internal/models"
	"github.com/emilythestrangee/qna-forum/backend/internal/votes"
)

var ErrClosed = errors.New("vote cache closed")

// Backend is the remote vote API. *client.Client implements it.
type Backend interface {
	SubmitVote(ctx context.Context, voterID string, target votes.Target, direction models.VoteStatus) (votes.Counts, error)
	FetchVotes(ctx context.Context, target votes.Target) (votes.Counts, models.VoteStatus, error)
}

// State of a target's cache entry.
type State int

const (
	StateIdle State = iota
	StatePending
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateSettled:
		return "settled"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// snapshot is the cached view of one target before an optimistic change.
// The has* flags record absence so a rollback can delete instead of zeroing.
type snapshot struct {
	vote      models.VoteStatus
	hasVote   bool
	counts    votes.Counts
	hasCounts bool
}

type entry struct {
	state    State
	inflight int
	// seq numbers casts on this target; only the latest cast reconciles.
	seq uint64
}

type Cache struct {
	backend Backend
	userID  string
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	myVotes map[string]models.VoteStatus // VoterKey
	counts  map[string]votes.Counts      // Key
	entries map[string]*entry            // Key
	lastErr error
}

// New creates the cache for one session. userID is empty for anonymous
// sessions, which can read counts but not vote.
func New(backend Backend, userID string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		backend: backend,
		userID:  userID,
		logger:  logger.With("component", "votecache"),
		ctx:     ctx,
		cancel:  cancel,
		myVotes: make(map[string]models.VoteStatus),
		counts:  make(map[string]votes.Counts),
		entries: make(map[string]*entry),
	}
}

// CastVote applies the vote to the cache immediately and sends it to the
// server in the background. The returned Pending completes when the
// server answers and the cache has been reconciled or rolled back.
func (c *Cache) CastVote(target votes.Target, direction models.VoteStatus) (*Pending, error) {
	if c.userID == "" {
		return nil, votes.ErrNotAuthenticated
	}
	if !target.Valid() || !direction.Valid() {
		return nil, votes.ErrInvalidVote
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}

	snap := c.snapshotLocked(target)
	tr := votes.Decide(snap.vote, direction)
	next := tr.ApplyCounts(snap.counts)

	c.myVotes[target.VoterKey(c.userID)] = tr.Next
	c.counts[target.Key()] = next

	e := c.entryLocked(target)
	e.seq++
	e.inflight++
	e.state = StatePending
	seq := e.seq

	p := newPending(next)
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Debug("optimistic vote applied",
		"target", target.Key(), "prior", tr.Prior, "next", tr.Next, "action", tr.Action)

	go c.send(target, direction, snap, seq, p)
	return p, nil
}

func (c *Cache) send(target votes.Target, direction models.VoteStatus, snap snapshot, seq uint64, p *Pending) {
	defer c.wg.Done()

	counts, err := c.backend.SubmitVote(c.ctx, c.userID, target, direction)

	c.mu.Lock()
	e := c.entryLocked(target)
	latest := e.seq == seq
	switch {
	case err != nil:
		c.lastErr = err
		if latest {
			c.restoreLocked(target, snap)
		}
	case latest:
		c.counts[target.Key()] = counts
	}
	// a superseded cast reports what the cache shows now
	shown := c.counts[target.Key()]
	e.inflight--
	if e.inflight == 0 {
		e.state = StateSettled
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("vote failed",
			"target", target.Key(), "rolled_back", latest, "error", err)
		p.finish(shown, err)
		return
	}
	p.finish(counts, nil)
}

// Refresh loads the authoritative counts and the session's own vote. The
// cache is only updated when no cast on the target is in flight.
func (c *Cache) Refresh(ctx context.Context, target votes.Target) (votes.Counts, models.VoteStatus, error) {
	if !target.Valid() {
		return votes.Counts{}, models.VoteNone, votes.ErrInvalidVote
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return votes.Counts{}, models.VoteNone, ErrClosed
	}
	seq := c.entryLocked(target).seq
	c.mu.Unlock()

	counts, mine, err := c.backend.FetchVotes(ctx, target)
	if err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		return votes.Counts{}, models.VoteNone, fmt.Errorf("refresh %s: %w", target.Key(), err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(target)
	if e.inflight == 0 && e.seq == seq {
		c.counts[target.Key()] = counts
		if c.userID != "" {
			c.myVotes[target.VoterKey(c.userID)] = mine
		}
	}
	return counts, mine, nil
}

// MyVote returns the session's cached vote on target.
func (c *Cache) MyVote(target votes.Target) (models.VoteStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.myVotes[target.VoterKey(c.userID)]
	return v, ok
}

// Counts returns the cached counts of target.
func (c *Cache) Counts(target votes.Target) (votes.Counts, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.counts[target.Key()]
	return v, ok
}

func (c *Cache) State(target votes.Target) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[target.Key()]; ok {
		return e.state
	}
	return StateIdle
}

// Err returns the most recent failure, or nil.
func (c *Cache) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Close cancels in-flight requests and waits for them to settle. Cancelled
// casts roll back like any other failure.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Cache) snapshotLocked(target votes.Target) snapshot {
	var s snapshot
	s.vote, s.hasVote = c.myVotes[target.VoterKey(c.userID)]
	s.counts, s.hasCounts = c.counts[target.Key()]
	return s
}

func (c *Cache) restoreLocked(target votes.Target, s snapshot) {
	voterKey := target.VoterKey(c.userID)
	if s.hasVote {
		c.myVotes[voterKey] = s.vote
	} else {
		delete(c.myVotes, voterKey)
	}
	if s.hasCounts {
		c.counts[target.Key()] = s.counts
	} else {
		delete(c.counts, target.Key())
	}
}

func (c *Cache) entryLocked(target votes.Target) *entry {
	e, ok := c.entries[target.Key()]
	if !ok {
		e = &entry{state: StateIdle}
		c.entries[target.Key()] = e
	}
	return e
}
