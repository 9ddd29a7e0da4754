package votes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/im7mortal/kmutex"

	"github.com/emilythestrangee/qna-forum/backend/internal/models"
)

// Request is a single vote submission.
type Request struct {
	VoterID   string
	Target    Target
	Direction models.VoteStatus
}

// Service records votes and adjusts the reputation of target authors.
//
// The vote record write and the reputation write are independent: when the
// second fails the first is not undone and ErrReputationNotApplied is
// returned. Submissions on the same target are serialised in-process with
// content deletion (see LockTargets). Across processes the store's unique
// index and compare-and-swap writes turn a race into ErrVoteConflict, and
// reputation is applied as an increment so a stale reader cannot overwrite
// another writer's delta.
type Service struct {
	votes   VoteStore
	targets TargetStore
	ledger  ReputationLedger
	agg     *Aggregator
	locks   *kmutex.Kmutex
	logger  *slog.Logger
}

func NewService(votes VoteStore, targets TargetStore, ledger ReputationLedger, logger *slog.Logger) *Service {
	return &Service{
		votes:   votes,
		targets: targets,
		ledger:  ledger,
		agg:     NewAggregator(votes),
		locks:   kmutex.New(),
		logger:  logger,
	}
}

func (s *Service) Aggregator() *Aggregator {
	return s.agg
}

// SubmitVote applies the voting table for the request and returns the
// target's recomputed counts.
func (s *Service) SubmitVote(ctx context.Context, req Request) (Counts, error) {
	if req.VoterID == "" {
		failuresTotal.WithLabelValues("unauthenticated").Inc()
		return Counts{}, ErrNotAuthenticated
	}
	if !req.Target.Valid() || !req.Direction.Valid() {
		failuresTotal.WithLabelValues("invalid").Inc()
		return Counts{}, fmt.Errorf("%w: type=%q typeId=%q voteStatus=%q",
			ErrInvalidVote, req.Target.Type, req.Target.ID, req.Direction)
	}

	// one submission per target at a time, shared with LockTargets
	targetKey := "target:" + req.Target.Key()
	s.locks.Lock(targetKey)
	defer s.locks.Unlock(targetKey)

	authorID, err := s.targets.AuthorOf(ctx, req.Target)
	if err != nil {
		if errors.Is(err, ErrTargetNotFound) {
			failuresTotal.WithLabelValues("not_found").Inc()
		} else {
			failuresTotal.WithLabelValues("store").Inc()
		}
		return Counts{}, fmt.Errorf("lookup %s: %w", req.Target.Key(), err)
	}

	tr, err := s.commit(ctx, req, authorID)
	if err != nil {
		return Counts{}, err
	}

	transitionsTotal.WithLabelValues(string(req.Target.Type), string(tr.Action)).Inc()
	s.logger.Debug("vote committed",
		"target", req.Target.Key(),
		"voter", req.VoterID,
		"author", authorID,
		"action", tr.Action,
		"delta", tr.ReputationDelta,
	)

	return s.agg.Counts(ctx, req.Target)
}

func (s *Service) commit(ctx context.Context, req Request, authorID string) (Transition, error) {
	existing, err := s.votes.FindVote(ctx, req.Target, req.VoterID)
	if err != nil {
		failuresTotal.WithLabelValues("store").Inc()
		return Transition{}, fmt.Errorf("find vote: %w", err)
	}

	prior := models.VoteNone
	if existing != nil {
		prior = existing.VoteStatus
	}
	tr := Decide(prior, req.Direction)

	if err := s.apply(ctx, req, existing, tr); err != nil {
		if errors.Is(err, ErrVoteConflict) {
			failuresTotal.WithLabelValues("conflict").Inc()
		} else {
			failuresTotal.WithLabelValues("store").Inc()
		}
		return Transition{}, err
	}

	if err := s.ledger.AddReputation(ctx, authorID, tr.ReputationDelta); err != nil {
		failuresTotal.WithLabelValues("reputation").Inc()
		s.logger.Error("vote recorded without reputation update",
			"target", req.Target.Key(),
			"voter", req.VoterID,
			"author", authorID,
			"delta", tr.ReputationDelta,
			"error", err,
		)
		return Transition{}, fmt.Errorf("%w: %w", ErrReputationNotApplied, err)
	}
	return tr, nil
}

// LockTargets blocks vote submissions on the given targets until the
// returned func is called. Content deletion holds it so no vote lands on a
// target that is being removed.
func (s *Service) LockTargets(targets ...Target) (unlock func()) {
	keys := make([]string, 0, len(targets))
	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		k := "target:" + t.Key()
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.locks.Lock(k)
	}
	return func() {
		for i := len(keys) - 1; i >= 0; i-- {
			s.locks.Unlock(keys[i])
		}
	}
}

func (s *Service) apply(ctx context.Context, req Request, existing *models.Vote, tr Transition) error {
	switch tr.Action {
	case ActionCreate:
		vote := &models.Vote{
			Type:       req.Target.Type,
			TypeID:     req.Target.ID,
			VotedByID:  req.VoterID,
			VoteStatus: tr.Next,
		}
		if err := s.votes.CreateVote(ctx, vote); err != nil {
			return fmt.Errorf("create vote: %w", err)
		}
	case ActionDelete:
		if err := s.votes.DeleteVote(ctx, existing.ID, tr.Prior); err != nil {
			return fmt.Errorf("delete vote %s: %w", existing.ID, err)
		}
	case ActionUpdate:
		if err := s.votes.UpdateVoteStatus(ctx, existing.ID, tr.Prior, tr.Next); err != nil {
			return fmt.Errorf("update vote %s: %w", existing.ID, err)
		}
	}
	return nil
}
