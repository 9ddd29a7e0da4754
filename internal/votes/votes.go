// Package votes implements question/answer voting: the transition rule
// shared by server and client, the vote service that persists transitions
// and adjusts author reputation, and the aggregate count reader.
package votes

import (
	"context"
	"errors"

	"github.com/emilythestrangee/qna-forum/backend/internal/models"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrInvalidVote      = errors.New("invalid vote")
	ErrTargetNotFound   = errors.New("target not found")
	ErrVoteConflict     = errors.New("vote changed concurrently")

	// ErrReputationNotApplied means the vote record was written but the
	// author's reputation update failed. The two writes are independent.
	ErrReputationNotApplied = errors.New("vote recorded but reputation not updated")
)

// Target identifies a votable question or answer.
type Target struct {
	Type models.VoteType `json:"type"`
	ID   string          `json:"typeId"`
}

// Key is the client-side counts key "{type}-{typeId}".
func (t Target) Key() string {
	return string(t.Type) + "-" + t.ID
}

// VoterKey is the client-side my-vote key "{type}-{typeId}-{voterId}".
func (t Target) VoterKey(voterID string) string {
	return t.Key() + "-" + voterID
}

func (t Target) Valid() bool {
	return t.Type.Valid() && t.ID != ""
}

// Counts are the aggregate votes of a target.
type Counts struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
	Score     int `json:"score"`
}

func NewCounts(up, down int) Counts {
	return Counts{Upvotes: up, Downvotes: down, Score: up - down}
}

// VoteStore persists vote records.
type VoteStore interface {
	// FindVote returns the voter's vote on the target, or nil when there is none.
	FindVote(ctx context.Context, target Target, voterID string) (*models.Vote, error)
	CreateVote(ctx context.Context, vote *models.Vote) error
	// UpdateVoteStatus switches a vote only if it still has status from.
	UpdateVoteStatus(ctx context.Context, voteID string, from, to models.VoteStatus) error
	// DeleteVote removes a vote only if it still has the given status.
	DeleteVote(ctx context.Context, voteID string, status models.VoteStatus) error
	CountVotes(ctx context.Context, target Target, status models.VoteStatus) (int64, error)
}

// TargetStore resolves targets to their authors.
type TargetStore interface {
	AuthorOf(ctx context.Context, target Target) (string, error)
	TargetsBy(ctx context.Context, authorID string) ([]Target, error)
}

// ReputationLedger reads and adjusts the reputation stored in a user's
// preference bag.
type ReputationLedger interface {
	Reputation(ctx context.Context, userID string) (int, error)
	// AddReputation applies delta atomically in the store.
	AddReputation(ctx context.Context, userID string, delta int) error
}
