package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VoteType names the kind of content a vote targets.
type VoteType string

const (
	VoteTypeQuestion VoteType = "question"
	VoteTypeAnswer   VoteType = "answer"
)

func (t VoteType) Valid() bool {
	return t == VoteTypeQuestion || t == VoteTypeAnswer
}

// VoteStatus is the direction of an active vote. The empty status means
// the voter has no vote on the target.
type VoteStatus string

const (
	VoteNone      VoteStatus = ""
	VoteUpvoted   VoteStatus = "upvoted"
	VoteDownvoted VoteStatus = "downvoted"
)

func (s VoteStatus) Valid() bool {
	return s == VoteUpvoted || s == VoteDownvoted
}

// Vote model - one row per voter per question/answer while the vote is active
type Vote struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	Type       VoteType   `gorm:"size:16;not null;uniqueIndex:idx_votes_owner,priority:1;index:idx_votes_target,priority:1" json:"type"`
	TypeID     string     `gorm:"size:64;not null;uniqueIndex:idx_votes_owner,priority:2;index:idx_votes_target,priority:2" json:"typeId"`
	VotedByID  string     `gorm:"size:64;not null;uniqueIndex:idx_votes_owner,priority:3" json:"votedById"`
	VoteStatus VoteStatus `gorm:"size:16;not null;index:idx_votes_target,priority:3" json:"voteStatus"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

type VoteRequest struct {
	Type       VoteType   `json:"type" binding:"required,oneof=question answer"`
	TypeID     string     `json:"typeId" binding:"required"`
	VoteStatus VoteStatus `json:"voteStatus" binding:"required,oneof=upvoted downvoted"`
	VotedByID  string     `json:"votedById"`
}
