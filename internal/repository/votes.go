package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/qna-forum/backend/internal/models"
	"github.com/emilythestrangee/qna-forum/backend/internal/votes"
)

// VoteRepository stores vote records. Updates and deletes are conditional
// on the status the caller read, so a concurrent change is reported as
// votes.ErrVoteConflict instead of being overwritten.
type VoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

func (r *VoteRepository) FindVote(ctx context.Context, target votes.Target, voterID string) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.WithContext(ctx).
		Where("type = ? AND type_id = ? AND voted_by_id = ?", target.Type, target.ID, voterID).
		First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *VoteRepository) CreateVote(ctx context.Context, vote *models.Vote) error {
	err := r.db.WithContext(ctx).Create(vote).Error
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: %s already voted on %s-%s", votes.ErrVoteConflict, vote.VotedByID, vote.Type, vote.TypeID)
	}
	return err
}

func (r *VoteRepository) UpdateVoteStatus(ctx context.Context, voteID string, from, to models.VoteStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Vote{}).
		Where("id = ? AND vote_status = ?", voteID, from).
		Update("vote_status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return votes.ErrVoteConflict
	}
	return nil
}

func (r *VoteRepository) DeleteVote(ctx context.Context, voteID string, status models.VoteStatus) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND vote_status = ?", voteID, status).
		Delete(&models.Vote{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return votes.ErrVoteConflict
	}
	return nil
}

func (r *VoteRepository) CountVotes(ctx context.Context, target votes.Target, status models.VoteStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Vote{}).
		Where("type = ? AND type_id = ? AND vote_status = ?", target.Type, target.ID, status).
		Count(&n).Error
	return n, err
}

// DeleteTargetVotes removes every vote on a target. Reputation already
// accumulated from those votes is kept.
func (r *VoteRepository) DeleteTargetVotes(ctx context.Context, target votes.Target) error {
	return r.db.WithContext(ctx).
		Where("type = ? AND type_id = ?", target.Type, target.ID).
		Delete(&models.Vote{}).Error
}
