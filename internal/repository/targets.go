package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/qna-forum/backend/internal/models"
	"github.com/emilythestrangee/qna-forum/backend/internal/votes"
)

// TargetRepository resolves questions and answers for voting.
type TargetRepository struct {
	db *gorm.DB
}

func NewTargetRepository(db *gorm.DB) *TargetRepository {
	return &TargetRepository{db: db}
}

func (r *TargetRepository) AuthorOf(ctx context.Context, target votes.Target) (string, error) {
	var authorID string
	var err error
	switch target.Type {
	case models.VoteTypeQuestion:
		var q models.Question
		err = r.db.WithContext(ctx).Select("id", "author_id").First(&q, "id = ?", target.ID).Error
		authorID = q.AuthorID
	case models.VoteTypeAnswer:
		var a models.Answer
		err = r.db.WithContext(ctx).Select("id", "author_id").First(&a, "id = ?", target.ID).Error
		authorID = a.AuthorID
	default:
		return "", fmt.Errorf("%w: unknown type %q", votes.ErrInvalidVote, target.Type)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", votes.ErrTargetNotFound
	}
	if err != nil {
		return "", err
	}
	return authorID, nil
}

func (r *TargetRepository) TargetsBy(ctx context.Context, authorID string) ([]votes.Target, error) {
	var questionIDs, answerIDs []string
	if err := r.db.WithContext(ctx).Model(&models.Question{}).
		Where("author_id = ?", authorID).Pluck("id", &questionIDs).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Answer{}).
		Where("author_id = ?", authorID).Pluck("id", &answerIDs).Error; err != nil {
		return nil, err
	}

	targets := make([]votes.Target, 0, len(questionIDs)+len(answerIDs))
	for _, id := range questionIDs {
		targets = append(targets, votes.Target{Type: models.VoteTypeQuestion, ID: id})
	}
	for _, id := range answerIDs {
		targets = append(targets, votes.Target{Type: models.VoteTypeAnswer, ID: id})
	}
	return targets, nil
}
