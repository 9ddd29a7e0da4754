package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/qna-forum/backend/internal/middleware"
	"github.com/emilythestrangee/qna-forum/backend/internal/models"
	"github.com/emilythestrangee/qna-forum/backend/internal/repository"
	"github.com/emilythestrangee/qna-forum/backend/internal/votes"
)

type QuestionHandler struct {
	db  *gorm.DB
	svc *votes.Service
	agg *votes.Aggregator
}

func NewQuestionHandler(db *gorm.DB, svc *votes.Service) *QuestionHandler {
	return &QuestionHandler{db: db, svc: svc, agg: svc.Aggregator()}
}

func (h *QuestionHandler) response(ctx context.Context, q models.Question) (gin.H, error) {
	counts, err := h.agg.Counts(ctx, votes.Target{Type: models.VoteTypeQuestion, ID: q.ID})
	if err != nil {
		return nil, err
	}
	return gin.H{
		"id":         q.ID,
		"title":      q.Title,
		"content":    q.Content,
		"authorId":   q.AuthorID,
		"author":     gin.H{"id": q.Author.ID, "username": q.Author.Username, "avatar": q.Author.Avatar},
		"upvotes":    counts.Upvotes,
		"downvotes":  counts.Downvotes,
		"score":      counts.Score,
		"created_at": q.CreatedAt,
		"updated_at": q.UpdatedAt,
	}, nil
}

// GetQuestions lists questions newest first with their vote counts
func (h *QuestionHandler) GetQuestions(c *gin.Context) {
	var questions []models.Question
	if err := h.db.WithContext(c.Request.Context()).Preload("Author").Order("created_at desc").Find(&questions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	responses := make([]gin.H, 0, len(questions))
	for _, q := range questions {
		resp, err := h.response(c.Request.Context(), q)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count votes"})
			return
		}
		responses = append(responses, resp)
	}

	c.JSON(http.StatusOK, responses)
}

// GetQuestion returns a single question by ID
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	var q models.Question
	if err := h.db.WithContext(c.Request.Context()).Preload("Author").First(&q, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	resp, err := h.response(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count votes"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateQuestion creates a new question (PROTECTED - requires authentication)
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var input models.CreateQuestionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	authorID := middleware.CurrentUserID(c)
	if authorID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	q := models.Question{Title: input.Title, Content: input.Content, AuthorID: authorID}
	if err := h.db.WithContext(c.Request.Context()).Create(&q).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create question"})
		return
	}

	h.db.WithContext(c.Request.Context()).Preload("Author").First(&q, "id = ?", q.ID)
	c.JSON(http.StatusCreated, q)
}

// DeleteQuestion deletes a question with its answers and their votes
// (PROTECTED - requires ownership). Reputation earned from those votes stays.
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.CurrentUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var q models.Question
	if err := h.db.WithContext(ctx).First(&q, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}
	if q.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own questions"})
		return
	}

	var answerIDs []string
	if err := h.db.WithContext(ctx).Model(&models.Answer{}).Where("question_id = ?", q.ID).Pluck("id", &answerIDs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete question"})
		return
	}
	targets := []votes.Target{{Type: models.VoteTypeQuestion, ID: q.ID}}
	for _, id := range answerIDs {
		targets = append(targets, votes.Target{Type: models.VoteTypeAnswer, ID: id})
	}
	unlock := h.svc.LockTargets(targets...)
	defer unlock()

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		voteRepo := repository.NewVoteRepository(tx)
		// re-read answers so one posted after the lock was taken loses its votes too
		var ids []string
		if err := tx.Model(&models.Answer{}).Where("question_id = ?", q.ID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		doomed := []votes.Target{targets[0]}
		for _, id := range ids {
			doomed = append(doomed, votes.Target{Type: models.VoteTypeAnswer, ID: id})
		}
		for _, t := range doomed {
			if err := voteRepo.DeleteTargetVotes(ctx, t); err != nil {
				return err
			}
		}
		if err := tx.Where("question_id = ?", q.ID).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&q).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete question"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Question deleted successfully"})
}
