package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/qna-forum/backend/internal/middleware"
	"github.com/emilythestrangee/qna-forum/backend/internal/models"
	"github.com/emilythestrangee/qna-forum/backend/internal/repository"
	"github.com/emilythestrangee/qna-forum/backend/internal/votes"
)

type AnswerHandler struct {
	db    *gorm.DB
	votes *repository.VoteRepository
	svc   *votes.Service
	agg   *votes.Aggregator
}

func NewAnswerHandler(db *gorm.DB, voteRepo *repository.VoteRepository, svc *votes.Service) *AnswerHandler {
	return &AnswerHandler{db: db, votes: voteRepo, svc: svc, agg: svc.Aggregator()}
}

// GetAnswers returns all answers for a question with their vote counts
func (h *AnswerHandler) GetAnswers(c *gin.Context) {
	ctx := c.Request.Context()
	var answers []models.Answer
	if err := h.db.WithContext(ctx).Where("question_id = ?", c.Param("id")).
		Preload("Author").Order("created_at asc").Find(&answers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch answers"})
		return
	}

	responses := make([]gin.H, 0, len(answers))
	for _, a := range answers {
		counts, err := h.agg.Counts(ctx, votes.Target{Type: models.VoteTypeAnswer, ID: a.ID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count votes"})
			return
		}
		responses = append(responses, gin.H{
			"id":         a.ID,
			"content":    a.Content,
			"questionId": a.QuestionID,
			"authorId":   a.AuthorID,
			"author":     gin.H{"id": a.Author.ID, "username": a.Author.Username, "avatar": a.Author.Avatar},
			"upvotes":    counts.Upvotes,
			"downvotes":  counts.Downvotes,
			"score":      counts.Score,
			"created_at": a.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, responses)
}

// CreateAnswer answers a question
func (h *AnswerHandler) CreateAnswer(c *gin.Context) {
	ctx := c.Request.Context()
	var input models.CreateAnswerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	authorID := middleware.CurrentUserID(c)
	if authorID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var q models.Question
	if err := h.db.WithContext(ctx).Select("id").First(&q, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	a := models.Answer{Content: input.Content, QuestionID: q.ID, AuthorID: authorID}
	if err := h.db.WithContext(ctx).Create(&a).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create answer"})
		return
	}

	h.db.WithContext(ctx).Preload("Author").First(&a, "id = ?", a.ID)
	c.JSON(http.StatusCreated, a)
}

// DeleteAnswer deletes an answer and its votes (owner only)
func (h *AnswerHandler) DeleteAnswer(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.CurrentUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var a models.Answer
	if err := h.db.WithContext(ctx).First(&a, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Answer not found"})
		return
	}
	if a.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own answers"})
		return
	}

	target := votes.Target{Type: models.VoteTypeAnswer, ID: a.ID}
	unlock := h.svc.LockTargets(target)
	defer unlock()

	if err := h.votes.DeleteTargetVotes(ctx, target); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete answer votes"})
		return
	}
	if err := h.db.WithContext(ctx).Delete(&a).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete answer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Answer deleted successfully"})
}
