package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/qna-forum/backend/internal/models"
	"github.com/emilythestrangee/qna-forum/backend/internal/repository"
	"github.com/emilythestrangee/qna-forum/backend/internal/votes"
)

type UserHandler struct {
	db  *gorm.DB
	svc *votes.Service
}

func NewUserHandler(db *gorm.DB, svc *votes.Service) *UserHandler {
	return &UserHandler{db: db, svc: svc}
}

// GetUserProfile returns a user's public profile and question count
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Param("id")

	var user models.User
	if err := h.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var questionCount, answerCount int64
	if err := h.db.WithContext(ctx).Model(&models.Question{}).Where("author_id = ?", userID).Count(&questionCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count questions"})
		return
	}
	if err := h.db.WithContext(ctx).Model(&models.Answer{}).Where("author_id = ?", userID).Count(&answerCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count answers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":         user.ID,
			"username":   user.Username,
			"bio":        user.Bio,
			"avatar":     user.Avatar,
			"reputation": user.Prefs.Reputation,
		},
		"question_count": questionCount,
		"answer_count":   answerCount,
	})
}

// GetReputation reports the stored reputation counter alongside the
// current score of the user's content.
func (h *UserHandler) GetReputation(c *gin.Context) {
	profile, err := h.svc.Profile(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute reputation"})
		return
	}
	c.JSON(http.StatusOK, profile)
}
