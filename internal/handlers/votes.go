package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qna-forum/backend/internal/middleware"
	"github.com/emilythestrangee/qna-forum/backend/internal/models"
	"github.com/emilythestrangee/qna-forum/backend/internal/repository"
	"github.com/emilythestrangee/qna-forum/backend/internal/votes"
)

type VoteHandler struct {
	svc    *votes.Service
	votes  *repository.VoteRepository
	logger *slog.Logger
}

func NewVoteHandler(svc *votes.Service, voteRepo *repository.VoteRepository, logger *slog.Logger) *VoteHandler {
	return &VoteHandler{svc: svc, votes: voteRepo, logger: logger}
}

// Vote records, switches or removes the caller's vote on a question or
// answer and returns the target's counts (PROTECTED).
func (h *VoteHandler) Vote(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be question or answer, typeId is required and voteStatus must be upvoted or downvoted"})
		return
	}

	if input.VotedByID == "" {
		input.VotedByID = userID
	}
	if input.VotedByID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only vote as yourself"})
		return
	}

	counts, err := h.svc.SubmitVote(c.Request.Context(), votes.Request{
		VoterID:   input.VotedByID,
		Target:    votes.Target{Type: input.Type, ID: input.TypeID},
		Direction: input.VoteStatus,
	})
	if err != nil {
		h.voteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": counts})
}

// GetVotes returns a target's counts and, for signed-in callers, their own vote.
func (h *VoteHandler) GetVotes(c *gin.Context) {
	ctx := c.Request.Context()
	target := votes.Target{Type: models.VoteType(c.Param("type")), ID: c.Param("typeId")}
	if !target.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be question or answer"})
		return
	}

	counts, err := h.svc.Aggregator().Counts(ctx, target)
	if err != nil {
		h.voteError(c, err)
		return
	}

	var myVote *models.VoteStatus
	if userID := middleware.CurrentUserID(c); userID != "" {
		v, err := h.votes.FindVote(ctx, target, userID)
		if err != nil {
			h.voteError(c, err)
			return
		}
		if v != nil {
			myVote = &v.VoteStatus
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": counts, "myVote": myVote})
}

func (h *VoteHandler) voteError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, votes.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
	case errors.Is(err, votes.ErrInvalidVote):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, votes.ErrTargetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Target not found"})
	case errors.Is(err, votes.ErrVoteConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Vote changed concurrently, please retry"})
	case errors.Is(err, votes.ErrReputationNotApplied):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Vote recorded but reputation update failed"})
	default:
		h.logger.Error("vote request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to vote"})
	}
}
