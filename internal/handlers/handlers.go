package handlers

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/emilythestrangee/qna-forum/backend/internal/repository"
	"github.com/emilythestrangee/qna-forum/backend/internal/votes"
)

// Handler combines all handler types
type Handler struct {
	Auth     *AuthHandler
	Question *QuestionHandler
	Answer   *AnswerHandler
	Vote     *VoteHandler
	User     *UserHandler
}

type Options struct {
	JWTSecret []byte
	TokenTTL  time.Duration
	Logger    *slog.Logger
}

// NewHandler wires the repositories and the vote service into the handlers.
func NewHandler(db *gorm.DB, opts Options) *Handler {
	voteRepo := repository.NewVoteRepository(db)
	targetRepo := repository.NewTargetRepository(db)
	userRepo := repository.NewUserRepository(db)
	svc := votes.NewService(voteRepo, targetRepo, userRepo, opts.Logger)

	return &Handler{
		Auth:     NewAuthHandler(db, opts.JWTSecret, opts.TokenTTL),
		Question: NewQuestionHandler(db, svc),
		Answer:   NewAnswerHandler(db, voteRepo, svc),
		Vote:     NewVoteHandler(svc, voteRepo, opts.Logger),
		User:     NewUserHandler(db, svc),
	}
}
