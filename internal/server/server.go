package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emilythestrangee/qna-forum/backend/internal/config"
	"github.com/emilythestrangee/qna-forum/backend/internal/database"
	"github.com/emilythestrangee/qna-forum/backend/internal/handlers"
	"github.com/emilythestrangee/qna-forum/backend/internal/middleware"
)

type Server struct {
	cfg     config.Config
	db      database.Service
	handler *handlers.Handler
	logger  *slog.Logger
}

func New(cfg config.Config, db database.Service, logger *slog.Logger) *Server {
	return &Server{
		cfg: cfg,
		db:  db,
		handler: handlers.NewHandler(db.GetDB(), handlers.Options{
			JWTSecret: cfg.JWTSecret,
			TokenTTL:  cfg.TokenTTL,
			Logger:    logger,
		}),
		logger: logger,
	}
}

// HTTPServer wraps the routes in an http.Server with the service timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         "0.0.0.0:" + s.cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(s.logger))

	allowAll := len(s.cfg.CORSOrigins) == 0 || (len(s.cfg.CORSOrigins) == 1 && s.cfg.CORSOrigins[0] == "*")
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  allowAll,
		AllowOrigins:     corsOrigins(allowAll, s.cfg.CORSOrigins),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !allowAll,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		stats := s.db.Health(c.Request.Context())
		status := http.StatusOK
		if stats["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, stats)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRequired := middleware.AuthMiddleware(s.cfg.JWTSecret)
	authOptional := middleware.OptionalAuth(s.cfg.JWTSecret)

	api := r.Group("/api")
	{
		// Identity (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		// Public reads
		api.GET("/questions", s.handler.Question.GetQuestions)
		api.GET("/questions/:id", s.handler.Question.GetQuestion)
		api.GET("/questions/:id/answers", s.handler.Answer.GetAnswers)
		api.GET("/votes/:type/:typeId", authOptional, s.handler.Vote.GetVotes)
		api.GET("/users/:id", s.handler.User.GetUserProfile)
		api.GET("/users/:id/reputation", s.handler.User.GetReputation)

		protected := api.Group("")
		protected.Use(authRequired)
		{
			protected.GET("/me", s.handler.Auth.GetMe)

			protected.POST("/questions", s.handler.Question.CreateQuestion)
			protected.DELETE("/questions/:id", s.handler.Question.DeleteQuestion)

			protected.POST("/questions/:id/answers", s.handler.Answer.CreateAnswer)
			protected.DELETE("/answers/:id", s.handler.Answer.DeleteAnswer)

			protected.POST("/vote", s.handler.Vote.Vote)
		}
	}

	return r
}

func corsOrigins(allowAll bool, origins []string) []string {
	if allowAll {
		return nil
	}
	return origins
}
