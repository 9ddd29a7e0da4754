// Command api runs the Q&A forum backend.
//
// Usage:
//
//	api serve --port 8080
//	api migrate
//	api vote question <id> upvoted --server http://localhost:8080 --token $TOKEN
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/emilythestrangee/qna-forum/backend/internal/client"
	"github.com/emilythestrangee/qna-forum/backend/internal/config"
	"github.com/emilythestrangee/qna-forum/backend/internal/database"
	"github.com/emilythestrangee/qna-forum/backend/internal/models"
	"github.com/emilythestrangee/qna-forum/backend/internal/server"
	"github.com/emilythestrangee/qna-forum/backend/internal/votes"
)

func main() {
	root := &cobra.Command{
		Use:          "api",
		Short:        "Q&A forum backend",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), voteCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h)
}

func serveCmd() *cobra.Command {
	var port, logLevel string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			if logLevel != "" {
				if cfg.LogLevel, err = config.ParseLogLevel(logLevel); err != nil {
					return err
				}
			}
			logger := newLogger(cfg)

			db, err := database.New(cfg.DB, logger)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			srv := server.New(cfg, db, logger).HTTPServer()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server listening", "addr", srv.Addr, "env", cfg.Env)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			// New applies the migrations before returning
			db, err := database.New(cfg.DB, logger)
			if err != nil {
				return err
			}
			if err := db.Close(); err != nil {
				return fmt.Errorf("close database: %w", err)
			}
			logger.Info("migrations applied", "driver", cfg.DB.Driver)
			return nil
		},
	}
}

func voteCmd() *cobra.Command {
	var serverAddr, token, voter string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "vote <question|answer> <id> <upvoted|downvoted>",
		Short: "Cast a vote against a running server",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := votes.Target{Type: models.VoteType(args[0]), ID: args[1]}
			c := client.New(serverAddr, token, client.WithTimeout(timeout))
			counts, err := c.SubmitVote(cmd.Context(), voter, target, models.VoteStatus(args[2]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "upvotes=%d downvotes=%d score=%d\n",
				counts.Upvotes, counts.Downvotes, counts.Score)
			return nil
		},
	}
	cmd.Flags().StringVarP(&serverAddr, "server", "s", "http://localhost:8080", "API server address")
	cmd.Flags().StringVar(&token, "token", os.Getenv("QNA_TOKEN"), "bearer token")
	cmd.Flags().StringVar(&voter, "voter", "", "voter id (defaults to the token user)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "HTTP request timeout")
	return cmd
}
