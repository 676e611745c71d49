package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"quizhub-server/internal/app"
	"quizhub-server/internal/auth"
	"quizhub-server/internal/config"
	"quizhub-server/internal/domain"
	"quizhub-server/internal/infra/memory"
	"quizhub-server/internal/infra/postgres"
	redisinfra "quizhub-server/internal/infra/redis"
	transport "quizhub-server/internal/transport/http"
)

// newStartCmd builds the CLI subcommand to start the server.
func newStartCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}
	cmd.Flags().Bool("profile", false, "register net/http/pprof handlers (env: QUIZHUB_SERVER_PROFILE)")
	_ = v.BindPFlag("server.profile", cmd.Flags().Lookup("profile"))
	return cmd
}

func runServer(ctx context.Context, cfg config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = newRedisClient(cfg)
		defer redisClient.Close()
	}

	loader := questionLoader(cfg, pool)
	questionTTL := config.TTLDuration(cfg.Questions.TTL, 5*time.Minute)
	var questions app.QuestionSource
	if redisClient != nil {
		questions = redisinfra.NewQuestionBank(redisClient, loader, questionTTL)
	} else {
		questions = memory.NewQuestionBank(loader, questionTTL)
	}

	registry := app.NewRegistry()
	factory := app.NewRoomFactory(app.Settings{
		EliminationsPerPlayer: cfg.Game.EliminationsPerPlayer,
		PointsPerCorrect:      cfg.Game.PointsPerCorrect,
	}, registry)
	var rooms app.RoomStore
	routerCfg := transport.RouterConfig{PublicURL: cfg.Server.PublicURL, Profile: cfg.Server.Profile}
	if redisClient != nil {
		store := redisinfra.NewRoomStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 2*time.Hour), factory)
		rooms = store
		routerCfg.Claims = store
	} else {
		rooms = memory.NewRoomStore(factory)
	}

	var opts []app.Option
	if cfg.Auth.RequireAdminToken {
		tokens, err := auth.NewAdminTokens(cfg.Auth.JWTSecret)
		if err != nil {
			return err
		}
		opts = append(opts, app.WithAdminAuthorizer(tokens))
	} else {
		log.Printf("admin joins are not authenticated; set auth.requireAdminToken to require a token")
	}
	service := app.NewGameService(rooms, registry, questions, opts...)

	go service.RunJanitor(ctx, config.TTLDuration(cfg.Game.RoomIdleTimeout, 30*time.Minute))

	router := transport.NewRouter(
		transport.NewWSHandler(service, cfg.Game.SendBuffer),
		service,
		routerCfg,
	)
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("starting quiz server on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// questionLoader prefers Postgres, then a YAML file, then the built-in bank.
func questionLoader(cfg config.Config, pool *pgxpool.Pool) memory.QuestionLoader {
	switch {
	case pool != nil:
		return postgres.NewQuestionLoader(pool)
	case cfg.Questions.File != "":
		return memory.NewFileQuestionLoader(cfg.Questions.File)
	default:
		return memory.NewStaticQuestionLoader(sampleQuestions())
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "sample-1", Type: domain.QuestionText, Prompt: "What is 2 + 2?", Options: []string{"3", "4", "5", "22"}, CorrectAnswer: 1},
		{ID: "sample-2", Type: domain.QuestionText, Prompt: "Which ocean is the largest?", Options: []string{"Atlantic", "Indian", "Pacific", "Arctic"}, CorrectAnswer: 2},
		{ID: "sample-3", Type: domain.QuestionText, Prompt: "How many continents are there?", Options: []string{"5", "6", "7", "8"}, CorrectAnswer: 2},
	}
}
