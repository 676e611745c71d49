package cli

import (
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"quizhub-server/internal/config"
	"quizhub-server/internal/infra/memory"
	"quizhub-server/internal/infra/postgres"
	redisinfra "quizhub-server/internal/infra/redis"
)

// newSeedCmd loads a YAML question file into Postgres.
func newSeedCmd(v *viper.Viper) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert questions from a YAML file into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.Questions.File
			}
			if file == "" {
				return fmt.Errorf("no question file given")
			}
			questions, err := memory.ReadQuestionFile(file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := openBunDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := applyMigrations(ctx, db); err != nil {
				return err
			}
			n, err := postgres.InsertQuestions(ctx, db, questions)
			if err != nil {
				return err
			}
			log.Printf("seeded %d questions from %s", n, file)

			if cfg.Redis.Addr != "" {
				client := newRedisClient(cfg)
				defer client.Close()
				if err := redisinfra.NewQuestionBank(client, nil, 0).Invalidate(ctx); err != nil {
					log.Printf("invalidate cached question bank: %v", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML question file (default questions.file from config)")
	return cmd
}

func newRedisClient(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
