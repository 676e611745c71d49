package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"quizhub-server/internal/auth"
	"quizhub-server/internal/config"
)

// newAdminTokenCmd mints a token for admin joins when auth.requireAdminToken is on.
func newAdminTokenCmd(v *viper.Viper) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Mint a room admin token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			tokens, err := auth.NewAdminTokens(cfg.Auth.JWTSecret)
			if err != nil {
				return err
			}
			if ttl == 0 {
				ttl = config.TTLDuration(cfg.Auth.TokenTTL, 12*time.Hour)
			}
			token, err := tokens.Issue(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "subject recorded in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.tokenTtl from config)")
	return cmd
}
