package cli

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"quizhub-server/internal/config"
)

const envPrefix = "QUIZHUB"

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:           "quizhub",
		Short:         "Real-time multiplayer quiz server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(".env")
		},
	}

	registerRootFlags(cmd.PersistentFlags(), v)

	cmd.AddCommand(newStartCmd(v))
	cmd.AddCommand(newMigrateCmd(v))
	cmd.AddCommand(newSeedCmd(v))
	cmd.AddCommand(newAdminTokenCmd(v))
	cmd.CompletionOptions.HiddenDefaultCmd = true
	return cmd
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// registerRootFlags defines the persistent flags and maps them onto config keys,
// with the bare PORT and CONFIG_PATH variables honoured as fallbacks.
func registerRootFlags(fs *pflag.FlagSet, v *viper.Viper) {
	fs.String("port", "", "port to listen on (env: QUIZHUB_SERVER_PORT, PORT)")
	fs.String("config", "config/config.yaml", "path to YAML config (env: QUIZHUB_CONFIG, CONFIG_PATH)")
	_ = v.BindPFlag("server.port", fs.Lookup("port"))
	_ = v.BindEnv("server.port", envPrefix+"_SERVER_PORT", "PORT")
	_ = v.BindPFlag("config", fs.Lookup("config"))
	_ = v.BindEnv("config", envPrefix+"_CONFIG", "CONFIG_PATH")
}

// loadConfig reads the YAML file and layers flags and QUIZHUB_* variables on top.
// A missing file falls back to defaults.
func loadConfig(v *viper.Viper) (config.Config, error) {
	path := v.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
		log.Printf("config %s not found, using defaults", path)
		cfg = config.Default()
	}
	cfg.Override(v)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
