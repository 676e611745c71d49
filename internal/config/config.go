package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port      string `yaml:"port"`
		PublicURL string `yaml:"publicUrl"`
		Profile   bool   `yaml:"profile"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Questions struct {
		TTL  string `yaml:"ttl"`
		File string `yaml:"file"`
	} `yaml:"questions"`
	Game struct {
		EliminationsPerPlayer int    `yaml:"eliminationsPerPlayer"`
		PointsPerCorrect      int    `yaml:"pointsPerCorrect"`
		RoomIdleTimeout       string `yaml:"roomIdleTimeout"`
		SendBuffer            int    `yaml:"sendBuffer"`
	} `yaml:"game"`
	Auth struct {
		RequireAdminToken bool   `yaml:"requireAdminToken"`
		JWTSecret         string `yaml:"jwtSecret"`
		TokenTTL          string `yaml:"tokenTtl"`
	} `yaml:"auth"`
}

// Default returns the settings used for anything the file leaves out.
func Default() Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Redis.TTL = "2h"
	cfg.Questions.TTL = "5m"
	cfg.Game.EliminationsPerPlayer = 2
	cfg.Game.PointsPerCorrect = 10
	cfg.Game.RoomIdleTimeout = "30m"
	cfg.Game.SendBuffer = 64
	cfg.Auth.TokenTTL = "12h"
	return cfg
}

// Load reads YAML config from path on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// Override applies every key v has a value for, flags and environment included.
// Keys use the YAML paths, e.g. "redis.addr".
func (c *Config) Override(v *viper.Viper) {
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	flag := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}

	str("server.port", &c.Server.Port)
	str("server.publicUrl", &c.Server.PublicURL)
	flag("server.profile", &c.Server.Profile)
	str("redis.addr", &c.Redis.Addr)
	str("redis.password", &c.Redis.Password)
	num("redis.db", &c.Redis.DB)
	str("redis.ttl", &c.Redis.TTL)
	str("postgres.url", &c.Postgres.URL)
	str("questions.ttl", &c.Questions.TTL)
	str("questions.file", &c.Questions.File)
	num("game.eliminationsPerPlayer", &c.Game.EliminationsPerPlayer)
	num("game.pointsPerCorrect", &c.Game.PointsPerCorrect)
	str("game.roomIdleTimeout", &c.Game.RoomIdleTimeout)
	num("game.sendBuffer", &c.Game.SendBuffer)
	flag("auth.requireAdminToken", &c.Auth.RequireAdminToken)
	str("auth.jwtSecret", &c.Auth.JWTSecret)
	str("auth.tokenTtl", &c.Auth.TokenTTL)
}

func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %q", c.Server.Port)
	}
	if c.Game.EliminationsPerPlayer < 0 {
		return fmt.Errorf("eliminationsPerPlayer must not be negative: %d", c.Game.EliminationsPerPlayer)
	}
	if c.Game.PointsPerCorrect < 0 {
		return fmt.Errorf("pointsPerCorrect must not be negative: %d", c.Game.PointsPerCorrect)
	}
	if c.Auth.RequireAdminToken && c.Auth.JWTSecret == "" {
		return errors.New("auth.requireAdminToken needs auth.jwtSecret")
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
