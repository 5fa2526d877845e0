package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env-default:"7777"`
	WSPort     string `yaml:"ws-port" env-default:"8080"`
	Host       string `yaml:"host" env-default:"0.0.0.0"`
	Game       Game   `yaml:"game"`
}

type Game struct {
	BoardSize       int           `yaml:"board-size" env-default:"15"`
	FinishedRoomTTL time.Duration `yaml:"finished-room-ttl" env-default:"10m"`
	CleanupInterval time.Duration `yaml:"cleanup-interval" env-default:"1m"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	if err := config.validate(); err != nil {
		panic(fmt.Errorf("invalid config: %w", err))
	}

	return config
}

func (that *Config) validate() error {
	if that.Game.BoardSize < entity.MinBoardSize {
		return fmt.Errorf("%w: got %d", entity.ErrInvalidBoardSize, that.Game.BoardSize)
	}

	if that.Game.CleanupInterval <= 0 {
		return fmt.Errorf("cleanup interval must be positive, got %s", that.Game.CleanupInterval)
	}

	return nil
}

func (that *Config) GetSocketAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.SocketPort)
}
