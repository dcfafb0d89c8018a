package env

import (
	"context"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Host          string `env:"BISTRO_HOST" toml:"host"`
	Port          int    `env:"BISTRO_PORT" toml:"port"`
	UseWebsocket  bool   `env:"BISTRO_USE_WEBSOCKET" toml:"use_websocket"`
	WebsocketPath string `env:"BISTRO_WEBSOCKET_PATH" toml:"websocket_path"`
	DebugHTTP     bool   `env:"BISTRO_DEBUG_HTTP" toml:"debug_http"`
	Trace         bool   `env:"BISTRO_TRACE" toml:"trace"`
}

// LoadConfig layers configuration: defaults, then the optional toml file
// (the desktop-install case), then .env.local, then the environment.
func LoadConfig(ctx context.Context, filePath string) (*Config, error) {
	config := Config{
		Host: "127.0.0.1",
		Port: 5555,
	}

	if filePath != "" {
		if _, err := toml.DecodeFile(filePath, &config); err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	if err := godotenv.Load(".env.local"); err != nil {
		if !os.IsNotExist(err) {
			panic(err)
		}
	}

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
