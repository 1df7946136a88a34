package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode        string  `mapstructure:"mode"`
	Port        int     `mapstructure:"port"`
	StaticPath  string  `mapstructure:"static_path"`
	ReadLimit   int64   `mapstructure:"read_limit"`
	UploadLimit int64   `mapstructure:"upload_limit"`
	Secret      string  `mapstructure:"secret"`
	Teacher     Teacher `mapstructure:"teacher"`
	Media       Media   `mapstructure:"media"`
}

// Teacher is the single owner account allowed to create and run classes.
type Teacher struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Media points at the external media-routing service tokens are minted for.
// All fields empty means the media plane is disabled.
type Media struct {
	URL       string `mapstructure:"url"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 4000)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("upload_limit", 20*1024*1024)
	v.SetDefault("secret", "classhub-dev-secret")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
