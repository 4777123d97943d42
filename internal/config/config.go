package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode" validate:"oneof=debug release test"`
	Port       int           `mapstructure:"port" validate:"min=1,max=65535"`
	StaticPath string        `mapstructure:"static_path" validate:"required"`
	ReadLimit  int64         `mapstructure:"read_limit" validate:"gt=0"`
	PingPeriod time.Duration `mapstructure:"ping_period" validate:"gt=0"`
	Secret     string        `mapstructure:"secret" validate:"required"`
	LogLevel   string        `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`

	AdminName   string `mapstructure:"admin_name"`
	Timezone    string `mapstructure:"timezone" validate:"required"`
	DefaultRoom string `mapstructure:"default_room" validate:"required"`
	DefaultName string `mapstructure:"default_name" validate:"required"`

	SendBuffer   int           `mapstructure:"send_buffer" validate:"min=1"`
	PendingLimit int           `mapstructure:"pending_limit" validate:"min=0,ltfield=SendBuffer"`
	Backpressure string        `mapstructure:"backpressure" validate:"oneof=drop disconnect"`
	TickInterval time.Duration `mapstructure:"tick_interval" validate:"gt=0"`
	RateLimit    int           `mapstructure:"rate_limit" validate:"min=0"`
	RateWindow   time.Duration `mapstructure:"rate_window" validate:"gt=0"`

	StatusFiles []string `mapstructure:"status_files"`

	location *time.Location
}

// Location is the timezone that decides the calendar day for streaks.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 3000)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "change-me-in-production")
	v.SetDefault("log_level", "info")
	v.SetDefault("admin_name", "mihir")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("default_room", "default")
	v.SetDefault("default_name", "Anonymous")
	v.SetDefault("send_buffer", 128)
	v.SetDefault("pending_limit", 100)
	v.SetDefault("backpressure", "drop")
	v.SetDefault("tick_interval", "1s")
	v.SetDefault("rate_limit", 20)
	v.SetDefault("rate_window", "1s")
	v.SetDefault("status_files", []string{"STATUS.md", "../STATUS.md", "Q126_Status.md", "../Q126_Status.md"})
}

// Load reads config/config.<CONFIG_ENV>.yaml (or --config), then applies
// TASKROOM_* environment overrides and command-line flags.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("taskroom", pflag.ContinueOnError)
	file := fs.String("config", "", "path to the YAML config file")
	fs.Int("port", 3000, "listen port")
	fs.String("mode", "release", "gin mode: debug, release or test")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix("TASKROOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("port", "TASKROOM_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}
	for _, name := range []string{"port", "mode"} {
		if err := v.BindPFlag(name, fs.Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	fileName := *file
	if fileName == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(fileName)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if *file != "" || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if extra := os.Getenv("STATUS_FILE"); extra != "" {
		cfg.StatusFiles = append([]string{extra}, cfg.StatusFiles...)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc

	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Msg("config ready")
	return &cfg, nil
}
