package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	EnvAPIKey     = "TRELLO_API_KEY"
	EnvAPIToken   = "TRELLO_API_TOKEN"
	EnvConfigFile = "TRELLO_CONFIG_FILE"

	DefaultCloseSignature = "        - Marked as done by trello-pm"
	DefaultDatabasePath   = "file::memory:?cache=shared"
)

var ErrInvalidConfig = errors.New("invalid trello configuration")

type ListTag string

const (
	TagBacklog ListTag = "backlog"
	TagDoing   ListTag = "doing"
	TagDone    ListTag = "done"
)

func (t ListTag) Valid() bool {
	switch t {
	case TagBacklog, TagDoing, TagDone:
		return true
	}
	return false
}

type ListConfig struct {
	Name string  `mapstructure:"name" yaml:"name"`
	Tag  ListTag `mapstructure:"tag" yaml:"tag"`
}

type ServerConfig struct {
	Port        string `mapstructure:"port" yaml:"port"`
	CallbackURL string `mapstructure:"callback_url" yaml:"callback_url"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type Config struct {
	UserName       string         `mapstructure:"user_name" yaml:"user_name"`
	BoardName      string         `mapstructure:"board_name" yaml:"board_name"`
	IdleThreshold  int            `mapstructure:"idle_threshold" yaml:"idle_threshold"` // minutes
	CloseSignature string         `mapstructure:"close_signature" yaml:"close_signature"`
	BoardLists     []ListConfig   `mapstructure:"board_lists" yaml:"board_lists"`
	Server         ServerConfig   `mapstructure:"server" yaml:"server"`
	Database       DatabaseConfig `mapstructure:"database" yaml:"database"`

	// APIURL overrides the Trello REST endpoint.
	APIURL string `mapstructure:"api_url" yaml:"api_url,omitempty"`

	APIKey   string `mapstructure:"-" yaml:"-"`
	APIToken string `mapstructure:"-" yaml:"-"`
}

// APIKeySet reports whether both Trello credentials are present in the environment.
func APIKeySet() bool {
	return os.Getenv(EnvAPIKey) != "" && os.Getenv(EnvAPIToken) != ""
}

// ConfigFileExists reports whether TRELLO_CONFIG_FILE names an existing file.
func ConfigFileExists() bool {
	path := os.Getenv(EnvConfigFile)
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// LoadFromEnv loads the file named by TRELLO_CONFIG_FILE.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv(EnvConfigFile)
	if path == "" {
		return nil, fmt.Errorf("%s is not set", EnvConfigFile)
	}
	return Load(path)
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("idle_threshold", 24*60)
	v.SetDefault("close_signature", DefaultCloseSignature)
	v.SetDefault("server.port", "8080")
	v.SetDefault("database.path", DefaultDatabasePath)

	if err := v.BindEnv("api_key", EnvAPIKey); err != nil {
		return nil, err
	}
	if err := v.BindEnv("api_token", EnvAPIToken); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	cfg.APIKey = v.GetString("api_key")
	cfg.APIToken = v.GetString("api_token")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.UserName == "" {
		return fmt.Errorf("%w: user_name is required", ErrInvalidConfig)
	}
	if c.BoardName == "" {
		return fmt.Errorf("%w: board_name is required", ErrInvalidConfig)
	}
	if c.IdleThreshold < 0 {
		return fmt.Errorf("%w: idle_threshold must not be negative", ErrInvalidConfig)
	}

	seen := make(map[ListTag]string)
	names := make(map[string]bool)
	for _, l := range c.BoardLists {
		if l.Name == "" {
			return fmt.Errorf("%w: board list without a name", ErrInvalidConfig)
		}
		if names[l.Name] {
			return fmt.Errorf("%w: board list %q listed twice", ErrInvalidConfig, l.Name)
		}
		names[l.Name] = true
		if !l.Tag.Valid() {
			return fmt.Errorf("%w: board list %q has unknown tag %q", ErrInvalidConfig, l.Name, l.Tag)
		}
		if prev, ok := seen[l.Tag]; ok {
			return fmt.Errorf("%w: lists %q and %q are both tagged %s", ErrInvalidConfig, prev, l.Name, l.Tag)
		}
		seen[l.Tag] = l.Name
	}
	for _, tag := range []ListTag{TagBacklog, TagDoing, TagDone} {
		if _, ok := seen[tag]; !ok {
			return fmt.Errorf("%w: no board list tagged %s", ErrInvalidConfig, tag)
		}
	}
	return nil
}

// List returns the configured list carrying tag. Validate guarantees one exists.
func (c *Config) List(tag ListTag) ListConfig {
	for _, l := range c.BoardLists {
		if l.Tag == tag {
			return l
		}
	}
	return ListConfig{}
}

func Sample() *Config {
	return &Config{
		UserName:       "your-trello-username",
		BoardName:      "Sprint Board",
		IdleThreshold:  24 * 60,
		CloseSignature: DefaultCloseSignature,
		BoardLists: []ListConfig{
			{Name: "To Do", Tag: TagBacklog},
			{Name: "Doing", Tag: TagDoing},
			{Name: "Done", Tag: TagDone},
		},
		Server: ServerConfig{Port: "8080"},
	}
}

// WriteSample writes the sample configuration as YAML. An existing file is left alone.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	out, err := yaml.Marshal(Sample())
	if err != nil {
		return fmt.Errorf("failed to encode sample config: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}
