package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the debate service
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Corpus  CorpusConfig  `mapstructure:"corpus"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Storage StorageConfig `mapstructure:"storage"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address     string `mapstructure:"address"`
	AuthEnabled bool   `mapstructure:"auth_enabled"`
	JWTSecret   string `mapstructure:"jwt_secret"`
}

// CorpusConfig controls the on-disk retrieval corpus
type CorpusConfig struct {
	Dir       string `mapstructure:"dir"`
	ChunkSize int    `mapstructure:"chunk_size"`
	Overlap   int    `mapstructure:"overlap"`
}

// LLMConfig contains the generation capability settings. An empty APIKey is
// valid: the service runs with diagnostic fallback replies.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	PromptDir   string        `mapstructure:"prompt_dir"`
}

// StorageConfig selects and configures the session store backend
type StorageConfig struct {
	Driver   string         `mapstructure:"driver"` // memory, postgres, redis
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig mirrors the usual libpq connection settings
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN assembles a postgres connection string from the configured fields.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", errors.New("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// RedisConfig contains redis session store settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LoadConfig reads configuration from the given file, or searches the usual
// locations when path is empty. Environment variables with the COUNTERPOINT_
// prefix override file values. A missing config file is not an error: every
// knob has a documented default.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.SetDefault("server.address", ":10001")
	viper.SetDefault("server.auth_enabled", false)
	viper.SetDefault("corpus.dir", "data/corpora")
	viper.SetDefault("corpus.chunk_size", 400)
	viper.SetDefault("corpus.overlap", 40)
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.2)
	viper.SetDefault("llm.timeout", "30s")
	viper.SetDefault("llm.prompt_dir", "prompts")
	viper.SetDefault("storage.driver", "memory")
	viper.SetDefault("storage.redis.timeout", "5s")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("COUNTERPOINT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && path == "" {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
		if path != "" {
			if _, statErr := os.Stat(path); statErr == nil {
				panic(fmt.Errorf("fatal error config file: %w", err))
			}
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	return &config
}
