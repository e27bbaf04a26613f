package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
	ObjectStore ObjectStoreConfig         `json:"object_store"`
	Auth        AuthConfig                `json:"auth"`
	Reader      ReaderConfig              `json:"reader"`
	Media       MediaConfig               `json:"media"`
	Providers   map[string]ProviderConfig `json:"providers"`
}

type BasicConfig struct {
	ServerAddress string `json:"server_address"`
	// SummaryProvider selects the providers entry used for summarization.
	SummaryProvider string `json:"summary_provider"`
	// PipelineTimeout bounds one background task, in minutes. 0 means the
	// default of 10 minutes.
	PipelineTimeout int `json:"pipeline_timeout_minutes"`
	// MaxPipelineWorkers caps concurrently running background tasks.
	// 0 means unlimited.
	MaxPipelineWorkers int `json:"max_pipeline_workers"`
	// SummaryInputLimit truncates extracted text before prompting, in bytes.
	// 0 means the default of 48000.
	SummaryInputLimit int `json:"summary_input_limit"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type ObjectStoreConfig struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	UseSSL    bool   `json:"use_ssl"`
}

// AuthConfig points at the identity provider's token verification endpoint.
type AuthConfig struct {
	VerifyURL string `json:"verify_url"`
	APIKey    string `json:"api_key"`
	Timeout   int    `json:"timeout_seconds"`
}

// ReaderConfig points at the URL-to-text reader gateway.
type ReaderConfig struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
	Timeout int    `json:"timeout_seconds"`
}

// MediaConfig selects the multimodal model used to transcribe images,
// audio and video into text.
type MediaConfig struct {
	Model  string `json:"model"`
	APIKey string `json:"api_key"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

// Load reads configuration from the provided path (defaults to config.json).
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if len(cfg.Databases) == 0 {
		return nil, fmt.Errorf("at least one databases entry must be configured")
	}

	return &cfg, nil
}
