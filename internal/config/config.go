// Package config loads service configuration from an optional YAML file
// overridden by RAG_-prefixed environment variables. Secrets are never part
// of the config values themselves: config names the environment variable a
// secret lives in, and the component reads it at construction time.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Config is the full service configuration tree.
type Config struct {
	Server    Server    `koanf:"server"`
	Database  Database  `koanf:"database"`
	Auth      Auth      `koanf:"auth"`
	Embedding Embedding `koanf:"embedding"`
	LLM       LLM       `koanf:"llm"`
	Index     Index     `koanf:"index"`
	Upload    Upload    `koanf:"upload"`
}

// Server configures the HTTP listener.
type Server struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// Addr returns the listen address.
func (s Server) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// Database configures the SQLite metadata store.
type Database struct {
	Path string `koanf:"path"`
}

// Auth configures token issuance.
type Auth struct {
	SecretKeyEnv    string `koanf:"secret_key_env"`
	TokenTTLMinutes int    `koanf:"token_ttl_minutes"`
}

// Secret reads the signing secret from the configured environment variable.
func (a Auth) Secret() (string, error) {
	secret := os.Getenv(a.SecretKeyEnv)
	if secret == "" {
		return "", fmt.Errorf("missing signing secret in env %s", a.SecretKeyEnv)
	}
	return secret, nil
}

// TokenTTL returns the configured token lifetime.
func (a Auth) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

// Embedding selects and configures the embedding provider.
type Embedding struct {
	Provider  string `koanf:"provider"`
	BaseURL   string `koanf:"base_url"`
	Model     string `koanf:"model"`
	APIKeyEnv string `koanf:"api_key_env"`
	Dimension int    `koanf:"dimension"`
}

// LLM configures the answer model.
type LLM struct {
	BaseURL     string  `koanf:"base_url"`
	Model       string  `koanf:"model"`
	APIKeyEnv   string  `koanf:"api_key_env"`
	Temperature float64 `koanf:"temperature"`
}

// Index selects and configures the vector index backend.
type Index struct {
	Provider            string `koanf:"provider"`
	Host                string `koanf:"host"`
	Port                int    `koanf:"port"`
	APIKeyEnv           string `koanf:"api_key_env"`
	UseTLS              bool   `koanf:"use_tls"`
	Collection          string `koanf:"collection"`
	ReadyTimeoutSeconds int    `koanf:"ready_timeout_seconds"`
}

// ReadyTimeout returns the provisioning wait bound.
func (i Index) ReadyTimeout() time.Duration {
	return time.Duration(i.ReadyTimeoutSeconds) * time.Second
}

// Upload configures where uploaded files are kept.
type Upload struct {
	Dir string `koanf:"dir"`
}

// envPrefix namespaces the override variables, e.g. RAG_SERVER_PORT=9000
// becomes server.port.
const envPrefix = "RAG_"

// Default returns the configuration used when neither file nor environment
// says otherwise.
func Default() Config {
	return Config{
		Server:   Server{Host: "0.0.0.0", Port: 8080},
		Database: Database{Path: "rag.db"},
		Auth: Auth{
			SecretKeyEnv:    "SECRET_KEY",
			TokenTTLMinutes: 30,
		},
		Embedding: Embedding{
			Provider:  "openai",
			Model:     "text-embedding-ada-002",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
		},
		LLM: LLM{
			Model:       "gpt-3.5-turbo",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0.1,
		},
		Index: Index{
			Provider:            "qdrant",
			Host:                "localhost",
			Port:                6334,
			APIKeyEnv:           "QDRANT_API_KEY",
			Collection:          "org-documents",
			ReadyTimeoutSeconds: 30,
		},
		Upload: Upload{Dir: "uploaded_files"},
	}
}

// Load reads configuration in ascending precedence: defaults, then the YAML
// file at path (skipped when path is empty or the file is absent), then
// environment variables.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err == nil {
			if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey maps RAG_SECTION_SOME_FIELD to section.some_field. The first
// underscore after the prefix separates the section from the field name.
func envKey(raw string) string {
	key := strings.ToLower(strings.TrimPrefix(raw, envPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// Validate rejects configurations that cannot be wired into a working
// service.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Embedding.Provider {
	case "openai", "local":
	default:
		return fmt.Errorf("embedding.provider %q must be openai or local", c.Embedding.Provider)
	}
	switch c.Index.Provider {
	case "qdrant", "memory":
	default:
		return fmt.Errorf("index.provider %q must be qdrant or memory", c.Index.Provider)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive")
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		return fmt.Errorf("auth.token_ttl_minutes must be positive")
	}
	return nil
}
