package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"snackzinabi/internal/extraction"
)

// Config is the full server configuration, loaded from a YAML file with
// environment overrides for secrets.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	LLM        LLMConfig        `yaml:"llm"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	Menu       []MenuItem       `yaml:"menu"`
}

// ServerConfig holds the listen addresses.
type ServerConfig struct {
	Port        int `yaml:"port"`
	MetricsPort int `yaml:"metrics_port"`
}

// DatabaseConfig selects the gorm driver and its DSN.
// sqlite3 with a file path is the development default; postgres takes a
// full connection string.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// AuthConfig holds JWT settings. Secret falls back to the SECRET_KEY
// environment variable so the file never has to contain it.
type AuthConfig struct {
	Secret          string `yaml:"secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
}

// LLMConfig configures the chat assistant model. The token is read from the
// environment variable named by APIKeyEnv. BaseURL allows any
// OpenAI-compatible endpoint.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// VocabularyConfig lists the recognized terms per order attribute.
// Order matters: single-valued fields resolve to the first listed term
// found, and multi-valued fields are reported in list order.
type VocabularyConfig struct {
	Plats         []string `yaml:"plats"`
	Viandes       []string `yaml:"viandes"`
	Sauces        []string `yaml:"sauces"`
	Legumes       []string `yaml:"legumes"`
	Tailles       []string `yaml:"tailles"`
	Confirmations []string `yaml:"confirmations"`
}

// MenuItem describes one dish shown to the assistant as context.
type MenuItem struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       float64  `yaml:"price"`
	Tags        []string `yaml:"tags"`
	Available   bool     `yaml:"available"`
}

// Default returns a configuration that runs out of the box with a local
// sqlite database and the venue's standard vocabularies.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8000,
			MetricsPort: 9090,
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "snackzinabi.db",
		},
		Auth: AuthConfig{
			TokenTTLMinutes: 30,
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.groq.com/openai/v1",
			Model:       "meta-llama/llama-4-scout-17b-16e-instruct",
			APIKeyEnv:   "GROQ_API_KEY",
			Temperature: 0.7,
			MaxTokens:   512,
		},
		Vocabulary: VocabularyConfig{
			Plats:         extraction.DefaultDishes,
			Viandes:       extraction.DefaultMeats,
			Sauces:        extraction.DefaultSauces,
			Legumes:       extraction.DefaultVegetables,
			Tailles:       extraction.DefaultSizes,
			Confirmations: extraction.DefaultConfirmationPhrases,
		},
		Menu: []MenuItem{
			{Name: "tacos", Description: "Tacos à la française : viande au choix, sauce fromagère, frites", Price: 7.5, Tags: []string{"plat", "tacos"}, Available: true},
			{Name: "sandwich", Description: "Sandwich baguette, viande au choix, crudités", Price: 5.5, Tags: []string{"plat", "sandwich"}, Available: true},
		},
	}
}

// Load reads the YAML file at path on top of the defaults. A missing file is
// not an error: the defaults are returned as-is so the server can start with
// no configuration at all.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv fills secrets from the environment when the file left them empty.
func (c *Config) applyEnv() {
	if c.Auth.Secret == "" {
		c.Auth.Secret = os.Getenv("SECRET_KEY")
	}
	if c.Auth.Secret == "" {
		c.Auth.Secret = "secret-key"
	}
}

// ExtractionConfig converts the vocabulary section into the extractor's
// configuration.
func (c *Config) ExtractionConfig() extraction.Config {
	return extraction.Config{
		Dishes:        c.Vocabulary.Plats,
		Meats:         c.Vocabulary.Viandes,
		Sauces:        c.Vocabulary.Sauces,
		Vegetables:    c.Vocabulary.Legumes,
		Sizes:         c.Vocabulary.Tailles,
		Confirmations: c.Vocabulary.Confirmations,
	}
}
