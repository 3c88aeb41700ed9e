package tripagent

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/Desarso/tripagent/stores"
)

// Config holds everything the service needs to start. Values come from the
// defaults, then the TOML file, then the environment.
type Config struct {
	ModelProvider string `toml:"model_provider"`
	ModelName     string `toml:"model_name"`
	ModelBaseURL  string `toml:"model_base_url"`
	ModelAPIKey   string `toml:"model_api_key"`

	SerpAPIKey      string `toml:"serpapi_api_key"`
	GeminiAPIKey    string `toml:"gemini_api_key"`
	AnthropicAPIKey string `toml:"anthropic_api_key"`

	PreferenceProvider string `toml:"preference_provider"`
	PreferenceModel    string `toml:"preference_model"`

	StoreType        string `toml:"store_type"`
	StoreDSN         string `toml:"store_dsn"`
	FirestoreProject string `toml:"firestore_project"`

	ListenAddr    string        `toml:"listen_addr"`
	MaxRounds     int           `toml:"max_rounds"`
	DefaultOrigin string        `toml:"default_origin"`
	Currency      string        `toml:"search_currency"`
	Language      string        `toml:"search_language"`
	Region        string        `toml:"search_region"`
	ToolTimeout   time.Duration `toml:"-"`
	ItineraryDir  string        `toml:"itinerary_dir"`

	// ToolTimeoutText is the TOML spelling of ToolTimeout, e.g. "30s".
	ToolTimeoutText string `toml:"tool_timeout"`

	Store stores.SessionStore `toml:"-"`
}

// NewConfig returns the defaults.
func NewConfig() *Config {
	return &Config{
		ModelProvider:      "openai",
		ModelName:          "deepseek-chat",
		ModelBaseURL:       "https://api.deepseek.com",
		PreferenceProvider: "agent",
		StoreType:          "sqlite",
		StoreDSN:           "tripagent.sqlite",
		ListenAddr:         ":8080",
		MaxRounds:          8,
		DefaultOrigin:      "Kuala Lumpur (KUL)",
		Currency:           "MYR",
		Language:           "en",
		Region:             "my",
		ToolTimeout:        30 * time.Second,
		ItineraryDir:       ".",
	}
}

// LoadConfig reads .env (if present), the TOML file named by
// TRIPAGENT_CONFIG (default tripagent.toml, optional) and the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := NewConfig()

	path := os.Getenv("TRIPAGENT_CONFIG")
	if path == "" {
		path = "tripagent.toml"
	}
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat config %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if c.ToolTimeoutText != "" {
		d, err := time.ParseDuration(c.ToolTimeoutText)
		if err != nil {
			return fmt.Errorf("invalid tool_timeout %q: %w", c.ToolTimeoutText, err)
		}
		c.ToolTimeout = d
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	str("MODEL_PROVIDER", &c.ModelProvider)
	str("MODEL_NAME", &c.ModelName)
	str("MODEL_BASE_URL", &c.ModelBaseURL)
	str("DEEPSEEK_API_KEY", &c.ModelAPIKey)
	str("MODEL_API_KEY", &c.ModelAPIKey)
	str("SERPAPI_API_KEY", &c.SerpAPIKey)
	str("GEMINI_API_KEY", &c.GeminiAPIKey)
	str("ANTHROPIC_API_KEY", &c.AnthropicAPIKey)
	str("PREFERENCE_PROVIDER", &c.PreferenceProvider)
	str("PREFERENCE_MODEL", &c.PreferenceModel)
	str("STORE_TYPE", &c.StoreType)
	str("STORE_DSN", &c.StoreDSN)
	str("FIRESTORE_PROJECT", &c.FirestoreProject)
	str("LISTEN_ADDR", &c.ListenAddr)
	str("DEFAULT_ORIGIN", &c.DefaultOrigin)
	str("SEARCH_CURRENCY", &c.Currency)
	str("SEARCH_LANGUAGE", &c.Language)
	str("SEARCH_REGION", &c.Region)
	str("ITINERARY_DIR", &c.ItineraryDir)

	if v, ok := lookup("MAX_ROUNDS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid MAX_ROUNDS %q", v)
		}
		c.MaxRounds = n
	}
	if v, ok := lookup("TOOL_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOOL_TIMEOUT %q: %w", v, err)
		}
		c.ToolTimeout = d
	}
	return nil
}

// StoreConfig describes the configured store for stores.NewStore.
func (c *Config) StoreConfig() *stores.StoreConfig {
	conn := c.StoreDSN
	if c.StoreType == "firestore" {
		conn = c.FirestoreProject
	}
	return stores.NewStoreConfig(c.StoreType, conn)
}

// OpenStore returns the explicitly set store, or opens the configured one.
func (c *Config) OpenStore() (stores.SessionStore, error) {
	if c.Store != nil {
		return c.Store, nil
	}
	store, err := stores.NewStore(c.StoreConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", c.StoreType, err)
	}
	c.Store = store
	return store, nil
}

// WithModelName sets the model name for the configuration
func (c *Config) WithModelName(modelName string) *Config {
	c.ModelName = modelName
	return c
}

// WithStore sets the session store for the configuration
func (c *Config) WithStore(store stores.SessionStore) *Config {
	c.Store = store
	return c
}

// WithSQLiteStore sets a SQLite store with the specified database path
func (c *Config) WithSQLiteStore(dbPath string) *Config {
	store, err := stores.NewSQLiteStoreSimple(dbPath)
	if err != nil {
		panic("Failed to create SQLite store: " + err.Error())
	}
	c.Store = store
	return c
}

// WithPostgresStore sets a PostgreSQL store with the specified connection parameters
func (c *Config) WithPostgresStore(host, user, password, dbname string, port int) *Config {
	store, err := stores.NewPostgresStoreDefault(host, user, password, dbname, port)
	if err != nil {
		panic("Failed to create PostgreSQL store: " + err.Error())
	}
	c.Store = store
	return c
}

// WithMaxRounds bounds the tool rounds of a turn.
func (c *Config) WithMaxRounds(n int) *Config {
	if n > 0 {
		c.MaxRounds = n
	}
	return c
}
