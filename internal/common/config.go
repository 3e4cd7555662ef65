package common

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/kyc-verifier/constants"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	OCR      OCRConfig      `yaml:"ocr"`
	LLM      LLMConfig      `yaml:"llm"`
	Verify   VerifyConfig   `yaml:"verify"`
	Queue    QueueConfig    `yaml:"queue"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds database-related configuration. An empty DSN selects
// the SQLite backend at SQLitePath.
type DatabaseConfig struct {
	DSN              string        `yaml:"dsn"`
	SQLitePath       string        `yaml:"sqlite_path"`
	MaxConns         int32         `yaml:"max_conns"`
	MinConns         int32         `yaml:"min_conns"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

type ServerConfig struct {
	GRPCAddr    string `yaml:"grpc_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
}

type OCRConfig struct {
	Tesseract   string `yaml:"tesseract"`
	Lang        string `yaml:"lang"`
	TessdataDir string `yaml:"tessdata_dir"`
	PSM         int    `yaml:"psm"`
	OEM         int    `yaml:"oem"`
}

type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
	// RegexFallback enables the pattern extractor when the model yields nothing.
	RegexFallback bool `yaml:"regex_fallback"`
}

type VerifyConfig struct {
	KeyRules           []string `yaml:"key_rules"`
	MinExtractedFields int      `yaml:"min_extracted_fields"`
}

// RuleIDs returns the configured key rules as typed ids.
func (v VerifyConfig) RuleIDs() []constants.RuleID {
	out := make([]constants.RuleID, 0, len(v.KeyRules))
	for _, r := range v.KeyRules {
		out = append(out, constants.RuleID(strings.TrimSpace(r)))
	}
	return out
}

type QueueConfig struct {
	Workers         int           `yaml:"workers"`
	Size            int           `yaml:"size"`
	DocumentWorkers int           `yaml:"document_workers"`
	ProcessTimeout  time.Duration `yaml:"process_timeout"`
	WatchDebounce   time.Duration `yaml:"watch_debounce"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// SlogLevel maps the configured level name; unknown names mean info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			SQLitePath:       getEnv("SQLITE_PATH", "kyc.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr:    getEnv("GRPC_ADDR", ":8080"),
			MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
		},
		OCR: OCRConfig{
			Tesseract:   getEnv("TESSERACT_BIN", "tesseract"),
			Lang:        getEnv("TESSERACT_LANG", "eng"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			PSM:         getEnvAsInt("TESSERACT_PSM", 6),
			OEM:         getEnvAsInt("TESSERACT_OEM", 1),
		},
		LLM: LLMConfig{
			Provider:      getEnv("LLM_PROVIDER", "groq"),
			BaseURL:       getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:         getEnv("LLM_MODEL", "openai/gpt-oss-20b"),
			APIKey:        getEnv("GROQ_API_KEY", getEnv("OPENAI_API_KEY", "")),
			Temperature:   getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			MaxTokens:     getEnvAsInt("LLM_MAX_TOKENS", 2000),
			Timeout:       getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
			RegexFallback: getEnvAsBool("LLM_REGEX_FALLBACK", true),
		},
		Verify: VerifyConfig{
			KeyRules:           getEnvAsList("VERIFY_KEY_RULES", []string{string(constants.RuleNameMatch), string(constants.RuleDOBMatch)}),
			MinExtractedFields: getEnvAsInt("VERIFY_MIN_EXTRACTED_FIELDS", 5),
		},
		Queue: QueueConfig{
			Workers:         getEnvAsInt("QUEUE_WORKERS", 2),
			Size:            getEnvAsInt("QUEUE_SIZE", 64),
			DocumentWorkers: getEnvAsInt("DOCUMENT_WORKERS", 3),
			ProcessTimeout:  getEnvAsDuration("PROCESS_TIMEOUT", 5*time.Minute),
			WatchDebounce:   getEnvAsDuration("WATCH_DEBOUNCE", 750*time.Millisecond),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

// Load reads the environment and, when path is set, overlays a YAML file.
// String values in the file may reference the environment as ${VAR}.
func Load(path string) (*Config, error) {
	cfg := LoadConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapError(err, "read config file")
	}
	if err := cfg.Overlay(data); err != nil {
		return nil, WrapError(err, fmt.Sprintf("parse config file %s", path))
	}
	return cfg, nil
}

// Overlay applies YAML on top of the current values. Keys absent from the
// document keep their current value.
func (c *Config) Overlay(data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.Content) == 0 {
		return nil
	}
	expandEnv(&doc)
	return doc.Decode(c)
}

func expandEnv(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str" && strings.Contains(n.Value, "${") {
		n.Value = os.Expand(n.Value, os.Getenv)
		return
	}
	for _, child := range n.Content {
		expandEnv(child)
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the loaded configuration. Backend credentials are checked
// where they are used, since the batch and verify commands need neither.
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("server.grpc_addr", c.Server.GRPCAddr, Required)
	v.Field("llm.model", c.LLM.Model, Required)
	v.Field("llm.base_url", c.LLM.BaseURL, Required)
	v.Field("verify.min_extracted_fields", c.Verify.MinExtractedFields, NonNegative)
	v.Field("queue.workers", c.Queue.Workers, Positive)
	v.Field("queue.size", c.Queue.Size, NonNegative)
	v.Field("queue.document_workers", c.Queue.DocumentWorkers, Positive)
	v.Field("queue.process_timeout", c.Queue.ProcessTimeout, Positive)
	v.Field("log.level", strings.ToLower(c.Log.Level), OneOf("debug", "info", "warn", "warning", "error"))
	for _, id := range c.Verify.RuleIDs() {
		v.Field("verify.key_rules", string(id), KnownRule)
	}
	if v.HasErrors() {
		return NewAppError(CodeConfig, v.ErrorMessage(), ErrValidation)
	}
	return nil
}
