package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joseph-ayodele/kyc-verifier/constants"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "openai/gpt-oss-20b"
)

// Config for an OpenAI-compatible chat-completions endpoint.
type Config struct {
	APIKey      string        // if empty, falls back to env GROQ_API_KEY, then OPENAI_API_KEY
	BaseURL     string        // default DefaultBaseURL
	Model       string        // default DefaultModel
	Temperature float32       // 0..2
	MaxTokens   int           // default 2000
	Timeout     time.Duration // http client timeout
	Provider    string        // recorded as the field source; default "groq"
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GROQ_API_KEY")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Provider == "" {
		cfg.Provider = "groq"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Source is the provenance recorded on values this client extracts.
func (c *Client) Source() constants.Source { return constants.Source(c.cfg.Provider) }
