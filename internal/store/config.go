package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr         string        `yaml:"addr" validate:"required"`
		WebhookPath  string        `yaml:"webhook_path" validate:"required,startswith=/"`
		ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gt=0"`
		WriteTimeout time.Duration `yaml:"write_timeout" validate:"gt=0"`

		// Async acknowledges the update before the pipeline runs.
		Async           bool          `yaml:"async"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
	} `yaml:"server"`
	Bot struct {
		APIBase       string  `yaml:"api_base" validate:"required,url"`
		ParseMode     string  `yaml:"parse_mode"`
		AckMessage    bool    `yaml:"ack_message"`
		UsageHint     bool    `yaml:"usage_hint"`
		RatePerSecond float64 `yaml:"rate_per_second" validate:"gt=0"`
	} `yaml:"bot"`
	// Timeouts bound every outbound call. Aggregate caps the whole join below
	// Task when shorter; 0 disables it.
	Timeouts struct {
		Quote       time.Duration `yaml:"quote" validate:"gt=0"`
		Bars        time.Duration `yaml:"bars" validate:"gt=0"`
		News        time.Duration `yaml:"news" validate:"gt=0"`
		Task        time.Duration `yaml:"task" validate:"gt=0"`
		Aggregate   time.Duration `yaml:"aggregate" validate:"gte=0"`
		Narrative   time.Duration `yaml:"narrative" validate:"gt=0"`
		BackendCall time.Duration `yaml:"backend_call" validate:"gt=0"`
		Delivery    time.Duration `yaml:"delivery" validate:"gt=0"`
	} `yaml:"timeouts"`
	Quote struct {
		BaseURL string `yaml:"base_url" validate:"required,url"`
	} `yaml:"quote"`
	Bars struct {
		BaseURL  string   `yaml:"base_url" validate:"required,url"`
		Range    string   `yaml:"range" validate:"required"`
		Interval string   `yaml:"interval" validate:"required"`
		Suffixes []string `yaml:"suffixes" validate:"min=1,dive,required"`
	} `yaml:"bars"`
	News struct {
		BaseURL       string      `yaml:"base_url" validate:"required,url"`
		Cap           int         `yaml:"cap" validate:"gt=0"`
		DefaultTag    string      `yaml:"default_tag" validate:"required"`
		Domestic      FeedConfig  `yaml:"domestic"`
		International FeedConfig  `yaml:"international"`
		Publishers    []Publisher `yaml:"publishers" validate:"dive"`
	} `yaml:"news"`
	LLM struct {
		// Backends is the ordered priority list of model ids, optionally provider-prefixed.
		Backends       []string `yaml:"backends" validate:"dive,required"`
		MaxTokens      int      `yaml:"max_tokens" validate:"gte=0"`
		Temperature    float32  `yaml:"temperature" validate:"gte=0"`
		OpenAIEndpoint string   `yaml:"openai_endpoint" validate:"omitempty,url"`
	} `yaml:"llm"`

	Secrets Secrets `yaml:"-"`
}

// FeedConfig parameterizes one news search query.
type FeedConfig struct {
	Name     string   `yaml:"name" validate:"required"`
	Keywords string   `yaml:"keywords"`
	Sites    []string `yaml:"sites" validate:"min=1,dive,required"`
	Recency  string   `yaml:"recency"`
	HL       string   `yaml:"hl" validate:"required"`
	GL       string   `yaml:"gl" validate:"required"`
	CEID     string   `yaml:"ceid" validate:"required"`

	// IncludeName ORs the resolved display name with the ticker in the query.
	IncludeName bool `yaml:"include_name"`
}

// Publisher maps a domain substring to the tag shown next to a headline.
type Publisher struct {
	Match string `yaml:"match" validate:"required"`
	Tag   string `yaml:"tag" validate:"required"`
}

// Secrets are read from the environment only.
type Secrets struct {
	TelegramToken   string
	GeminiAPIKey    string
	AnthropicAPIKey string
	OpenAIAPIKey    string
}

// Default returns the built-in configuration.
func Default() *Config {
	var c Config
	c.Server.Addr = ":8080"
	c.Server.WebhookPath = "/webhook"
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Server.Async = true
	c.Server.ShutdownTimeout = 20 * time.Second

	c.Bot.APIBase = "https://api.telegram.org"
	c.Bot.ParseMode = "Markdown"
	c.Bot.AckMessage = true
	c.Bot.UsageHint = true
	c.Bot.RatePerSecond = 25

	c.Timeouts.Quote = 3 * time.Second
	c.Timeouts.Bars = 2 * time.Second
	c.Timeouts.News = 2500 * time.Millisecond
	c.Timeouts.Task = 3500 * time.Millisecond
	c.Timeouts.Aggregate = 3200 * time.Millisecond
	c.Timeouts.Narrative = 7 * time.Second
	c.Timeouts.BackendCall = 6 * time.Second
	c.Timeouts.Delivery = 5 * time.Second

	c.Quote.BaseURL = "https://mis.twse.com.tw"

	c.Bars.BaseURL = "https://query1.finance.yahoo.com"
	c.Bars.Range = "2mo"
	c.Bars.Interval = "1d"
	c.Bars.Suffixes = []string{".TW", ".TWO"}

	c.News.BaseURL = "https://news.google.com"
	c.News.Cap = 2
	c.News.DefaultTag = "權威媒體"
	c.News.Domestic = FeedConfig{
		Name:        "domestic",
		Sites:       []string{"cnyes.com", "moneydj.com", "ctee.com.tw", "udn.com", "bnext.com.tw"},
		Recency:     "1d",
		HL:          "zh-TW",
		GL:          "TW",
		CEID:        "TW:zh-Hant",
		IncludeName: true,
	}
	c.News.International = FeedConfig{
		Name:     "international",
		Keywords: "Taiwan",
		Sites:    []string{"reuters.com", "bloomberg.com", "cnbc.com", "wsj.com"},
		Recency:  "1d",
		HL:       "en-US",
		GL:       "US",
		CEID:     "US:en",
	}
	c.News.Publishers = []Publisher{
		{Match: "cnyes", Tag: "鉅亨網"},
		{Match: "moneydj", Tag: "MoneyDJ"},
		{Match: "reuters", Tag: "Reuters"},
		{Match: "bloomberg", Tag: "Bloomberg"},
		{Match: "ctee", Tag: "工商時報"},
		{Match: "udn", Tag: "經濟日報"},
		{Match: "bnext", Tag: "數位時代"},
		{Match: "cnbc", Tag: "CNBC"},
		{Match: "wsj", Tag: "WSJ"},
	}

	c.LLM.Backends = []string{"gemini-3-flash-preview", "gemini-2.5-flash"}
	c.LLM.MaxTokens = 1024
	c.LLM.Temperature = 0.4
	c.LLM.OpenAIEndpoint = "https://api.openai.com/v1/chat/completions"
	return &c
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Timeouts.BackendCall > c.Timeouts.Narrative {
		return fmt.Errorf("timeouts.backend_call (%s) must not exceed timeouts.narrative (%s)", c.Timeouts.BackendCall, c.Timeouts.Narrative)
	}
	for _, s := range c.Bars.Suffixes {
		if !strings.HasPrefix(s, ".") {
			return fmt.Errorf("invalid bars suffix '%s': must start with '.'", s)
		}
	}
	return nil
}

// LoadConfig overlays the yaml file at path (if present) and the environment on Default().
func LoadConfig(path string) (*Config, error) {
	c := Default()

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	default:
		return nil, err
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	c.Secrets = Secrets{
		TelegramToken:   os.Getenv("TG_BOT_TOKEN"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if v := os.Getenv("LLM_BACKENDS"); v != "" {
		var backends []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				backends = append(backends, b)
			}
		}
		c.LLM.Backends = backends
	}
}
