package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// HTTP API
	Port     string `long:"port" env:"PORT" default:"8000" description:"HTTP server port"`
	Username string `long:"username" env:"USERNAME" description:"Basic auth username for the API (auth disabled if empty)"`
	Password string `long:"password" env:"PASSWORD" description:"Basic auth password for the API"`

	// Storage
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/headless-rss.sqlite" description:"Path to the SQLite database file"`

	// Feed updates
	UpdateFrequencyMin int `long:"update-frequency-min" env:"FEED_UPDATE_FREQUENCY_MIN" default:"15" description:"Scheduler sweep interval in minutes"`
	WorkerCount        int `long:"worker-count" env:"WORKER_COUNT" default:"1" description:"Number of background workers for feed processing"`

	// LLM integration
	OpenAIAPIKey string `long:"openai-api-key" env:"OPENAI_API_KEY" description:"OpenAI API key (LLM features disabled if empty)"`
	OpenAIModel  string `long:"openai-model" env:"OPENAI_MODEL" default:"gpt-5-mini" description:"OpenAI model used for summaries and newsletter structuring"`

	// Security
	AllowLocalURLs bool `long:"allow-local-urls" env:"ALLOW_LOCAL_URLS" description:"Allow fetching feeds from localhost and loopback addresses (testing only)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"headless-rss/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Port:               raw.Port,
		Username:           raw.Username,
		Password:           raw.Password,
		DBPath:             raw.DBPath,
		UpdateFrequencyMin: raw.UpdateFrequencyMin,
		WorkerCount:        raw.WorkerCount,
		OpenAIAPIKey:       raw.OpenAIAPIKey,
		OpenAIModel:        raw.OpenAIModel,
		AllowLocalURLs:     raw.AllowLocalURLs,
		UserAgent:          raw.UserAgent,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Intended for tests.
func Set(c *Cfg) {
	globalCfg = c
}
