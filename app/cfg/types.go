package cfg

type Cfg struct {
	// HTTP API
	Port     string
	Username string
	Password string

	// Storage
	DBPath string

	// Feed updates
	UpdateFrequencyMin int
	WorkerCount        int

	// LLM integration
	OpenAIAPIKey string
	OpenAIModel  string

	// Security
	AllowLocalURLs bool

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}

// LLMEnabled reports whether LLM-backed summarization and newsletter
// structuring is available.
func (c *Cfg) LLMEnabled() bool {
	return c.OpenAIAPIKey != ""
}
