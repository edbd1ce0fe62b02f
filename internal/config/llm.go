package config

type LLMConfig struct {
	// BaseURL points at an OpenAI-compatible chat completions API.
	// Empty disables the llm and agent lanes' provider calls.
	BaseURL string
	APIKey  string
	Model   string
}

func NewLLMConfig() *LLMConfig {
	return &LLMConfig{
		BaseURL: getEnv("LLM_BASE_URL", ""),
		APIKey:  getEnv("LLM_API_KEY", ""),
		Model:   getEnv("LLM_MODEL", "gpt-4o-mini"),
	}
}

// Enabled reports whether an LLM provider is configured
func (c *LLMConfig) Enabled() bool {
	return c.BaseURL != ""
}
