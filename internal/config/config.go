package config

// Config is the root configuration for scribebot.
type Config struct {
	Chat       ChatConfig       `json:"chat"`
	Provider   ProviderConfig   `json:"provider"`
	Agent      AgentConfig      `json:"agent"`
	Supervisor SupervisorConfig `json:"supervisor"`
}

// ChatConfig holds chat platform connection settings. APIKey falls back
// to SCRIBEBOT_CHAT_API_KEY in the environment.
type ChatConfig struct {
	APIBase string `json:"apiBase"`
	WSURL   string `json:"wsUrl"`
	APIKey  string `json:"apiKey"`
}

// ProviderConfig holds the completion provider's endpoint and credential.
// APIKey falls back to OPENAI_API_KEY in the environment; the agent
// resolves it at init time.
type ProviderConfig struct {
	APIBase string `json:"apiBase,omitempty"`
	APIKey  string `json:"apiKey"`
}

// AgentConfig holds per-reply completion parameters.
type AgentConfig struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

// SupervisorConfig holds idle-agent sweep settings. A zero idle timeout
// disables the sweep.
type SupervisorConfig struct {
	IdleTimeoutS   int `json:"idleTimeoutSeconds"`
	SweepIntervalS int `json:"sweepIntervalSeconds"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Chat: ChatConfig{
			APIBase: "https://chat.quillworks.io/v1",
			WSURL:   "wss://chat.quillworks.io/v1/connect",
		},
		Agent: AgentConfig{
			Model:       "gpt-4o",
			Temperature: 0.7,
			MaxTokens:   1500,
		},
		Supervisor: SupervisorConfig{
			IdleTimeoutS:   1800,
			SweepIntervalS: 60,
		},
	}
}
