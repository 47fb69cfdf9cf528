package ai

// ProviderName represents an AI provider identifier
type ProviderName string

// Provider name constants
const (
	ProviderNameGemini   ProviderName = "gemini"
	ProviderNameOpenAI   ProviderName = "openai"
	ProviderNameDeepSeek ProviderName = "deepseek"
)

// String returns the string representation of the provider name
func (p ProviderName) String() string {
	return string(p)
}

// IsValid checks if the provider name is supported
func (p ProviderName) IsValid() bool {
	switch p {
	case ProviderNameGemini, ProviderNameOpenAI, ProviderNameDeepSeek:
		return true
	default:
		return false
	}
}

// AllProviderNames returns all supported provider names in fallback order
func AllProviderNames() []ProviderName {
	return []ProviderName{
		ProviderNameGemini,
		ProviderNameOpenAI,
		ProviderNameDeepSeek,
	}
}

// Model name constants
const (
	ModelGeminiFlash  = "gemini-2.0-flash"
	ModelGPT4oMini    = "gpt-4o-mini"
	ModelDeepSeekChat = "deepseek-chat"
)

// DefaultModel returns the model used when none is configured
func DefaultModel(p ProviderName) string {
	switch p {
	case ProviderNameGemini:
		return ModelGeminiFlash
	case ProviderNameOpenAI:
		return ModelGPT4oMini
	case ProviderNameDeepSeek:
		return ModelDeepSeekChat
	default:
		return ""
	}
}
