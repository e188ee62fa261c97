package config

// Config holds papercast configuration.
// Stored at: config.yaml next to the binary or under $HOME/.papercast.
type Config struct {
	Server  ServerCfg  `mapstructure:"server" yaml:"server"`
	Storage StorageCfg `mapstructure:"storage" yaml:"storage"`
	Gemini  GeminiCfg  `mapstructure:"gemini" yaml:"gemini"`
	TTS     TTSCfg     `mapstructure:"tts" yaml:"tts"`
	Auth    AuthCfg    `mapstructure:"auth" yaml:"auth"`
}

// ServerCfg configures the HTTP listener.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// StorageCfg configures on-disk document and episode locations.
type StorageCfg struct {
	UploadDir string `mapstructure:"upload_dir" yaml:"upload_dir"` // Uploaded PDFs, one per job id
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"` // Final audio and captions
}

// GeminiCfg configures the text-generation client.
type GeminiCfg struct {
	APIKey            string  `mapstructure:"api_key" yaml:"api_key"` // API key (supports ${ENV_VAR} syntax)
	Model             string  `mapstructure:"model" yaml:"model"`
	MaxAttempts       int     `mapstructure:"max_attempts" yaml:"max_attempts"`               // Total attempts including the first
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" yaml:"retry_delay_seconds"` // Linear backoff base
	RateLimit         float64 `mapstructure:"rate_limit" yaml:"rate_limit"`                   // Requests per minute
}

// TTSCfg configures the speech-synthesis collaborator.
type TTSCfg struct {
	Provider  string `mapstructure:"provider" yaml:"provider"` // "openai" or "" to disable audio stages
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`   // API key (supports ${ENV_VAR} syntax)
	Model     string `mapstructure:"model" yaml:"model"`
	VoicePair string `mapstructure:"voice_pair" yaml:"voice_pair"` // Default pair when uploads carry none
}

// AuthCfg configures credential resolution.
type AuthCfg struct {
	JWTSecret  string `mapstructure:"jwt_secret" yaml:"jwt_secret"` // HMAC secret (supports ${ENV_VAR} syntax)
	AllowGuest bool   `mapstructure:"allow_guest" yaml:"allow_guest"`
}

// ResolvedAPIKey returns the Gemini API key with ${ENV_VAR} references expanded.
func (c GeminiCfg) ResolvedAPIKey() string { return ResolveEnvVars(c.APIKey) }

// ResolvedAPIKey returns the TTS API key with ${ENV_VAR} references expanded.
func (c TTSCfg) ResolvedAPIKey() string { return ResolveEnvVars(c.APIKey) }

// ResolvedSecret returns the JWT secret with ${ENV_VAR} references expanded.
func (c AuthCfg) ResolvedSecret() string { return ResolveEnvVars(c.JWTSecret) }

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Storage: StorageCfg{
			UploadDir: "uploads",
			OutputDir: "output",
		},
		Gemini: GeminiCfg{
			APIKey:            "${GOOGLE_API_KEY}",
			Model:             "gemini-2.5-flash",
			MaxAttempts:       4,
			RetryDelaySeconds: 10,
			RateLimit:         60,
		},
		TTS: TTSCfg{
			Provider:  "openai",
			APIKey:    "${OPENAI_API_KEY}",
			Model:     "tts-1-hd",
			VoicePair: "FM",
		},
		Auth: AuthCfg{
			JWTSecret:  "${PAPERCAST_JWT_SECRET}",
			AllowGuest: true,
		},
	}
}
