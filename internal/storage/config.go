package storage

type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Reasoner struct {
		Backend        string `yaml:"backend"` // "gateway" or "ollama"
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"reasoner"`

	Gateway struct {
		BaseURL   string `yaml:"base_url"`
		Model     string `yaml:"model"`
		APIKeyEnv string `yaml:"api_key_env"`
	} `yaml:"gateway"`

	Ollama struct {
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"ollama"`

	Recommend struct {
		MinClickHistory int `yaml:"min_click_history"`
		PerSection      int `yaml:"per_section"`
	} `yaml:"recommend"`

	Web struct {
		Addr         string `yaml:"addr"`
		JWTSecretEnv string `yaml:"jwt_secret_env"`
	} `yaml:"web"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Database.Path = "./digest.db"
	cfg.Reasoner.Backend = "gateway"
	cfg.Reasoner.TimeoutSeconds = 45
	cfg.Gateway.BaseURL = "https://ai.gateway.lovable.dev/v1"
	cfg.Gateway.Model = "google/gemini-2.5-flash"
	cfg.Gateway.APIKeyEnv = "DIGEST_API_KEY"
	cfg.Ollama.BaseURL = "http://localhost:11434"
	cfg.Ollama.Model = "llama3"
	cfg.Recommend.MinClickHistory = 1
	cfg.Recommend.PerSection = 4
	cfg.Web.Addr = ":8080"
	cfg.Web.JWTSecretEnv = "DIGEST_JWT_SECRET"
	return cfg
}
