package config

const (
	DefaultTimeoutMs    = 30000
	DefaultMaxRedirects = 10
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:         DefaultTimeoutMs,
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    DefaultMaxRedirects,
		ValidateSSL:     BoolPtr(true),
		Reporters:       []string{"console"},
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.BaseURL == "" &&
		c.Timeout == defaults.Timeout &&
		c.GetFollowRedirects() == defaults.GetFollowRedirects() &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.GetValidateSSL() == defaults.GetValidateSSL() &&
		c.Proxy == "" &&
		len(c.Headers) == 0 &&
		len(c.Variables) == 0 &&
		len(c.EnvFiles) == 0 &&
		c.DefaultsDB == "" &&
		!c.GetBail() &&
		!c.GetVerbose() &&
		!c.GetNoColor()
}
