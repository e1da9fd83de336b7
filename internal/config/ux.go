package config

import "time"

// UIConfig holds terminal UI configuration.
type UIConfig struct {
	// ErrorBannerTimeout is how long an error stays on screen (default 5s)
	ErrorBannerTimeout string `yaml:"error_banner_timeout"`

	// Theme is "auto", "light" or "dark"
	Theme string `yaml:"theme"`

	// Graph canvas size in terminal cells
	GraphWidth  int `yaml:"graph_width"`
	GraphHeight int `yaml:"graph_height"`

	// Examples are sample expressions per operation, cycled with ctrl+e
	Examples map[string][]string `yaml:"examples"`
}

// DefaultUIConfig returns sensible UI defaults.
func DefaultUIConfig() UIConfig {
	return UIConfig{
		ErrorBannerTimeout: "5s",
		Theme:              "auto",
		GraphWidth:         64,
		GraphHeight:        16,
		Examples: map[string][]string{
			"derivative": {"x^3 + 2*x^2 - 5*x + 1", "sin(x)*cos(x)", "e^(2*x)", "ln(x^2 + 1)"},
			"integral":   {"x^2", "sin(x)", "1/x", "x*e^x"},
			"limit":      {"sin(x)/x", "(1 + 1/x)^x", "(x^2 - 1)/(x - 1)"},
			"series":     {"e^x", "sin(x)", "cos(x)", "1/(1 - x)"},
		},
	}
}

// GetErrorBannerTimeout returns the banner auto-dismiss delay.
func (c *Config) GetErrorBannerTimeout() time.Duration {
	d, err := time.ParseDuration(c.UI.ErrorBannerTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// ExamplesFor returns the sample expressions configured for an operation.
func (c *Config) ExamplesFor(operation string) []string {
	if ex, ok := c.UI.Examples[operation]; ok && len(ex) > 0 {
		return ex
	}
	return DefaultUIConfig().Examples[operation]
}
