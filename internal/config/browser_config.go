package config

// HeadlessBrowserConfig configures the rod-driven Chrome used to render pages
type HeadlessBrowserConfig struct {
	ChromePath    string `json:"chrome_path,omitempty" yaml:"chrome_path,omitempty"`
	UserDataDir   string `json:"user_data_dir,omitempty" yaml:"user_data_dir,omitempty"`
	ControlURL    string `json:"control_url,omitempty" yaml:"control_url,omitempty"`
	Headless      bool   `json:"headless" yaml:"headless"`
	WindowWidth   int    `json:"window_width,omitempty" yaml:"window_width,omitempty" validate:"omitempty,min=100"`
	WindowHeight  int    `json:"window_height,omitempty" yaml:"window_height,omitempty" validate:"omitempty,min=100"`
	DisableImages bool   `json:"disable_images" yaml:"disable_images"`
	UserAgent     string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
}

// NewDefaultHeadlessBrowserConfig creates default browser settings
func NewDefaultHeadlessBrowserConfig() HeadlessBrowserConfig {
	return HeadlessBrowserConfig{
		Headless:     DefaultBrowserHeadless,
		WindowWidth:  DefaultBrowserWindowWidth,
		WindowHeight: DefaultBrowserWindowHeight,
		UserAgent:    DefaultBrowserUserAgent,
	}
}
