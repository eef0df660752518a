package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the wlshot CLI configuration.
type Config struct {
	Capture CaptureConfig `mapstructure:"capture"`
	Output  OutputConfig  `mapstructure:"output"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	// Debug turns on the WLSHOT_DEBUG log.
	Debug bool `mapstructure:"debug"`
}

// CaptureConfig controls how frames are requested from the compositor
type CaptureConfig struct {
	// Cursor composites the pointer into the screenshot
	Cursor bool `mapstructure:"cursor"`
	// SkipFailed leaves out outputs whose frame failed instead of aborting
	SkipFailed bool `mapstructure:"skip_failed"`
	// TimeoutMs bounds one capture (0 = library default)
	TimeoutMs int `mapstructure:"timeout_ms"`
	// Display is the Wayland socket to use (empty = WAYLAND_DISPLAY)
	Display string `mapstructure:"display"`
}

// OutputConfig controls how the image is written
type OutputConfig struct {
	// Format is "png" or "jpeg"
	Format string `mapstructure:"format"`
	// Quality is the JPEG quality, 1-100
	Quality int `mapstructure:"quality"`
	// Dir receives screenshots when no path is given
	Dir string `mapstructure:"dir"`
	// Gray writes a single-channel image
	Gray bool `mapstructure:"gray"`
}

// NotifyConfig controls desktop notifications
type NotifyConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func (c *CaptureConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Format:  "png",
			Quality: 90,
		},
	}
}

// SetDefaults registers every key on v so that env variables and flags can
// override them.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("capture.cursor", defaults.Capture.Cursor)
	v.SetDefault("capture.skip_failed", defaults.Capture.SkipFailed)
	v.SetDefault("capture.timeout_ms", defaults.Capture.TimeoutMs)
	v.SetDefault("capture.display", defaults.Capture.Display)

	v.SetDefault("output.format", defaults.Output.Format)
	v.SetDefault("output.quality", defaults.Output.Quality)
	v.SetDefault("output.dir", defaults.Output.Dir)
	v.SetDefault("output.gray", defaults.Output.Gray)

	v.SetDefault("notify.enabled", defaults.Notify.Enabled)
	v.SetDefault("debug", defaults.Debug)
}

// New returns a viper instance wired for wlshot: defaults, WLSHOT_* env
// variables and the optional config file.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("WLSHOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load reads the configuration from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Output.Format = strings.ToLower(cfg.Output.Format)
	if cfg.Output.Format == "jpg" {
		cfg.Output.Format = "jpeg"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Output.Format {
	case "png", "jpeg":
	default:
		errs = append(errs, fmt.Errorf("output.format: %q is not png or jpeg", c.Output.Format))
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		errs = append(errs, fmt.Errorf("output.quality: %d is outside 1-100", c.Output.Quality))
	}
	if c.Capture.TimeoutMs < 0 {
		errs = append(errs, fmt.Errorf("capture.timeout_ms: %d is negative", c.Capture.TimeoutMs))
	}
	return errors.Join(errs...)
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wlshot")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wlshot"
	}
	return filepath.Join(home, ".config", "wlshot")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
