package config

import (
	"fmt"
	"runtime"
	"strings"

	"distpress/internal/catalog"
	"distpress/internal/codec"
	"distpress/internal/report"

	"github.com/spf13/viper"
)

// Config represents the main configuration structure
type Config struct {
	OutputDirectory string         `mapstructure:"output_directory"`
	Enabled         bool           `mapstructure:"enabled"`
	Verbose         bool           `mapstructure:"verbose"`
	Algorithm       string         `mapstructure:"algorithm"`
	OutputExtension string         `mapstructure:"output_extension"`
	CodecOptions    map[string]any `mapstructure:"codec_options"`
	DeleteOriginal  bool           `mapstructure:"delete_original"`
	Filter          FilterConfig   `mapstructure:"filter"`

	Performance PerformanceConfig `mapstructure:"performance"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Web         WebConfig         `mapstructure:"web"`

	// OnComplete, when set, receives the report once per run after it
	// has been rendered. API-only: not expressible in a config file.
	OnComplete func(*report.Report) `mapstructure:"-"`
}

// FilterConfig narrows the discovered files to the compression
// candidates. Predicate beats Pattern beats Extensions; when none is
// set every file is kept.
type FilterConfig struct {
	Pattern            string   `mapstructure:"pattern"`
	Extensions         []string `mapstructure:"extensions"`
	SizeThresholdBytes int64    `mapstructure:"size_threshold_bytes"`

	// Predicate is an arbitrary test over the file's absolute path.
	// API-only: not expressible in a config file.
	Predicate func(path string) bool `mapstructure:"-"`
}

// PerformanceConfig contains performance tuning settings
type PerformanceConfig struct {
	WorkerThreads int `mapstructure:"worker_threads"`
	BatchSize     int `mapstructure:"batch_size"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// WebConfig contains web dashboard settings
type WebConfig struct {
	Port int `mapstructure:"port"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		OutputDirectory: "dist",
		Enabled:         true,
		Verbose:         true,
		Algorithm:       string(codec.Gzip),
		OutputExtension: "", // derived from the algorithm
		CodecOptions:    map[string]any{},
		DeleteOriginal:  false,
		Filter: FilterConfig{
			Extensions:         append([]string(nil), catalog.DefaultExtensions...),
			SizeThresholdBytes: 1025,
		},
		Performance: PerformanceConfig{
			WorkerThreads: 0, // 0 means max(NumCPU, 2)
			BatchSize:     100,
		},
		Logging: LoggingConfig{
			Level:      "info",
			FilePath:   "",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		},
		Web: WebConfig{
			Port: 8080,
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		// Look for config file in current directory and home directory
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.distpress")
		viper.AddConfigPath("/etc/distpress")
	}

	// Enable environment variable support
	viper.SetEnvPrefix("DISTPRESS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// Unmarshal config
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate and normalize config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration and normalizes it in place.
// A missing output directory is not an error here: the pipeline treats
// it as "nothing to compress".
func (c *Config) Validate() error {
	if c.OutputDirectory == "" {
		c.OutputDirectory = "dist"
	}

	// Validate algorithm and normalize to its canonical name
	algo, err := codec.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return err
	}
	c.Algorithm = algo.String()

	// Validate output extension; deflate variants carry no conventional
	// sibling extension, so one must be configured explicitly.
	c.OutputExtension = codec.NormalizeExtension(c.OutputExtension)
	if c.OutputExtension == "" && algo.DefaultExtension() == "" {
		return fmt.Errorf("algorithm %s has no default output extension, set output_extension", algo)
	}

	// Validate filter settings
	c.Filter.Extensions = normalizeExtensions(c.Filter.Extensions)
	if c.Filter.SizeThresholdBytes < 0 {
		c.Filter.SizeThresholdBytes = 0
	}

	// Validate performance settings
	if c.Performance.WorkerThreads <= 0 {
		c.Performance.WorkerThreads = max(runtime.NumCPU(), 2)
	}
	if c.Performance.BatchSize <= 0 {
		c.Performance.BatchSize = 100
	}

	// Validate logging settings
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	if c.Web.Port <= 0 {
		c.Web.Port = 8080
	}

	return nil
}

// EffectiveAlgorithm returns the parsed algorithm. Call Validate first;
// an unvalidated algorithm name falls back to gzip.
func (c *Config) EffectiveAlgorithm() codec.Algorithm {
	algo, err := codec.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return codec.Gzip
	}
	return algo
}

// EffectiveExtension returns the sibling extension for this run: the
// configured one if set, otherwise the algorithm's default.
func (c *Config) EffectiveExtension() string {
	if c.OutputExtension != "" {
		return c.OutputExtension
	}
	return c.EffectiveAlgorithm().DefaultExtension()
}

// Policy returns the selection policy the filter settings describe.
func (c *Config) Policy() catalog.Policy {
	return catalog.Policy{
		Predicate:  c.Filter.Predicate,
		Pattern:    c.Filter.Pattern,
		Extensions: c.Filter.Extensions,
		MinSize:    c.Filter.SizeThresholdBytes,
	}
}

func normalizeExtensions(extensions []string) []string {
	normalized := make([]string, len(extensions))
	for i, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized[i] = ext
	}
	return normalized
}
