package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const configName = ".tagbatch"

type Config struct {
	DefaultDirectory string `mapstructure:"default_directory" yaml:"default_directory"`
	FileExtension    string `mapstructure:"file_extension" yaml:"file_extension"`
	Recursive        bool   `mapstructure:"recursive" yaml:"recursive"`
	LogLevel         string `mapstructure:"log_level" yaml:"log_level"`

	LoadConcurrency int  `mapstructure:"load_concurrency" yaml:"load_concurrency"`
	TagPadding      int  `mapstructure:"tag_padding" yaml:"tag_padding"`
	PreserveModTime bool `mapstructure:"preserve_mod_time" yaml:"preserve_mod_time"`

	MaxArtworkBytes   int  `mapstructure:"max_artwork_bytes" yaml:"max_artwork_bytes"`
	MaxArtworkSize    int  `mapstructure:"max_artwork_size" yaml:"max_artwork_size"`
	EnableImageResize bool `mapstructure:"enable_image_resize" yaml:"enable_image_resize"`
}

func DefaultConfig() *Config {
	return &Config{
		DefaultDirectory:  ".",
		FileExtension:     ".mp3",
		Recursive:         false,
		LogLevel:          "info",
		LoadConcurrency:   4,
		TagPadding:        2048,
		PreserveModTime:   false,
		MaxArtworkBytes:   5 * 1024 * 1024, // 5MB
		MaxArtworkSize:    500,
		EnableImageResize: true,
	}
}

// SetDefaults registers every key on v so environment variables and flags
// bound to v are seen by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("default_directory", d.DefaultDirectory)
	v.SetDefault("file_extension", d.FileExtension)
	v.SetDefault("recursive", d.Recursive)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("load_concurrency", d.LoadConcurrency)
	v.SetDefault("tag_padding", d.TagPadding)
	v.SetDefault("preserve_mod_time", d.PreserveModTime)
	v.SetDefault("max_artwork_bytes", d.MaxArtworkBytes)
	v.SetDefault("max_artwork_size", d.MaxArtworkSize)
	v.SetDefault("enable_image_resize", d.EnableImageResize)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	config := DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// SetupEnv maps keys to TAGBATCH_* environment variables.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("TAGBATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// SaveConfig writes config as YAML. An empty path means GetConfigPath.
func SaveConfig(config *Config, path string) error {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("default_directory", config.DefaultDirectory)
	v.Set("file_extension", config.FileExtension)
	v.Set("recursive", config.Recursive)
	v.Set("log_level", config.LogLevel)
	v.Set("load_concurrency", config.LoadConcurrency)
	v.Set("tag_padding", config.TagPadding)
	v.Set("preserve_mod_time", config.PreserveModTime)
	v.Set("max_artwork_bytes", config.MaxArtworkBytes)
	v.Set("max_artwork_size", config.MaxArtworkSize)
	v.Set("enable_image_resize", config.EnableImageResize)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func GetConfigPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configName+".yaml"), nil
}

func ValidateConfig(config *Config) error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	found := false
	for _, level := range validLogLevels {
		if config.LogLevel == level {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log level: %s", config.LogLevel)
	}

	if !strings.HasPrefix(config.FileExtension, ".") || len(config.FileExtension) < 2 {
		return fmt.Errorf("invalid file extension: %q", config.FileExtension)
	}
	if config.LoadConcurrency < 1 {
		return fmt.Errorf("load_concurrency must be positive, got %d", config.LoadConcurrency)
	}
	if config.TagPadding < 0 {
		return fmt.Errorf("tag_padding must not be negative, got %d", config.TagPadding)
	}
	if config.MaxArtworkBytes < 1 {
		return fmt.Errorf("max_artwork_bytes must be positive, got %d", config.MaxArtworkBytes)
	}
	if config.MaxArtworkSize < 0 {
		return fmt.Errorf("max_artwork_size must not be negative, got %d", config.MaxArtworkSize)
	}

	return nil
}
