package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// ConfigSource represents a source of configuration values
type ConfigSource interface {
	GetString(key string) (string, bool)
	GetInt(key string) (int, bool)
	GetFloat(key string) (float64, bool)
	GetBool(key string) (bool, bool)
}

// EnvSource implements ConfigSource for environment variables
type EnvSource struct{}

func (e *EnvSource) GetString(key string) (string, bool) {
	value := os.Getenv(key)
	return value, value != ""
}

func (e *EnvSource) GetInt(key string) (int, bool) {
	value := os.Getenv(key)
	if value == "" {
		return 0, false
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i, true
	}
	return 0, false
}

func (e *EnvSource) GetFloat(key string) (float64, bool) {
	value := os.Getenv(key)
	if value == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f, true
	}
	return 0, false
}

func (e *EnvSource) GetBool(key string) (bool, bool) {
	value := os.Getenv(key)
	if value == "" {
		return false, false
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b, true
	}
	return false, false
}

// FlagSource implements ConfigSource for command-line flags
type FlagSource struct {
	values map[string]interface{}
}

func NewFlagSource() *FlagSource {
	return &FlagSource{values: make(map[string]interface{})}
}

func (f *FlagSource) Set(key string, value interface{}) {
	f.values[key] = value
}

func (f *FlagSource) GetString(key string) (string, bool) {
	if value, exists := f.values[key]; exists {
		if str, ok := value.(string); ok && str != "" {
			return str, true
		}
	}
	return "", false
}

func (f *FlagSource) GetInt(key string) (int, bool) {
	if value, exists := f.values[key]; exists {
		if i, ok := value.(int); ok {
			return i, true
		}
	}
	return 0, false
}

func (f *FlagSource) GetFloat(key string) (float64, bool) {
	if value, exists := f.values[key]; exists {
		if fl, ok := value.(float64); ok {
			return fl, true
		}
	}
	return 0, false
}

func (f *FlagSource) GetBool(key string) (bool, bool) {
	if value, exists := f.values[key]; exists {
		if b, ok := value.(bool); ok {
			return b, true
		}
	}
	return false, false
}

// ViperSource implements ConfigSource for a YAML config file.
type ViperSource struct {
	v *viper.Viper
}

// NewViperSource reads path, or searches ConfigSearchPaths for
// tracefwd.yaml when path is empty. A missing file is only an error when
// path was given explicitly.
func NewViperSource(path string) (*ViperSource, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType(ConfigFileType)
		for _, p := range ConfigSearchPaths {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return &ViperSource{v: v}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return &ViperSource{v: v}, nil
}

// NewViperSourceFrom wraps an existing viper instance.
func NewViperSourceFrom(v *viper.Viper) *ViperSource {
	return &ViperSource{v: v}
}

// File returns the config file that was loaded, or "" when none was found.
func (s *ViperSource) File() string {
	return s.v.ConfigFileUsed()
}

// fileKey maps TRACE_DRAIN_TIMEOUT_SECONDS to drain_timeout_seconds.
func fileKey(key string) string {
	return strings.ToLower(strings.TrimPrefix(key, "TRACE_"))
}

func (s *ViperSource) GetString(key string) (string, bool) {
	k := fileKey(key)
	if !s.v.IsSet(k) {
		return "", false
	}
	value, err := cast.ToStringE(s.v.Get(k))
	if err != nil || value == "" {
		return "", false
	}
	return value, true
}

func (s *ViperSource) GetInt(key string) (int, bool) {
	k := fileKey(key)
	if !s.v.IsSet(k) {
		return 0, false
	}
	i, err := cast.ToIntE(s.v.Get(k))
	if err != nil {
		return 0, false
	}
	return i, true
}

func (s *ViperSource) GetFloat(key string) (float64, bool) {
	k := fileKey(key)
	if !s.v.IsSet(k) {
		return 0, false
	}
	f, err := cast.ToFloat64E(s.v.Get(k))
	if err != nil {
		return 0, false
	}
	return f, true
}

func (s *ViperSource) GetBool(key string) (bool, bool) {
	k := fileKey(key)
	if !s.v.IsSet(k) {
		return false, false
	}
	b, err := cast.ToBoolE(s.v.Get(k))
	if err != nil {
		return false, false
	}
	return b, true
}
