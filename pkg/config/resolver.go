package config

import "time"

// ConfigResolver resolves configuration values from multiple sources with
// precedence: the first source that has a key wins.
type ConfigResolver struct {
	sources []ConfigSource
}

// NewConfigResolver takes sources highest precedence first. Nil sources are
// skipped, so optional ones (e.g. a missing config file) can be passed as is.
func NewConfigResolver(sources ...ConfigSource) *ConfigResolver {
	kept := make([]ConfigSource, 0, len(sources))
	for _, s := range sources {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &ConfigResolver{sources: kept}
}

func resolve[T any](r *ConfigResolver, get func(ConfigSource) (T, bool), fallback T) T {
	for _, source := range r.sources {
		if value, found := get(source); found {
			return value
		}
	}
	return fallback
}

func (r *ConfigResolver) ResolveString(key, defaultValue string) string {
	return resolve(r, func(s ConfigSource) (string, bool) { return s.GetString(key) }, defaultValue)
}

func (r *ConfigResolver) ResolveInt(key string, defaultValue int) int {
	return resolve(r, func(s ConfigSource) (int, bool) { return s.GetInt(key) }, defaultValue)
}

func (r *ConfigResolver) ResolveFloat(key string, defaultValue float64) float64 {
	return resolve(r, func(s ConfigSource) (float64, bool) { return s.GetFloat(key) }, defaultValue)
}

func (r *ConfigResolver) ResolveBool(key string, defaultValue bool) bool {
	return resolve(r, func(s ConfigSource) (bool, bool) { return s.GetBool(key) }, defaultValue)
}

// ResolveSeconds reads an integer number of seconds.
func (r *ConfigResolver) ResolveSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(r.ResolveInt(key, defaultSeconds)) * time.Second
}
