package config

import (
	"testing"
	"time"
)

func TestConfigResolver_Precedence(t *testing.T) {
	t.Setenv("TRACE_TEST_STRING", "env_value")
	t.Setenv("TRACE_TEST_ENV_ONLY", "env_value")
	t.Setenv("TRACE_TEST_INT", "50")
	t.Setenv("TRACE_TEST_FLOAT", "3.14")
	t.Setenv("TRACE_TEST_BOOL", "false")

	flagSource := NewFlagSource()
	flagSource.Set("TRACE_TEST_STRING", "flag_value")
	flagSource.Set("TRACE_TEST_INT", 100)
	flagSource.Set("TRACE_TEST_FLOAT", 2.71)
	flagSource.Set("TRACE_TEST_BOOL", true)

	resolver := NewConfigResolver(flagSource, &EnvSource{})

	t.Run("string", func(t *testing.T) {
		if v := resolver.ResolveString("TRACE_TEST_STRING", "default"); v != "flag_value" {
			t.Errorf("expected 'flag_value', got '%s'", v)
		}
		if v := resolver.ResolveString("TRACE_TEST_ENV_ONLY", "default"); v != "env_value" {
			t.Errorf("expected 'env_value', got '%s'", v)
		}
		if v := resolver.ResolveString("TRACE_TEST_MISSING", "default"); v != "default" {
			t.Errorf("expected 'default', got '%s'", v)
		}
	})

	t.Run("int", func(t *testing.T) {
		if v := resolver.ResolveInt("TRACE_TEST_INT", 1); v != 100 {
			t.Errorf("expected 100, got %d", v)
		}
		if v := resolver.ResolveInt("TRACE_TEST_MISSING", 42); v != 42 {
			t.Errorf("expected 42, got %d", v)
		}
	})

	t.Run("float", func(t *testing.T) {
		if v := resolver.ResolveFloat("TRACE_TEST_FLOAT", 1.0); v != 2.71 {
			t.Errorf("expected 2.71, got %f", v)
		}
	})

	t.Run("bool", func(t *testing.T) {
		if v := resolver.ResolveBool("TRACE_TEST_BOOL", false); !v {
			t.Error("expected flag value true to win over env false")
		}
		if v := resolver.ResolveBool("TRACE_TEST_MISSING", true); !v {
			t.Error("expected default true")
		}
	})

	t.Run("seconds", func(t *testing.T) {
		if v := resolver.ResolveSeconds("TRACE_TEST_INT", 1); v != 100*time.Second {
			t.Errorf("expected 100s, got %s", v)
		}
		if v := resolver.ResolveSeconds("TRACE_TEST_MISSING", 5); v != 5*time.Second {
			t.Errorf("expected 5s, got %s", v)
		}
	})
}

func TestConfigResolver_EnvBeatsFile(t *testing.T) {
	t.Setenv(KeyPartitionKey, "env")
	file := viperSourceWith(t, map[string]interface{}{
		"partition_key": "file",
		"provider_name": "FromFile",
	})

	resolver := NewConfigResolver(NewFlagSource(), &EnvSource{}, file)
	if v := resolver.ResolveString(KeyPartitionKey, "0"); v != "env" {
		t.Errorf("expected env to beat file, got '%s'", v)
	}
	if v := resolver.ResolveString(KeyProviderName, DefaultProviderName); v != "FromFile" {
		t.Errorf("expected file to beat default, got '%s'", v)
	}
}

func TestNewConfigResolver_SkipsNilSources(t *testing.T) {
	resolver := NewConfigResolver(NewFlagSource(), nil, &EnvSource{})
	if len(resolver.sources) != 2 {
		t.Errorf("expected 2 sources, got %d", len(resolver.sources))
	}
}

func TestConfigResolverEmptySources(t *testing.T) {
	resolver := NewConfigResolver()

	if value := resolver.ResolveString("ANY_KEY", "default"); value != "default" {
		t.Errorf("expected 'default', got '%s'", value)
	}
	if value := resolver.ResolveInt("ANY_KEY", 42); value != 42 {
		t.Errorf("expected 42, got %d", value)
	}
	if value := resolver.ResolveFloat("ANY_KEY", 3.14); value != 3.14 {
		t.Errorf("expected 3.14, got %f", value)
	}
	if value := resolver.ResolveBool("ANY_KEY", true); !value {
		t.Error("expected true")
	}
}

func BenchmarkConfigResolverResolveString(b *testing.B) {
	flagSource := NewFlagSource()
	flagSource.Set("BENCH_STRING", "flag_value")
	b.Setenv("BENCH_STRING", "env_value")

	resolver := NewConfigResolver(flagSource, &EnvSource{})
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		resolver.ResolveString("BENCH_STRING", "default")
	}
}
