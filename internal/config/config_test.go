package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got: %v", err)
	}
}

func TestFromViper_Defaults(t *testing.T) {
	cfg := FromViper(viper.New())
	want := Default()

	if cfg != want {
		t.Errorf("FromViper(empty) = %+v, want %+v", cfg, want)
	}
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set(KeyTargetLanguage, " ja ")
	v.Set(KeyProvider, "OpenAI")
	v.Set(KeyMaxRetries, 5)
	v.Set(KeyAttemptTimeoutMs, 2500)
	v.Set(KeyTotalTimeoutMs, 9000)
	v.Set(KeyCacheMaxEntries, 7)
	v.Set(KeyCacheTTLSeconds, 60)
	v.Set(KeyPersistHint, true)
	v.Set(KeyOffsetX, -4)

	cfg := FromViper(v)

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"TargetLanguage", cfg.TargetLanguage, "ja"},
		{"Provider", cfg.Provider, ProviderOpenAI},
		{"TranslationMaxRetries", cfg.TranslationMaxRetries, 5},
		{"TranslationAttemptTimeout", cfg.TranslationAttemptTimeout, 2500 * time.Millisecond},
		{"TranslationTotalTimeout", cfg.TranslationTotalTimeout, 9 * time.Second},
		{"CacheMaxEntries", cfg.CacheMaxEntries, 7},
		{"CacheTTL", cfg.CacheTTL, time.Minute},
		{"PersistHintLanguage", cfg.PersistHintLanguage, true},
		{"OffsetX", cfg.OffsetX, -4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty target", func(c *Config) { c.TargetLanguage = "" }, "target language"},
		{"unknown provider", func(c *Config) { c.Provider = "babelfish" }, "unknown translation provider"},
		{"zero attempts", func(c *Config) { c.TranslationMaxRetries = 0 }, "max retries"},
		{"total below attempt", func(c *Config) { c.TranslationTotalTimeout = time.Second }, "shorter than"},
		{"threshold above one", func(c *Config) { c.RecognitionConfidenceThreshold = 1.5 }, "confidence threshold"},
		{"no cache entries", func(c *Config) { c.CacheMaxEntries = 0 }, "cache max entries"},
		{"zero ttl", func(c *Config) { c.CacheTTL = 0 }, "cache ttl"},
		{"zero scale", func(c *Config) { c.Scale = 0 }, "capture scale"},
		{"zero queue", func(c *Config) { c.QueueSize = 0 }, "queue size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.TargetLanguage = ""
	cfg.CacheMaxEntries = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if !strings.Contains(err.Error(), "target language") || !strings.Contains(err.Error(), "cache max entries") {
		t.Errorf("Expected both problems reported, got: %v", err)
	}
}
