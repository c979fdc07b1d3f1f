package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Viper keys
const (
	KeyTargetLanguage      = "translation.target_language"
	KeyProvider            = "translation.provider"
	KeyModel               = "translation.model"
	KeyBaseURL             = "translation.base_url"
	KeyMaxRetries          = "translation.max_retries"
	KeyAttemptTimeoutMs    = "translation.timeout_ms_per_attempt"
	KeyTotalTimeoutMs      = "translation.total_timeout_ms"
	KeyRequestsPerSecond   = "translation.requests_per_second"
	KeyRecognitionLanguage = "ocr.language"
	KeyFallbackLanguage    = "ocr.fallback_language"
	KeyConfidenceThreshold = "ocr.confidence_threshold"
	KeyPersistHint         = "ocr.persist_hint_language"
	KeyCacheMaxEntries     = "cache.max_entries"
	KeyCacheTTLSeconds     = "cache.ttl_seconds"
	KeyContrast            = "preprocess.contrast"
	KeySharpenSigma        = "preprocess.sharpen_sigma"
	KeyBinarize            = "preprocess.binarize"
	KeyAutoInvert          = "preprocess.auto_invert"
	KeyUpscaleBelow        = "preprocess.upscale_below"
	KeyOffsetX             = "capture.offset_x"
	KeyOffsetY             = "capture.offset_y"
	KeyScale               = "capture.scale"
	KeyQueueSize           = "pipeline.queue_size"
	KeyLogLevel            = "log.level"
)

// Supported translation providers
const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
	ProviderGemini   = "gemini"
)

// Config is the complete set of tunables for one pipeline instance.
// It is a plain value: copy it, change it, hand it back via UpdateConfig.
type Config struct {
	TargetLanguage string

	// Translation backend and retry policy. TranslationMaxRetries counts
	// total attempts, so 1 disables retrying.
	Provider                  string
	Model                     string
	BaseURL                   string
	TranslationMaxRetries     int
	TranslationAttemptTimeout time.Duration
	TranslationTotalTimeout   time.Duration
	RequestsPerSecond         float64

	RecognitionLanguage            string
	FallbackLanguage               string
	RecognitionConfidenceThreshold float64
	PersistHintLanguage            bool

	CacheMaxEntries int
	CacheTTL        time.Duration

	Contrast     float64
	SharpenSigma float64
	Binarize     bool
	AutoInvert   bool
	UpscaleBelow int

	OffsetX int
	OffsetY int
	Scale   float64

	QueueSize int
	LogLevel  string
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		TargetLanguage:                 "zh",
		Provider:                       ProviderDeepSeek,
		TranslationMaxRetries:          3,
		TranslationAttemptTimeout:      10 * time.Second,
		TranslationTotalTimeout:        30 * time.Second,
		RequestsPerSecond:              2,
		RecognitionLanguage:            "eng",
		FallbackLanguage:               "eng",
		RecognitionConfidenceThreshold: 0.3,
		CacheMaxEntries:                100,
		CacheTTL:                       time.Hour,
		Contrast:                       50,
		SharpenSigma:                   1.0,
		Binarize:                       true,
		AutoInvert:                     true,
		UpscaleBelow:                   40,
		Scale:                          1.0,
		QueueSize:                      16,
		LogLevel:                       "info",
	}
}

// SetDefaults registers the default values with v
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyTargetLanguage, d.TargetLanguage)
	v.SetDefault(KeyProvider, d.Provider)
	v.SetDefault(KeyMaxRetries, d.TranslationMaxRetries)
	v.SetDefault(KeyAttemptTimeoutMs, d.TranslationAttemptTimeout.Milliseconds())
	v.SetDefault(KeyTotalTimeoutMs, d.TranslationTotalTimeout.Milliseconds())
	v.SetDefault(KeyRequestsPerSecond, d.RequestsPerSecond)
	v.SetDefault(KeyRecognitionLanguage, d.RecognitionLanguage)
	v.SetDefault(KeyFallbackLanguage, d.FallbackLanguage)
	v.SetDefault(KeyConfidenceThreshold, d.RecognitionConfidenceThreshold)
	v.SetDefault(KeyCacheMaxEntries, d.CacheMaxEntries)
	v.SetDefault(KeyCacheTTLSeconds, int(d.CacheTTL/time.Second))
	v.SetDefault(KeyContrast, d.Contrast)
	v.SetDefault(KeySharpenSigma, d.SharpenSigma)
	v.SetDefault(KeyBinarize, d.Binarize)
	v.SetDefault(KeyAutoInvert, d.AutoInvert)
	v.SetDefault(KeyUpscaleBelow, d.UpscaleBelow)
	v.SetDefault(KeyScale, d.Scale)
	v.SetDefault(KeyQueueSize, d.QueueSize)
	v.SetDefault(KeyLogLevel, d.LogLevel)
}

// FromViper builds a Config from v. Keys that are not set keep their
// default values.
func FromViper(v *viper.Viper) Config {
	SetDefaults(v)

	return Config{
		TargetLanguage:                 strings.TrimSpace(v.GetString(KeyTargetLanguage)),
		Provider:                       strings.ToLower(strings.TrimSpace(v.GetString(KeyProvider))),
		Model:                          v.GetString(KeyModel),
		BaseURL:                        v.GetString(KeyBaseURL),
		TranslationMaxRetries:          v.GetInt(KeyMaxRetries),
		TranslationAttemptTimeout:      time.Duration(v.GetInt64(KeyAttemptTimeoutMs)) * time.Millisecond,
		TranslationTotalTimeout:        time.Duration(v.GetInt64(KeyTotalTimeoutMs)) * time.Millisecond,
		RequestsPerSecond:              v.GetFloat64(KeyRequestsPerSecond),
		RecognitionLanguage:            strings.TrimSpace(v.GetString(KeyRecognitionLanguage)),
		FallbackLanguage:               strings.TrimSpace(v.GetString(KeyFallbackLanguage)),
		RecognitionConfidenceThreshold: v.GetFloat64(KeyConfidenceThreshold),
		PersistHintLanguage:            v.GetBool(KeyPersistHint),
		CacheMaxEntries:                v.GetInt(KeyCacheMaxEntries),
		CacheTTL:                       time.Duration(v.GetInt64(KeyCacheTTLSeconds)) * time.Second,
		Contrast:                       v.GetFloat64(KeyContrast),
		SharpenSigma:                   v.GetFloat64(KeySharpenSigma),
		Binarize:                       v.GetBool(KeyBinarize),
		AutoInvert:                     v.GetBool(KeyAutoInvert),
		UpscaleBelow:                   v.GetInt(KeyUpscaleBelow),
		OffsetX:                        v.GetInt(KeyOffsetX),
		OffsetY:                        v.GetInt(KeyOffsetY),
		Scale:                          v.GetFloat64(KeyScale),
		QueueSize:                      v.GetInt(KeyQueueSize),
		LogLevel:                       v.GetString(KeyLogLevel),
	}
}

// Validate reports every out-of-range setting at once
func (c Config) Validate() error {
	var errs []error

	if c.TargetLanguage == "" {
		errs = append(errs, fmt.Errorf("target language must not be empty"))
	}
	switch c.Provider {
	case ProviderOpenAI, ProviderDeepSeek, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("unknown translation provider %q (use openai, deepseek or gemini)", c.Provider))
	}
	if c.TranslationMaxRetries < 1 {
		errs = append(errs, fmt.Errorf("translation max retries must be at least 1, got %d", c.TranslationMaxRetries))
	}
	if c.TranslationAttemptTimeout <= 0 {
		errs = append(errs, fmt.Errorf("translation attempt timeout must be positive"))
	}
	if c.TranslationTotalTimeout < c.TranslationAttemptTimeout {
		errs = append(errs, fmt.Errorf("translation total timeout %s is shorter than the attempt timeout %s",
			c.TranslationTotalTimeout, c.TranslationAttemptTimeout))
	}
	if c.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("requests per second must not be negative"))
	}
	if c.RecognitionLanguage == "" {
		errs = append(errs, fmt.Errorf("recognition language must not be empty"))
	}
	if c.RecognitionConfidenceThreshold < 0 || c.RecognitionConfidenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("confidence threshold must be within [0,1], got %g", c.RecognitionConfidenceThreshold))
	}
	if c.CacheMaxEntries < 1 {
		errs = append(errs, fmt.Errorf("cache max entries must be at least 1, got %d", c.CacheMaxEntries))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache ttl must be positive"))
	}
	if c.Contrast < -100 || c.Contrast > 100 {
		errs = append(errs, fmt.Errorf("contrast must be within [-100,100], got %g", c.Contrast))
	}
	if c.SharpenSigma < 0 {
		errs = append(errs, fmt.Errorf("sharpen sigma must not be negative"))
	}
	if c.Scale <= 0 {
		errs = append(errs, fmt.Errorf("capture scale must be positive, got %g", c.Scale))
	}
	if c.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("queue size must be at least 1, got %d", c.QueueSize))
	}

	return errors.Join(errs...)
}
