package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/screentrans/internal"
	"codeberg.org/snonux/screentrans/internal/config"
	"codeberg.org/snonux/screentrans/internal/history"
)

// EnvPrefix prefixes environment variables overriding config keys, e.g.
// SCREENTRANS_TRANSLATION_TARGET_LANGUAGE.
const EnvPrefix = "SCREENTRANS"

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "screentrans",
		Short: "Screen region OCR and translation",
		Long: `screentrans captures a region of the screen, recognizes its text with
Tesseract and translates it with an OpenAI compatible or Gemini model.

Every new request supersedes the one still running.

Examples:
  screentrans --region 100,200,400,60              # Translate one region
  screentrans --image shot.png --target-lang de    # Translate a saved screenshot
  screentrans --batch regions.txt                  # Translate regions from a file
  screentrans                                      # Read regions from stdin, one per line
  screentrans --history 20                         # Show the last 20 results`,
		Args:    cobra.NoArgs,
		Version: internal.Version,
	}

	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	d := config.Default()

	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.screentrans.yaml)")

	// Local flags
	cmd.Flags().StringVarP(&flags.Region, "region", "r", "", "Region to translate as x,y,width,height")
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Process regions from file (one x,y,width,height per line)")
	cmd.Flags().StringVarP(&flags.ImagePath, "image", "i", "", "Read from an image file instead of the screen")
	cmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Show every pipeline state and debug logs")
	cmd.Flags().StringVar(&flags.TessdataPrefix, "tessdata", "", "Tesseract tessdata directory (default: system location)")
	cmd.Flags().StringVar(&flags.HistoryDB, "history-db", history.DefaultPath(), "History database file")
	cmd.Flags().BoolVar(&flags.NoHistory, "no-history", false, "Do not record results")
	cmd.Flags().IntVar(&flags.ShowHistory, "history", 0, "Show the N most recent results and exit")
	cmd.Flags().BoolVar(&flags.Archive, "archive", false, "Archive the history database and exit")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List chat models available for the configured provider")

	// Pipeline configuration, bound to viper below
	cmd.Flags().StringP("target-lang", "t", d.TargetLanguage, "Target language code (zh, ja, en, de, ...)")
	cmd.Flags().String("provider", d.Provider, "Translation provider: openai, deepseek or gemini")
	cmd.Flags().String("model", "", "Translation model (default depends on provider)")
	cmd.Flags().String("base-url", "", "OpenAI compatible API base URL")
	cmd.Flags().Int("max-retries", d.TranslationMaxRetries, "Translation attempts per request")
	cmd.Flags().Float64("rate", d.RequestsPerSecond, "Translation requests per second (0 for unlimited)")
	cmd.Flags().String("ocr-lang", d.RecognitionLanguage, "Tesseract language, e.g. eng, jpn, chi_sim, eng+jpn")
	cmd.Flags().String("fallback-lang", d.FallbackLanguage, "Tesseract language tried when nothing was recognized")
	cmd.Flags().Bool("persist-ocr-lang", d.PersistHintLanguage, "Keep using the language that last recognized text")
	cmd.Flags().Float64("min-confidence", d.RecognitionConfidenceThreshold, "Discard text recognized below this confidence (0-1)")
	cmd.Flags().Int("cache-size", d.CacheMaxEntries, "Maximum number of cached results")
	cmd.Flags().Int("offset-x", d.OffsetX, "Horizontal capture offset in pixels")
	cmd.Flags().Int("offset-y", d.OffsetY, "Vertical capture offset in pixels")
	cmd.Flags().Float64("scale", d.Scale, "Display scale factor applied to regions")

	bindFlagsToViper(cmd)
}

// configFlags maps flag names to config keys
var configFlags = map[string]string{
	"target-lang":      config.KeyTargetLanguage,
	"provider":         config.KeyProvider,
	"model":            config.KeyModel,
	"base-url":         config.KeyBaseURL,
	"max-retries":      config.KeyMaxRetries,
	"rate":             config.KeyRequestsPerSecond,
	"ocr-lang":         config.KeyRecognitionLanguage,
	"fallback-lang":    config.KeyFallbackLanguage,
	"persist-ocr-lang": config.KeyPersistHint,
	"min-confidence":   config.KeyConfidenceThreshold,
	"cache-size":       config.KeyCacheMaxEntries,
	"offset-x":         config.KeyOffsetX,
	"offset-y":         config.KeyOffsetY,
	"scale":            config.KeyScale,
}

func bindFlagsToViper(cmd *cobra.Command) {
	for name, key := range configFlags {
		viper.BindPFlag(key, cmd.Flags().Lookup(name))
	}
}

// InitConfig initializes viper configuration and loads .env files
func InitConfig(cfgFile string) {
	loadDotEnv()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".screentrans" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".screentrans")
	}

	// Environment variables
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadDotEnv loads .env from the working directory and ~/.screentrans.env.
// Variables already set in the environment win.
func loadDotEnv() {
	files := []string{".env"}
	if home, err := os.UserHomeDir(); err == nil {
		files = append(files, filepath.Join(home, ".screentrans.env"))
	}

	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to load %s: %v\n", f, err)
		}
	}
}

// LoadConfig builds the pipeline configuration from flags, environment
// and config file
func LoadConfig() (config.Config, error) {
	cfg := config.FromViper(viper.GetViper())
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// apiKeyEnv lists the environment variable holding each provider's key
var apiKeyEnv = map[string]string{
	config.ProviderOpenAI:   "OPENAI_API_KEY",
	config.ProviderDeepSeek: "DEEPSEEK_API_KEY",
	config.ProviderGemini:   "GEMINI_API_KEY",
}

// GetAPIKey retrieves the API key for provider from environment or config
func GetAPIKey(provider string) string {
	// First check environment variable
	if env, ok := apiKeyEnv[provider]; ok {
		if key := os.Getenv(env); key != "" {
			return key
		}
	}

	// Then check config file
	if key := viper.GetString("translation." + provider + "_api_key"); key != "" {
		return key
	}
	return viper.GetString("translation.api_key")
}
