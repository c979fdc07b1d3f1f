// Package config defines the explicit configuration value handed to the
// pipeline at construction time and again whenever settings change.
// The command layer reads viper once and converts the result with FromViper;
// no component reads global settings while a job is running.
package config
