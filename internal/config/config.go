package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/RMahshie/micfreq/internal/spectrum"
	"github.com/RMahshie/micfreq/pkg/models"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	AWS      AWSConfig
	Analysis AnalysisConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// AWSConfig holds AWS/S3 configuration
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	S3Endpoint      string
	MaxScanBytes    int64
}

// StorageEnabled reports whether scans can be fetched from a bucket
func (c AWSConfig) StorageEnabled() bool {
	return c.S3Bucket != ""
}

// AnalysisConfig holds the defaults applied to analysis requests
type AnalysisConfig struct {
	DefaultMode      models.ReductionMode
	DefaultMicCount  int
	MinSeparationMHz float64
}

// Load loads configuration from environment variables and .env files
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ACCESS_KEY_ID", "")
	v.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("MAX_SCAN_BYTES", 10<<20)
	v.SetDefault("DEFAULT_REDUCTION", string(models.ReductionMean))
	v.SetDefault("DEFAULT_MIC_COUNT", 4)
	v.SetDefault("MIN_SEPARATION_MHZ", spectrum.DefaultSeparation)

	// Environment variables override .env file values
	v.AutomaticEnv()

	// Bind specific environment variable names
	for _, key := range []string{
		"PORT", "ENVIRONMENT", "LOG_LEVEL", "ALLOWED_ORIGINS",
		"AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "S3_BUCKET", "S3_ENDPOINT",
		"MAX_SCAN_BYTES", "DEFAULT_REDUCTION", "DEFAULT_MIC_COUNT", "MIN_SEPARATION_MHZ",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	// Read from .env files based on environment
	env := v.GetString("ENVIRONMENT")
	if env == "" {
		env = "dev" // Use "dev" to match .env.dev filename
	}
	v.SetConfigName(".env." + env)
	v.SetConfigType("env")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read .env.%s: %w", env, err)
		}
	}

	var config Config
	config.Server.Port = v.GetString("PORT")
	config.Server.Env = env
	config.Server.LogLevel = v.GetString("LOG_LEVEL")
	config.Server.AllowedOrigins = splitList(v.GetString("ALLOWED_ORIGINS"))
	config.AWS.Region = v.GetString("AWS_REGION")
	config.AWS.AccessKeyID = v.GetString("AWS_ACCESS_KEY_ID")
	config.AWS.SecretAccessKey = v.GetString("AWS_SECRET_ACCESS_KEY")
	config.AWS.S3Bucket = v.GetString("S3_BUCKET")
	config.AWS.S3Endpoint = v.GetString("S3_ENDPOINT")
	config.AWS.MaxScanBytes = v.GetInt64("MAX_SCAN_BYTES")
	config.Analysis.DefaultMicCount = v.GetInt("DEFAULT_MIC_COUNT")
	config.Analysis.MinSeparationMHz = v.GetFloat64("MIN_SEPARATION_MHZ")

	mode, err := spectrum.ParseReductionMode(strings.ToLower(v.GetString("DEFAULT_REDUCTION")))
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_REDUCTION: %w", err)
	}
	config.Analysis.DefaultMode = mode

	if err := spectrum.ValidateSelection(config.Analysis.DefaultMicCount, config.Analysis.MinSeparationMHz); err != nil {
		return nil, fmt.Errorf("DEFAULT_MIC_COUNT/MIN_SEPARATION_MHZ: %w", err)
	}
	if config.AWS.MaxScanBytes <= 0 {
		return nil, fmt.Errorf("MAX_SCAN_BYTES must be positive, got %d", config.AWS.MaxScanBytes)
	}

	log.Debug().
		Str("env", env).
		Bool("storage", config.AWS.StorageEnabled()).
		Str("defaultMode", string(config.Analysis.DefaultMode)).
		Int("defaultMicCount", config.Analysis.DefaultMicCount).
		Float64("minSeparationMHz", config.Analysis.MinSeparationMHz).
		Strs("allowedOrigins", config.Server.AllowedOrigins).
		Msg("Configuration loaded")

	return &config, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
