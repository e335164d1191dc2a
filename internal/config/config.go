// Package config loads service settings from .env, the environment and an
// optional YAML file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendSoftmax = "softmax"
	BackendRemote  = "remote"
)

type Config struct {
	Port    string
	GinMode string

	LogLevel  string
	LogFormat string

	ClassifierBackend string
	ModelPath         string
	ModelServerURL    string
	ModelTimeout      time.Duration
	LabelsPath        string
	FeaturesPath      string
	SynonymsPath      string

	EnableDB       bool
	DatabaseURL    string
	SynonymsFromDB bool

	EnableAWS  bool
	AWSRegion  string
	AWSProfile string

	CORSOrigins    []string
	MaxBodyBytes   int64
	StaticDir      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	ExtractTimeout time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("classifier_backend", BackendSoftmax)
	v.SetDefault("model_path", "artifacts/model.json")
	v.SetDefault("model_timeout", "10s")
	v.SetDefault("labels_path", "artifacts/label_mapping.json")
	v.SetDefault("features_path", "artifacts/features.csv")
	v.SetDefault("synonyms_path", "artifacts/symptom_synonyms.json")
	v.SetDefault("enable_db", false)
	v.SetDefault("synonyms_from_db", false)
	v.SetDefault("enable_aws", false)
	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("max_body_bytes", 10<<20)
	v.SetDefault("read_timeout", "15s")
	v.SetDefault("write_timeout", "60s")
	v.SetDefault("extract_timeout", "30s")
}

// Load reads .env (if present), then the environment and any config file
// already set on v. Environment variables win over the file.
func Load(v *viper.Viper) (*Config, error) {
	_ = godotenv.Load()

	if v == nil {
		v = viper.New()
	}
	setDefaults(v)
	v.AutomaticEnv()

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Port:              v.GetString("port"),
		GinMode:           v.GetString("gin_mode"),
		LogLevel:          v.GetString("log_level"),
		LogFormat:         v.GetString("log_format"),
		ClassifierBackend: strings.ToLower(strings.TrimSpace(v.GetString("classifier_backend"))),
		ModelPath:         v.GetString("model_path"),
		ModelServerURL:    v.GetString("model_server_url"),
		ModelTimeout:      v.GetDuration("model_timeout"),
		LabelsPath:        v.GetString("labels_path"),
		FeaturesPath:      v.GetString("features_path"),
		SynonymsPath:      v.GetString("synonyms_path"),
		EnableDB:          v.GetBool("enable_db"),
		DatabaseURL:       v.GetString("database_url"),
		SynonymsFromDB:    v.GetBool("synonyms_from_db"),
		EnableAWS:         v.GetBool("enable_aws"),
		AWSRegion:         v.GetString("aws_region"),
		AWSProfile:        v.GetString("aws_profile"),
		CORSOrigins:       splitList(v.GetString("cors_origins")),
		MaxBodyBytes:      v.GetInt64("max_body_bytes"),
		StaticDir:         v.GetString("static_dir"),
		ReadTimeout:       v.GetDuration("read_timeout"),
		WriteTimeout:      v.GetDuration("write_timeout"),
		ExtractTimeout:    v.GetDuration("extract_timeout"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.EnableDB && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when ENABLE_DB=true")
	}
	if c.SynonymsFromDB && !c.EnableDB {
		return fmt.Errorf("SYNONYMS_FROM_DB requires ENABLE_DB=true")
	}

	switch c.ClassifierBackend {
	case BackendSoftmax:
		if c.ModelPath == "" {
			return fmt.Errorf("MODEL_PATH is required for the %s backend", BackendSoftmax)
		}
	case BackendRemote:
		if c.ModelServerURL == "" {
			return fmt.Errorf("MODEL_SERVER_URL is required for the %s backend", BackendRemote)
		}
	default:
		return fmt.Errorf("unknown CLASSIFIER_BACKEND %q", c.ClassifierBackend)
	}

	for name, val := range map[string]string{
		"LABELS_PATH":   c.LabelsPath,
		"FEATURES_PATH": c.FeaturesPath,
		"SYNONYMS_PATH": c.SynonymsPath,
	} {
		if strings.TrimSpace(val) == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
