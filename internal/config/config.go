package config

import (
	stderrors "errors"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"gocausal/domain/omics"
	"gocausal/internal/errors"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete analysis configuration
type Config struct {
	Analysis    AnalysisConfig    `yaml:"analysis"`
	FDR         FDRConfig         `yaml:"fdr"`
	Permutation PermutationConfig `yaml:"permutation"`
	LogLevel    string            `yaml:"log_level" validate:"omitempty,oneof=ERROR WARN INFO DEBUG TRACE"`
}

// AnalysisConfig holds the matching settings
type AnalysisConfig struct {
	Mode              string `yaml:"mode" validate:"oneof=causal conflicting"`
	CorrelationBased  bool   `yaml:"correlation_based"`
	SiteProximity     int    `yaml:"site_proximity" validate:"gte=0"`
	ForceSiteMatching bool   `yaml:"force_site_matching"`
	PoolProteomics    bool   `yaml:"pool_proteomics"`
	MinimumSampleSize int    `yaml:"minimum_sample_size" validate:"gte=1"`

	CorrelationThreshold float64 `yaml:"correlation_threshold" validate:"gte=0,lte=1"`
	// CorrelationUpperThreshold is optional; nil disables the upper filter
	CorrelationUpperThreshold *float64 `yaml:"correlation_upper_threshold" validate:"omitempty,gte=0,lte=1"`
}

// FDRConfig holds the false discovery rates
type FDRConfig struct {
	// ByType is keyed by data type name, e.g. protein or phosphoprotein
	ByType      map[string]float64 `yaml:"by_type" validate:"dive,gte=0,lte=1"`
	Correlation float64            `yaml:"correlation" validate:"gte=0,lte=1"`
	Gene        float64            `yaml:"gene" validate:"gte=0,lte=1"`
}

// PermutationConfig holds the network significance settings
type PermutationConfig struct {
	Iterations              int   `yaml:"iterations" validate:"gte=0"`
	MinimumPotentialTargets int   `yaml:"minimum_potential_targets" validate:"gte=0"`
	Workers                 int   `yaml:"workers" validate:"gte=0"`
	Seed                    int64 `yaml:"seed"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Mode:                 "causal",
			SiteProximity:        0,
			MinimumSampleSize:    3,
			CorrelationThreshold: 0,
		},
		FDR: FDRConfig{
			ByType: map[string]float64{
				"protein":        0.1,
				"phosphoprotein": 0.1,
				"expression":     0.1,
			},
			Correlation: 0.1,
			Gene:        0.1,
		},
		Permutation: PermutationConfig{
			MinimumPotentialTargets: 5,
		},
		LogLevel: "INFO",
	}
}

// Load reads an optional .env file, an optional YAML file at path, applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(getEnvOrDefault("ENV_FILE", ".env")); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "failed to read env file")
	}

	config := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "cannot read %s", path))
		}
		if err := yaml.Unmarshal(raw, config); err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "failed to parse %s", path))
		}
	}
	applyEnv(config)

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func applyEnv(c *Config) {
	c.Analysis.Mode = strings.ToLower(getEnvOrDefault("CAUSAL_MODE", c.Analysis.Mode))
	c.Analysis.CorrelationBased = getEnvBoolOrDefault("CORRELATION_BASED", c.Analysis.CorrelationBased)
	c.Analysis.SiteProximity = getEnvIntOrDefault("SITE_PROXIMITY", c.Analysis.SiteProximity)
	c.Analysis.ForceSiteMatching = getEnvBoolOrDefault("FORCE_SITE_MATCHING", c.Analysis.ForceSiteMatching)
	c.Permutation.Iterations = getEnvIntOrDefault("PERMUTATION_ITERATIONS", c.Permutation.Iterations)
	c.Permutation.MinimumPotentialTargets = getEnvIntOrDefault("MIN_POTENTIAL_TARGETS", c.Permutation.MinimumPotentialTargets)
	c.Permutation.Workers = getEnvIntOrDefault("PERMUTATION_WORKERS", c.Permutation.Workers)
	c.Permutation.Seed = getEnvInt64OrDefault("RANDOM_SEED", c.Permutation.Seed)
	c.FDR.Correlation = getEnvFloatOrDefault("CORRELATION_FDR", c.FDR.Correlation)
	c.FDR.Gene = getEnvFloatOrDefault("GENE_FDR", c.FDR.Gene)
	c.LogLevel = strings.ToUpper(getEnvOrDefault("LOG_LEVEL", c.LogLevel))
}

var validate = validator.New()

// Validate checks a config changed after Load
func (c *Config) Validate() error {
	return validateConfig(c)
}

func validateConfig(config *Config) error {
	if err := validate.Struct(config); err != nil {
		var fieldErrs validator.ValidationErrors
		if stderrors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fe.Namespace()+" failed "+fe.Tag())
			}
			sort.Strings(msgs)
			return errors.ConfigInvalid(strings.Join(msgs, "; "))
		}
		return errors.ConfigInvalid(err.Error())
	}
	if _, err := config.DataTypeFDR(); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	if u := config.Analysis.CorrelationUpperThreshold; u != nil && *u < config.Analysis.CorrelationThreshold {
		return errors.ConfigInvalidf("correlation upper threshold %v is below the threshold %v", *u, config.Analysis.CorrelationThreshold)
	}
	return nil
}

// DataTypeFDR converts the per type rates to data type keys
func (c *Config) DataTypeFDR() (map[omics.DataType]float64, error) {
	out := make(map[omics.DataType]float64, len(c.FDR.ByType))
	for name, rate := range c.FDR.ByType {
		t, err := omics.ParseDataType(name)
		if err != nil {
			return nil, err
		}
		out[t] = rate
	}
	return out, nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
