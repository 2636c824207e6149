package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Signals   SignalsConfig   `mapstructure:"signals"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Scenarios ScenariosConfig `mapstructure:"scenarios"`
	Seed      int64           `mapstructure:"seed"` // 0 = seed from clock
}

type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SignalConfig is the startup configuration of one generator plus the
// cadence its samples are pushed to viewers.
type SignalConfig struct {
	SampleRate   float64       `mapstructure:"sample_rate"`
	NoiseLevel   float64       `mapstructure:"noise_level"`
	PushInterval time.Duration `mapstructure:"push_interval"`
}

type SignalsConfig struct {
	ECG         SignalConfig `mapstructure:"ecg"`
	Respiration SignalConfig `mapstructure:"respiration"`
	Capnography SignalConfig `mapstructure:"capnography"`
}

// Auth Configuration
type AuthConfig struct {
	JWTSecretEnv       string        `mapstructure:"jwt_secret_env"`
	AccessTokenTTL     time.Duration `mapstructure:"access_token_ttl"`
	OperatorUser       string        `mapstructure:"operator_user"`
	OperatorSecretHash string        `mapstructure:"operator_secret_hash"`
}

type ScenariosConfig struct {
	SearchPaths []string `mapstructure:"search_paths"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	// Defaults setzen
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.shutdown_timeout", "30s")

	viper.SetDefault("signals.ecg.sample_rate", 250.0)
	viper.SetDefault("signals.ecg.noise_level", 0.02)
	viper.SetDefault("signals.ecg.push_interval", "100ms")
	viper.SetDefault("signals.respiration.sample_rate", 50.0)
	viper.SetDefault("signals.respiration.noise_level", 0.01)
	viper.SetDefault("signals.respiration.push_interval", "200ms")
	viper.SetDefault("signals.capnography.sample_rate", 50.0)
	viper.SetDefault("signals.capnography.noise_level", 0.01)
	viper.SetDefault("signals.capnography.push_interval", "200ms")

	// Auth Defaults
	viper.SetDefault("auth.jwt_secret_env", "JWT_SECRET")
	viper.SetDefault("auth.access_token_ttl", "60m")
	viper.SetDefault("auth.operator_user", "operator")

	viper.SetDefault("scenarios.search_paths", []string{"scenarios"})

	// Environment Variables automatisch binden (Viper Feature)
	viper.AutomaticEnv()
	viper.SetEnvPrefix("PSIM") // Environment Variables mit Prefix PSIM_

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Signals.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Sampling rates are validated here so a bad config never reaches the
// generators' hot path.
func (s SignalsConfig) validate() error {
	for name, sc := range map[string]SignalConfig{
		"ecg": s.ECG, "respiration": s.Respiration, "capnography": s.Capnography,
	} {
		if sc.SampleRate <= 0 {
			return fmt.Errorf("signals.%s.sample_rate must be positive, got %v", name, sc.SampleRate)
		}
		if sc.PushInterval <= 0 {
			return fmt.Errorf("signals.%s.push_interval must be positive", name)
		}
	}
	return nil
}

// JWT Secret aus Environment Variable laden
func (a *AuthConfig) GetJWTSecret() string {
	envVar := a.JWTSecretEnv
	if envVar == "" {
		envVar = "JWT_SECRET" // Fallback
	}

	secret := os.Getenv(envVar)
	if secret == "" {
		// Development Fallback (MIT WARNING!)
		return "dev-secret-change-in-production-min-32-chars"
	}
	return secret
}

// Helper um zu prüfen ob Production-Ready
func (a *AuthConfig) IsProductionReady() bool {
	secret := a.GetJWTSecret()
	return secret != "dev-secret-change-in-production-min-32-chars" && len(secret) >= 32
}
