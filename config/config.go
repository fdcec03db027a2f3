// Package config loads the ambient HTTP demonstration surface's
// configuration: a YAML defaults file, then a .env file, then raw
// environment variables, in that increasing-priority order (§10).
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the HTTP service in main.go.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`
	Router RouterConfig `yaml:"router"`
}

// ServerConfig configures the demonstration HTTP listener.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"read_timeout"`
	WriteTimeout int    `yaml:"write_timeout"`
}

// RedisConfig configures the optional distributed PoolSource/PoolDirectory.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	Prefix   string `yaml:"prefix"`
}

// RouterConfig mirrors router.Config's enumerated options (§4.6) as a
// loadable, env-overridable surface.
type RouterConfig struct {
	FactoryAddress string `yaml:"factory_address"`
	MaxHops        int    `yaml:"max_hops"`
	MaxSplits      int    `yaml:"max_splits"`
	PoolCacheTTLMs int64  `yaml:"pool_cache_ttl_ms"`
	EnableCache    bool   `yaml:"enable_cache"`
	MinLiquidity   int64  `yaml:"min_liquidity"`
}

// AppConfig is the process-wide loaded configuration, populated by Init.
var AppConfig *Config

// loadConfigFromFile loads default configuration from a YAML file.
func loadConfigFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Warning: YAML config file not found at %s. Using env vars and defaults only.", path)
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	log.Printf("Loaded configuration defaults from %s", path)
	return nil
}

// Init loads config/config.yaml, then .env, then raw environment
// variables (highest priority), into AppConfig.
func Init() error {
	AppConfig = &Config{}

	if err := loadConfigFromFile("config/config.yaml", AppConfig); err != nil {
		log.Printf("Warning: Failed to load config.yaml: %v. Using defaults.", err)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	AppConfig.Server.Port = getEnv("SERVER_PORT", AppConfig.Server.Port, "8080")
	AppConfig.Server.ReadTimeout = getEnvAsInt("SERVER_READ_TIMEOUT", AppConfig.Server.ReadTimeout, 15)
	AppConfig.Server.WriteTimeout = getEnvAsInt("SERVER_WRITE_TIMEOUT", AppConfig.Server.WriteTimeout, 15)

	AppConfig.Redis.Enabled = getEnvAsBool("REDIS_ENABLED", AppConfig.Redis.Enabled, false)
	AppConfig.Redis.Addr = getEnv("REDIS_ADDR", AppConfig.Redis.Addr, "localhost:6379")
	AppConfig.Redis.Password = getEnv("REDIS_PASSWORD", AppConfig.Redis.Password, "")
	AppConfig.Redis.Prefix = getEnv("REDIS_PREFIX", AppConfig.Redis.Prefix, "quoter:")

	AppConfig.Router.FactoryAddress = getEnv("FACTORY_ADDRESS", AppConfig.Router.FactoryAddress, "0x0000000000000000000000000000000000000000")
	AppConfig.Router.MaxHops = getEnvAsInt("MAX_HOPS", AppConfig.Router.MaxHops, 3)
	AppConfig.Router.MaxSplits = getEnvAsInt("MAX_SPLITS", AppConfig.Router.MaxSplits, 3)
	AppConfig.Router.PoolCacheTTLMs = getEnvAsInt64("POOL_CACHE_TTL_MS", AppConfig.Router.PoolCacheTTLMs, 30_000)
	AppConfig.Router.EnableCache = getEnvAsBool("ENABLE_CACHE", AppConfig.Router.EnableCache, true)
	AppConfig.Router.MinLiquidity = getEnvAsInt64("MIN_LIQUIDITY", AppConfig.Router.MinLiquidity, 1_000)

	return nil
}

// getEnv returns env value if set, otherwise yamlValue if not empty, otherwise fallback.
func getEnv(key string, yamlValue string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if yamlValue != "" {
		return yamlValue
	}
	return fallback
}

// getEnvAsInt returns env int if set, otherwise yamlValue if non-zero, otherwise fallback.
func getEnvAsInt(key string, yamlValue int, fallback int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	if yamlValue != 0 {
		return yamlValue
	}
	return fallback
}

// getEnvAsInt64 returns env int64 if set, otherwise yamlValue if non-zero, otherwise fallback.
func getEnvAsInt64(key string, yamlValue int64, fallback int64) int64 {
	if value, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil {
		return value
	}
	if yamlValue != 0 {
		return yamlValue
	}
	return fallback
}

// getEnvAsBool returns env bool if set, otherwise yamlValue if true, otherwise fallback.
func getEnvAsBool(key string, yamlValue bool, fallback bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	if yamlValue {
		return yamlValue
	}
	return fallback
}
