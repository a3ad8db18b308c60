// Package config loads the §6 configuration surface from a YAML file and
// applies the documented environment overrides. Parsing, not defaults for
// the wire protocol or store, lives here — the zero value of every nested
// struct is filled in by the consuming package (store.Options, server.
// Options), mirroring the teacher's "zero value is safe" Options contract.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root of the YAML document, one struct per §6 section.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Security    SecurityConfig    `yaml:"security"`
	Memory      MemoryConfig      `yaml:"memory"`
	Performance PerformanceConfig `yaml:"performance"`
}

type ServerConfig struct {
	Bind                string        `yaml:"bind"`
	Port                int           `yaml:"port"`
	NumShards           int           `yaml:"num_shards"`
	BatchSize           int           `yaml:"batch_size"`
	BufferSize          int           `yaml:"buffer_size"`
	BufferPoolSize      int           `yaml:"buffer_pool_size"`
	MaxConnections      int           `yaml:"max_connections"`
	ConnectionRateLimit int           `yaml:"connection_rate_limit"`
	ConnectionTimeout   time.Duration `yaml:"connection_timeout"`
	HealthCheckPort     int           `yaml:"health_check_port"`
}

type SecurityConfig struct {
	Password    string `yaml:"password"`
	TLSEnabled  bool   `yaml:"tls_enabled"`
	TLSCertPath string `yaml:"tls_cert_path"`
	TLSKeyPath  string `yaml:"tls_key_path"`
}

type MemoryConfig struct {
	MaxMemory          int64  `yaml:"max_memory"`
	EvictionPolicy     string `yaml:"eviction_policy"`
	EvictionSampleSize int    `yaml:"eviction_sample_size"`
}

type PerformanceConfig struct {
	TCPNoDelay   bool          `yaml:"tcp_nodelay"`
	TCPKeepAlive time.Duration `yaml:"tcp_keepalive"`
}

// Default returns the §6 defaults: loopback bind, default Redis port,
// DefaultShards, no password, unlimited memory, allkeys-lru.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind:              "127.0.0.1",
			Port:              6379,
			ConnectionTimeout: 300 * time.Second,
		},
		Memory: MemoryConfig{
			EvictionPolicy: "allkeys-lru",
		},
	}
}

// Load reads and parses the YAML file at path, starting from Default() so
// an omitted section keeps its zero/default value rather than the Go zero
// value for every field.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv applies the §6 environment overrides: REDIS_PASSWORD,
// REDIS_PORT, REDIS_BIND. REDISTILL_CONFIG selects the file Load reads and
// is consumed by the caller, not here.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv("REDIS_PASSWORD"); ok {
		c.Security.Password = v
	}
	if v, ok := os.LookupEnv("REDIS_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: REDIS_PORT=%q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v, ok := os.LookupEnv("REDIS_BIND"); ok {
		c.Server.Bind = v
	}
	return nil
}

// ConfigPathFromEnv resolves REDISTILL_CONFIG, falling back to fallback
// when unset.
func ConfigPathFromEnv(fallback string) string {
	if v, ok := os.LookupEnv("REDISTILL_CONFIG"); ok && v != "" {
		return v
	}
	return fallback
}

// Addr returns the listener address in host:port form.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
