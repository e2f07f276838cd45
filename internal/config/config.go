// Package config loads and validates sandboxd's configuration: per-language
// interpreter pool sizing, server bind settings, and logging toggles.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Language is one of the interpreter languages the pool manager supports.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
)

// PoolConfig configures a single language's interpreter pool (§4.2).
type PoolConfig struct {
	MinSize        int    `yaml:"min_size" json:"min_size"`
	MaxSize        int    `yaml:"max_size" json:"max_size"`
	IdleTimeout    string `yaml:"idle_timeout" json:"idle_timeout"`
	ReadyTimeout   string `yaml:"ready_timeout" json:"ready_timeout"`
	PreWarmScript  string `yaml:"pre_warm_script" json:"pre_warm_script,omitempty"`
	ExecutablePath string `yaml:"executable_path" json:"executable_path"`
}

// IdleTimeoutDuration parses IdleTimeout, defaulting to 5 minutes.
func (p PoolConfig) IdleTimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(p.IdleTimeout); err == nil {
		return d
	}
	return 5 * time.Minute
}

// ReadyTimeoutDuration parses ReadyTimeout, defaulting to 5 seconds per spec §4.2/§5.
func (p PoolConfig) ReadyTimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(p.ReadyTimeout); err == nil {
		return d
	}
	return 5 * time.Second
}

// ServerConfig configures the HTTP control plane itself.
type ServerConfig struct {
	Port          int      `yaml:"port" json:"port"`
	Domain        string   `yaml:"domain" json:"domain"`
	SandboxID     string   `yaml:"sandbox_id" json:"sandbox_id"`
	Workspace     string   `yaml:"workspace" json:"workspace"`
	ReservedPorts []int    `yaml:"reserved_ports" json:"reserved_ports"`
	DenyCommands  []string `yaml:"deny_commands" json:"deny_commands"`
}

// Config holds all sandboxd configuration.
type Config struct {
	Server  ServerConfig            `yaml:"server" json:"server"`
	Pools   map[Language]PoolConfig `yaml:"pools" json:"pools"`
	Logging LoggingConfig           `yaml:"logging" json:"logging"`
}

// DefaultConfig returns the built-in configuration applied before a config
// file or environment overrides are layered on top.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          3000,
			Domain:        "sandbox.local",
			SandboxID:     "sandbox",
			Workspace:     "/workspace",
			ReservedPorts: []int{3000, 22},
			DenyCommands: []string{
				"rm", "rmdir", "shutdown", "reboot", "mkfs", "dd",
				":(){:|:&};:", "init 0", "init 6",
			},
		},
		Pools: map[Language]PoolConfig{
			LanguagePython: {
				MinSize:        2,
				MaxSize:        8,
				IdleTimeout:    "5m",
				ReadyTimeout:   "5s",
				ExecutablePath: "python3",
			},
			LanguageJavaScript: {
				MinSize:        2,
				MaxSize:        8,
				IdleTimeout:    "5m",
				ReadyTimeout:   "5s",
				ExecutablePath: "node",
			},
			LanguageTypeScript: {
				MinSize:        1,
				MaxSize:        4,
				IdleTimeout:    "5m",
				ReadyTimeout:   "5s",
				ExecutablePath: "node",
			},
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "json",
			DebugMode: false,
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults when
// the file does not exist, then layers environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration back to a YAML file, creating its parent
// directory if necessary.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// applyEnvOverrides applies the environment variables listed in spec §6.
func (c *Config) applyEnvOverrides() {
	overrideInt := func(env string, dst *int) {
		if v := os.Getenv(env); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				*dst = n
			}
		}
	}

	for lang, envPrefix := range map[Language]string{
		LanguagePython:     "PYTHON_POOL",
		LanguageJavaScript: "JAVASCRIPT_POOL",
		LanguageTypeScript: "TYPESCRIPT_POOL",
	} {
		pc := c.Pools[lang]
		overrideInt(envPrefix+"_MIN_SIZE", &pc.MinSize)
		overrideInt(envPrefix+"_MAX_SIZE", &pc.MaxSize)
		c.Pools[lang] = pc
	}

	if v := os.Getenv("SANDBOXD_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.Port = n
		}
	}
	if v := os.Getenv("SANDBOXD_DOMAIN"); v != "" {
		c.Server.Domain = v
	}
	if v := os.Getenv("SANDBOXD_WORKSPACE"); v != "" {
		c.Server.Workspace = v
	}
	if v := os.Getenv("SANDBOXD_SANDBOX_ID"); v != "" {
		c.Server.SandboxID = v
	}
	if v := os.Getenv("SANDBOXD_DEBUG"); v != "" {
		c.Logging.DebugMode = v == "1" || v == "true"
	}
}
