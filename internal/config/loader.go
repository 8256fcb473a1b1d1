package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v              *viper.Viper
	configFile     string
	envPrefix      string
	projectDir     string
	projectDirHint string
	resolvePaths   bool
	mu             sync.Mutex
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v:            viper.New(),
		envPrefix:    "CONCLAVE",
		resolvePaths: true,
	}
}

// NewLoaderWithViper creates a loader using an existing viper instance, for
// integration with CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:            v,
		envPrefix:    "CONCLAVE",
		resolvePaths: true,
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// WithProjectDir provides a project root directory hint for resolving
// relative paths, for configs that live outside the project root.
func (l *Loader) WithProjectDir(path string) *Loader {
	l.projectDirHint = path
	return l
}

// WithResolvePaths controls whether relative paths are resolved to
// absolute paths on Load().
func (l *Loader) WithResolvePaths(resolve bool) *Loader {
	l.resolvePaths = resolve
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
//  1. CLI flags (set via viper.BindPFlag)
//  2. Environment variables (CONCLAVE_*)
//  3. Project config (.conclave/config.yaml)
//  4. Legacy project config (.conclave.yaml)
//  5. User config (~/.config/conclave/config.yaml)
//  6. Defaults
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		newConfigPath := filepath.Join(".conclave", "config.yaml")
		if _, err := os.Stat(newConfigPath); err == nil {
			l.v.SetConfigFile(newConfigPath)
		} else {
			l.v.SetConfigName(".conclave")
			l.v.SetConfigType("yaml")
			l.v.AddConfigPath(".")
			if home, err := os.UserHomeDir(); err == nil {
				l.v.AddConfigPath(filepath.Join(home, ".config", "conclave"))
			}
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// ignore: fall through to defaults
		} else if errors.Is(err, os.ErrNotExist) {
			// explicit config file path does not exist: treat as no config file
		} else {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if configPath := l.v.ConfigFileUsed(); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			normalized, err := loadNormalizedConfigMap(configPath)
			if err != nil {
				return nil, fmt.Errorf("normalizing config: %w", err)
			}
			if len(normalized) > 0 {
				if err := l.v.MergeConfigMap(normalized); err != nil {
					return nil, fmt.Errorf("merging normalized config: %w", err)
				}
			}
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	projectDir := ""
	if configPath := l.v.ConfigFileUsed(); configPath != "" {
		if absConfigPath, err := filepath.Abs(configPath); err == nil {
			configDir := filepath.Dir(absConfigPath)
			if filepath.Base(configDir) == ".conclave" {
				projectDir = filepath.Dir(configDir)
			} else {
				projectDir = configDir
			}
		}
	}
	if projectDir == "" {
		projectDir, _ = os.Getwd()
	}
	if strings.TrimSpace(l.projectDirHint) != "" {
		projectDir = l.projectDirHint
	}
	l.projectDir = projectDir
	if l.resolvePaths {
		l.resolveAbsolutePaths(&cfg, projectDir)
	}

	return &cfg, nil
}

// ProjectDir returns the resolved project root directory, available after
// Load() has been called.
func (l *Loader) ProjectDir() string {
	return l.projectDir
}

// resolveAbsolutePaths converts relative paths in the config to absolute
// paths rooted at baseDir, so conclave behaves consistently regardless of
// the working directory it is invoked from.
func (l *Loader) resolveAbsolutePaths(cfg *Config, baseDir string) {
	if cfg.Storage.Path != "" {
		cfg.Storage.Path = resolvePathRelativeTo(cfg.Storage.Path, baseDir)
	}
	for i, root := range cfg.Indexing.Roots {
		cfg.Indexing.Roots[i] = resolvePathRelativeTo(root, baseDir)
	}
}

// resolvePathRelativeTo converts a relative path to an absolute path using
// baseDir as the base. Already-absolute paths are returned unchanged.
func resolvePathRelativeTo(path, baseDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if len(path) > 0 && (path[0] == '/' || path[0] == '\\') {
		return path
	}
	return filepath.Join(baseDir, path)
}

func loadNormalizedConfigMap(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	normalizeLegacyConfigMap(raw)
	return raw, nil
}

// setDefaults configures viper's default values, mirroring DefaultConfigYAML.
func (l *Loader) setDefaults() {
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")

	l.v.SetDefault("storage.path", ".conclave/conclave.db")
	l.v.SetDefault("storage.busy_timeout", "5s")
	l.v.SetDefault("storage.max_open_conns", 8)

	l.v.SetDefault("indexing.roots", []string{"."})
	l.v.SetDefault("indexing.excludes", []string{".git", ".conclave", "node_modules", "vendor"})
	l.v.SetDefault("indexing.parallelism", 4)
	l.v.SetDefault("indexing.max_file_size", 1048576)
	l.v.SetDefault("indexing.watch_fs", false)

	l.v.SetDefault("retrieval.token_budget", 8000)
	l.v.SetDefault("retrieval.weights.lexical", 0.4)
	l.v.SetDefault("retrieval.weights.vector", 0.3)
	l.v.SetDefault("retrieval.weights.recency", 0.2)
	l.v.SetDefault("retrieval.weights.proximity", 0.1)
	l.v.SetDefault("retrieval.boosts.open_file", 1.5)
	l.v.SetDefault("retrieval.boosts.recent_edit", 1.2)
	l.v.SetDefault("retrieval.boosts.same_dir_task", 1.1)

	l.v.SetDefault("strategy.complexity_threshold", 7)
	l.v.SetDefault("strategy.risk_threshold", 6)
	l.v.SetDefault("strategy.critical_keywords", []string{"security", "auth", "payment", "migration", "production"})
	l.v.SetDefault("strategy.parallel_cues", []string{"in parallel", "at the same time", "independently"})

	l.v.SetDefault("consensus.min_agreement_rate", 0.5)
	l.v.SetDefault("consensus.default_panel_size", 3)
	l.v.SetDefault("consensus.decision_timeout", "2m")

	l.v.SetDefault("workflow.heartbeat_interval", "15s")
	l.v.SetDefault("workflow.consensus_timeout", "2m")
	l.v.SetDefault("workflow.sequential_timeout", "5m")
	l.v.SetDefault("workflow.parallel_timeout", "5m")

	l.v.SetDefault("events.buffer_size", 256)

	l.v.SetDefault("analytics.max_tokens_per_task", 50000)
	l.v.SetDefault("analytics.max_tokens_total", 2000000)
	l.v.SetDefault("analytics.min_agreement_rate", 0.5)
	l.v.SetDefault("analytics.metrics_addr", "")
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	if l.configFile != "" {
		return l.configFile
	}
	return l.v.ConfigFileUsed()
}

// Get returns a configuration value by key.
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// Set sets a configuration value.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// IsSet checks if a key has been set.
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}

// AllSettings returns all settings as a map.
func (l *Loader) AllSettings() map[string]interface{} {
	return l.v.AllSettings()
}

// Validate checks configuration consistency and returns an error if invalid.
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}
