package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultConfigName = ".taskpool"
	defaultConfigDir  = ".taskpool"
	envPrefix         = "TASKPOOL"
)

// Default run settings
const (
	DefaultConcurrency  = 5
	DefaultOutputFormat = "table"
	DefaultLogLevel     = "info"
)

// Manager handles taskpool configuration
type Manager struct {
	configPath string
	config     *Config
	viper      *viper.Viper
}

// NewManager creates a new configuration manager
func NewManager(configPath string) *Manager {
	m := &Manager{
		configPath: configPath,
		viper:      viper.New(),
		config:     &Config{},
	}

	m.viper.SetDefault("defaults.concurrency", DefaultConcurrency)
	m.viper.SetDefault("defaults.outputFormat", DefaultOutputFormat)
	m.viper.SetDefault("defaults.logLevel", DefaultLogLevel)

	// TASKPOOL_DEFAULTS_CONCURRENCY=8 overrides defaults.concurrency
	m.viper.SetEnvPrefix(envPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()

	return m
}

// Load loads the configuration; a missing file is not an error
func (m *Manager) Load() (*Config, error) {
	if m.configPath != "" {
		m.viper.SetConfigFile(m.configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		// ~/.taskpool/.taskpool.yaml, then ~/.taskpool.yaml
		m.viper.AddConfigPath(filepath.Join(home, defaultConfigDir))
		m.viper.AddConfigPath(home)
		m.viper.SetConfigName(defaultConfigName)
		m.viper.SetConfigType("yaml")
	}

	if err := m.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := m.viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	m.config = cfg

	return m.config, nil
}

// Save writes the current configuration to file
func (m *Manager) Save() error {
	if m.configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		m.configPath = filepath.Join(home, defaultConfigDir, "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := m.viper.WriteConfigAs(m.configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Viper exposes the underlying viper instance for flag binding
func (m *Manager) Viper() *viper.Viper {
	return m.viper
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// Profile returns the defaults with the named profile applied
// An empty name returns the defaults
func (m *Manager) Profile(name string) (RunConfig, error) {
	if name == "" {
		return m.config.Defaults, nil
	}
	p, ok := m.config.Profiles[name]
	if !ok {
		return RunConfig{}, fmt.Errorf("profile %q not found (available: %s)", name, strings.Join(m.ProfileNames(), ", "))
	}
	return m.config.Defaults.Merge(p), nil
}

// SetProfile sets or updates a named profile
func (m *Manager) SetProfile(name string, cfg RunConfig) {
	if m.config.Profiles == nil {
		m.config.Profiles = make(map[string]RunConfig)
	}
	m.config.Profiles[name] = cfg
	m.viper.Set("profiles", m.config.Profiles)
}

// RemoveProfile removes a named profile
func (m *Manager) RemoveProfile(name string) {
	if m.config.Profiles == nil {
		return
	}
	delete(m.config.Profiles, name)
	m.viper.Set("profiles", m.config.Profiles)
}

// ProfileNames returns the sorted profile names
func (m *Manager) ProfileNames() []string {
	names := make([]string, 0, len(m.config.Profiles))
	for name := range m.config.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
