package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv       string
	Logger       LoggerConfig
	SettingsPath string
	DataFile     string
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

// LoadEnv reads the process environment. Call godotenv.Load first to pick
// up a .env file.
func LoadEnv() *Config {
	return &Config{
		AppEnv: getEnv("QM_APP_ENV", "production"),
		Logger: LoggerConfig{
			Level:    getEnv("QM_LOGGER_LEVEL", "warn"),
			Encoding: getEnv("QM_LOGGER_ENCODING", "console"),
		},
		SettingsPath: getEnv("QM_SETTINGS_PATH", defaultSettingsPath()),
		DataFile:     getEnv("QM_DATA_FILE", ""),
	}
}

func (c *Config) Development() bool {
	return c.AppEnv == "development" || getEnvBool("QM_DEBUG", false)
}

func defaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "quartermaster.yaml"
	}
	return filepath.Join(dir, "quartermaster", "settings.yaml")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// Settings is what the program remembers between runs.
type Settings struct {
	LastFile      string `yaml:"last_file,omitempty"`
	SaveDirectory string `yaml:"save_directory,omitempty"`
}

// LoadSettings reads the settings file; a missing file gives empty settings.
func LoadSettings(path string) (Settings, error) {
	var s Settings
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, nil
}

func (s Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Remember records file as the last one opened, and its directory as the
// place to look next time.
func (s *Settings) Remember(file string) {
	if abs, err := filepath.Abs(file); err == nil {
		file = abs
	}
	s.LastFile = file
	s.SaveDirectory = filepath.Dir(file)
}
