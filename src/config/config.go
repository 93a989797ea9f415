package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	CredentialEnvVar    = "OPENAI_API_KEY"
	SettingsPathEnvVar  = "SCREEN_SOLVER_SETTINGS"
	EnvFilePathEnvVar   = "SCREEN_SOLVER_ENV"
	DefaultSettingsFile = "settings.yaml"
	DefaultModel        = "gpt-4o-mini"
	DefaultMaxTokens    = 1000
)

var (
	ErrMissingCredential = fmt.Errorf("%s is not set", CredentialEnvVar)
	ErrMissingSettings   = errors.New("settings file not found")
	ErrMissingAPIKey     = errors.New("missing API key")
)

type LoadOptions struct {
	SettingsPathOverride string
}

// Settings is the on-disk settings object. APIKey is only checked for
// presence; the credential used for requests comes from the environment.
type Settings struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

type Config struct {
	APIKey            string
	SettingsAPIKey    string
	SettingsPath      string
	Model             string
	BaseURL           string
	MaxTokens         int
	EnableFileLogging bool
	CaptureCommand    string
	CaptureDir        string
	CopyToClipboard   bool

	settingsErr error
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

// LoadWithOptions reads .env, the environment and the settings file, then
// validates the result. Any validation problem is returned; the caller must
// not continue startup in that case.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	LoadEnvFile()

	maxTokens := DefaultMaxTokens
	if v := os.Getenv("MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxTokens = n
		}
	}

	cfg := &Config{
		APIKey:            strings.TrimSpace(os.Getenv(CredentialEnvVar)),
		SettingsPath:      resolveSettingsPath(opts),
		BaseURL:           strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		MaxTokens:         maxTokens,
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		CaptureCommand:    strings.TrimSpace(os.Getenv("CAPTURE_COMMAND")),
		CaptureDir:        getEnvWithDefault("CAPTURE_DIR", defaultPicturesDir()),
		CopyToClipboard:   strings.ToLower(getEnvWithDefault("COPY_TO_CLIPBOARD", "true")) == "true",
	}

	settings, err := readSettings(cfg.SettingsPath)
	if err != nil {
		cfg.settingsErr = err
	} else {
		cfg.SettingsAPIKey = strings.TrimSpace(settings.APIKey)
		cfg.Model = strings.TrimSpace(settings.Model)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
		log.Printf("No model configured in %s, using default %s", cfg.SettingsPath, DefaultModel)
	}

	return cfg, nil
}

// Validate reports every startup problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.APIKey == "" {
		result = multierror.Append(result, ErrMissingCredential)
	}
	switch {
	case c.settingsErr != nil:
		result = multierror.Append(result, c.settingsErr)
	case c.SettingsAPIKey == "":
		result = multierror.Append(result, ErrMissingAPIKey)
	}
	return result.ErrorOrNil()
}

func readSettings(path string) (Settings, error) {
	var s Settings
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, fmt.Errorf("%w: %s", ErrMissingSettings, path)
		}
		return s, fmt.Errorf("failed to read settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("malformed settings %s: %w", path, err)
	}
	return s, nil
}

func resolveSettingsPath(opts LoadOptions) string {
	if p := strings.TrimSpace(opts.SettingsPathOverride); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(SettingsPathEnvVar)); p != "" {
		return p
	}
	return filepath.Join(execDir(), DefaultSettingsFile)
}

// LoadEnvFile applies the .env file next to the executable (or the one named
// by SCREEN_SOLVER_ENV) without overriding variables already set.
func LoadEnvFile() {
	if envPath := resolveEnvPath(); envPath != "" {
		_ = godotenv.Load(envPath)
	}
}

func resolveEnvPath() string {
	exeEnv := filepath.Join(execDir(), ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(EnvFilePathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func execDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(execPath)
}

func defaultPicturesDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return filepath.Join(home, "Pictures")
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
