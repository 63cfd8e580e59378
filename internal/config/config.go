// Package config loads application configuration from environment variables
// and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Table backends.
const (
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
)

// Password schemes.
const (
	SchemeSHA256 = "sha256"
	SchemeBcrypt = "bcrypt"
)

// Config holds the application configuration.
type Config struct {
	ListenAddr       string `yaml:"listen_addr"`
	UsersFile        string `yaml:"users_file"`
	PasswordScheme   string `yaml:"password_scheme"`
	TableBackend     string `yaml:"table_backend"`
	SpreadsheetTitle string `yaml:"spreadsheet_title"`
	CredentialsFile  string `yaml:"google_credentials_file"`
	DBPath           string `yaml:"db_path"`
	InitHeader       bool   `yaml:"init_header"`
	LoginRate        int    `yaml:"login_rate"`

	// GoogleCredentials is the service account JSON, read from
	// MEALTRACKER_GOOGLE_CREDENTIALS or from CredentialsFile. Never from YAML.
	GoogleCredentials []byte `yaml:"-"`
}

func defaults() Config {
	return Config{
		ListenAddr:       "127.0.0.1:8080",
		UsersFile:        "users.json",
		PasswordScheme:   SchemeSHA256,
		TableBackend:     BackendSheets,
		SpreadsheetTitle: "MealTracker v0 Beta",
		DBPath:           "mealtracker.db",
		LoginRate:        5,
	}
}

// Load builds a Config from defaults, then the YAML file named by
// MEALTRACKER_CONFIG_FILE (if set), then MEALTRACKER_ environment variables.
// Later sources win. Variables: MEALTRACKER_LISTEN_ADDR (127.0.0.1:8080),
// MEALTRACKER_USERS_FILE (users.json), MEALTRACKER_PASSWORD_SCHEME (sha256),
// MEALTRACKER_TABLE_BACKEND (sheets), MEALTRACKER_SPREADSHEET_TITLE
// (MealTracker v0 Beta), MEALTRACKER_GOOGLE_CREDENTIALS_FILE,
// MEALTRACKER_GOOGLE_CREDENTIALS, MEALTRACKER_DB_PATH (mealtracker.db),
// MEALTRACKER_INIT_HEADER (false), MEALTRACKER_LOGIN_RATE (5).
func Load() (*Config, error) {
	cfg := defaults()

	if err := loadConfigFile(&cfg); err != nil {
		return nil, err
	}

	stringVar(&cfg.ListenAddr, "MEALTRACKER_LISTEN_ADDR")
	stringVar(&cfg.UsersFile, "MEALTRACKER_USERS_FILE")
	stringVar(&cfg.PasswordScheme, "MEALTRACKER_PASSWORD_SCHEME")
	stringVar(&cfg.TableBackend, "MEALTRACKER_TABLE_BACKEND")
	stringVar(&cfg.SpreadsheetTitle, "MEALTRACKER_SPREADSHEET_TITLE")
	stringVar(&cfg.CredentialsFile, "MEALTRACKER_GOOGLE_CREDENTIALS_FILE")
	stringVar(&cfg.DBPath, "MEALTRACKER_DB_PATH")

	if v, ok := os.LookupEnv("MEALTRACKER_INIT_HEADER"); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("MEALTRACKER_INIT_HEADER has invalid boolean %q: %w", v, err)
		}
		cfg.InitHeader = parsed
	}

	if v, ok := os.LookupEnv("MEALTRACKER_LOGIN_RATE"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("MEALTRACKER_LOGIN_RATE has invalid integer %q: %w", v, err)
		}
		cfg.LoginRate = parsed
	}

	cfg.PasswordScheme = strings.ToLower(strings.TrimSpace(cfg.PasswordScheme))
	cfg.TableBackend = strings.ToLower(strings.TrimSpace(cfg.TableBackend))

	if err := cfg.loadCredentials(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ListenAddr resolves only the listen address, from the same sources and in
// the same order as Load. It skips validation and credentials, so the
// healthcheck binary can run with a partial environment.
func ListenAddr() (string, error) {
	cfg := defaults()
	if err := loadConfigFile(&cfg); err != nil {
		return "", err
	}
	stringVar(&cfg.ListenAddr, "MEALTRACKER_LISTEN_ADDR")
	return cfg.ListenAddr, nil
}

func loadConfigFile(cfg *Config) error {
	path, ok := os.LookupEnv("MEALTRACKER_CONFIG_FILE")
	if !ok || path == "" {
		return nil
	}
	return loadFile(path, cfg)
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func stringVar(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

// loadCredentials fills GoogleCredentials. Inline JSON wins over the file.
func (c *Config) loadCredentials() error {
	if v, ok := os.LookupEnv("MEALTRACKER_GOOGLE_CREDENTIALS"); ok && strings.TrimSpace(v) != "" {
		c.GoogleCredentials = []byte(v)
		return nil
	}
	if c.CredentialsFile == "" {
		return nil
	}
	data, err := os.ReadFile(c.CredentialsFile)
	if err != nil {
		return fmt.Errorf("read google credentials file: %w", err)
	}
	c.GoogleCredentials = data
	return nil
}

func (c *Config) validate() error {
	var errs []error

	if c.ListenAddr == "" {
		errs = append(errs, errors.New("listen address must not be empty"))
	}
	if c.UsersFile == "" {
		errs = append(errs, errors.New("users file must not be empty"))
	}
	switch c.PasswordScheme {
	case SchemeSHA256, SchemeBcrypt:
	default:
		errs = append(errs, fmt.Errorf("unknown password scheme %q (want %s or %s)", c.PasswordScheme, SchemeSHA256, SchemeBcrypt))
	}
	switch c.TableBackend {
	case BackendSheets:
		if strings.TrimSpace(c.SpreadsheetTitle) == "" {
			errs = append(errs, errors.New("spreadsheet title must not be empty"))
		}
	case BackendSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("db path must not be empty for the sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown table backend %q (want %s or %s)", c.TableBackend, BackendSheets, BackendSQLite))
	}
	if c.LoginRate < 0 {
		errs = append(errs, fmt.Errorf("login rate must not be negative, got %d", c.LoginRate))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// HasGoogleCredentials reports whether service account credentials were
// supplied. Without them the sheets backend cannot connect, but the app
// still starts so the credential-store pages work.
func (c *Config) HasGoogleCredentials() bool {
	return len(c.GoogleCredentials) > 0
}
