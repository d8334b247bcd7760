// Package config loads callagent settings from defaults, an optional config
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "CALLAGENT"

type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Vault     VaultConfig     `mapstructure:"vault"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Web3Forms Web3FormsConfig `mapstructure:"web3forms"`
	Export    ExportConfig    `mapstructure:"export"`
}

type APIConfig struct {
	URL     string        `mapstructure:"url"`
	CallURL string        `mapstructure:"call_url"`
	LeadURL string        `mapstructure:"lead_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type VaultConfig struct {
	// Passphrase seals stored credentials when set.
	Passphrase string `mapstructure:"passphrase"`
}

type CacheConfig struct {
	MaxSize    int           `mapstructure:"max_size"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
}

type Web3FormsConfig struct {
	AccessKey string `mapstructure:"access_key"`
	Endpoint  string `mapstructure:"endpoint"`
}

type ExportConfig struct {
	Dir string   `mapstructure:"dir"`
	BOM bool     `mapstructure:"bom"`
	S3  S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

var defaults = map[string]any{
	"api.url":              "http://localhost:8000",
	"api.call_url":         "",
	"api.lead_url":         "",
	"api.timeout":          15 * time.Second,
	"log.level":            "info",
	"log.format":           "text",
	"db.path":              "",
	"vault.passphrase":     "",
	"cache.max_size":       100,
	"cache.default_ttl":    5 * time.Minute,
	"web3forms.access_key": "",
	"web3forms.endpoint":   "",
	"export.dir":           ".",
	"export.bom":           false,
	"export.s3.endpoint":   "",
	"export.s3.bucket":     "",
	"export.s3.region":     "auto",
	"export.s3.access_key": "",
	"export.s3.secret_key": "",
	"export.s3.prefix":     "",
}

// legacyEnv maps keys to the environment names used by the web dashboard.
// They are consulted after the CALLAGENT_ name.
var legacyEnv = map[string]string{
	"api.url":              "NEXT_PUBLIC_API_URL",
	"api.call_url":         "NEXT_PUBLIC_CALL_API_URL",
	"api.lead_url":         "NEXT_PUBLIC_LEAD_API_URL",
	"web3forms.access_key": "NEXT_PUBLIC_WEB3FORMS_ACCESS_KEY",
}

// New returns a viper instance with defaults and environment bindings. Keys
// map to CALLAGENT_ names with dots replaced by underscores, e.g. api.call_url
// reads CALLAGENT_API_CALL_URL.
func New() (*viper.Viper, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		if err := v.BindEnv(key, envName(key), legacy); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return v, nil
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Load reads cfgFile if given, otherwise callagent.yaml from the user config
// directory or the working directory when present.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("callagent")
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "callagent"))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyFallbacks()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyFallbacks() {
	c.API.URL = strings.TrimRight(c.API.URL, "/")
	if c.API.CallURL == "" {
		c.API.CallURL = c.API.URL
	}
	if c.API.LeadURL == "" {
		c.API.LeadURL = c.API.URL
	}
	if c.DB.Path == "" {
		c.DB.Path = defaultDBPath()
	}
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "callagent.db"
	}
	return filepath.Join(dir, "callagent", "callagent.db")
}

// Validate checks that every backend URL is absolute http(s).
func (c *Config) Validate() error {
	for name, raw := range map[string]string{
		"api.url":      c.API.URL,
		"api.call_url": c.API.CallURL,
		"api.lead_url": c.API.LeadURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config: %s must be an http(s) URL, got %q", name, raw)
		}
	}
	if c.Cache.MaxSize < 0 {
		return fmt.Errorf("config: cache.max_size must not be negative")
	}
	return nil
}

// ConfigDir returns the directory holding the database, creating it if needed.
func (c *Config) ConfigDir() (string, error) {
	dir := filepath.Dir(c.DB.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}
