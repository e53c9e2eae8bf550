// Package config loads server settings: built-in defaults, then an optional
// TOML file, then environment variables. Later sources win.
//
// Example file (CONFIG_FILE=compiler.toml):
//
//	port = 8080
//	db_path = "data/compiler.db"
//	workspace_root = "/var/lib/compiler/ws"
//	log_level = "info"
//
//	[auth]
//	jwt_secret = "change-me-at-least-16"
//	client_id = "grader"
//	client_secret = "s3cret"
//	token_ttl = "1h"
//
//	[encodings]
//	python = "utf-8"
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/sakif/code-compiler/internal/executor"
	"github.com/sakif/code-compiler/internal/executor/local"
	"github.com/sakif/code-compiler/internal/executor/process"
)

type Config struct {
	Port          int    `toml:"port"`
	DBPath        string `toml:"db_path"`
	WorkspaceRoot string `toml:"workspace_root"`
	LogLevel      string `toml:"log_level"`
	// CSharpHost overrides the program that launches C# artifacts ("mono"
	// off Windows). Set it to "none" to run artifacts directly.
	CSharpHost string `toml:"csharp_host"`

	Auth Auth `toml:"auth"`

	// Encodings overrides the output encoding per language name.
	Encodings map[string]string `toml:"encodings"`
}

// Auth enables bearer-token protection when JWTSecret is set.
type Auth struct {
	JWTSecret    string `toml:"jwt_secret"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	TokenTTL     string `toml:"token_ttl"`
}

func Default() Config {
	return Config{
		Port:          8080,
		DBPath:        "data/compiler.db",
		WorkspaceRoot: ".",
		LogLevel:      "info",
	}
}

// Load builds a Config from path (skipped when empty) and the variables
// returned by getenv. Pass os.Getenv in production.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv is Load driven by the process environment, with the file path
// taken from CONFIG_FILE.
func FromEnv() (Config, error) {
	return Load(os.Getenv("CONFIG_FILE"), os.Getenv)
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid PORT %q", v)
		}
		c.Port = port
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"DB_PATH", &c.DBPath},
		{"WORKSPACE_ROOT", &c.WorkspaceRoot},
		{"LOG_LEVEL", &c.LogLevel},
		{"CSHARP_HOST", &c.CSharpHost},
		{"JWT_SECRET", &c.Auth.JWTSecret},
		{"CLIENT_ID", &c.Auth.ClientID},
		{"CLIENT_SECRET", &c.Auth.ClientSecret},
		{"TOKEN_TTL", &c.Auth.TokenTTL},
	}
	for _, s := range strs {
		if v := getenv(s.key); v != "" {
			*s.dst = v
		}
	}

	if v := getenv("OUTPUT_ENCODINGS"); v != "" {
		overrides, err := ParseEncodings(v)
		if err != nil {
			return err
		}
		if c.Encodings == nil {
			c.Encodings = make(map[string]string, len(overrides))
		}
		for lang, enc := range overrides {
			c.Encodings[lang] = enc
		}
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("config: db_path must not be empty")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if _, err := c.TokenTTL(); err != nil {
		return err
	}
	if (c.Auth.ClientID == "") != (c.Auth.ClientSecret == "") {
		return errors.New("config: client_id and client_secret must be set together")
	}
	if c.Auth.ClientID != "" && !c.AuthEnabled() {
		return errors.New("config: client credentials need jwt_secret to be set")
	}
	if _, err := c.Executor(); err != nil {
		return err
	}
	return nil
}

func (c Config) AuthEnabled() bool {
	return c.Auth.JWTSecret != ""
}

// SlogLevel maps LogLevel (debug, info, warn, error) to a slog.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// TokenTTL parses Auth.TokenTTL. Empty means zero, which the token service
// replaces with its default.
func (c Config) TokenTTL() (time.Duration, error) {
	if c.Auth.TokenTTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Auth.TokenTTL)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("config: invalid token_ttl %q", c.Auth.TokenTTL)
	}
	return d, nil
}

// Executor derives the local executor settings. Encoding overrides must name
// a supported language and an encoding the process package knows.
func (c Config) Executor() (local.Config, error) {
	out := local.DefaultConfig()
	if c.WorkspaceRoot != "" {
		out.WorkspaceRoot = c.WorkspaceRoot
	}
	switch c.CSharpHost {
	case "":
	case "none":
		out.CSharpHost = ""
	default:
		out.CSharpHost = c.CSharpHost
	}

	for name, enc := range c.Encodings {
		lang, err := executor.ParseLanguage(name)
		if err != nil {
			return local.Config{}, fmt.Errorf("config: encodings: %w", err)
		}
		if _, err := process.LookupEncoding(enc); err != nil {
			return local.Config{}, fmt.Errorf("config: encodings: %s: %w", lang, err)
		}
		out.Encodings[lang] = enc
	}
	return out, nil
}

// ParseEncodings reads the OUTPUT_ENCODINGS format:
// "python=utf-8,java=windows-1252". Whitespace around items is ignored.
func ParseEncodings(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		lang, enc, ok := strings.Cut(item, "=")
		lang, enc = strings.TrimSpace(lang), strings.TrimSpace(enc)
		if !ok || lang == "" || enc == "" {
			return nil, fmt.Errorf("config: OUTPUT_ENCODINGS item %q is not language=encoding", item)
		}
		out[lang] = enc
	}
	return out, nil
}
