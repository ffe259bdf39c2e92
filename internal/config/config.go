package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile       = ".env"
	defaultPort          = "8080"
	defaultReadTimeout   = 15 * time.Second
	defaultWriteTimeout  = 30 * time.Second
	defaultIdleTimeout   = 60 * time.Second
	defaultCMSTimeout    = 10 * time.Second
	defaultLocale        = "fr"
	defaultLocaleCookie  = "conatel_lang"
	defaultSiteName      = "CONATEL"
	defaultLogLevel      = "info"
	defaultEnvironment   = "local"
	defaultTemplatesDir  = ""
	defaultSupportedLang = "fr,ht"
	defaultContactEmail  = "info@conatel.gouv.ht"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server  ServerConfig
	CMS     CMSConfig
	Locale  LocaleConfig
	Site    SiteConfig
	Session SessionConfig
	Log     LogConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// CMSConfig points at the headless content API.
type CMSConfig struct {
	BaseURL       string
	MediaBaseURL  string
	Timeout       time.Duration
	ResourcesFile string
}

// LocaleConfig lists the languages the site is published in.
type LocaleConfig struct {
	Supported  []string
	Default    string
	CookieName string
}

// SiteConfig holds public facing site settings.
type SiteConfig struct {
	Name         string
	PublicURL    string
	Environment  string
	Dev          bool
	TemplatesDir string
	AnalyticsID  string
	ContactEmail string
}

// SessionConfig controls the signed session cookie.
type SessionConfig struct {
	SigningKey string
	Secure     bool
}

// LogConfig controls logger verbosity.
type LogConfig struct {
	Level string
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Server.Port
}

// ValidationError reports configuration fields that are missing or malformed.
type ValidationError struct {
	fields map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e == nil || len(e.fields) == 0 {
		return "config: invalid configuration"
	}
	parts := make([]string, 0, len(e.fields))
	for _, name := range e.Fields() {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.fields[name]))
	}
	return "config: invalid configuration (" + strings.Join(parts, "; ") + ")"
}

// Fields returns the offending field names sorted alphabetically.
func (e *ValidationError) Fields() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.fields))
	for k := range e.fields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env overrides,
// and environment variables.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	_ = ctx
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	port := stringWithDefault(lookup, "CONATEL_WEB_PORT", "")
	if port == "" {
		// Cloud Run style PORT as a second choice.
		port = stringWithDefault(lookup, "PORT", defaultPort)
	}

	env := strings.ToLower(stringWithDefault(lookup, "CONATEL_WEB_ENV", defaultEnvironment))

	cfg := Config{
		Server: ServerConfig{
			Port:         port,
			ReadTimeout:  durationWithDefault(lookup, "CONATEL_WEB_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "CONATEL_WEB_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "CONATEL_WEB_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		CMS: CMSConfig{
			BaseURL:       strings.TrimRight(strings.TrimSpace(stringWithDefault(lookup, "CONATEL_CMS_BASE_URL", "")), "/"),
			MediaBaseURL:  strings.TrimRight(strings.TrimSpace(stringWithDefault(lookup, "CONATEL_CMS_MEDIA_URL", "")), "/"),
			Timeout:       durationWithDefault(lookup, "CONATEL_CMS_TIMEOUT", defaultCMSTimeout),
			ResourcesFile: stringWithDefault(lookup, "CONATEL_RESOURCES_FILE", ""),
		},
		Locale: LocaleConfig{
			Supported:  lowerAll(csvWithDefault(lookup, "CONATEL_LOCALES", defaultSupportedLang)),
			Default:    strings.ToLower(stringWithDefault(lookup, "CONATEL_DEFAULT_LOCALE", defaultLocale)),
			CookieName: stringWithDefault(lookup, "CONATEL_LOCALE_COOKIE", defaultLocaleCookie),
		},
		Site: SiteConfig{
			Name:         stringWithDefault(lookup, "CONATEL_SITE_NAME", defaultSiteName),
			PublicURL:    strings.TrimRight(stringWithDefault(lookup, "CONATEL_SITE_URL", ""), "/"),
			Environment:  env,
			Dev:          boolWithDefault(lookup, "CONATEL_WEB_DEV", false),
			TemplatesDir: stringWithDefault(lookup, "CONATEL_TEMPLATES_DIR", defaultTemplatesDir),
			AnalyticsID:  stringWithDefault(lookup, "CONATEL_GA_MEASUREMENT_ID", ""),
			ContactEmail: stringWithDefault(lookup, "CONATEL_CONTACT_EMAIL", defaultContactEmail),
		},
		Session: SessionConfig{
			SigningKey: stringWithDefault(lookup, "CONATEL_SESSION_SIGNING_KEY", ""),
			Secure:     env == "prod",
		},
		Log: LogConfig{
			Level: strings.ToLower(stringWithDefault(lookup, "CONATEL_LOG_LEVEL", defaultLogLevel)),
		},
	}
	if cfg.CMS.MediaBaseURL == "" {
		cfg.CMS.MediaBaseURL = cfg.CMS.BaseURL
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	fields := map[string]string{}

	if cfg.CMS.BaseURL == "" {
		fields["CMS.BaseURL"] = "CONATEL_CMS_BASE_URL is required"
	} else if err := validateAbsoluteURL(cfg.CMS.BaseURL); err != nil {
		fields["CMS.BaseURL"] = err.Error()
	}
	if cfg.CMS.MediaBaseURL != "" && cfg.CMS.MediaBaseURL != cfg.CMS.BaseURL {
		if err := validateAbsoluteURL(cfg.CMS.MediaBaseURL); err != nil {
			fields["CMS.MediaBaseURL"] = err.Error()
		}
	}
	if cfg.CMS.Timeout <= 0 {
		fields["CMS.Timeout"] = "must be positive"
	}
	if len(cfg.Locale.Supported) == 0 {
		fields["Locale.Supported"] = "at least one locale is required"
	} else if !contains(cfg.Locale.Supported, cfg.Locale.Default) {
		fields["Locale.Default"] = fmt.Sprintf("%q is not one of %v", cfg.Locale.Default, cfg.Locale.Supported)
	}
	if _, err := strconv.Atoi(cfg.Server.Port); err != nil {
		fields["Server.Port"] = "must be numeric"
	}
	if cfg.Session.Secure && cfg.Session.SigningKey == "" {
		fields["Session.SigningKey"] = "CONATEL_SESSION_SIGNING_KEY is required in prod"
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{fields: fields}
}

func validateAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("malformed url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("url scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("url host is required")
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		values[key] = strings.Trim(value, "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key, fallback string) []string {
	raw := stringWithDefault(lookup, key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func lowerAll(values []string) []string {
	for i, v := range values {
		values[i] = strings.ToLower(v)
	}
	return values
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
