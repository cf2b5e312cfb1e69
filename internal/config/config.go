package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the configuration surface.
const (
	DefaultAPIBaseURL     = "https://services.nvd.nist.gov/rest/json/cves/2.0"
	DefaultCWEURL         = "https://cwe.mitre.org/data/xml/cwec_latest.xml.zip"
	DefaultCAPECURL       = "https://capec.mitre.org/data/xml/capec_latest.xml"
	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxAttempts    = 3
	DefaultMaxResults     = 2000
	DefaultOutputPath     = "saci_cve_results.json"

	// NVD asks for at most 5 requests per 30s without a key and 50 with one.
	delayWithKey    = 700 * time.Millisecond
	delayWithoutKey = 7 * time.Second
)

// DefaultKeywords is the autopilot/drone search list used when none is given.
var DefaultKeywords = []string{
	"ardupilot",
	"px4",
	"mavlink",
	"qgroundcontrol",
	"autopilot",
	"drone",
	"uav",
	"dji",
	"parrot",
	"betaflight",
}

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all application configuration.
type Config struct {
	APIBaseURL     string        `yaml:"api_base_url"`
	APIKey         string        `yaml:"api_key"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxAttempts    int           `yaml:"max_attempts"`

	EnableCWENames bool   `yaml:"enable_cwe_names"`
	EnableCAPEC    bool   `yaml:"enable_capec"`
	CWEURL         string `yaml:"cwe_url"`
	CAPECURL       string `yaml:"capec_url"`

	Keywords   []string `yaml:"keywords"`
	MaxResults int      `yaml:"max_results"`

	OutputPath  string `yaml:"output_path"`
	CSVPath     string `yaml:"csv_path"`
	PDFPath     string `yaml:"pdf_path"`
	DBPath      string `yaml:"db_path"`
	MetricsFile string `yaml:"metrics_file"`

	Debug bool `yaml:"debug"`
	Trace bool `yaml:"trace"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIBaseURL:     DefaultAPIBaseURL,
		RequestTimeout: DefaultRequestTimeout,
		MaxAttempts:    DefaultMaxAttempts,
		EnableCWENames: true,
		EnableCAPEC:    true,
		CWEURL:         DefaultCWEURL,
		CAPECURL:       DefaultCAPECURL,
		Keywords:       append([]string(nil), DefaultKeywords...),
		MaxResults:     DefaultMaxResults,
		OutputPath:     DefaultOutputPath,
	}
}

// Load builds a Config from defaults, an optional YAML file and the
// environment, in increasing order of precedence. Command line flags are
// applied on top by the caller.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.APIBaseURL = getEnv("SACI_API_BASE_URL", c.APIBaseURL)
	c.APIKey = getEnv("NVD_API_KEY", c.APIKey)
	c.APIKey = getEnv("SACI_API_KEY", c.APIKey)
	c.RequestTimeout = getEnvDuration("SACI_REQUEST_TIMEOUT", c.RequestTimeout)
	c.MaxAttempts = getEnvInt("SACI_MAX_ATTEMPTS", c.MaxAttempts)
	c.EnableCWENames = getEnvBool("SACI_ENABLE_CWE_NAMES", c.EnableCWENames)
	c.EnableCAPEC = getEnvBool("SACI_ENABLE_CAPEC", c.EnableCAPEC)
	c.CWEURL = getEnv("SACI_CWE_URL", c.CWEURL)
	c.CAPECURL = getEnv("SACI_CAPEC_URL", c.CAPECURL)
	c.MaxResults = getEnvInt("SACI_MAX_RESULTS", c.MaxResults)
	c.OutputPath = getEnv("SACI_OUTPUT", c.OutputPath)
	c.DBPath = getEnv("SACI_DB", c.DBPath)
	c.Debug = getEnvBool("SACI_DEBUG", c.Debug)

	if kw, ok := os.LookupEnv("SACI_KEYWORDS"); ok {
		c.Keywords = ParseKeywords(kw)
	}
}

// RequestDelay is the mandatory spacing between provider requests.
func (c *Config) RequestDelay() time.Duration {
	if c.APIKey != "" {
		return delayWithKey
	}
	return delayWithoutKey
}

// Validate checks the values the pipeline depends on.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.APIBaseURL) == "":
		return fmt.Errorf("%w: api_base_url is empty", ErrInvalidConfig)
	case c.MaxResults <= 0:
		return fmt.Errorf("%w: max_results must be positive, got %d", ErrInvalidConfig, c.MaxResults)
	case c.MaxAttempts <= 0:
		return fmt.Errorf("%w: max_attempts must be positive, got %d", ErrInvalidConfig, c.MaxAttempts)
	case c.RequestTimeout <= 0:
		return fmt.Errorf("%w: request_timeout must be positive, got %s", ErrInvalidConfig, c.RequestTimeout)
	}
	return nil
}

// ParseKeywords splits a comma separated keyword list, dropping blanks.
func ParseKeywords(s string) []string {
	var keywords []string
	for _, p := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			keywords = append(keywords, trimmed)
		}
	}
	return keywords
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
