package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/waypoint/pkg/constants"
	"github.com/agentstation/waypoint/pkg/errors"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Client configuration
	AutoStart bool

	// Server configuration
	Server ServerConfig

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// ServerConfig holds the defaults for the serve command.
type ServerConfig struct {
	Host         string
	Port         int
	PathPrefix   string
	APIKey       string
	RateLimit    int
	TombstoneTTL time.Duration
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (handled by cobra)
//  2. Environment variables (WAYPOINT_ prefix, e.g. WAYPOINT_SERVER_PORT)
//  3. .env files
//  4. Config file (./.waypoint.yaml or ~/.waypoint.yaml)
//  5. Defaults
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom is LoadConfig reading the given config file instead of
// searching the standard locations. An empty path searches.
func LoadConfigFrom(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix("waypoint")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path == "" {
		path = v.GetString("config")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "failed to read "+path, err)
		}
	} else {
		v.SetConfigName(".waypoint")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		// A missing config file is fine.
		_ = v.ReadInConfig()
	}

	return &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no-color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		AutoStart: v.GetBool("auto_start"),

		Server: ServerConfig{
			Host:         v.GetString("server.host"),
			Port:         v.GetInt("server.port"),
			PathPrefix:   v.GetString("server.prefix"),
			APIKey:       v.GetString("server.api_key"),
			RateLimit:    v.GetInt("server.rate_limit"),
			TombstoneTTL: v.GetDuration("server.tombstone_ttl"),
		},

		LogLevel:  getEnvOrDefault("LOG_LEVEL", v.GetString("log.level")),
		LogFormat: getEnvOrDefault("LOG_FORMAT", v.GetString("log.format")),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", v.GetString("log.output")),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("auto_start", true)
	v.SetDefault("server.host", constants.DefaultHost)
	v.SetDefault("server.port", constants.DefaultPort)
	v.SetDefault("server.prefix", constants.DefaultPathPrefix)
	v.SetDefault("server.rate_limit", 600)
	v.SetDefault("server.tombstone_ttl", 5*time.Minute)
	v.SetDefault("log.format", "auto")
	v.SetDefault("log.output", "stderr")
}

// UpdateFromFlags applies parsed command flags so that they take
// precedence over the config file and environment.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files; .env.local
// overrides .env. Variables already set in the environment win.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
