package contract

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/huangsam/climdash/schema"
)

// Default values for configuration.
const (
	DefaultAPIURL         = "http://127.0.0.1:5000"
	DefaultTimeout        = 30 * time.Second
	DefaultRetryAttempts  = 5
	DefaultRetryDelay     = 100 * time.Millisecond
	DefaultNoticeDuration = 5 * time.Second
	DefaultServeAddr      = ":5000"
	MaxRetryAttempts      = 50
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration.
// This struct is the "final, validated" config.
type Config struct {
	APIURL    string
	APISecret string // Please use env var as this is plaintext
	Timeout   time.Duration

	RetryAttempts  int
	RetryDelay     time.Duration
	NoticeDuration time.Duration

	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)

	WorkspaceBackend   schema.DatabaseBackend
	WorkspaceDBConnect string // Please use env var as this is plaintext

	QueryLogBackend   schema.DatabaseBackend
	QueryLogDBConnect string // Please use env var as this is plaintext

	ServeAddr   string
	CORSOrigins []string

	UseEmojis bool // Enable emojis in progress lines
	UseColors bool // Enable colored notices and headers
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	APIURL             string `mapstructure:"api-url"`
	APISecret          string `mapstructure:"api-secret"`
	Timeout            string `mapstructure:"timeout"`
	RetryAttempts      int    `mapstructure:"retry-attempts"`
	RetryDelay         string `mapstructure:"retry-delay"`
	NoticeDuration     string `mapstructure:"notice-duration"`
	Output             string `mapstructure:"output"`
	OutputFile         string `mapstructure:"output-file"`
	Width              int    `mapstructure:"width"`
	WorkspaceBackend   string `mapstructure:"workspace-backend"`
	WorkspaceDBConnect string `mapstructure:"workspace-db-connect"`
	QueryLogBackend    string `mapstructure:"querylog-backend"`
	QueryLogDBConnect  string `mapstructure:"querylog-db-connect"`
	Emoji              string `mapstructure:"emoji"`
	Color              string `mapstructure:"color"`

	// --- Fields from serveCmd.Flags() ---
	ServeAddr   string `mapstructure:"serve-addr"`
	CORSOrigins string `mapstructure:"cors-origins"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.CORSOrigins != nil {
		clone.CORSOrigins = make([]string, len(c.CORSOrigins))
		copy(clone.CORSOrigins, c.CORSOrigins)
	}
	return &clone
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processDurations(cfg, input); err != nil {
		return err
	}
	if err := validateAPIURL(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates workspace and query log backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Workspace Backend Validation ---
	cfg.WorkspaceBackend = schema.DatabaseBackend(strings.ToLower(input.WorkspaceBackend))
	if cfg.WorkspaceBackend == "" {
		cfg.WorkspaceBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.WorkspaceBackend]; !ok {
		return fmt.Errorf("invalid workspace backend '%s'. must be sqlite, mysql, postgresql, none", input.WorkspaceBackend)
	}
	cfg.WorkspaceDBConnect = input.WorkspaceDBConnect
	if err := ValidateDatabaseConnectionString(cfg.WorkspaceBackend, cfg.WorkspaceDBConnect); err != nil {
		return fmt.Errorf("workspace store: %w", err)
	}

	// --- Query Log Backend Validation ---
	cfg.QueryLogBackend = schema.DatabaseBackend(strings.ToLower(input.QueryLogBackend))
	if cfg.QueryLogBackend == "" {
		cfg.QueryLogBackend = cfg.WorkspaceBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.QueryLogBackend]; !ok {
		return fmt.Errorf("invalid query log backend '%s'. must be sqlite, mysql, postgresql, none", input.QueryLogBackend)
	}
	cfg.QueryLogDBConnect = input.QueryLogDBConnect
	if cfg.QueryLogDBConnect == "" && cfg.QueryLogBackend == cfg.WorkspaceBackend && cfg.QueryLogBackend != schema.SQLiteBackend {
		// Server databases can hold both tables.
		cfg.QueryLogDBConnect = cfg.WorkspaceDBConnect
	}
	if err := ValidateDatabaseConnectionString(cfg.QueryLogBackend, cfg.QueryLogDBConnect); err != nil {
		return fmt.Errorf("query log store: %w", err)
	}

	// SQLite files are opened with a single connection each, so they must differ
	if cfg.WorkspaceBackend == schema.SQLiteBackend && cfg.QueryLogBackend == schema.SQLiteBackend {
		workspacePath := cfg.WorkspaceDBConnect
		if workspacePath == "" {
			workspacePath = GetWorkspaceDBFilePath()
		}
		queryLogPath := cfg.QueryLogDBConnect
		if queryLogPath == "" {
			queryLogPath = GetQueryLogDBFilePath()
		}
		if workspacePath == queryLogPath && workspacePath != ":memory:" {
			return fmt.Errorf("workspace and query log storage must use different SQLite database files. Both resolve to %q", workspacePath)
		}
	}

	return nil
}

// validateSimpleInputs processes and validates all non-network fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.APISecret = input.APISecret
	cfg.OutputFile = input.OutputFile
	cfg.ServeAddr = input.ServeAddr
	if cfg.ServeAddr == "" {
		cfg.ServeAddr = DefaultServeAddr
	}
	cfg.CORSOrigins = nil
	for origin := range strings.SplitSeq(input.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	// --- 1. Output Validation ---
	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if cfg.Output == "" {
		cfg.Output = schema.TextOut
	}
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, json, csv, yaml, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	// --- 2. Width Validation ---
	if input.Width < 0 {
		return fmt.Errorf("width must be zero (auto) or positive, got %d", input.Width)
	}
	cfg.Width = input.Width

	// --- 3. Retry Validation ---
	cfg.RetryAttempts = input.RetryAttempts
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = DefaultRetryAttempts
	}
	if cfg.RetryAttempts < 1 || cfg.RetryAttempts > MaxRetryAttempts {
		return fmt.Errorf("retry-attempts must be between 1 and %d", MaxRetryAttempts)
	}

	// --- 4. Emoji / Color ---
	var err error
	if cfg.UseEmojis, err = parseBoolDefault(input.Emoji, false); err != nil {
		return fmt.Errorf("invalid emoji value: %w", err)
	}
	if cfg.UseColors, err = parseBoolDefault(input.Color, true); err != nil {
		return fmt.Errorf("invalid color value: %w", err)
	}
	return nil
}

// processDurations parses the duration settings, applying defaults for empty values.
func processDurations(cfg *Config, input *ConfigRawInput) error {
	durations := []struct {
		name string
		raw  string
		def  time.Duration
		dst  *time.Duration
	}{
		{"timeout", input.Timeout, DefaultTimeout, &cfg.Timeout},
		{"retry-delay", input.RetryDelay, DefaultRetryDelay, &cfg.RetryDelay},
		{"notice-duration", input.NoticeDuration, DefaultNoticeDuration, &cfg.NoticeDuration},
	}
	for _, d := range durations {
		if d.raw == "" {
			*d.dst = d.def
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.raw, err)
		}
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.raw)
		}
		*d.dst = v
	}
	return nil
}

// validateAPIURL checks that the backend URL is an absolute http(s) URL.
func validateAPIURL(cfg *Config, input *ConfigRawInput) error {
	raw := strings.TrimRight(input.APIURL, "/")
	if raw == "" {
		raw = DefaultAPIURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid api-url %q: %w", input.APIURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api-url must be an absolute http or https URL, got %q", input.APIURL)
	}
	cfg.APIURL = raw
	return nil
}

func parseBoolDefault(s string, def bool) (bool, error) {
	if s == "" {
		return def, nil
	}
	return ParseBoolString(s)
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
