package contract

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/huangsam/recap/schema"
)

// Default values for configuration.
const (
	DefaultRetryLimit = 4
	MaxRetryLimit     = 10
	MaxWorkers        = 32
	DefaultGitHubURL  = "https://api.github.com"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Member is one person the report covers, with their identity on each
// source. A member missing an identity for a source is simply skipped by
// that source's adapter.
type Member struct {
	Name     string `yaml:"name" mapstructure:"name"`
	GitHub   string `yaml:"github,omitempty" mapstructure:"github"`
	Bugzilla string `yaml:"bugzilla,omitempty" mapstructure:"bugzilla"`
}

// Identity returns the member's identity for the given source.
func (m Member) Identity(source schema.SourceID) (string, bool) {
	switch source {
	case schema.GitHubSource:
		return m.GitHub, m.GitHub != ""
	case schema.BugzillaSource:
		return m.Bugzilla, m.Bugzilla != ""
	default:
		return "", false
	}
}

// TeamManifest is the on-disk shape of a team file.
type TeamManifest struct {
	Members []Member `yaml:"members"`
}

// Config holds the runtime configuration for one report run.
// This struct remains the "final, validated" config.
type Config struct {
	Window  schema.ReportingWindow
	Members []Member
	Sources []schema.SourceID

	Workers    int
	RetryLimit int
	Timeout    time.Duration // Per-request HTTP timeout

	GitHubURL      string
	GitHubToken    string // Please use env var as this is plaintext
	BugzillaURL    string
	BugzillaAPIKey string // Please use env var as this is plaintext

	Excludes []string // Project patterns to drop from the report

	Output     schema.OutputMode
	OutputFile string
	ReportDir  string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	Quiet      bool

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
	CacheTTL       time.Duration
	NoCache        bool // Bypass the fetch cache for this run

	LedgerBackend   schema.DatabaseBackend
	LedgerDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Window selection ---
	Quarter string `mapstructure:"quarter"`
	Start   string `mapstructure:"start"`
	End     string `mapstructure:"end"`

	// --- Who to report on ---
	TeamFile      string `mapstructure:"team"`
	Actor         string `mapstructure:"actor"`
	GitHubLogin   string `mapstructure:"github-login"`
	BugzillaEmail string `mapstructure:"bugzilla-email"`

	// --- Fetch behavior ---
	SourcesStr string `mapstructure:"sources"`
	Workers    int    `mapstructure:"workers"`
	RetryLimit int    `mapstructure:"retry-limit"`
	Timeout    string `mapstructure:"timeout"`
	Exclude    string `mapstructure:"exclude"`

	// --- Source endpoints and credentials ---
	GitHubURL      string `mapstructure:"github-url"`
	GitHubToken    string `mapstructure:"github-token"`
	BugzillaURL    string `mapstructure:"bugzilla-url"`
	BugzillaAPIKey string `mapstructure:"bugzilla-key"`

	// --- Output ---
	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	ReportDir  string `mapstructure:"report-dir"`
	Width      int    `mapstructure:"width"`
	Color      string `mapstructure:"color"`
	Quiet      bool   `mapstructure:"quiet"`

	// --- Storage backends ---
	CacheBackend    string `mapstructure:"cache-backend"`
	CacheDBConnect  string `mapstructure:"cache-db-connect"`
	CacheTTL        string `mapstructure:"cache-ttl"`
	NoCache         bool   `mapstructure:"no-cache"`
	LedgerBackend   string `mapstructure:"ledger-backend"`
	LedgerDBConnect string `mapstructure:"ledger-db-connect"`

	// --- Team members from config file ---
	Members []Member `mapstructure:"members"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Members != nil {
		clone.Members = make([]Member, len(c.Members))
		copy(clone.Members, c.Members)
	}
	if c.Sources != nil {
		clone.Sources = make([]schema.SourceID, len(c.Sources))
		copy(clone.Sources, c.Sources)
	}
	if c.Excludes != nil {
		clone.Excludes = make([]string, len(c.Excludes))
		copy(clone.Excludes, c.Excludes)
	}
	return &clone
}

// CloneWithWindow creates a copy of the Config and sets a new reporting window.
func (c *Config) CloneWithWindow(window schema.ReportingWindow) *Config {
	clone := c.Clone()
	clone.Window = window
	return clone
}

// MembersFor returns the members that carry an identity for the given source.
func (c *Config) MembersFor(source schema.SourceID) []Member {
	var out []Member
	for _, m := range c.Members {
		if _, ok := m.Identity(source); ok {
			out = append(out, m)
		}
	}
	return out
}

// ActorNames returns the names of all configured members, in order.
func (c *Config) ActorNames() []string {
	names := make([]string, len(c.Members))
	for i, m := range c.Members {
		names[i] = m.Name
	}
	return names
}

// ConfigParams flattens the run-relevant settings for ledger bookkeeping.
func (c *Config) ConfigParams() map[string]any {
	sources := make([]string, len(c.Sources))
	for i, s := range c.Sources {
		sources[i] = string(s)
	}
	return map[string]any{
		"window_start": c.Window.Start.Format(DateTimeFormat),
		"window_end":   c.Window.End.Format(DateTimeFormat),
		"sources":      strings.Join(sources, ","),
		"actors":       len(c.Members),
		"workers":      c.Workers,
	}
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct. Any failure here is fatal and happens
// before the first fetch.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := processAndValidate(cfg, input); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	return nil
}

func processAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processWindow(cfg, input, time.Now().UTC()); err != nil {
		return err
	}
	if err := processSources(cfg, input); err != nil {
		return err
	}
	if err := processMembers(cfg, input); err != nil {
		return err
	}
	if err := processCredentials(cfg, input); err != nil {
		return err
	}
	return validateBackendConfigs(cfg, input)
}

// validateSimpleInputs processes and validates all non-window, non-member fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.ReportDir = input.ReportDir
	cfg.Quiet = input.Quiet

	// --- 1. Workers Validation ---
	if input.Workers <= 0 || input.Workers > MaxWorkers {
		return fmt.Errorf("workers must be between 1 and %d (received %d)", MaxWorkers, input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 2. Retry Limit Validation ---
	if input.RetryLimit <= 0 || input.RetryLimit > MaxRetryLimit {
		return fmt.Errorf("retry-limit must be between 1 and %d (received %d)", MaxRetryLimit, input.RetryLimit)
	}
	cfg.RetryLimit = input.RetryLimit

	// --- 3. Timeout Validation ---
	timeout, err := ParseLookbackDuration(input.Timeout)
	if err != nil {
		return fmt.Errorf("invalid --timeout value: %w", err)
	}
	cfg.Timeout = timeout

	// --- 4. Output and Width Validation ---
	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, markdown, csv, json, parquet, xlsx", input.Output)
	}
	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}
	cfg.Width = input.Width

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 5. Excludes Processing ---
	if input.Exclude != "" {
		parts := strings.SplitSeq(input.Exclude, ",")
		for p := range parts {
			trimmedP := strings.TrimSpace(p)
			if trimmedP != "" {
				cfg.Excludes = append(cfg.Excludes, trimmedP)
			}
		}
	}

	return nil
}

// processWindow resolves the reporting window from quarter or start/end
// expressions. With no window input at all, the most recently completed
// quarter is used.
func processWindow(cfg *Config, input *ConfigRawInput, now time.Time) error {
	hasQuarter := strings.TrimSpace(input.Quarter) != ""
	hasBounds := input.Start != "" || input.End != ""

	if hasQuarter && hasBounds {
		return fmt.Errorf("--quarter cannot be combined with --start or --end")
	}

	if hasQuarter || !hasBounds {
		expr := input.Quarter
		if expr == "" {
			expr = "last"
		}
		window, err := ParseQuarter(expr, now)
		if err != nil {
			return err
		}
		cfg.Window = window
		return nil
	}

	if input.Start == "" {
		return fmt.Errorf("--start is required when --end is given")
	}
	start, err := ParseWindowTime(input.Start, now)
	if err != nil {
		return fmt.Errorf("invalid start: %w", err)
	}

	end := now
	if input.End != "" {
		end, err = ParseWindowTime(input.End, now)
		if err != nil {
			return fmt.Errorf("invalid end: %w", err)
		}
	}

	cfg.Window = schema.ReportingWindow{Start: start, End: end}
	if !cfg.Window.Valid() {
		return fmt.Errorf("start time (%s) must be before end time (%s)",
			start.Format(DateTimeFormat), end.Format(DateTimeFormat))
	}
	return nil
}

// processSources resolves the enabled source set.
func processSources(cfg *Config, input *ConfigRawInput) error {
	cfg.Sources = nil
	seen := make(map[schema.SourceID]struct{})

	parts := strings.SplitSeq(input.SourcesStr, ",")
	for p := range parts {
		name := schema.SourceID(strings.ToLower(strings.TrimSpace(p)))
		if name == "" {
			continue
		}
		if _, ok := schema.ValidSources[name]; !ok {
			return fmt.Errorf("invalid source '%s'. must be github, bugzilla", name)
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		cfg.Sources = append(cfg.Sources, name)
	}

	if len(cfg.Sources) == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}
	return nil
}

// processMembers resolves who the report covers. Precedence: an ad-hoc
// --actor beats a --team manifest, which beats members from the config
// file.
func processMembers(cfg *Config, input *ConfigRawInput) error {
	switch {
	case strings.TrimSpace(input.Actor) != "":
		member := Member{
			Name:     strings.TrimSpace(input.Actor),
			GitHub:   strings.TrimSpace(input.GitHubLogin),
			Bugzilla: strings.TrimSpace(input.BugzillaEmail),
		}
		// A bare --actor is assumed to be the GitHub login as well.
		if member.GitHub == "" && member.Bugzilla == "" {
			member.GitHub = member.Name
		}
		cfg.Members = []Member{member}
	case strings.TrimSpace(input.TeamFile) != "":
		manifest, err := LoadTeamManifest(input.TeamFile)
		if err != nil {
			return err
		}
		cfg.Members = manifest.Members
	default:
		cfg.Members = input.Members
	}

	if len(cfg.Members) == 0 {
		return fmt.Errorf("no members configured: provide --actor, --team or a members list in the config file")
	}

	seen := make(map[string]struct{}, len(cfg.Members))
	for i, m := range cfg.Members {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("member %d has no name", i+1)
		}
		if _, dup := seen[m.Name]; dup {
			return fmt.Errorf("duplicate member name '%s'", m.Name)
		}
		seen[m.Name] = struct{}{}
	}

	// At least one member must be reachable through an enabled source.
	for _, source := range cfg.Sources {
		if len(cfg.MembersFor(source)) > 0 {
			return nil
		}
	}
	return fmt.Errorf("no member has an identity for any enabled source")
}

// processCredentials validates endpoints and credentials per enabled source.
func processCredentials(cfg *Config, input *ConfigRawInput) error {
	cfg.GitHubURL = strings.TrimRight(input.GitHubURL, "/")
	if cfg.GitHubURL == "" {
		cfg.GitHubURL = DefaultGitHubURL
	}
	cfg.GitHubToken = input.GitHubToken

	cfg.BugzillaURL = strings.TrimRight(input.BugzillaURL, "/")
	cfg.BugzillaAPIKey = input.BugzillaAPIKey

	for _, source := range cfg.Sources {
		switch source {
		case schema.BugzillaSource:
			// The GitHub API serves public data without a token; Bugzilla
			// user queries do not, so fail fast here.
			if cfg.BugzillaURL == "" {
				return fmt.Errorf("bugzilla-url is required when the bugzilla source is enabled")
			}
			if !strings.HasPrefix(cfg.BugzillaURL, "http://") && !strings.HasPrefix(cfg.BugzillaURL, "https://") {
				return fmt.Errorf("bugzilla-url must start with http:// or https://")
			}
			if cfg.BugzillaAPIKey == "" {
				return fmt.Errorf("bugzilla-key is required when the bugzilla source is enabled")
			}
		case schema.GitHubSource:
			if !strings.HasPrefix(cfg.GitHubURL, "http://") && !strings.HasPrefix(cfg.GitHubURL, "https://") {
				return fmt.Errorf("github-url must start with http:// or https://")
			}
		}
	}
	return nil
}

// validateBackendConfigs validates cache and ledger backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidCacheBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	ttl, err := ParseLookbackDuration(input.CacheTTL)
	if err != nil {
		return fmt.Errorf("invalid --cache-ttl value: %w", err)
	}
	cfg.CacheTTL = ttl
	cfg.NoCache = input.NoCache

	// --- Ledger Backend Validation ---
	cfg.LedgerBackend = schema.DatabaseBackend(strings.ToLower(input.LedgerBackend))
	if cfg.LedgerBackend != "" {
		if _, ok := schema.ValidCacheBackends[cfg.LedgerBackend]; !ok {
			return fmt.Errorf("invalid ledger backend '%s'. must be sqlite, mysql, postgresql, none", input.LedgerBackend)
		}
		cfg.LedgerDBConnect = input.LedgerDBConnect
		if err := ValidateDatabaseConnectionString(cfg.LedgerBackend, cfg.LedgerDBConnect); err != nil {
			return err
		}

		// Validate that cache and ledger use different databases
		if cfg.CacheBackend == cfg.LedgerBackend && cfg.CacheBackend != schema.NoneBackend {
			// For SQLite, resolve to actual file paths to catch default path conflicts
			if cfg.CacheBackend == schema.SQLiteBackend {
				cacheDBPath := cfg.CacheDBConnect
				if cacheDBPath == "" {
					cacheDBPath = GetCacheDBFilePath()
				}
				ledgerDBPath := cfg.LedgerDBConnect
				if ledgerDBPath == "" {
					ledgerDBPath = GetLedgerDBFilePath()
				}
				if cacheDBPath == ledgerDBPath {
					return fmt.Errorf("cache and ledger storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
				}
			}
		}
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
			return fmt.Errorf("db connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("db connection string is required when using %s backend", backend)
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

// LoadTeamManifest reads and validates a team manifest file.
func LoadTeamManifest(path string) (*TeamManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read team file: %w", err)
	}

	var manifest TeamManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("cannot parse team file %s: %w", path, err)
	}
	if len(manifest.Members) == 0 {
		return nil, fmt.Errorf("team file %s has no members", path)
	}
	for i, m := range manifest.Members {
		if strings.TrimSpace(m.Name) == "" {
			return nil, fmt.Errorf("team file %s: member %d has no name", path, i+1)
		}
		if m.GitHub == "" && m.Bugzilla == "" {
			return nil, fmt.Errorf("team file %s: member '%s' has no source identity", path, m.Name)
		}
	}
	return &manifest, nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
