package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DirName is the name of both the global (~/.yougpt) and repo (.yougpt) config directories.
const DirName = ".yougpt"

// HomeEnv overrides the global base directory when set.
const HomeEnv = "YOUGPT_HOME"

// Config holds application configuration.
type Config struct {
	// SummaryMaxChars is how many characters of transcript the placeholder summary keeps.
	SummaryMaxChars int `json:"summary_max_chars"`

	// TranscriptLanguages lists caption languages in order of preference.
	TranscriptLanguages []string `json:"transcript_languages,omitempty"`

	// FetchTimeoutSeconds bounds each outbound request to YouTube.
	FetchTimeoutSeconds int `json:"fetch_timeout_seconds"`

	// FetchDeadlineSeconds bounds one whole transcript fetch, retries and the
	// player fallback included.
	FetchDeadlineSeconds int `json:"fetch_deadline_seconds"`

	// FetchMaxRetries is the retry budget for transient YouTube failures (429, 5xx, network).
	FetchMaxRetries int `json:"fetch_max_retries"`

	// FetchRatePerSecond caps outbound YouTube requests across the process.
	FetchRatePerSecond float64 `json:"fetch_rate_per_second"`

	// HistoryRetentionDays soft-deletes summaries older than N days while the
	// web server runs. 0 keeps history forever.
	HistoryRetentionDays int `json:"history_retention_days,omitempty"`

	// RetentionSchedule is the cron spec for the retention job.
	RetentionSchedule string `json:"retention_schedule,omitempty"`

	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `json:"log_level,omitempty"`

	// AllowedPaths is an allowlist of directories for export operations.
	// Paths outside ~/.yougpt/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of type names to disable entirely.
	// Known types: "summary", "transcript".
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		SummaryMaxChars:      200,
		TranscriptLanguages:  []string{"en"},
		FetchTimeoutSeconds:  20,
		FetchDeadlineSeconds: 45,
		FetchMaxRetries:      3,
		FetchRatePerSecond:   2,
		RetentionSchedule:    "@daily",
		LogLevel:             "info",
	}
}

// FetchTimeout returns FetchTimeoutSeconds as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// FetchDeadline returns FetchDeadlineSeconds as a duration.
func (c *Config) FetchDeadline() time.Duration {
	return time.Duration(c.FetchDeadlineSeconds) * time.Second
}

// BaseDir returns the global base directory: $YOUGPT_HOME, or ~/.yougpt.
func BaseDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(HomeEnv)); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, DirName), nil
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global and repo (.yougpt) directories.
// Repo config is found by walking upward from startDir to find the nearest .yougpt/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .yougpt/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, DirName, "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated,
// except TranscriptLanguages, which is an ordered preference list and is replaced wholesale.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.SummaryMaxChars = pickInt(overlay.SummaryMaxChars, base.SummaryMaxChars)
	result.FetchTimeoutSeconds = pickInt(overlay.FetchTimeoutSeconds, base.FetchTimeoutSeconds)
	result.FetchDeadlineSeconds = pickInt(overlay.FetchDeadlineSeconds, base.FetchDeadlineSeconds)
	result.FetchMaxRetries = pickInt(overlay.FetchMaxRetries, base.FetchMaxRetries)
	result.HistoryRetentionDays = pickInt(overlay.HistoryRetentionDays, base.HistoryRetentionDays)
	result.DBMaxOpenConns = pickInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = pickInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	result.FetchRatePerSecond = overlay.FetchRatePerSecond
	if result.FetchRatePerSecond == 0 {
		result.FetchRatePerSecond = base.FetchRatePerSecond
	}

	result.RetentionSchedule = pickString(overlay.RetentionSchedule, base.RetentionSchedule)
	result.LogLevel = pickString(overlay.LogLevel, base.LogLevel)

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	result.TranscriptLanguages = mergeStringSlice(nil, overlay.TranscriptLanguages)
	if result.TranscriptLanguages == nil {
		result.TranscriptLanguages = mergeStringSlice(nil, base.TranscriptLanguages)
	}

	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

func pickString(overlay, base string) string {
	if s := strings.TrimSpace(overlay); s != "" {
		return s
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
