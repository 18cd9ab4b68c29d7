// Package cfg defines the mount's configuration surface and binds it to
// cobra/pflag flags plus an optional viper-sourced YAML config file,
// following the teacher's cfg package.
package cfg

import (
	"fmt"
	"regexp"

	"github.com/spf13/pflag"
)

// Config is the fully resolved configuration for both subcommands.
// Fields are exported so viper.Unmarshal can populate them directly from a
// config file, mirroring the teacher's MountConfig.
type Config struct {
	Region string `mapstructure:"region"`
	TPS    int    `mapstructure:"tps"`

	LogGroupName   string `mapstructure:"log-group-name"`
	LogGroupFilter string `mapstructure:"log-group-filter"`
	AllowRoot      bool   `mapstructure:"allow-root"`

	ShowFirstEvent bool `mapstructure:"show-first-event"`

	Logging LoggingConfig `mapstructure:"logging"`

	MetricsAddr string `mapstructure:"metrics-addr"`
}

// LoggingConfig mirrors the teacher's Logging section: severity, format,
// and optional file-backed rotation.
type LoggingConfig struct {
	Severity LogSeverity `mapstructure:"severity"`
	Format   string      `mapstructure:"format"`
	FilePath string      `mapstructure:"file-path"`

	LogRotate LogRotateConfig `mapstructure:"log-rotate"`
}

// LogRotateConfig mirrors the teacher's LogRotateLoggingConfig.
type LogRotateConfig struct {
	MaxFileSizeMB   int  `mapstructure:"max-file-size-mb"`
	BackupFileCount int  `mapstructure:"backup-file-count"`
	Compress        bool `mapstructure:"compress"`
}

// LogSeverity represents the logging severity, widened per the verbosity
// contract in SPEC_FULL.md's AMBIENT STACK section: the repeated -v flag
// selects among these ranks, with 0 occurrences defaulting to WARNING.
type LogSeverity string

const (
	TraceLogSeverity   LogSeverity = "TRACE"
	DebugLogSeverity   LogSeverity = "DEBUG"
	InfoLogSeverity    LogSeverity = "INFO"
	WarningLogSeverity LogSeverity = "WARNING"
	ErrorLogSeverity   LogSeverity = "ERROR"
	OffLogSeverity     LogSeverity = "OFF"
)

// SeverityForVerbosity maps a repeated -v flag's occurrence count to a
// severity, per SPEC_FULL.md: 0 = WARNING, 1 = INFO, 2 = DEBUG, 3+ = TRACE.
func SeverityForVerbosity(count int) LogSeverity {
	switch {
	case count <= 0:
		return WarningLogSeverity
	case count == 1:
		return InfoLogSeverity
	case count == 2:
		return DebugLogSeverity
	default:
		return TraceLogSeverity
	}
}

// DefaultConfig returns the zero-value-free defaults bound to flags before
// any CLI/file override is applied.
func DefaultConfig() Config {
	return Config{
		TPS: 5,
		Logging: LoggingConfig{
			Severity: WarningLogSeverity,
			Format:   "text",
			LogRotate: LogRotateConfig{
				MaxFileSizeMB:   512,
				BackupFileCount: 10,
				Compress:        false,
			},
		},
	}
}

// BindGlobalFlags registers --region, --tps, --metrics-addr, --log-format,
// and --log-file on persistent flags shared by every subcommand, matching
// the teacher's cmd/root.go split between persistent and subcommand-local
// flags. The -v count flag and --config-file are bound by cmd, since they
// feed cmd's own variables rather than Config.
func BindGlobalFlags(flags *pflag.FlagSet, c *Config) {
	flags.StringVar(&c.Region, "region", c.Region, "AWS region to query (required)")
	flags.IntVar(&c.TPS, "tps", c.TPS, "Maximum log-service calls per second")
	flags.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Address to serve Prometheus metrics on (empty disables)")
	flags.StringVar(&c.Logging.Format, "log-format", c.Logging.Format, "Log output format: text or json")
	flags.StringVar(&c.Logging.FilePath, "log-file", c.Logging.FilePath, "Optional log file path; enables rotation")
}

// BindMountFlags registers the mount subcommand's flags.
func BindMountFlags(flags *pflag.FlagSet, c *Config) {
	flags.StringVar(&c.LogGroupName, "log-group-name", "", "Exact log-group name to mount (xor --log-group-filter)")
	flags.StringVar(&c.LogGroupFilter, "log-group-filter", "", "Regex over log-group names to mount (xor --log-group-name)")
	flags.BoolVar(&c.AllowRoot, "allow-root", false, "Allow the root user to access the mount")
}

// BindListLogGroupsFlags registers the list-log-groups subcommand's flags.
func BindListLogGroupsFlags(flags *pflag.FlagSet, c *Config) {
	flags.BoolVar(&c.ShowFirstEvent, "show-first-event", false, "Append each group's earliest event timestamp")
}

const logGroupNameCharset = `^[A-Za-z0-9_/.#-]{1,512}$`

var logGroupNamePattern = regexp.MustCompile(logGroupNameCharset)

// ValidateMount enforces §6's mount-subcommand validators right after flag
// parsing, before any remote call: a region, a positive TPS, exactly one of
// name/filter, the name charset/length, and filter compilability.
func ValidateMount(c *Config) error {
	if c.Region == "" {
		return fmt.Errorf("--region is required")
	}
	if c.TPS <= 0 {
		return fmt.Errorf("--tps must be a positive integer, got %d", c.TPS)
	}
	haveName := c.LogGroupName != ""
	haveFilter := c.LogGroupFilter != ""
	if haveName == haveFilter {
		return fmt.Errorf("exactly one of --log-group-name or --log-group-filter is required")
	}
	if haveName && !logGroupNamePattern.MatchString(c.LogGroupName) {
		return fmt.Errorf("--log-group-name must match %s", logGroupNameCharset)
	}
	if haveFilter {
		if _, err := regexp.Compile(c.LogGroupFilter); err != nil {
			return fmt.Errorf("--log-group-filter is not a valid regex: %w", err)
		}
	}
	return nil
}

// ValidateListLogGroups enforces the global flags shared with mount.
func ValidateListLogGroups(c *Config) error {
	if c.Region == "" {
		return fmt.Errorf("--region is required")
	}
	if c.TPS <= 0 {
		return fmt.Errorf("--tps must be a positive integer, got %d", c.TPS)
	}
	return nil
}
