// Package config loads skillcheck settings from defaults, an optional
// .skillcheck.yaml in the repository root, SKILLCHECK_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// File name (without extension) looked up in the repository root
const configName = ".skillcheck"

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the full validator configuration
type Config struct {
	Root         string      `mapstructure:"root"`
	SkillsDir    string      `mapstructure:"skills_dir"`
	Exclude      []string    `mapstructure:"exclude"`
	IndexPath    string      `mapstructure:"index_path"`
	ManifestPath string      `mapstructure:"manifest_path"`
	Workers      int         `mapstructure:"workers"`
	Format       string      `mapstructure:"format"`
	Quiet        bool        `mapstructure:"quiet"`
	Output       string      `mapstructure:"output"`
	Rules        RulesConfig `mapstructure:"rules"`
}

// RulesConfig holds the thresholds and lists used by the document checks
type RulesConfig struct {
	Lines            LinesConfig `mapstructure:"lines"`
	RequiredSections []string    `mapstructure:"required_sections"`
	Languages        []string    `mapstructure:"languages"`
	BannedPhrases    []string    `mapstructure:"banned_phrases"`
	Tags             TagsConfig  `mapstructure:"tags"`
}

// LinesConfig bounds the body line count. Max is the hard limit; the
// target band produces warnings only.
type LinesConfig struct {
	Min       int `mapstructure:"min"`
	TargetMin int `mapstructure:"target_min"`
	TargetMax int `mapstructure:"target_max"`
	Max       int `mapstructure:"max"`
}

// TagsConfig sets the minimum tag count and the severity used below it
type TagsConfig struct {
	Min      int    `mapstructure:"min"`
	Severity string `mapstructure:"severity"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Root:         ".",
		SkillsDir:    "skills",
		Exclude:      []string{"_*", ".*"},
		IndexPath:    "README.md",
		ManifestPath: filepath.Join(".claude-plugin", "marketplace.json"),
		Workers:      runtime.NumCPU(),
		Format:       FormatText,
		Rules: RulesConfig{
			Lines: LinesConfig{Min: 150, TargetMin: 200, TargetMax: 300, Max: 500},
			RequiredSections: []string{
				"Quick Reference",
				"When to Use vs Alternatives",
				"Common Issues",
			},
			Languages: []string{
				"python", "bash", "sh", "shell", "console", "text", "yaml", "json",
				"toml", "ini", "markdown", "r", "julia", "fortran", "sql", "diff", "mermaid",
			},
			BannedPhrases: []string{
				"I recommend", "I think", "I'll", "I will", "I've",
				"let me", "in my experience", "we recommend",
			},
			Tags: TagsConfig{Min: 7, Severity: "warn"},
		},
	}
}

// SetDefaults registers every default with v so that environment variables
// and config files can override individual keys
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("root", d.Root)
	v.SetDefault("skills_dir", d.SkillsDir)
	v.SetDefault("exclude", d.Exclude)
	v.SetDefault("index_path", d.IndexPath)
	v.SetDefault("manifest_path", d.ManifestPath)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("format", d.Format)
	v.SetDefault("quiet", d.Quiet)
	v.SetDefault("output", d.Output)
	v.SetDefault("rules.lines.min", d.Rules.Lines.Min)
	v.SetDefault("rules.lines.target_min", d.Rules.Lines.TargetMin)
	v.SetDefault("rules.lines.target_max", d.Rules.Lines.TargetMax)
	v.SetDefault("rules.lines.max", d.Rules.Lines.Max)
	v.SetDefault("rules.required_sections", d.Rules.RequiredSections)
	v.SetDefault("rules.languages", d.Rules.Languages)
	v.SetDefault("rules.banned_phrases", d.Rules.BannedPhrases)
	v.SetDefault("rules.tags.min", d.Rules.Tags.Min)
	v.SetDefault("rules.tags.severity", d.Rules.Tags.Severity)
}

// RegisterFlags adds the validator flags to fs
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("root", d.Root, "Repository root containing the skills directory and registries")
	fs.String("skills-dir", d.SkillsDir, "Skills directory relative to the root")
	fs.String("index", d.IndexPath, "Index document relative to the root")
	fs.String("manifest", d.ManifestPath, "Marketplace manifest relative to the root")
	fs.StringSlice("exclude", d.Exclude, "Glob patterns of skill directory names to skip")
	fs.Int("workers", d.Workers, "Number of skills checked in parallel")
	fs.String("format", d.Format, "Report format (text or json)")
	fs.BoolP("quiet", "q", d.Quiet, "Only list failing skills and findings")
	fs.StringP("output", "o", d.Output, "Also write the JSON report to this file")
}

var flagKeys = map[string]string{
	"root":       "root",
	"skills-dir": "skills_dir",
	"index":      "index_path",
	"manifest":   "manifest_path",
	"exclude":    "exclude",
	"workers":    "workers",
	"format":     "format",
	"quiet":      "quiet",
	"output":     "output",
}

// BindFlags binds the flags registered by RegisterFlags to their config keys
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for flag, key := range flagKeys {
		f := fs.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "failed to bind flag --%s", flag)
		}
	}
	return nil
}

// Load reads the configuration visible through v. configFile, when set, must
// exist; otherwise .skillcheck.yaml is looked up in the configured root and
// silently skipped when absent.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix("SKILLCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", configFile)
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(v.GetString("root"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "failed to read config file")
			}
		}
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create config decoder")
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, errors.Wrap(err, "failed to decode configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Workers < 1 {
		result = multierror.Append(result, errors.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.Format != FormatText && c.Format != FormatJSON {
		result = multierror.Append(result, errors.Errorf("invalid format %q, must be %s or %s", c.Format, FormatText, FormatJSON))
	}
	if c.SkillsDir == "" {
		result = multierror.Append(result, errors.New("skills_dir must not be empty"))
	}
	if c.IndexPath == "" {
		result = multierror.Append(result, errors.New("index_path must not be empty"))
	}
	if c.ManifestPath == "" {
		result = multierror.Append(result, errors.New("manifest_path must not be empty"))
	}

	l := c.Rules.Lines
	if !(0 <= l.Min && l.Min <= l.TargetMin && l.TargetMin <= l.TargetMax && l.TargetMax <= l.Max) {
		result = multierror.Append(result, errors.Errorf(
			"line bounds must satisfy 0 <= min <= target_min <= target_max <= max, got %d/%d/%d/%d",
			l.Min, l.TargetMin, l.TargetMax, l.Max))
	}
	if len(c.Rules.Languages) == 0 {
		result = multierror.Append(result, errors.New("rules.languages must list at least one language"))
	}
	if c.Rules.Tags.Min < 0 {
		result = multierror.Append(result, errors.Errorf("rules.tags.min must not be negative, got %d", c.Rules.Tags.Min))
	}
	switch strings.ToLower(c.Rules.Tags.Severity) {
	case "warn", "fail":
	default:
		result = multierror.Append(result, errors.Errorf("rules.tags.severity must be warn or fail, got %q", c.Rules.Tags.Severity))
	}

	if result != nil {
		result.ErrorFormat = formatErrors
	}
	return result.ErrorOrNil()
}

func formatErrors(errs []error) string {
	lines := make([]string, len(errs))
	for i, err := range errs {
		lines[i] = "  - " + err.Error()
	}
	return fmt.Sprintf("invalid configuration:\n%s", strings.Join(lines, "\n"))
}

// SkillsPath returns the skills directory resolved against the root
func (c *Config) SkillsPath() string {
	return c.resolve(c.SkillsDir)
}

// IndexFile returns the index document path resolved against the root
func (c *Config) IndexFile() string {
	return c.resolve(c.IndexPath)
}

// ManifestFile returns the manifest path resolved against the root
func (c *Config) ManifestFile() string {
	return c.resolve(c.ManifestPath)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}
