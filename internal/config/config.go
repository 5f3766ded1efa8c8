// Package config loads the YAML settings file into validated source
// descriptors and engine options. Invalid configuration is rejected here,
// before any planning or network activity.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/floodcast/hydrofetch/internal/ratelimit"
	"github.com/floodcast/hydrofetch/internal/sources"
)

// ConfigError reports invalid settings. It is the only error class that is
// fatal to a whole run.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config: source %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// SourceSettings mirrors one source entry of the settings file. A source
// whose name matches a builtin preset starts from the preset and overrides
// only the fields that are set; unknown sources must be described in full.
type SourceSettings struct {
	Name                  string   `yaml:"name"`
	Family                string   `yaml:"family"`
	CadenceHours          int      `yaml:"cadence_hours"`
	TimestepHours         int      `yaml:"timestep_hours"`
	LeadTimeMaxHours      int      `yaml:"lead_time_max_hours"`
	PublicationDelayHours *int     `yaml:"publication_delay_hours"`
	LookbackHours         int      `yaml:"lookback_hours"`
	Parameters            []string `yaml:"parameters"`
	FirstLeadTimes        []int    `yaml:"first_lead_times"`
	URLTemplate           string   `yaml:"url_template"`
	FilenameTemplate      string   `yaml:"filename_template"`
	DiscoveryPattern      string   `yaml:"discovery_pattern"`
	MinBytes              int64    `yaml:"min_bytes"`
	RequiresAuth          *bool    `yaml:"requires_auth"`
}

// Settings is the full settings file.
type Settings struct {
	// OutputDir is the root of the local staging tree.
	OutputDir string `yaml:"output_dir"`

	// Database is the SQLite path for the staging catalog. Empty disables
	// the catalog.
	Database string `yaml:"database"`

	// Workers is the maximum fetch concurrency per source.
	Workers int `yaml:"workers"`

	// RunTimeoutMinutes bounds one invocation end to end. Zero means no
	// deadline.
	RunTimeoutMinutes int `yaml:"run_timeout_minutes"`

	Sources []SourceSettings `yaml:"sources"`

	// RateLimits maps source name to pacing/retry settings.
	RateLimits map[string]ratelimit.Config `yaml:"rate_limits"`
}

// Load reads and validates the settings file at path.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	return Parse(data)
}

// Parse validates settings from YAML bytes.
func Parse(data []byte) (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("parse settings: %w", err)}
	}
	if s.OutputDir == "" {
		s.OutputDir = "data"
	}
	if s.Workers <= 0 {
		s.Workers = 4
	}
	if len(s.Sources) == 0 {
		return nil, &ConfigError{Err: fmt.Errorf("at least one source is required")}
	}

	names := make(map[string]bool, len(s.Sources))
	for _, src := range s.Sources {
		if src.Name == "" {
			return nil, &ConfigError{Err: fmt.Errorf("source without a name")}
		}
		if names[src.Name] {
			return nil, &ConfigError{Source: src.Name, Err: fmt.Errorf("duplicate source")}
		}
		names[src.Name] = true
		if _, err := src.Descriptor(); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// Descriptor materializes the settings entry into a validated descriptor.
// The parameter and first-lead-time lists must have equal length when both
// are present; a mismatch is rejected here rather than discovered mid-run.
func (src SourceSettings) Descriptor() (sources.Descriptor, error) {
	d, isPreset := sources.Builtin(src.Name)
	if !isPreset {
		d = sources.Descriptor{Name: src.Name}
	}

	if src.Family != "" {
		d.Family = sources.ProductFamily(src.Family)
	}
	if src.CadenceHours > 0 {
		d.CadenceHours = src.CadenceHours
	}
	if src.TimestepHours > 0 {
		d.TimestepHours = src.TimestepHours
	}
	if src.LeadTimeMaxHours > 0 {
		d.LeadTimeMaxHours = src.LeadTimeMaxHours
	}
	if src.PublicationDelayHours != nil {
		d.PublicationDelayHours = *src.PublicationDelayHours
	}
	if src.LookbackHours > 0 {
		d.Lookback = time.Duration(src.LookbackHours) * time.Hour
	}
	if src.URLTemplate != "" {
		d.URLTemplate = src.URLTemplate
	}
	if src.FilenameTemplate != "" {
		d.FilenameTemplate = src.FilenameTemplate
	}
	if src.DiscoveryPattern != "" {
		d.DiscoveryPattern = src.DiscoveryPattern
	}
	if src.MinBytes > 0 {
		d.MinBytes = src.MinBytes
	}
	if src.RequiresAuth != nil {
		d.RequiresAuth = *src.RequiresAuth
	}

	if len(src.Parameters) > 0 {
		if len(src.FirstLeadTimes) > 0 && len(src.FirstLeadTimes) != len(src.Parameters) {
			return sources.Descriptor{}, &ConfigError{
				Source: src.Name,
				Err: fmt.Errorf("%d parameters but %d first lead times",
					len(src.Parameters), len(src.FirstLeadTimes)),
			}
		}
		params := make([]sources.Parameter, len(src.Parameters))
		for i, code := range src.Parameters {
			params[i] = sources.Parameter{Code: code}
			if len(src.FirstLeadTimes) > 0 {
				params[i].FirstLeadTime = src.FirstLeadTimes[i]
			}
		}
		d.Parameters = params
	} else if len(src.FirstLeadTimes) > 0 {
		return sources.Descriptor{}, &ConfigError{
			Source: src.Name,
			Err:    fmt.Errorf("first lead times given without parameters"),
		}
	}

	if err := d.Validate(); err != nil {
		return sources.Descriptor{}, &ConfigError{Source: src.Name, Err: err}
	}
	return d, nil
}

// Descriptors materializes every configured source in file order.
func (s *Settings) Descriptors() ([]sources.Descriptor, error) {
	out := make([]sources.Descriptor, 0, len(s.Sources))
	for _, src := range s.Sources {
		d, err := src.Descriptor()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// RunTimeout returns the configured run deadline, zero when unset.
func (s *Settings) RunTimeout() time.Duration {
	return time.Duration(s.RunTimeoutMinutes) * time.Minute
}

// RateLimit returns the pacing settings for source, with defaults applied.
func (s *Settings) RateLimit(source string) ratelimit.Config {
	return ratelimit.SourceConfigs{RateLimits: s.RateLimits}.Get(source)
}
