// Package sources defines the declarative description of a remote
// hydrometeorological data source and the identity of the artifacts it
// publishes.
package sources

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ProductFamily tags a descriptor with the kind of product it publishes.
// The set is closed; configuration naming any other family is rejected.
type ProductFamily string

const (
	FamilyForecastGrid   ProductFamily = "forecast_grid"
	FamilyAnalysisGrid   ProductFamily = "analysis_grid"
	FamilyStationSeries  ProductFamily = "station_series"
	FamilyRadarComposite ProductFamily = "radar_composite"
)

// KnownFamily reports whether f is one of the supported product families.
func KnownFamily(f ProductFamily) bool {
	switch f {
	case FamilyForecastGrid, FamilyAnalysisGrid, FamilyStationSeries, FamilyRadarComposite:
		return true
	}
	return false
}

// Parameter is one downloadable variable of a source. FirstLeadTime is the
// earliest lead hour published for this parameter; accumulated fields
// typically start at 1 while instantaneous fields start at 0.
type Parameter struct {
	Code          string
	FirstLeadTime int
}

// Descriptor is the immutable declarative record of one data source. It is
// loaded once per run and shared read-only across planning and fetching.
type Descriptor struct {
	// Name uniquely identifies the source, e.g. "HRDPS".
	Name string

	// Family selects validation and integrity rules for the product.
	Family ProductFamily

	// CadenceHours is the interval between published cycles.
	CadenceHours int

	// TimestepHours is the spacing between lead times within one cycle.
	// Zero for single-shot products.
	TimestepHours int

	// LeadTimeMaxHours is the forecast horizon. Zero for analyses and
	// observations.
	LeadTimeMaxHours int

	// PublicationDelayHours is the minimum age a cycle must have before it
	// is assumed published.
	PublicationDelayHours int

	// Lookback is how far back the planner searches for artifacts that
	// should exist but may not have been fetched yet.
	Lookback time.Duration

	// Parameters are enumerated in configured order; planner output
	// preserves it.
	Parameters []Parameter

	// URLTemplate builds the remote address. It may reference {filename}
	// plus any placeholder understood by the resolver.
	URLTemplate string

	// FilenameTemplate builds the artifact filename, which is also the
	// local staging name under the source directory.
	FilenameTemplate string

	// DiscoveryPattern, when set, is a regexp matched against the hrefs of
	// the source's HTML directory index. Planned artifacts whose filename
	// does not appear in the index are treated as not yet published.
	DiscoveryPattern string

	// MinBytes is the minimum acceptable payload size. Smaller transfers
	// fail the integrity check.
	MinBytes int64

	// RequiresAuth marks sources that need basic-auth credentials.
	RequiresAuth bool
}

// Validate checks the descriptor for the inconsistencies that must be caught
// at load time rather than mid-run.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return errors.New("source name is required")
	}
	if !KnownFamily(d.Family) {
		return fmt.Errorf("source %s: unknown product family %q", d.Name, d.Family)
	}
	if d.CadenceHours <= 0 {
		return fmt.Errorf("source %s: cadence must be positive, got %d", d.Name, d.CadenceHours)
	}
	if d.PublicationDelayHours < 0 {
		return fmt.Errorf("source %s: publication delay must not be negative", d.Name)
	}
	if d.Lookback <= 0 {
		return fmt.Errorf("source %s: lookback window is required", d.Name)
	}
	if d.LeadTimeMaxHours > 0 && d.TimestepHours <= 0 {
		return fmt.Errorf("source %s: timestep is required when lead_time is set", d.Name)
	}
	if len(d.Parameters) == 0 {
		return fmt.Errorf("source %s: at least one parameter is required", d.Name)
	}
	for _, p := range d.Parameters {
		if p.Code == "" {
			return fmt.Errorf("source %s: parameter with empty code", d.Name)
		}
		if p.FirstLeadTime < 0 {
			return fmt.Errorf("source %s: parameter %s: negative first lead time", d.Name, p.Code)
		}
		if d.LeadTimeMaxHours > 0 && p.FirstLeadTime > d.LeadTimeMaxHours {
			return fmt.Errorf("source %s: parameter %s: first lead time %d exceeds horizon %d",
				d.Name, p.Code, p.FirstLeadTime, d.LeadTimeMaxHours)
		}
	}
	if d.URLTemplate == "" {
		return fmt.Errorf("source %s: url template is required", d.Name)
	}
	if d.FilenameTemplate == "" {
		return fmt.Errorf("source %s: filename template is required", d.Name)
	}
	if d.DiscoveryPattern != "" {
		if _, err := regexp.Compile(d.DiscoveryPattern); err != nil {
			return fmt.Errorf("source %s: invalid discovery pattern: %w", d.Name, err)
		}
	}
	return nil
}

// IsForecast reports whether the source publishes multiple lead times per
// cycle.
func (d *Descriptor) IsForecast() bool {
	return d.LeadTimeMaxHours > 0
}
