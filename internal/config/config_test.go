package config

import (
	"errors"
	"testing"
	"time"
)

const validSettings = `
output_dir: /tmp/staging
workers: 6
sources:
  - name: CUSTOM
    family: forecast_grid
    cadence_hours: 6
    timestep_hours: 3
    lead_time_max_hours: 6
    publication_delay_hours: 6
    lookback_hours: 24
    parameters: [A, B]
    first_lead_times: [0, 3]
    url_template: "https://example.com/{yyyymmdd}/{HH}/{filename}"
    filename_template: "{param}_{yyyymmdd}{HH}_P{LLL}.grib2"
rate_limits:
  CUSTOM:
    strategy: fixed_delay
    max_retries: 5
`

func TestParseValidSettings(t *testing.T) {
	s, err := Parse([]byte(validSettings))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Workers != 6 {
		t.Fatalf("expected 6 workers, got %d", s.Workers)
	}

	ds, err := s.Descriptors()
	if err != nil {
		t.Fatalf("descriptors: %v", err)
	}
	if len(ds) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(ds))
	}

	d := ds[0]
	if d.Lookback != 24*time.Hour {
		t.Fatalf("expected 24h lookback, got %v", d.Lookback)
	}
	if len(d.Parameters) != 2 || d.Parameters[1].Code != "B" || d.Parameters[1].FirstLeadTime != 3 {
		t.Fatalf("parameters not paired with first lead times: %+v", d.Parameters)
	}

	cfg := s.RateLimit("CUSTOM")
	if cfg.MaxRetries != 5 {
		t.Fatalf("expected 5 retries from rate_limits, got %d", cfg.MaxRetries)
	}
}

func TestParseRejectsMismatchedLeadTimes(t *testing.T) {
	const bad = `
sources:
  - name: CUSTOM
    family: forecast_grid
    cadence_hours: 6
    timestep_hours: 3
    lead_time_max_hours: 6
    lookback_hours: 24
    parameters: [A, B]
    first_lead_times: [0]
    url_template: "https://example.com/{filename}"
    filename_template: "{param}.grib2"
`
	_, err := Parse([]byte(bad))
	if err == nil {
		t.Fatalf("mismatched parameter/lead-time lists must be rejected at load time")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected a ConfigError, got %T", err)
	}
	if cfgErr.Source != "CUSTOM" {
		t.Fatalf("error should name the offending source, got %q", cfgErr.Source)
	}
}

func TestParsePresetOverride(t *testing.T) {
	const override = `
sources:
  - name: HRDPS
    lookback_hours: 48
    parameters: [TMP_AGL-2m]
`
	s, err := Parse([]byte(override))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	ds, err := s.Descriptors()
	if err != nil {
		t.Fatalf("descriptors: %v", err)
	}

	d := ds[0]
	if d.Lookback != 48*time.Hour {
		t.Fatalf("override not applied: lookback %v", d.Lookback)
	}
	if len(d.Parameters) != 1 {
		t.Fatalf("parameter override not applied: %+v", d.Parameters)
	}
	if d.URLTemplate == "" || d.CadenceHours != 6 {
		t.Fatalf("preset fields lost during override")
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	cases := map[string]string{
		"no sources": `output_dir: /tmp`,
		"duplicate source": `
sources:
  - name: HRDPS
  - name: HRDPS
`,
		"lead times without parameters": `
sources:
  - name: HRDPS
    first_lead_times: [0]
`,
		"unknown family": `
sources:
  - name: CUSTOM
    family: satellite
    cadence_hours: 6
    lookback_hours: 24
    parameters: [A]
    url_template: "https://example.com/{filename}"
    filename_template: "{param}.bin"
`,
	}

	for name, yaml := range cases {
		if _, err := Parse([]byte(yaml)); err == nil {
			t.Fatalf("%s: expected a config error", name)
		}
	}
}
