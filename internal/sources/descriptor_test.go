package sources

import (
	"testing"
	"time"
)

func TestDescriptorValidate(t *testing.T) {
	d := HRDPS
	if err := d.Validate(); err != nil {
		t.Fatalf("expected valid preset, got error: %v", err)
	}

	d = HRDPS
	d.CadenceHours = 0
	if err := d.Validate(); err == nil {
		t.Fatalf("expected error for zero cadence")
	}

	d = HRDPS
	d.Family = "point_cloud"
	if err := d.Validate(); err == nil {
		t.Fatalf("expected error for unknown family")
	}

	d = HRDPS
	d.Parameters = []Parameter{{Code: "TMP", FirstLeadTime: 999}}
	if err := d.Validate(); err == nil {
		t.Fatalf("expected error for first lead time beyond horizon")
	}

	d = RadarComposite
	d.DiscoveryPattern = "["
	if err := d.Validate(); err == nil {
		t.Fatalf("expected error for invalid discovery pattern")
	}
}

func TestBuiltinPresetsAreValid(t *testing.T) {
	for _, name := range []string{"HRDPS", "RDPS", "GDPS", "REPS", "GEPS", "RDPA", "HRDPA", "SNODAS", "SNOTEL", "RADAR_COMPOSITE"} {
		d, ok := Builtin(name)
		if !ok {
			t.Fatalf("missing builtin %s", name)
		}
		if err := d.Validate(); err != nil {
			t.Fatalf("builtin %s invalid: %v", name, err)
		}
	}
	if _, ok := Builtin("NO_SUCH"); ok {
		t.Fatalf("unexpected builtin")
	}
}

func TestArtifactIDString(t *testing.T) {
	cycle := time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC)
	id := NewArtifactID("HRDPS", cycle, 3, "TMP_AGL-2m")
	want := "HRDPS/2024031006+003/TMP_AGL-2m"
	if got := id.String(); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if !id.ValidTime().Equal(cycle.Add(3 * time.Hour)) {
		t.Fatalf("unexpected valid time: %v", id.ValidTime())
	}
}

func TestArtifactIDNormalizesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-7", -7*3600)
	a := NewArtifactID("RDPS", time.Date(2024, 3, 9, 23, 0, 0, 0, loc), 0, "TMP")
	b := NewArtifactID("RDPS", time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC), 0, "TMP")
	if a != b {
		t.Fatalf("expected equal IDs, got %v and %v", a, b)
	}
}
