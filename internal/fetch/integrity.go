package fetch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/jszwec/csvutil"

	"github.com/floodcast/hydrofetch/internal/sources"
)

// IntegrityCheck validates a staged payload before it is renamed into place.
type IntegrityCheck func(r io.Reader) error

// GRIBCheck verifies the payload begins with the GRIB magic number. Upstream
// servers occasionally serve an HTML error page with status 200; this catches
// those before they are staged as grids.
func GRIBCheck(r io.Reader) error {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return fmt.Errorf("read GRIB header: %w", err)
	}
	if string(magic) != "GRIB" {
		return fmt.Errorf("payload does not start with GRIB magic, got %q", magic)
	}
	return nil
}

// CSVHeaderCheck verifies a station-series payload decodes as CSV with a
// non-empty header row.
func CSVHeaderCheck(r io.Reader) error {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return fmt.Errorf("decode CSV header: %w", err)
	}
	if len(dec.Header()) == 0 {
		return errors.New("CSV payload has an empty header row")
	}
	return nil
}

// CheckFor returns the integrity check appropriate for a product family.
// Radar composites are images and get the size-only check.
func CheckFor(family sources.ProductFamily) IntegrityCheck {
	switch family {
	case sources.FamilyForecastGrid, sources.FamilyAnalysisGrid:
		return GRIBCheck
	case sources.FamilyStationSeries:
		return CSVHeaderCheck
	default:
		return nil
	}
}
