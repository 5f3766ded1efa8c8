package sources

import "time"

// Builtin descriptors for the Environment and Climate Change Canada datamart
// products and the NOHRSC snow analysis. Settings files may override any
// field; unknown sources must be described in full.
// See https://eccc-msc.github.io/open-data/msc-datamart/readme_en/.

// HRDPS is the High Resolution Deterministic Prediction System, 2.5 km.
var HRDPS = Descriptor{
	Name:                  "HRDPS",
	Family:                FamilyForecastGrid,
	CadenceHours:          6,
	TimestepHours:         1,
	LeadTimeMaxHours:      48,
	PublicationDelayHours: 3,
	Lookback:              24 * time.Hour,
	Parameters: []Parameter{
		{Code: "TMP_AGL-2m", FirstLeadTime: 0},
		{Code: "APCP_Sfc", FirstLeadTime: 1},
	},
	URLTemplate:      "https://hpfx.collab.science.gc.ca/{yyyymmdd}/WXO-DD/model_hrdps/continental/2.5km/{HH}/{LLL}/{filename}",
	FilenameTemplate: "{yyyymmdd}T{HH}Z_MSC_HRDPS_{param}_RLatLon0.0225_PT{LLL}H.grib2",
	MinBytes:         1024,
}

// RDPS is the Regional Deterministic Prediction System, 10 km.
var RDPS = Descriptor{
	Name:                  "RDPS",
	Family:                FamilyForecastGrid,
	CadenceHours:          6,
	TimestepHours:         3,
	LeadTimeMaxHours:      84,
	PublicationDelayHours: 4,
	Lookback:              24 * time.Hour,
	Parameters: []Parameter{
		{Code: "TMP_TGL_2", FirstLeadTime: 0},
		{Code: "APCP_SFC_0", FirstLeadTime: 3},
	},
	URLTemplate:      "https://hpfx.collab.science.gc.ca/{yyyymmdd}/WXO-DD/model_gem_regional/10km/grib2/{HH}/{LLL}/{filename}",
	FilenameTemplate: "CMC_reg_{param}_ps10km_{yyyymmdd}{HH}_P{LLL}.grib2",
	MinBytes:         1024,
}

// GDPS is the Global Deterministic Prediction System, 15 km.
var GDPS = Descriptor{
	Name:                  "GDPS",
	Family:                FamilyForecastGrid,
	CadenceHours:          12,
	TimestepHours:         3,
	LeadTimeMaxHours:      240,
	PublicationDelayHours: 5,
	Lookback:              48 * time.Hour,
	Parameters: []Parameter{
		{Code: "TMP_TGL_2", FirstLeadTime: 0},
		{Code: "APCP_SFC_0", FirstLeadTime: 3},
	},
	URLTemplate:      "https://hpfx.collab.science.gc.ca/{yyyymmdd}/WXO-DD/model_gem_global/15km/grib2/lat_lon/{HH}/{LLL}/{filename}",
	FilenameTemplate: "CMC_glb_{param}_latlon.15x.15_{yyyymmdd}{HH}_P{LLL}.grib2",
	MinBytes:         1024,
}

// REPS is the Regional Ensemble Prediction System.
var REPS = Descriptor{
	Name:                  "REPS",
	Family:                FamilyForecastGrid,
	CadenceHours:          6,
	TimestepHours:         3,
	LeadTimeMaxHours:      72,
	PublicationDelayHours: 5,
	Lookback:              24 * time.Hour,
	Parameters: []Parameter{
		{Code: "TMP_AGL-2m", FirstLeadTime: 0},
	},
	URLTemplate:      "https://hpfx.collab.science.gc.ca/{yyyymmdd}/WXO-DD/ensemble/reps/10km/grib2/{HH}/{LLL}/{filename}",
	FilenameTemplate: "{yyyymmdd}T{HH}Z_MSC_REPS_{param}_RLatLon0.09x0.09_PT{LLL}H.grib2",
	MinBytes:         1024,
}

// GEPS is the Global Ensemble Prediction System, all members in one file.
var GEPS = Descriptor{
	Name:                  "GEPS",
	Family:                FamilyForecastGrid,
	CadenceHours:          12,
	TimestepHours:         6,
	LeadTimeMaxHours:      384,
	PublicationDelayHours: 6,
	Lookback:              48 * time.Hour,
	Parameters: []Parameter{
		{Code: "TMP_TGL_2m", FirstLeadTime: 0},
		{Code: "APCP_SFC", FirstLeadTime: 6},
	},
	URLTemplate:      "https://hpfx.collab.science.gc.ca/{yyyymmdd}/WXO-DD/ensemble/geps/grib2/raw/{HH}/{LLL}/{filename}",
	FilenameTemplate: "CMC_geps-raw_{param}_latlon0p5x0p5_{yyyymmdd}{HH}_P{LLL}_allmbrs.grib2",
	MinBytes:         1024,
}

// RDPA is the Regional Deterministic Precipitation Analysis, a 6-hourly
// accumulation product with a single lead time of zero.
var RDPA = Descriptor{
	Name:                  "RDPA",
	Family:                FamilyAnalysisGrid,
	CadenceHours:          6,
	PublicationDelayHours: 7,
	Lookback:              72 * time.Hour,
	Parameters: []Parameter{
		{Code: "APCP-Accum6h"},
	},
	URLTemplate:      "https://hpfx.collab.science.gc.ca/{yyyymmdd}/WXO-DD/analysis/precip/rdpa/grib2/polar_stereographic/{HH}/{filename}",
	FilenameTemplate: "{yyyymmdd}T{HH}Z_MSC_RDPA_{param}_Sfc_RLatLon0.09_PT0H.grib2",
	MinBytes:         1024,
}

// HRDPA is the High Resolution Deterministic Precipitation Analysis.
var HRDPA = Descriptor{
	Name:                  "HRDPA",
	Family:                FamilyAnalysisGrid,
	CadenceHours:          6,
	PublicationDelayHours: 7,
	Lookback:              72 * time.Hour,
	Parameters: []Parameter{
		{Code: "APCP-Accum6h"},
	},
	URLTemplate:      "https://hpfx.collab.science.gc.ca/{yyyymmdd}/WXO-DD/analysis/precip/hrdpa/grib2/polar_stereographic/{HH}/{filename}",
	FilenameTemplate: "{yyyymmdd}T{HH}Z_MSC_HRDPA_{param}_Sfc_RLatLon0.0225_PT0H.grib2",
	MinBytes:         1024,
}

// SNODAS is the NOHRSC Snow Data Assimilation System daily analysis.
var SNODAS = Descriptor{
	Name:                  "SNODAS",
	Family:                FamilyAnalysisGrid,
	CadenceHours:          24,
	PublicationDelayHours: 12,
	Lookback:              7 * 24 * time.Hour,
	Parameters: []Parameter{
		{Code: "zz_ssmv11034"},
		{Code: "zz_ssmv11036"},
	},
	URLTemplate:      "https://www.nohrsc.noaa.gov/snowfall_v2/data/{filename}",
	FilenameTemplate: "{param}tS__T0001TTNATS{yyyymmdd}05HP001.grib2",
	MinBytes:         512,
}

// SNOTEL serves daily station snow series from the NRCS report generator
// as CSV.
var SNOTEL = Descriptor{
	Name:                  "SNOTEL",
	Family:                FamilyStationSeries,
	CadenceHours:          24,
	PublicationDelayHours: 6,
	Lookback:              3 * 24 * time.Hour,
	Parameters: []Parameter{
		{Code: "WTEQ"},
		{Code: "SNWD"},
	},
	URLTemplate:      "https://wcc.sc.egov.usda.gov/reportGenerator/view_csv/customMultipleStationReport/daily/start_of_period/{param}/{filename}",
	FilenameTemplate: "snotel_{param}_{yyyymmdd}.csv",
	MinBytes:         64,
}

// RadarComposite covers the national radar mosaic. Exact filenames carry a
// minute stamp, so availability is discovered from the directory index
// rather than assumed from the cycle arithmetic.
var RadarComposite = Descriptor{
	Name:                  "RADAR_COMPOSITE",
	Family:                FamilyRadarComposite,
	CadenceHours:          1,
	PublicationDelayHours: 1,
	Lookback:              6 * time.Hour,
	Parameters: []Parameter{
		{Code: "MMHR"},
	},
	URLTemplate:      "https://hpfx.collab.science.gc.ca/{yyyymmdd}/radar/CAPPI/GIF/COMPOSITE/{filename}",
	FilenameTemplate: "{yyyymmdd}T{HH}Z_MSC_Radar-Composite_{param}_1km.gif",
	DiscoveryPattern: `_MSC_Radar-Composite_.*\.gif$`,
	MinBytes:         256,
	RequiresAuth:     true,
}

// Builtin returns the preset descriptor for name, if one exists.
func Builtin(name string) (Descriptor, bool) {
	for _, d := range []Descriptor{HRDPS, RDPS, GDPS, REPS, GEPS, RDPA, HRDPA, SNODAS, SNOTEL, RadarComposite} {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}
