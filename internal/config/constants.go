package config

import "time"

// Application constants
const (
	AppName    = "macrocli"
	AppVersion = "1.2.0"

	// EnvPrefix namespaces every environment variable, e.g. MACRO_PIPELINE_RAW_DIR.
	EnvPrefix = "MACRO"

	DefaultWindowStart = "2016-01-01"
	DefaultWindowEnd   = "2025-12-31"

	DefaultRawDir       = "data/raw"
	DefaultProcessedDir = "data/processed"
	DefaultLogsDir      = "logs"

	DefaultStageTimeout = 10 * time.Minute
)

// Raw input files written by the external fetchers.
const (
	CPIRawFile = "source_a_cpi_detailed_raw.json"

	GasolineRawFile = "source_b_energy_gasoline_raw.json"
	DieselRawFile   = "source_b_energy_diesel_raw.json"
	CrudeRawFile    = "source_b_energy_crude_wti_raw.json"

	UnemploymentTotalRawFile = "source_c_unemployment_total_raw.csv"
	UnemploymentMenRawFile   = "source_c_unemployment_men_raw.csv"
	UnemploymentWomenRawFile = "source_c_unemployment_women_raw.csv"

	NewsRawPattern = "source_d_*.json"
	NewsRawArchive = "source_d_nyt_text_raw.zip"
)

// Processed output files, overwritten on every run.
const (
	CleanCPIFile    = "clean_cpi.csv"
	CleanEnergyFile = "clean_energy.csv"
	CleanLaborFile  = "clean_unemployment.csv"
	CleanNewsFile   = "clean_news_sentiment.csv"

	FinalDatasetFile  = "final_dataset.csv"
	FinalWorkbookFile = "final_dataset.xlsx"
	RunManifestFile   = "run_manifest.json"
)
