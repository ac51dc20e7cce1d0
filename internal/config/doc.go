// Package config provides configuration loading for macrocli.
//
// # Configuration Sources
//
// Configuration is assembled in three layers, later layers overriding earlier ones:
//
//	1. Default values (Default)
//	2. A YAML file (macrocli.yaml, configs/macrocli.yaml or an explicit --config path)
//	3. Environment variables, optionally seeded from a .env file
//
// # Environment Variables
//
// All variables use the MACRO_ prefix followed by the section and field:
//
//	MACRO_PIPELINE_RAW_DIR=data/raw
//	MACRO_PIPELINE_PROCESSED_DIR=data/processed
//	MACRO_PIPELINE_WINDOW_START=2016-01-01
//	MACRO_PIPELINE_WINDOW_END=2025-12-31
//	MACRO_LOGGING_LEVEL=debug
//	MACRO_SERVER_PORT=8080
//
// # Path Management
//
// GetPaths turns the pipeline section into absolute directories and the
// well-known raw and processed file names:
//
//	paths, err := config.GetPaths(cfg.Pipeline)
//	cpi := paths.RawPath(config.CPIRawFile)
package config
