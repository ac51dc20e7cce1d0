// Package services implements the read side of macrocli. HTTP handlers call
// into it instead of touching the processed directory directly.
//
// DatasetService lists and reads the tables the pipeline writes
// (clean_*.csv and final_dataset.csv) and runs the analytics report on the
// final dataset. HealthService reports whether those outputs are reachable.
//
// Errors returned by services are *errors.AppError values from
// macrocli/internal/errors so the HTTP layer can map them to problem details:
//
//	NOT_FOUND   -> 404
//	VALIDATION  -> 400
//	PARSING     -> 422
//	STORAGE     -> 500
//
// Services never write to the processed directory.
package services
