// Package analytics computes the descriptive and correlational statistics
// reported over the final dataset: column summaries, lagged correlations
// between leading and following series, a structural break comparison and a
// simple least squares sensitivity.
//
// All statistics ignore missing and non-finite values. Correlations use the
// months where both series are present.
package analytics
