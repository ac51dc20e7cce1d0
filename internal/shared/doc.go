// Package shared holds helpers used by the tests of several packages.
//
// The testutil subpackage captures slog output so tests can assert on the
// structured events a component emits:
//
//	logger, logs := testutil.NewTestLogger(t)
//	svc := services.NewDatasetService(paths, logger)
//	...
//	testutil.AssertLogContains(t, logs, slog.LevelWarn, "dataset_unreadable")
//
// Nothing in this package may be imported by non-test code.
package shared
