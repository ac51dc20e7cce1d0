package dataprocessing

import (
	"bytes"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrocli/internal/timeseries"
)

var nan = math.NaN()

func testOptions(t *testing.T) Options {
	t.Helper()
	window, err := timeseries.NewWindow("2016-01-01", "2025-12-31")
	require.NoError(t, err)
	return Options{
		RawDir: t.TempDir(),
		Window: window,
		Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	}
}

func writeRaw(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func month(year int, m time.Month) time.Time {
	return timeseries.Month(year, m)
}

func column(t *testing.T, tbl *timeseries.Table, name string) []float64 {
	t.Helper()
	values, ok := tbl.Column(name)
	require.Truef(t, ok, "column %s missing, have %v", name, tbl.Columns())
	return values
}

func assertValues(t *testing.T, want, got []float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if math.IsNaN(want[i]) {
			assert.Truef(t, math.IsNaN(got[i]), "index %d: want NaN, got %v", i, got[i])
			continue
		}
		assert.InDeltaf(t, want[i], got[i], 1e-9, "index %d", i)
	}
}
