package analytics

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrocli/internal/timeseries"
)

// datasetTable builds 2018-01..2021-12 with synthetic but deterministic series.
func datasetTable(t *testing.T) *timeseries.Table {
	t.Helper()
	tbl := timeseries.NewTable()
	m := timeseries.Month(2018, time.January)
	for i := 0; i < 48; i++ {
		x := float64(i)
		gas := 2 + 0.5*math.Sin(x/3)
		tbl.Set(m, "Gas_Price", gas)
		tbl.Set(m, "Diesel_Price", 3+0.1*x)
		tbl.Set(m, "Oil_Price", 50+x)
		tbl.Set(m, "CPI_Food_YoY", 1+0.05*x)
		tbl.Set(m, "CPI_Total_YoY", 2+0.02*(50+x)+0.1*math.Cos(x))
		tbl.Set(m, "Unemp_Total", 10-0.1*x)
		tbl.Set(m, "Unemp_Men", 4)
		tbl.Set(m, "Unemp_Women", 4+0.01*x)
		tbl.Set(m, "News_Total_Counting", 100-x)
		m = timeseries.NextMonth(m)
	}
	tbl.Set(timeseries.Month(2020, time.April), "Unemp_Women", 4+2.5)
	return tbl
}

func TestAnalyze(t *testing.T) {
	r := Analyze(datasetTable(t))

	assert.Equal(t, 48, r.Rows)
	assert.Equal(t, "2018-01", r.From)
	assert.Equal(t, "2021-12", r.To)

	var names []string
	for _, s := range r.Statistics {
		names = append(names, s.Column)
	}
	assert.Equal(t, []string{
		"Gas_Price", "Diesel_Price", "Oil_Price", "CPI_Total_YoY", "CPI_Food_YoY",
		"Unemp_Total", "Unemp_Men", "Unemp_Women", "News_Total_Counting",
	}, names)

	require.NotNil(t, r.SupplyChain)
	assert.InDelta(t, 1.0, float64(r.SupplyChain.Correlation), 1e-9)
	assert.Len(t, r.SupplyChain.Lags, 3)
	assert.Equal(t, 1, r.SupplyChain.Lags[0].Lag)

	require.NotNil(t, r.LaborTradeoff)
	assert.True(t, r.LaborTradeoff.Tradeoff)

	require.NotNil(t, r.GenderGap)
	assert.Equal(t, "2020-04", r.GenderGap.MaxMonth)
	assert.InDelta(t, 2.5, float64(r.GenderGap.Max), 1e-9)
	require.NotNil(t, r.GenderGap.Peak)
	assert.InDelta(t, 2.5, float64(*r.GenderGap.Peak), 1e-9)

	require.NotNil(t, r.StructuralChange)
	assert.True(t, r.StructuralChange.Before.Valid())
	assert.True(t, r.StructuralChange.After.Valid())

	require.NotNil(t, r.Sensitivity)
	assert.Equal(t, 48, r.Sensitivity.N)
	assert.InDelta(t, 0.02, float64(r.Sensitivity.Slope), 0.01)

	require.Len(t, r.CausalChain, 3)
	for _, link := range r.CausalChain {
		assert.Len(t, link.Lags, 7)
		assert.NotNil(t, link.Strongest)
	}
	assert.Empty(t, r.Notes)
}

func TestAnalyze_MissingColumns(t *testing.T) {
	tbl := timeseries.NewTable()
	tbl.Set(timeseries.Month(2016, time.January), "Unrelated", 1)

	r := Analyze(tbl)
	assert.Empty(t, r.Statistics)
	assert.Nil(t, r.SupplyChain)
	assert.Nil(t, r.LaborTradeoff)
	assert.Nil(t, r.GenderGap)
	assert.Nil(t, r.StructuralChange)
	assert.Nil(t, r.Sensitivity)
	assert.Empty(t, r.CausalChain)
	assert.Len(t, r.Notes, 9)
}

func TestAnalyze_ShortSensitivity(t *testing.T) {
	tbl := timeseries.NewTable()
	m := timeseries.Month(2019, time.June)
	for i := 0; i < 10; i++ {
		tbl.Set(m, "Oil_Price", float64(50+i))
		tbl.Set(m, "CPI_Total_YoY", float64(i))
		m = timeseries.NextMonth(m)
	}
	r := Analyze(tbl)
	assert.Nil(t, r.Sensitivity)
	assert.Contains(t, r.Notes, "sensitivity: insufficient data: 10 pairs, need more than 10")
}

func TestRender(t *testing.T) {
	r := Analyze(datasetTable(t))

	var text bytes.Buffer
	RenderText(&text, r)
	out := text.String()
	assert.Contains(t, out, "Descriptive Statistics")
	assert.Contains(t, out, "Gas_Price")
	assert.Contains(t, out, "Causal Chain")
	assert.Contains(t, out, "Labor -> News")

	var js bytes.Buffer
	require.NoError(t, RenderJSON(&js, r))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, float64(48), decoded["rows"])
	assert.Contains(t, decoded, "causal_chain")

	sheet := SummarySheet(r)
	assert.Equal(t, "Summary", sheet.Name)
	assert.Len(t, sheet.Rows, len(r.Statistics))
}
